package pipeline

import (
	"time"

	"tradercopilot/internal/strategy"
)

// Guard drop reasons, used for logging only.
const (
	DropStale       = "stale"
	DropReprocessed = "reprocessed"
	DropSameSide    = "same_side"
	DropIncoherent  = "incoherent"
)

type coherenceState struct {
	direction string
	ts        time.Time
}

// Guards applies the in-memory deduplication chain and the token-level
// trend-coherence guard to candidates before they reach the persistence
// gateway. State is process-local and rebuilt over time after a restart; the
// storage unique constraint is the authoritative backstop.
//
// Guards is owned by the scheduler's single control goroutine and is not safe
// for concurrent use.
type Guards struct {
	StaleAfter      time.Duration
	RepeatWindow    time.Duration
	CoherenceWindow time.Duration

	lastProcessed map[string]time.Time
	lastDirection map[string]string
	coherence     map[string]coherenceState
}

func NewGuards(staleAfter, repeatWindow, coherenceWindow time.Duration) *Guards {
	if staleAfter <= 0 {
		staleAfter = 6 * time.Hour
	}
	if repeatWindow <= 0 {
		repeatWindow = 60 * time.Second
	}
	if coherenceWindow <= 0 {
		coherenceWindow = 30 * time.Minute
	}
	return &Guards{
		StaleAfter:      staleAfter,
		RepeatWindow:    repeatWindow,
		CoherenceWindow: coherenceWindow,
		lastProcessed:   map[string]time.Time{},
		lastDirection:   map[string]string{},
		coherence:       map[string]coherenceState{},
	}
}

// Admit runs the guard chain for one candidate. It returns false and a drop
// reason when the candidate should not reach persistence. State is recorded
// only for admitted candidates.
func (g *Guards) Admit(personaID string, cand strategy.Candidate, now time.Time) (bool, string) {
	pairKey := personaID + "_" + cand.Token

	// 1. Freshness: a strategy re-scanning history must not backfill the
	// live feed.
	if now.Sub(cand.Timestamp) > g.StaleAfter {
		return false, DropStale
	}

	// 2. Monotonic timestamp per (persona, token): overlapping scan windows
	// re-emit old candles.
	if last, ok := g.lastProcessed[pairKey]; ok && !cand.Timestamp.After(last) {
		return false, DropReprocessed
	}

	// 3. Same-direction repeat inside a short window. Declutter, not
	// correctness.
	if lastDir, ok := g.lastDirection[pairKey]; ok && lastDir == cand.Direction {
		if last, ok := g.lastProcessed[pairKey]; ok && cand.Timestamp.Sub(last) < g.RepeatWindow {
			return false, DropSameSide
		}
	}

	// 4. Coherence guard, global per token: a direction flip inside the
	// cooldown is chop, not a reversal. Two personas must not ping-pong the
	// same asset.
	if state, ok := g.coherence[cand.Token]; ok {
		if state.direction != cand.Direction && now.Sub(state.ts) < g.CoherenceWindow {
			return false, DropIncoherent
		}
	}

	g.coherence[cand.Token] = coherenceState{direction: cand.Direction, ts: now}
	g.lastProcessed[pairKey] = cand.Timestamp
	g.lastDirection[pairKey] = cand.Direction
	return true, ""
}

// Prune drops guard state old enough to be irrelevant, keeping the maps from
// growing without bound over long runtimes.
func (g *Guards) Prune(now time.Time) {
	horizon := g.StaleAfter
	if g.CoherenceWindow > horizon {
		horizon = g.CoherenceWindow
	}
	for key, ts := range g.lastProcessed {
		if now.Sub(ts) > horizon {
			delete(g.lastProcessed, key)
			delete(g.lastDirection, key)
		}
	}
	for token, state := range g.coherence {
		if now.Sub(state.ts) > horizon {
			delete(g.coherence, token)
		}
	}
}
