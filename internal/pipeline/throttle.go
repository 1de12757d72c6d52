package pipeline

import "time"

// Throttler rate-limits outbound alerts per (persona, token, direction),
// independent of storage deduplication: a signal can be stored as NEW yet
// still be notification-suppressed, and vice versa.
//
// Like Guards, it is owned by the scheduler's control goroutine.
type Throttler struct {
	Cooldown time.Duration

	lastNotified map[string]time.Time
}

func NewThrottler(cooldown time.Duration) *Throttler {
	if cooldown <= 0 {
		cooldown = 45 * time.Minute
	}
	return &Throttler{
		Cooldown:     cooldown,
		lastNotified: map[string]time.Time{},
	}
}

// ShouldNotify reports whether an alert for this key may fire now, and if so
// records now as the last notification time.
func (t *Throttler) ShouldNotify(personaID, token, direction string, now time.Time) bool {
	key := personaID + "|" + token + "|" + direction
	if last, ok := t.lastNotified[key]; ok && now.Sub(last) < t.Cooldown {
		return false
	}
	t.lastNotified[key] = now
	return true
}

func (t *Throttler) Prune(now time.Time) {
	for key, ts := range t.lastNotified {
		if now.Sub(ts) > t.Cooldown {
			delete(t.lastNotified, key)
		}
	}
}
