package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradercopilot/internal/models"
	"tradercopilot/internal/pipeline"
	"tradercopilot/internal/repository"
	"tradercopilot/internal/strategy"
)

// ModeScheduler tags signals produced by the background tick loop, as
// opposed to ad hoc or user-triggered runs.
const ModeScheduler = "SCHEDULER"

type PersonaSource interface {
	ListEnabledPersonas(ctx context.Context) ([]repository.PersonaTarget, error)
}

type Notifier interface {
	NotifySignal(ctx context.Context, sig *models.Signal, chatID *int64) error
}

type PendingEvaluator interface {
	EvaluatePending(ctx context.Context) (int, error)
}

// Scheduler drives the periodic scan: acquire the cluster lock, evaluate
// every enabled persona through the worker pool, run each candidate through
// the in-memory guards, persist survivors exactly once and notify on the
// genuinely new ones.
type Scheduler struct {
	Personas  PersonaSource
	Registry  *strategy.Registry
	Exec      *Executor
	Guards    *pipeline.Guards
	Throttle  *pipeline.Throttler
	Gateway   *pipeline.Gateway
	Notify    Notifier
	Evaluator PendingEvaluator
	Lock      *LockManager
	Logger    *zap.Logger

	TickInterval time.Duration
	LockRetry    time.Duration
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil || s.Personas == nil || s.Registry == nil || s.Gateway == nil {
		return nil
	}
	// Optional collaborators default to their zero-config forms so a
	// partially wired scheduler degrades instead of panicking every tick.
	if s.Exec == nil {
		s.Exec = NewExecutor(s.Logger, 0, 0)
	}
	if s.Guards == nil {
		s.Guards = pipeline.NewGuards(0, 0, 0)
	}
	if s.Throttle == nil {
		s.Throttle = pipeline.NewThrottler(0)
	}
	interval := s.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}
	retry := s.LockRetry
	if retry <= 0 {
		retry = 10 * time.Second
	}

	for {
		if s.Lock != nil {
			ok, err := s.Lock.Acquire(ctx)
			if err != nil {
				if s.Logger != nil {
					s.Logger.Warn("scheduler lock check failed", zap.Error(err))
				}
				if !sleepCtx(ctx, retry) {
					return ctx.Err()
				}
				continue
			}
			if !ok {
				if !sleepCtx(ctx, retry) {
					return ctx.Err()
				}
				continue
			}
		}

		s.safeTick(ctx)

		if !sleepCtx(ctx, interval) {
			if s.Lock != nil {
				// Fresh context: ctx is already cancelled at this point.
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				s.Lock.Release(releaseCtx)
				cancel()
			}
			return ctx.Err()
		}
	}
}

// safeTick contains a tick's panic so one bad pass never kills the loop.
func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && s.Logger != nil {
			s.Logger.Error("scheduler tick panic", zap.Any("panic", r))
		}
	}()
	s.tick(ctx)
}

func (s *Scheduler) tick(ctx context.Context) {
	started := time.Now().UTC()

	personas, err := s.Personas.ListEnabledPersonas(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("load personas failed", zap.Error(err))
		}
		return
	}
	if len(personas) == 0 {
		return
	}

	results := s.Exec.Run(ctx, personas, s.evaluatePersona)

	var admitted, persisted, duplicates, notified int
	for _, res := range results {
		if res.Err != nil {
			if s.Logger != nil {
				s.Logger.Warn("persona evaluation failed",
					zap.String("persona", res.Persona.PersonaID),
					zap.Error(res.Err),
				)
			}
			continue
		}
		for _, cand := range res.Candidates {
			now := time.Now().UTC()
			ok, reason := s.Guards.Admit(res.Persona.PersonaID, cand, now)
			if !ok {
				if s.Logger != nil {
					s.Logger.Debug("candidate dropped",
						zap.String("persona", res.Persona.PersonaID),
						zap.String("token", cand.Token),
						zap.String("reason", reason),
					)
				}
				continue
			}
			admitted++

			outcome, sig := s.Gateway.Persist(ctx, cand)
			switch outcome {
			case pipeline.ResultNew:
				persisted++
				if s.notifyNew(ctx, res.Persona, sig, now) {
					notified++
				}
			case pipeline.ResultDuplicate:
				duplicates++
			}
		}
	}

	s.Guards.Prune(time.Now().UTC())
	s.Throttle.Prune(time.Now().UTC())

	if s.Evaluator != nil {
		if count, err := s.Evaluator.EvaluatePending(ctx); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("pending evaluation failed", zap.Error(err))
			}
		} else if count > 0 && s.Logger != nil {
			s.Logger.Info("pending signals evaluated", zap.Int("count", count))
		}
	}

	if s.Logger != nil {
		s.Logger.Info("scheduler tick finished",
			zap.Int("personas", len(personas)),
			zap.Int("admitted", admitted),
			zap.Int("persisted", persisted),
			zap.Int("duplicates", duplicates),
			zap.Int("notified", notified),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
}

// notifyNew pushes a NEW signal to the persona's owner, subject to the
// cooldown throttle. Duplicates never reach this path.
func (s *Scheduler) notifyNew(ctx context.Context, p repository.PersonaTarget, sig *models.Signal, now time.Time) bool {
	if s.Notify == nil || sig == nil {
		return false
	}
	if s.Throttle != nil && !s.Throttle.ShouldNotify(p.PersonaID, sig.Token, sig.Direction, now) {
		return false
	}
	if err := s.Notify.NotifySignal(ctx, sig, p.TelegramChatID); err != nil {
		if s.Logger != nil {
			s.Logger.Warn("signal notification failed",
				zap.String("persona", p.PersonaID),
				zap.Error(err),
			)
		}
		return false
	}
	return true
}

func (s *Scheduler) evaluatePersona(ctx context.Context, p repository.PersonaTarget) ([]strategy.Candidate, error) {
	strat := s.Registry.Get(p.StrategyID)
	if strat == nil {
		return nil, fmt.Errorf("unknown strategy %q", p.StrategyID)
	}

	tokens := ResolveTokens(p.Tokens, p.Plan)
	timeframe := ResolveTimeframe(p.Timeframes)

	cands, err := strat.GenerateSignals(ctx, tokens, timeframe)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range cands {
		cands[i].StrategyID = p.PersonaID
		cands[i].Source = "Marketplace:" + p.PersonaID
		cands[i].Mode = ModeScheduler
		cands[i].UserID = p.UserID
		cands[i].Saved = true
		if cands[i].Timestamp.IsZero() {
			cands[i].Timestamp = now
		}
	}
	return cands, nil
}

// sleepCtx waits d or until ctx is done. Returns false when cancelled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
