package pipeline

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tradercopilot/internal/candle"
	"tradercopilot/internal/models"
	"tradercopilot/internal/strategy"
)

// Result classifies one persistence attempt.
type Result int

const (
	ResultNew Result = iota
	ResultDuplicate
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultNew:
		return "new"
	case ResultDuplicate:
		return "duplicate"
	default:
		return "error"
	}
}

// SignalStore is the slice of the repository the gateway needs.
type SignalStore interface {
	InsertSignal(ctx context.Context, item *models.Signal) error
}

// MirrorSink receives a best-effort append-only copy of each NEW signal.
type MirrorSink interface {
	Append(sig *models.Signal) error
}

// Pusher delivers a best-effort push alert for each NEW signal.
type Pusher interface {
	Push(ctx context.Context, sig *models.Signal) error
}

// Gateway writes candidates to canonical storage exactly once. It never
// retries an insert: the caller's in-memory guards keep volume low, and the
// storage unique constraint is the backstop that makes concurrent writers
// safe without any application-level lock.
type Gateway struct {
	Store  SignalStore
	Logger *zap.Logger

	Mirror MirrorSink
	Push   Pusher
}

// Persist normalizes the candidate's timestamp onto the candle grid, derives
// its idempotency key and attempts the insert. A unique-constraint violation
// is classified as a duplicate and discarded; any other storage error is
// reported as ResultError without disturbing the caller's control flow. Side
// effects (mirror log, push alert) run only on ResultNew, after the
// classification is final, and their failures are logged and swallowed.
func (g *Gateway) Persist(ctx context.Context, cand strategy.Candidate) (Result, *models.Signal) {
	if g == nil || g.Store == nil {
		return ResultError, nil
	}

	normalized := candle.SnapToGrid(cand.Timestamp, cand.Timeframe)
	key := IdempotencyKey(cand.StrategyID, cand.Token, cand.Timeframe, normalized, cand.Direction, cand.UserID, cand.Mode)

	rec := &models.Signal{
		Timestamp:      normalized,
		Token:          strings.ToUpper(cand.Token),
		Timeframe:      cand.Timeframe,
		Direction:      strings.ToLower(cand.Direction),
		Entry:          cand.Entry,
		TakeProfit:     cand.TakeProfit,
		StopLoss:       cand.StopLoss,
		Confidence:     cand.Confidence,
		Rationale:      cand.Rationale,
		Source:         cand.Source,
		Mode:           cand.Mode,
		StrategyID:     cand.StrategyID,
		IdempotencyKey: key,
		UserID:         cand.UserID,
		Saved:          cand.Saved,
	}

	if err := g.Store.InsertSignal(ctx, rec); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ResultDuplicate, nil
		}
		if g.Logger != nil {
			g.Logger.Warn("signal insert failed",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		}
		return ResultError, nil
	}

	if g.Logger != nil {
		g.Logger.Info("signal persisted",
			zap.String("token", rec.Token),
			zap.String("direction", rec.Direction),
			zap.String("strategy", rec.StrategyID),
			zap.Time("candle", rec.Timestamp),
		)
	}

	if g.Mirror != nil {
		if err := g.Mirror.Append(rec); err != nil && g.Logger != nil {
			g.Logger.Warn("mirror append failed", zap.Error(err))
		}
	}
	if g.Push != nil {
		if err := g.Push.Push(ctx, rec); err != nil && g.Logger != nil {
			g.Logger.Warn("push notification failed", zap.Error(err))
		}
	}

	return ResultNew, rec
}
