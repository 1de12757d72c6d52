package evaluator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradercopilot/internal/candle"
	"tradercopilot/internal/models"
	"tradercopilot/internal/repository"
	"tradercopilot/internal/strategy"
)

// SignalStore is the slice of the repository the evaluator needs.
type SignalStore interface {
	ListPendingSignals(ctx context.Context, params repository.ListPendingSignalsParams) ([]models.Signal, error)
	UpdateSignalOutcome(ctx context.Context, id uint64, outcome string, outcomePrice *float64, evaluatedAt time.Time) error
}

// Evaluator closes out pending signals by replaying the candles printed
// since entry: whichever bracket leg the market touched first decides the
// outcome, and signals that outlive MaxAge without touching either leg are
// closed as expired.
type Evaluator struct {
	Repo   SignalStore
	Market strategy.CandleSource
	Logger *zap.Logger

	MinAge    time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func New(repo SignalStore, market strategy.CandleSource, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		Repo:      repo,
		Market:    market,
		Logger:    logger,
		MinAge:    5 * time.Minute,
		MaxAge:    7 * 24 * time.Hour,
		BatchSize: 200,
	}
}

// EvaluatePending resolves one batch of pending signals and returns how many
// it closed. Per-signal failures are logged and skipped so one bad token
// never stalls the batch.
func (e *Evaluator) EvaluatePending(ctx context.Context) (int, error) {
	if e == nil || e.Repo == nil || e.Market == nil {
		return 0, nil
	}

	pending, err := e.Repo.ListPendingSignals(ctx, repository.ListPendingSignalsParams{
		MinAge: e.MinAge,
		Limit:  e.BatchSize,
	})
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	var closed int
	for i := range pending {
		sig := &pending[i]
		outcome, price, ok := e.resolve(ctx, sig, now)
		if !ok {
			continue
		}
		if err := e.Repo.UpdateSignalOutcome(ctx, sig.ID, outcome, price, now); err != nil {
			if e.Logger != nil {
				e.Logger.Warn("signal outcome update failed",
					zap.Uint64("signal_id", sig.ID),
					zap.Error(err),
				)
			}
			continue
		}
		closed++
	}
	return closed, nil
}

func (e *Evaluator) resolve(ctx context.Context, sig *models.Signal, now time.Time) (string, *float64, bool) {
	candles, err := e.Market.GetCandles(ctx, sig.Token, sig.Timeframe, e.candleLimit(sig, now))
	if err != nil {
		if e.Logger != nil {
			e.Logger.Debug("candle fetch failed during evaluation",
				zap.String("token", sig.Token),
				zap.Error(err),
			)
		}
		return "", nil, false
	}

	expired := e.MaxAge > 0 && now.Sub(sig.Timestamp) > e.MaxAge
	var lastClose *float64
	for i := range candles {
		c := &candles[i]
		// Only candles printed after entry count.
		if !c.OpenTime.After(sig.Timestamp) {
			continue
		}
		px, _ := c.Close.Float64()
		lastClose = &px

		switch sig.Direction {
		case "long":
			// Conservative ordering: a candle that spans both legs is
			// scored as a loss, since the stop may have filled first.
			if c.Low.LessThanOrEqual(sig.StopLoss) {
				price, _ := sig.StopLoss.Float64()
				return models.OutcomeLoss, &price, true
			}
			if c.High.GreaterThanOrEqual(sig.TakeProfit) {
				price, _ := sig.TakeProfit.Float64()
				return models.OutcomeWin, &price, true
			}
		case "short":
			if c.High.GreaterThanOrEqual(sig.StopLoss) {
				price, _ := sig.StopLoss.Float64()
				return models.OutcomeLoss, &price, true
			}
			if c.Low.LessThanOrEqual(sig.TakeProfit) {
				price, _ := sig.TakeProfit.Float64()
				return models.OutcomeWin, &price, true
			}
		}
	}

	if expired {
		return models.OutcomeExpired, lastClose, true
	}
	return "", nil, false
}

// candleLimit sizes the fetch to cover the signal's full open window.
func (e *Evaluator) candleLimit(sig *models.Signal, now time.Time) int {
	step, ok := candle.ParseTimeframe(sig.Timeframe)
	if !ok || step <= 0 {
		return 500
	}
	need := int(now.Sub(sig.Timestamp)/step) + 2
	if need < 10 {
		need = 10
	}
	if need > 1000 {
		need = 1000
	}
	return need
}
