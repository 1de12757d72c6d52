package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tradercopilot/internal/market"
	"tradercopilot/internal/models"
	"tradercopilot/internal/repository"
)

type fakeStore struct {
	pending []models.Signal
	updates map[uint64]string
	prices  map[uint64]*float64
}

func newFakeStore(pending ...models.Signal) *fakeStore {
	return &fakeStore{
		pending: pending,
		updates: map[uint64]string{},
		prices:  map[uint64]*float64{},
	}
}

func (s *fakeStore) ListPendingSignals(context.Context, repository.ListPendingSignalsParams) ([]models.Signal, error) {
	return s.pending, nil
}

func (s *fakeStore) UpdateSignalOutcome(_ context.Context, id uint64, outcome string, outcomePrice *float64, _ time.Time) error {
	s.updates[id] = outcome
	s.prices[id] = outcomePrice
	return nil
}

type fakeCandles struct {
	candles []market.Candle
	err     error
}

func (f *fakeCandles) GetCandles(context.Context, string, string, int) ([]market.Candle, error) {
	return f.candles, f.err
}

func candleAt(openTime time.Time, low, high, closePrice float64) market.Candle {
	return market.Candle{
		OpenTime: openTime,
		Open:     decimal.NewFromFloat(closePrice),
		High:     decimal.NewFromFloat(high),
		Low:      decimal.NewFromFloat(low),
		Close:    decimal.NewFromFloat(closePrice),
		Volume:   decimal.NewFromInt(1000),
	}
}

func pendingSignal(id uint64, direction string, age time.Duration) models.Signal {
	return models.Signal{
		ID:         id,
		Token:      "BTC",
		Timeframe:  "1h",
		Direction:  direction,
		Entry:      decimal.NewFromInt(100),
		TakeProfit: decimal.NewFromInt(110),
		StopLoss:   decimal.NewFromInt(95),
		Timestamp:  time.Now().UTC().Add(-age),
	}
}

func TestEvaluateLongWin(t *testing.T) {
	sig := pendingSignal(1, "long", 3*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		candleAt(sig.Timestamp.Add(time.Hour), 99, 105, 104),
		candleAt(sig.Timestamp.Add(2*time.Hour), 103, 111, 109),
	}}, nil)

	store := e.Repo.(*fakeStore)
	count, err := e.EvaluatePending(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("EvaluatePending = (%d, %v), want (1, nil)", count, err)
	}
	if store.updates[1] != models.OutcomeWin {
		t.Fatalf("outcome = %q, want win", store.updates[1])
	}
	if store.prices[1] == nil || *store.prices[1] != 110 {
		t.Fatalf("outcome price = %v, want take-profit 110", store.prices[1])
	}
}

func TestEvaluateLongLossBeforeTarget(t *testing.T) {
	sig := pendingSignal(2, "long", 3*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		candleAt(sig.Timestamp.Add(time.Hour), 94, 102, 96),
		candleAt(sig.Timestamp.Add(2*time.Hour), 96, 112, 111),
	}}, nil)

	store := e.Repo.(*fakeStore)
	if _, err := e.EvaluatePending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.updates[2] != models.OutcomeLoss {
		t.Fatalf("outcome = %q, want loss (stop hit first)", store.updates[2])
	}
}

func TestEvaluateShortWin(t *testing.T) {
	sig := pendingSignal(3, "short", 3*time.Hour)
	sig.TakeProfit = decimal.NewFromInt(90)
	sig.StopLoss = decimal.NewFromInt(105)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		candleAt(sig.Timestamp.Add(time.Hour), 89, 101, 92),
	}}, nil)

	store := e.Repo.(*fakeStore)
	if _, err := e.EvaluatePending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.updates[3] != models.OutcomeWin {
		t.Fatalf("outcome = %q, want win", store.updates[3])
	}
}

func TestEvaluateExpired(t *testing.T) {
	sig := pendingSignal(4, "long", 10*24*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		candleAt(sig.Timestamp.Add(time.Hour), 99, 103, 101),
	}}, nil)
	e.MaxAge = 7 * 24 * time.Hour

	store := e.Repo.(*fakeStore)
	if _, err := e.EvaluatePending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.updates[4] != models.OutcomeExpired {
		t.Fatalf("outcome = %q, want expired", store.updates[4])
	}
	if store.prices[4] == nil || *store.prices[4] != 101 {
		t.Fatalf("expired price = %v, want last close 101", store.prices[4])
	}
}

func TestEvaluateStaysPendingWhenNoLegTouched(t *testing.T) {
	sig := pendingSignal(5, "long", 3*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		candleAt(sig.Timestamp.Add(time.Hour), 99, 104, 102),
	}}, nil)

	store := e.Repo.(*fakeStore)
	count, err := e.EvaluatePending(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("EvaluatePending = (%d, %v), want (0, nil)", count, err)
	}
	if len(store.updates) != 0 {
		t.Fatalf("unexpected outcome updates: %v", store.updates)
	}
}

func TestEvaluateIgnoresCandlesBeforeEntry(t *testing.T) {
	sig := pendingSignal(6, "long", 3*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{candles: []market.Candle{
		// Stop-level print from before the entry must not count.
		candleAt(sig.Timestamp.Add(-time.Hour), 90, 101, 100),
		candleAt(sig.Timestamp.Add(time.Hour), 99, 104, 102),
	}}, nil)

	store := e.Repo.(*fakeStore)
	if _, err := e.EvaluatePending(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.updates) != 0 {
		t.Fatalf("pre-entry candle decided the outcome: %v", store.updates)
	}
}

func TestEvaluateFetchFailureSkipsSignal(t *testing.T) {
	sig := pendingSignal(7, "long", 3*time.Hour)
	e := New(newFakeStore(sig), &fakeCandles{err: context.DeadlineExceeded}, nil)

	count, err := e.EvaluatePending(context.Background())
	if err != nil || count != 0 {
		t.Fatalf("EvaluatePending = (%d, %v), want skip with no error", count, err)
	}
}
