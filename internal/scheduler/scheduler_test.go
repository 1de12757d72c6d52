package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tradercopilot/internal/models"
	"tradercopilot/internal/pipeline"
	"tradercopilot/internal/repository"
	"tradercopilot/internal/strategy"
)

type staticPersonas struct {
	items []repository.PersonaTarget
}

func (s *staticPersonas) ListEnabledPersonas(context.Context) ([]repository.PersonaTarget, error) {
	return s.items, nil
}

// fixedStrategy emits one long candidate per token at a fixed timestamp.
type fixedStrategy struct {
	name string
	at   time.Time
}

func (f *fixedStrategy) Name() string { return f.name }

func (f *fixedStrategy) GenerateSignals(_ context.Context, tokens []string, timeframe string) ([]strategy.Candidate, error) {
	out := make([]strategy.Candidate, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, strategy.Candidate{
			Token:      token,
			Timeframe:  timeframe,
			Direction:  strategy.DirectionLong,
			Entry:      decimal.NewFromInt(100),
			TakeProfit: decimal.NewFromInt(110),
			StopLoss:   decimal.NewFromInt(95),
			Confidence: 0.7,
			Rationale:  "test setup",
			Timestamp:  f.at,
		})
	}
	return out, nil
}

type signalMemStore struct {
	mu   sync.Mutex
	rows map[string]models.Signal
}

func (s *signalMemStore) InsertSignal(_ context.Context, item *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows == nil {
		s.rows = map[string]models.Signal{}
	}
	if _, exists := s.rows[item.IdempotencyKey]; exists {
		return gorm.ErrDuplicatedKey
	}
	s.rows[item.IdempotencyKey] = *item
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) NotifySignal(_ context.Context, sig *models.Signal, _ *int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, sig.IdempotencyKey)
	return nil
}

type countingEvaluator struct {
	runs int
}

func (e *countingEvaluator) EvaluatePending(context.Context) (int, error) {
	e.runs++
	return 0, nil
}

func newTickScheduler(store *signalMemStore, notifier *recordingNotifier, eval *countingEvaluator, strat strategy.Strategy) (*Scheduler, *staticPersonas) {
	registry := strategy.NewRegistry()
	registry.Register(strat)

	personas := &staticPersonas{items: []repository.PersonaTarget{
		{Persona: models.Persona{
			PersonaID:  "trend_king",
			StrategyID: strat.Name(),
			Tokens:     datatypes.JSON([]byte(`["BTC"]`)),
			Timeframes: datatypes.JSON([]byte(`["1h"]`)),
			Enabled:    true,
		}},
	}}

	s := &Scheduler{
		Personas:  personas,
		Registry:  registry,
		Exec:      NewExecutor(nil, 5, time.Second),
		Guards:    pipeline.NewGuards(6*time.Hour, time.Minute, 30*time.Minute),
		Throttle:  pipeline.NewThrottler(45 * time.Minute),
		Gateway:   &pipeline.Gateway{Store: store},
		Notify:    notifier,
		Evaluator: eval,
	}
	return s, personas
}

func TestTickPersistsAndNotifies(t *testing.T) {
	store := &signalMemStore{}
	notifier := &recordingNotifier{}
	eval := &countingEvaluator{}
	s, _ := newTickScheduler(store, notifier, eval, &fixedStrategy{name: "fixed", at: time.Now().UTC()})

	s.tick(context.Background())

	if len(store.rows) != 1 {
		t.Fatalf("stored %d signals, want 1", len(store.rows))
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.calls))
	}
	if eval.runs != 1 {
		t.Fatalf("pending evaluation ran %d times, want 1", eval.runs)
	}
	for _, row := range store.rows {
		if row.Mode != ModeScheduler {
			t.Fatalf("mode = %q, want %q", row.Mode, ModeScheduler)
		}
		if row.Source != "Marketplace:trend_king" {
			t.Fatalf("source = %q", row.Source)
		}
		if !row.Saved {
			t.Fatalf("scheduler signals must be marked saved")
		}
	}
}

func TestTickGuardsSuppressImmediateRepeat(t *testing.T) {
	store := &signalMemStore{}
	notifier := &recordingNotifier{}
	s, _ := newTickScheduler(store, notifier, &countingEvaluator{}, &fixedStrategy{name: "fixed", at: time.Now().UTC()})

	s.tick(context.Background())
	// Same candidate again within the repeat window: the in-memory guard
	// drops it before storage, so nothing new is written or pushed.
	s.tick(context.Background())

	if len(store.rows) != 1 {
		t.Fatalf("stored %d signals after repeat tick, want 1", len(store.rows))
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("sent %d notifications after repeat tick, want 1", len(notifier.calls))
	}
}

func TestTickDuplicateDoesNotNotify(t *testing.T) {
	store := &signalMemStore{}
	notifier := &recordingNotifier{}
	at := time.Now().UTC()
	s, _ := newTickScheduler(store, notifier, &countingEvaluator{}, &fixedStrategy{name: "fixed", at: at})

	s.tick(context.Background())

	// Drop the guard state so the second pass reaches storage, where the
	// idempotency key makes it a duplicate.
	s.Guards = pipeline.NewGuards(6*time.Hour, time.Minute, 30*time.Minute)
	s.Throttle = pipeline.NewThrottler(45 * time.Minute)
	s.tick(context.Background())

	if len(store.rows) != 1 {
		t.Fatalf("stored %d signals, want 1", len(store.rows))
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("duplicate produced a notification; calls = %d", len(notifier.calls))
	}
}

func TestTickUnknownStrategySkipsPersona(t *testing.T) {
	store := &signalMemStore{}
	s, personas := newTickScheduler(store, &recordingNotifier{}, &countingEvaluator{}, &fixedStrategy{name: "fixed", at: time.Now().UTC()})
	personas.items[0].StrategyID = "missing"

	s.tick(context.Background())

	if len(store.rows) != 0 {
		t.Fatalf("stored %d signals for unknown strategy, want 0", len(store.rows))
	}
}

func TestRunDefaultsOptionalCollaborators(t *testing.T) {
	registry := strategy.NewRegistry()
	strat := &fixedStrategy{name: "fixed", at: time.Now().UTC()}
	registry.Register(strat)

	store := &signalMemStore{}
	s := &Scheduler{
		Personas: &staticPersonas{items: []repository.PersonaTarget{
			{Persona: models.Persona{PersonaID: "solo", StrategyID: "fixed", Enabled: true}},
		}},
		Registry: registry,
		Gateway:  &pipeline.Gateway{Store: store},

		TickInterval: 10 * time.Millisecond,
		LockRetry:    10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.rows) == 0 {
		t.Fatalf("no signals persisted; ticks did not run with defaulted collaborators")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &signalMemStore{}
	s, _ := newTickScheduler(store, &recordingNotifier{}, &countingEvaluator{}, &fixedStrategy{name: "fixed", at: time.Now().UTC()})
	s.TickInterval = 10 * time.Millisecond
	s.LockRetry = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
