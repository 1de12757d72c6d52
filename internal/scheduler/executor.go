package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradercopilot/internal/repository"
	"tradercopilot/internal/strategy"
)

// PersonaResult carries one persona's evaluation outcome back to the tick.
type PersonaResult struct {
	Persona    repository.PersonaTarget
	Candidates []strategy.Candidate
	Err        error
}

// Executor fans persona evaluations out over a bounded worker pool. A slow
// or panicking persona costs one worker slot for one timeout, never the tick.
type Executor struct {
	Logger *zap.Logger

	Workers int
	Timeout time.Duration
}

func NewExecutor(logger *zap.Logger, workers int, timeout time.Duration) *Executor {
	if workers <= 0 {
		workers = 5
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Executor{Logger: logger, Workers: workers, Timeout: timeout}
}

// Run evaluates every persona through eval and collects the per-persona
// results. Order of results is not defined. Run returns once all personas
// finished or the context is cancelled.
func (e *Executor) Run(
	ctx context.Context,
	personas []repository.PersonaTarget,
	eval func(ctx context.Context, p repository.PersonaTarget) ([]strategy.Candidate, error),
) []PersonaResult {
	if e == nil || eval == nil || len(personas) == 0 {
		return nil
	}

	sem := make(chan struct{}, e.Workers)
	out := make(chan PersonaResult, len(personas))
	var wg sync.WaitGroup

	for _, p := range personas {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				out <- PersonaResult{Persona: p, Err: ctx.Err()}
				return
			}
			out <- e.runOne(ctx, p, eval)
		}()
	}
	wg.Wait()
	close(out)

	results := make([]PersonaResult, 0, len(personas))
	for res := range out {
		results = append(results, res)
	}
	return results
}

func (e *Executor) runOne(
	ctx context.Context,
	p repository.PersonaTarget,
	eval func(ctx context.Context, p repository.PersonaTarget) ([]strategy.Candidate, error),
) (res PersonaResult) {
	res.Persona = p
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("persona %s panicked: %v", p.PersonaID, r)
			if e.Logger != nil {
				e.Logger.Error("persona evaluation panic",
					zap.String("persona", p.PersonaID),
					zap.Any("panic", r),
				)
			}
		}
	}()

	evalCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	res.Candidates, res.Err = eval(evalCtx, p)
	return res
}
