// Package acquisition gathers daily P/E values across source tiers and
// records them.
package acquisition

import (
	"context"
	"sort"
	"sync"

	"github.com/aristath/petracker/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Orchestrator runs the batch tier and, when it is unusable, walks the
// per-symbol fallback chain for every symbol.
type Orchestrator struct {
	batch   domain.BatchSource
	chain   []domain.SymbolSource
	workers int
	log     zerolog.Logger
}

// NewOrchestrator creates an orchestrator. batch may be nil to go straight
// to the per-symbol chain. chain is tried in order for each symbol.
func NewOrchestrator(batch domain.BatchSource, chain []domain.SymbolSource, workers int, log zerolog.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		batch:   batch,
		chain:   chain,
		workers: workers,
		log:     log.With().Str("component", "orchestrator").Logger(),
	}
}

// Acquire returns one result per symbol that produced a value, each stamped
// with date. Symbols without a value are absent. The error is non-nil only
// when ctx ends the run early; the results gathered until then are returned
// with it.
func (o *Orchestrator) Acquire(ctx context.Context, symbols []string, date string) ([]domain.AcquisitionResult, error) {
	if len(symbols) == 0 {
		o.log.Warn().Str("date", date).Msg("No symbols to acquire")
		return []domain.AcquisitionResult{}, nil
	}

	if results, ok := o.acquireBatch(ctx, symbols, date); ok {
		o.logOutcome(len(symbols), results, date)
		return results, nil
	}
	if err := ctx.Err(); err != nil {
		return []domain.AcquisitionResult{}, err
	}

	results, err := o.acquireEach(ctx, symbols, date)
	o.logOutcome(len(symbols), results, date)
	return results, err
}

// acquireBatch reports ok when the batch tier answered with a valid
// envelope. Its per-symbol verdicts are then final for this run.
func (o *Orchestrator) acquireBatch(ctx context.Context, symbols []string, date string) ([]domain.AcquisitionResult, bool) {
	if o.batch == nil {
		return nil, false
	}

	outcomes, err := o.batch.FetchBatch(ctx, symbols)
	if err != nil {
		o.log.Warn().Err(err).Int("symbols", len(symbols)).Msg("Batch tier unavailable, falling back per symbol")
		return nil, false
	}

	results := make([]domain.AcquisitionResult, 0, len(symbols))
	for _, symbol := range symbols {
		out, found := outcomes[symbol]
		if !found {
			o.log.Debug().Str("symbol", symbol).Msg("Batch response omitted symbol")
			continue
		}
		if !out.OK() {
			o.log.Debug().
				Str("symbol", symbol).
				Str("reason", string(out.Reason())).
				Str("detail", out.Detail()).
				Msg("Batch reported no value")
			continue
		}
		results = append(results, domain.AcquisitionResult{
			Symbol: symbol,
			Value:  out.Value(),
			Date:   date,
			Tier:   domain.TierServiceBatch,
		})
	}
	return results, true
}

// acquireEach fans symbols out to at most o.workers goroutines
func (o *Orchestrator) acquireEach(ctx context.Context, symbols []string, date string) ([]domain.AcquisitionResult, error) {
	type indexed struct {
		pos    int
		result domain.AcquisitionResult
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		found   []indexed
		stopErr error
	)
	g.SetLimit(o.workers)

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			stopErr = err
			break
		}
		i, symbol := i, symbol
		g.Go(func() error {
			res, ok := o.acquireOne(ctx, symbol, date)
			if !ok {
				return nil
			}
			mu.Lock()
			found = append(found, indexed{pos: i, result: res})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if stopErr == nil {
		stopErr = ctx.Err()
	}

	sort.Slice(found, func(a, b int) bool { return found[a].pos < found[b].pos })
	results := make([]domain.AcquisitionResult, 0, len(found))
	for _, f := range found {
		results = append(results, f.result)
	}
	return results, stopErr
}

// acquireOne tries each tier in order until one yields a value
func (o *Orchestrator) acquireOne(ctx context.Context, symbol, date string) (domain.AcquisitionResult, bool) {
	for _, src := range o.chain {
		if ctx.Err() != nil {
			return domain.AcquisitionResult{}, false
		}

		out := src.Fetch(ctx, symbol)
		if out.OK() {
			return domain.AcquisitionResult{
				Symbol: symbol,
				Value:  out.Value(),
				Date:   date,
				Tier:   src.Tier(),
			}, true
		}

		o.log.Debug().
			Str("symbol", symbol).
			Str("tier", string(src.Tier())).
			Str("reason", string(out.Reason())).
			Str("detail", out.Detail()).
			Msg("Tier unavailable")
	}

	if ctx.Err() == nil {
		o.log.Warn().Str("symbol", symbol).Msg("No tier produced a P/E value")
	}
	return domain.AcquisitionResult{}, false
}

func (o *Orchestrator) logOutcome(attempted int, results []domain.AcquisitionResult, date string) {
	if len(results) == 0 {
		o.log.Warn().Str("date", date).Int("attempted", attempted).Msg("Acquisition produced no values")
		return
	}
	o.log.Info().
		Str("date", date).
		Int("attempted", attempted).
		Int("succeeded", len(results)).
		Msg("Acquisition complete")
}
