package enrich

import (
	"context"
	"sync"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
)

// DefaultWorkers bounds the concurrent short-interest fetches when the
// strategy file does not say otherwise.
const DefaultWorkers = 5

// Enricher fans short-interest lookups out over a bounded worker pool.
// One failed ticker never blocks the rest of the batch; the miss is
// recorded and fusion runs with whatever snapshots arrived.
type Enricher struct {
	provider contracts.ShortInterestProvider
	workers  int
	logger   *logger.Logger
}

// Result reports the outcome of one batch.
type Result struct {
	Snapshots map[string]*contracts.ShortInterestSnapshot
	Failed    map[string]error
}

// New creates an Enricher. workers <= 0 falls back to DefaultWorkers.
func New(provider contracts.ShortInterestProvider, workers int, log *logger.Logger) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Enricher{
		provider: provider,
		workers:  workers,
		logger:   log.WithField("module", "enrich"),
	}
}

type fetchOutcome struct {
	ticker   string
	snapshot *contracts.ShortInterestSnapshot
	err      error
}

// Enrich fetches a snapshot for every ticker. Duplicate tickers are
// fetched once.
func (e *Enricher) Enrich(ctx context.Context, tickers []string) (*Result, error) {
	unique := dedupe(tickers)

	result := &Result{
		Snapshots: make(map[string]*contracts.ShortInterestSnapshot, len(unique)),
		Failed:    make(map[string]error),
	}
	if len(unique) == 0 {
		return result, nil
	}

	e.logger.WithFields(map[string]interface{}{
		"tickers": len(unique),
		"workers": e.workers,
	}).Info("Starting short-interest enrichment")

	tickerCh := make(chan string, len(unique))
	outcomeCh := make(chan fetchOutcome, len(unique))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, workerID, tickerCh, outcomeCh)
		}(i)
	}

	for _, ticker := range unique {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	for outcome := range outcomeCh {
		if outcome.err != nil {
			result.Failed[outcome.ticker] = outcome.err
			continue
		}
		if outcome.snapshot != nil {
			result.Snapshots[outcome.ticker] = outcome.snapshot
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"fetched": len(result.Snapshots),
		"failed":  len(result.Failed),
	}).Info("Short-interest enrichment completed")

	return result, nil
}

func (e *Enricher) worker(ctx context.Context, workerID int, tickerCh <-chan string, outcomeCh chan<- fetchOutcome) {
	for ticker := range tickerCh {
		select {
		case <-ctx.Done():
			outcomeCh <- fetchOutcome{ticker: ticker, err: ctx.Err()}
			return
		default:
		}

		snapshot, err := e.provider.Fetch(ctx, ticker)
		if err != nil {
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"worker": workerID,
				"ticker": ticker,
			}).Warn("Short-interest fetch failed")
			outcomeCh <- fetchOutcome{ticker: ticker, err: err}
			continue
		}
		outcomeCh <- fetchOutcome{ticker: ticker, snapshot: snapshot}
	}
}

func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
