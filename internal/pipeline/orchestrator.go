package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/enrich"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/internal/trustweight"
	"github.com/mreyes/confluence/pkg/logger"
)

// InsiderSource supplies the latest cluster-buy detections.
// Implemented by the openinsider client.
type InsiderSource interface {
	FetchClusterBuys(ctx context.Context) ([]contracts.InsiderCluster, error)
}

// ActorSource supplies recently disclosed legislator purchases.
// Implemented by the capitoltrades client.
type ActorSource interface {
	FetchRecentPurchases(ctx context.Context, days int) ([]contracts.ActorTrade, error)
}

// InstitutionalSource supplies 13F fund-overlap counts per ticker.
// May be nil; the pipeline then runs without the institutional column.
type InstitutionalSource interface {
	Overlap(ctx context.Context, tickers []string) (map[string]int, error)
}

// Notifier receives each completed run. Implemented by the websocket hub.
type Notifier interface {
	BroadcastRun(result *contracts.TieredResult)
}

// Orchestrator coordinates one full confluence pass:
// collect -> guard -> record -> enrich -> fuse -> persist.
type Orchestrator struct {
	insiders      InsiderSource
	actors        ActorSource
	institutional InstitutionalSource

	guard    contracts.Guard
	trust    *trustweight.Engine
	enricher *enrich.Enricher
	fuser    contracts.Fuser

	signalRepo contracts.SignalRepository
	notifier   Notifier

	cfg    *strategyconfig.Config
	logger *logger.Logger
}

// RunConfig holds per-run options.
type RunConfig struct {
	LookbackDays int  // disclosure window for actor trades
	DryRun       bool // skip persistence and broadcast
}

// RunResult summarizes one pass.
type RunResult struct {
	Result          *contracts.TieredResult
	CompletedStages []string
	TradesRecorded  int
	TickersDropped  int
	Duration        time.Duration
}

// NewOrchestrator creates an orchestrator. institutional and notifier
// may be nil.
func NewOrchestrator(
	insiders InsiderSource,
	actors ActorSource,
	institutional InstitutionalSource,
	guard contracts.Guard,
	trust *trustweight.Engine,
	enricher *enrich.Enricher,
	fuser contracts.Fuser,
	signalRepo contracts.SignalRepository,
	notifier Notifier,
	cfg *strategyconfig.Config,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		insiders:      insiders,
		actors:        actors,
		institutional: institutional,
		guard:         guard,
		trust:         trust,
		enricher:      enricher,
		fuser:         fuser,
		signalRepo:    signalRepo,
		notifier:      notifier,
		cfg:           cfg,
		logger:        log.WithField("module", "pipeline"),
	}
}

// Run executes one complete pass. A failed insider source degrades the
// run; a failed actor source empties the actor column; only internal
// errors abort.
func (o *Orchestrator) Run(ctx context.Context, runCfg RunConfig) (*RunResult, error) {
	startTime := time.Now()
	if runCfg.LookbackDays <= 0 {
		runCfg.LookbackDays = 30
	}

	result := &RunResult{CompletedStages: make([]string, 0, 6)}
	input := contracts.FusionInput{}

	o.logger.WithFields(map[string]interface{}{
		"lookback_days": runCfg.LookbackDays,
		"dry_run":       runCfg.DryRun,
	}).Info("Starting confluence run")

	// Collect: insider clusters
	clusters, err := o.insiders.FetchClusterBuys(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("Insider source failed, run degrades to standalone output")
		input.InsiderFailed = true
		input.InsiderError = err.Error()
	} else {
		input.InsiderClusters, result.TickersDropped = o.guardClusters(ctx, clusters)
	}
	result.CompletedStages = append(result.CompletedStages, "collect:insiders")

	// Collect: actor trades
	trades, err := o.actors.FetchRecentPurchases(ctx, runCfg.LookbackDays)
	if err != nil {
		o.logger.WithError(err).Warn("Actor source failed, continuing without actor clusters")
		trades = nil
	}
	trades = o.guardTrades(ctx, trades)
	result.CompletedStages = append(result.CompletedStages, "collect:actors")

	// Record: freeze trade weights in the history
	recorded, err := o.trust.RecordTrades(ctx, trades)
	if err != nil {
		return result, fmt.Errorf("record trades: %w", err)
	}
	result.TradesRecorded = recorded
	input.ActorClusters = ClusterByTicker(trades)
	result.CompletedStages = append(result.CompletedStages, "record:trades")

	tickers := o.candidateTickers(input)

	// Enrich: institutional overlap
	if o.institutional != nil && o.cfg.Sources.Institutional {
		overlap, err := o.institutional.Overlap(ctx, tickers)
		if err != nil {
			o.logger.WithError(err).Warn("Institutional source failed, continuing without overlap")
		} else {
			input.InstitutionalOverlap = overlap
		}
	}

	// Enrich: short interest
	if o.cfg.Sources.ShortInterest {
		enriched, err := o.enricher.Enrich(ctx, tickers)
		if err != nil {
			return result, fmt.Errorf("short interest enrichment: %w", err)
		}
		input.Squeeze = enriched.Snapshots
	}
	result.CompletedStages = append(result.CompletedStages, "enrich")

	// Fuse
	fused, err := o.fuser.Fuse(ctx, input)
	if err != nil {
		return result, fmt.Errorf("fuse: %w", err)
	}
	result.Result = fused
	result.CompletedStages = append(result.CompletedStages, "fuse")

	// Persist and broadcast
	if !runCfg.DryRun {
		if err := o.signalRepo.SaveRun(ctx, fused); err != nil {
			return result, fmt.Errorf("save run: %w", err)
		}
		if o.notifier != nil {
			o.notifier.BroadcastRun(fused)
		}
		result.CompletedStages = append(result.CompletedStages, "persist")
	} else {
		o.logger.Info("Skipping persistence (dry run mode)")
	}

	result.Duration = time.Since(startTime)
	o.logger.WithFields(map[string]interface{}{
		"duration_ms":     result.Duration.Milliseconds(),
		"trades_recorded": result.TradesRecorded,
		"tickers_dropped": result.TickersDropped,
		"degraded":        fused.Degraded,
	}).Info("Confluence run completed")

	return result, nil
}

// guardClusters normalizes and validates insider cluster tickers,
// dropping the ones the guard rejects.
func (o *Orchestrator) guardClusters(ctx context.Context, clusters []contracts.InsiderCluster) ([]contracts.InsiderCluster, int) {
	kept := make([]contracts.InsiderCluster, 0, len(clusters))
	dropped := 0
	for _, cluster := range clusters {
		ticker := o.guard.Normalize(cluster.Ticker)
		if ok, reason := o.guard.Validate(ctx, ticker); !ok {
			o.logger.WithFields(map[string]interface{}{
				"ticker": cluster.Ticker,
				"reason": reason,
			}).Debug("Dropped insider cluster")
			dropped++
			continue
		}
		cluster.Ticker = ticker
		kept = append(kept, cluster)
	}
	return kept, dropped
}

// guardTrades normalizes and validates actor trade tickers.
func (o *Orchestrator) guardTrades(ctx context.Context, trades []contracts.ActorTrade) []contracts.ActorTrade {
	kept := make([]contracts.ActorTrade, 0, len(trades))
	for _, trade := range trades {
		ticker := o.guard.Normalize(trade.Ticker)
		if ok, reason := o.guard.Validate(ctx, ticker); !ok {
			o.logger.WithFields(map[string]interface{}{
				"ticker": trade.Ticker,
				"reason": reason,
			}).Debug("Dropped actor trade")
			continue
		}
		trade.Ticker = ticker
		kept = append(kept, trade)
	}
	return kept
}

// candidateTickers collects the distinct tickers a pass needs
// enrichment for, insider clusters first.
func (o *Orchestrator) candidateTickers(input contracts.FusionInput) []string {
	seen := make(map[string]struct{})
	tickers := make([]string, 0, len(input.InsiderClusters))
	add := func(ticker string) {
		if ticker == "" {
			return
		}
		if _, ok := seen[ticker]; ok {
			return
		}
		seen[ticker] = struct{}{}
		tickers = append(tickers, ticker)
	}

	for _, cluster := range input.InsiderClusters {
		add(cluster.Ticker)
	}
	for _, cluster := range input.ActorClusters {
		add(cluster.Ticker)
	}
	return tickers
}

// ClusterByTicker groups trades into per-ticker actor clusters,
// ordered by ticker for deterministic output.
func ClusterByTicker(trades []contracts.ActorTrade) []contracts.ActorCluster {
	byTicker := make(map[string][]contracts.ActorTrade)
	for _, trade := range trades {
		if trade.Ticker == "" {
			continue
		}
		byTicker[trade.Ticker] = append(byTicker[trade.Ticker], trade)
	}

	tickers := make([]string, 0, len(byTicker))
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	clusters := make([]contracts.ActorCluster, 0, len(tickers))
	for _, ticker := range tickers {
		clusters = append(clusters, contracts.ActorCluster{
			Ticker: ticker,
			Trades: byTicker[ticker],
		})
	}
	return clusters
}
