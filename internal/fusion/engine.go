package fusion

import (
	"context"
	"sort"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/squeeze"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/pkg/logger"
)

// Engine is the multi-signal fusion orchestrator. It consumes the
// per-source detections of one run, applies the trust weights and the
// squeeze composite, and emits the tier-classified, ranked signal set.
// Every run is a full recomputation; the engine holds no cross-run state.
type Engine struct {
	cfg     strategyconfig.Fusion
	weights contracts.WeightProvider
	logger  *logger.Logger
	now     func() time.Time
}

// NewEngine creates a fusion engine.
func NewEngine(cfg strategyconfig.Fusion, weights contracts.WeightProvider, log *logger.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		weights: weights,
		logger:  log.WithField("module", "fusion"),
		now:     time.Now,
	}
}

// Fuse merges the input snapshot into the tiered result. A failed
// insider source degrades the run to tier0-only output; it never
// aborts the pass.
func (e *Engine) Fuse(ctx context.Context, input contracts.FusionInput) (*contracts.TieredResult, error) {
	asOf := e.now()
	result := &contracts.TieredResult{
		GeneratedAt: asOf,
		Tier0:       []*contracts.Signal{},
		Tier1:       []*contracts.Signal{},
		Tier2:       []*contracts.Signal{},
		Tier3:       []*contracts.Signal{},
		Tier4:       []*contracts.Signal{},
	}

	actorByTicker := make(map[string]contracts.ActorCluster, len(input.ActorClusters))
	for _, cluster := range input.ActorClusters {
		if cluster.Ticker == "" || len(cluster.Trades) == 0 {
			continue
		}
		actorByTicker[cluster.Ticker] = cluster
	}

	if input.InsiderFailed {
		// The primary input is gone; everything actor-side is
		// evaluated standalone and the degradation is reported
		// explicitly instead of thrown.
		result.Degraded = true
		result.DegradedReason = input.InsiderError
		if result.DegradedReason == "" {
			result.DegradedReason = "insider cluster source unavailable"
		}
		e.logger.WithField("reason", result.DegradedReason).Warn("Fusion degraded to tier0-only output")

		for _, cluster := range input.ActorClusters {
			if signal := e.evaluateStandalone(ctx, cluster, input, asOf); signal != nil {
				result.Tier0 = append(result.Tier0, signal)
			}
		}
		sortByScore(result.Tier0)
		return result, nil
	}

	consumed := make(map[string]bool, len(input.InsiderClusters))

	for _, cluster := range input.InsiderClusters {
		if cluster.Ticker == "" {
			continue
		}
		result.ClustersAnalyzed++

		signal := e.fuseTicker(ctx, cluster, actorByTicker, input, asOf)
		consumed[cluster.Ticker] = true

		switch signal.Tier {
		case contracts.Tier1:
			result.Tier1 = append(result.Tier1, signal)
		case contracts.Tier2:
			result.Tier2 = append(result.Tier2, signal)
		case contracts.Tier3:
			result.Tier3 = append(result.Tier3, signal)
		default:
			result.Tier4 = append(result.Tier4, signal)
		}
	}

	// Actor clusters with no insider overlap are evaluated against the
	// standalone bar; failures produce no signal at all.
	for _, cluster := range input.ActorClusters {
		if consumed[cluster.Ticker] {
			continue
		}
		if signal := e.evaluateStandalone(ctx, cluster, input, asOf); signal != nil {
			result.Tier0 = append(result.Tier0, signal)
		}
	}

	sortByScore(result.Tier0)
	sortByScore(result.Tier1)
	sortByScore(result.Tier2)
	sortByScore(result.Tier3)
	sortByScore(result.Tier4)

	// Self-check, not a correctness gate.
	if result.InsiderTierCount() != result.ClustersAnalyzed {
		e.logger.WithFields(map[string]interface{}{
			"tiered":   result.InsiderTierCount(),
			"analyzed": result.ClustersAnalyzed,
		}).Warn("Tier population does not match analyzed cluster count")
	}

	e.logger.WithFields(map[string]interface{}{
		"tier0": len(result.Tier0),
		"tier1": len(result.Tier1),
		"tier2": len(result.Tier2),
		"tier3": len(result.Tier3),
		"tier4": len(result.Tier4),
	}).Info("Fusion pass completed")

	return result, nil
}

// fuseTicker combines every available source for one insider cluster.
func (e *Engine) fuseTicker(
	ctx context.Context,
	cluster contracts.InsiderCluster,
	actorByTicker map[string]contracts.ActorCluster,
	input contracts.FusionInput,
	asOf time.Time,
) *contracts.Signal {
	signal := &contracts.Signal{
		Ticker: cluster.Ticker,
		Insider: &contracts.InsiderDetail{
			ClusterCount: cluster.ClusterCount,
			TotalValue:   cluster.TotalValue,
			Company:      cluster.Company,
			Subscore:     insiderSubscore(cluster),
		},
	}
	sources := 1

	if actorCluster, ok := actorByTicker[cluster.Ticker]; ok {
		signal.Actor = e.actorDetail(ctx, actorCluster, asOf)
		sources++
	}

	if overlap, ok := input.InstitutionalOverlap[cluster.Ticker]; ok && overlap > 0 {
		signal.Institutional = &contracts.InstitutionalDetail{
			OverlapCount: overlap,
			Subscore:     institutionalSubscore(overlap),
		}
		sources++
	}

	if snapshot, ok := input.Squeeze[cluster.Ticker]; ok && snapshot != nil && snapshot.DataAvailable {
		score, high := squeeze.Score(
			snapshot.ShortPercentFloat,
			snapshot.DaysToCover,
			cluster.TotalValue,
			snapshot.MarketCap,
		)
		boost, note := squeeze.AdjustConviction(0, snapshot.ShortPercentFloat, snapshot.DaysToCover)
		signal.Squeeze = &contracts.SqueezeDetail{
			Score:           score,
			HighPotential:   high,
			Subscore:        squeezeSubscore(score),
			ConvictionBoost: boost,
			ConvictionNote:  note,
		}
		// Squeeze data always feeds the combined score, but it only
		// counts as a confirming source at high potential.
		if high {
			sources++
		}
	}

	signal.SignalCount = sources
	signal.CombinedScore = e.combinedScore(signal)
	signal.Tier = e.classify(signal)

	return signal
}

// classify assigns the tier from the signal count.
func (e *Engine) classify(signal *contracts.Signal) contracts.Tier {
	switch {
	case signal.SignalCount >= 3:
		return contracts.Tier1
	case signal.SignalCount == 2:
		return contracts.Tier2
	case signal.Insider != nil && signal.Insider.ClusterCount >= e.cfg.StrongClusterMin:
		return contracts.Tier3
	default:
		return contracts.Tier4
	}
}

// evaluateStandalone applies the tier0 bar to a pure actor cluster.
// Returns nil when the bar is not met: a standalone cluster is either
// advisory-grade or silently dropped, never demoted to the watch list.
func (e *Engine) evaluateStandalone(
	ctx context.Context,
	cluster contracts.ActorCluster,
	input contracts.FusionInput,
	asOf time.Time,
) *contracts.Signal {
	if cluster.Ticker == "" || len(cluster.Trades) == 0 {
		return nil
	}

	detail := e.actorDetail(ctx, cluster, asOf)
	bar := e.cfg.Standalone

	if detail.ActorCount < bar.MinActors {
		return nil
	}
	if detail.Subscore < bar.MinScore {
		return nil
	}
	if !detail.Bipartisan && detail.HighConvictionSeen == 0 && detail.WeightedTotal <= bar.WeightedTotalMin {
		return nil
	}

	signal := &contracts.Signal{
		Ticker: cluster.Ticker,
		Tier:   contracts.Tier0,
		Actor:  detail,
	}
	sources := 1

	if overlap, ok := input.InstitutionalOverlap[cluster.Ticker]; ok && overlap > 0 {
		signal.Institutional = &contracts.InstitutionalDetail{
			OverlapCount: overlap,
			Subscore:     institutionalSubscore(overlap),
		}
		sources++
	}
	if snapshot, ok := input.Squeeze[cluster.Ticker]; ok && snapshot != nil && snapshot.DataAvailable {
		score, high := squeeze.Score(snapshot.ShortPercentFloat, snapshot.DaysToCover, 0, snapshot.MarketCap)
		boost, note := squeeze.AdjustConviction(0, snapshot.ShortPercentFloat, snapshot.DaysToCover)
		signal.Squeeze = &contracts.SqueezeDetail{
			Score:           score,
			HighPotential:   high,
			Subscore:        squeezeSubscore(score),
			ConvictionBoost: boost,
			ConvictionNote:  note,
		}
		if high {
			sources++
		}
	}

	signal.SignalCount = sources
	signal.CombinedScore = e.combinedScore(signal)
	return signal
}

// combinedScore is the weighted sum over the four subscores. An absent
// source contributes 0; the weights are not renormalized, so absence
// is a penalty rather than neutrality.
func (e *Engine) combinedScore(signal *contracts.Signal) float64 {
	w := e.cfg.Weights
	score := 0.0
	if signal.Insider != nil {
		score += w.Insider * signal.Insider.Subscore
	}
	if signal.Actor != nil {
		score += w.Actor * signal.Actor.Subscore
	}
	if signal.Institutional != nil {
		score += w.Institutional * signal.Institutional.Subscore
	}
	if signal.Squeeze != nil {
		score += w.Squeeze * signal.Squeeze.Subscore
	}
	return score
}

func sortByScore(signals []*contracts.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].CombinedScore > signals[j].CombinedScore
	})
}
