package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/pkg/logger"
)

// stubWeights is a fixed-weight contracts.WeightProvider.
type stubWeights struct {
	weights map[string]float64
}

func (s stubWeights) Weight(_ context.Context, name string, _ time.Time) float64 {
	if w, ok := s.weights[name]; ok {
		return w
	}
	return 1.0
}

func (s stubWeights) IsHighConviction(ctx context.Context, name string, asOf time.Time) bool {
	return s.Weight(ctx, name, asOf) >= 1.25
}

func newTestEngine(weights map[string]float64) *Engine {
	return NewEngine(strategyconfig.Default().Fusion, stubWeights{weights: weights}, logger.NewNop())
}

func purchase(politician, ticker string, amount float64, party string) contracts.ActorTrade {
	return contracts.ActorTrade{
		Politician:      politician,
		Ticker:          ticker,
		TransactionType: "purchase",
		TradeDate:       time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		Amount:          amount,
		Party:           party,
		Chamber:         "House",
	}
}

func TestFuse_Empty(t *testing.T) {
	engine := newTestEngine(nil)

	result, err := engine.Fuse(context.Background(), contracts.FusionInput{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.ClustersAnalyzed)
	assert.Equal(t, 0, result.InsiderTierCount())
	assert.Empty(t, result.Tier0)
	assert.False(t, result.Degraded)
}

func TestFuse_TwoSourcesIsTier2(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "NVDA", Company: "NVIDIA", ClusterCount: 3, TotalValue: 1e6},
		},
		ActorClusters: []contracts.ActorCluster{
			{Ticker: "NVDA", Trades: []contracts.ActorTrade{purchase("Jane Doe", "NVDA", 65_000, "D")}},
		},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Tier2, 1)
	signal := result.Tier2[0]
	assert.Equal(t, "NVDA", signal.Ticker)
	assert.Equal(t, 2, signal.SignalCount)
	assert.NotNil(t, signal.Insider)
	assert.NotNil(t, signal.Actor)
	assert.Nil(t, signal.Institutional)
}

func TestFuse_ThreeSourcesIsTier1(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "GME", ClusterCount: 4, TotalValue: 2e6},
		},
		ActorClusters: []contracts.ActorCluster{
			{Ticker: "GME", Trades: []contracts.ActorTrade{purchase("Jane Doe", "GME", 100_000, "D")}},
		},
		InstitutionalOverlap: map[string]int{"GME": 3},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Tier1, 1)
	assert.Equal(t, 3, result.Tier1[0].SignalCount)
}

func TestFuse_InsiderOnlyStrongClusterIsTier3(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "STRONG", ClusterCount: 5, TotalValue: 3e6},
			{Ticker: "WEAK", ClusterCount: 2, TotalValue: 100_000},
		},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Tier3, 1)
	assert.Equal(t, "STRONG", result.Tier3[0].Ticker)
	require.Len(t, result.Tier4, 1)
	assert.Equal(t, "WEAK", result.Tier4[0].Ticker)
}

func TestFuse_SqueezeCountsOnlyAtHighPotential(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "MILD", ClusterCount: 2, TotalValue: 500_000},
			{Ticker: "HOT", ClusterCount: 2, TotalValue: 2e6},
		},
		Squeeze: map[string]*contracts.ShortInterestSnapshot{
			"MILD": {Ticker: "MILD", ShortPercentFloat: 0.05, DaysToCover: 1, MarketCap: 1e9, DataAvailable: true},
			"HOT":  {Ticker: "HOT", ShortPercentFloat: 0.35, DaysToCover: 8, MarketCap: 500e6, DataAvailable: true},
		},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	// MILD: squeeze feeds the score but stays a single-source signal.
	require.Len(t, result.Tier4, 1)
	mild := result.Tier4[0]
	assert.Equal(t, "MILD", mild.Ticker)
	assert.Equal(t, 1, mild.SignalCount)
	require.NotNil(t, mild.Squeeze)
	assert.False(t, mild.Squeeze.HighPotential)
	assert.Zero(t, mild.Squeeze.ConvictionBoost)
	assert.Greater(t, mild.CombinedScore, 0.0)

	// HOT: high-potential squeeze confirms as a second source.
	require.Len(t, result.Tier2, 1)
	hot := result.Tier2[0]
	assert.Equal(t, "HOT", hot.Ticker)
	assert.Equal(t, 2, hot.SignalCount)
	assert.True(t, hot.Squeeze.HighPotential)
	assert.InDelta(t, 1.5, hot.Squeeze.ConvictionBoost, 1e-9)
	assert.Equal(t, "extreme short interest with high days-to-cover", hot.Squeeze.ConvictionNote)
}

func TestFuse_TierSizesMatchClusterCount(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "AAA", ClusterCount: 6, TotalValue: 4e6},
			{Ticker: "BBB", ClusterCount: 2, TotalValue: 200_000},
			{Ticker: "CCC", ClusterCount: 3, TotalValue: 900_000},
			{Ticker: "DDD", ClusterCount: 1, TotalValue: 50_000},
		},
		ActorClusters: []contracts.ActorCluster{
			{Ticker: "CCC", Trades: []contracts.ActorTrade{purchase("Jane Doe", "CCC", 80_000, "D")}},
			// Standalone cluster: must not count toward the insider tiers.
			{Ticker: "ZZZ", Trades: []contracts.ActorTrade{
				purchase("Jane Doe", "ZZZ", 70_000, "D"),
				purchase("John Smith", "ZZZ", 60_000, "R"),
				purchase("Mary Major", "ZZZ", 90_000, "D"),
			}},
		},
		InstitutionalOverlap: map[string]int{"AAA": 2},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 4, result.ClustersAnalyzed)
	assert.Equal(t, 4, result.InsiderTierCount())
}

func TestFuse_StandaloneBar(t *testing.T) {
	tests := []struct {
		name    string
		cluster contracts.ActorCluster
		weights map[string]float64
		want    bool
	}{
		{
			name: "bipartisan passes",
			cluster: contracts.ActorCluster{Ticker: "BIP", Trades: []contracts.ActorTrade{
				purchase("A One", "BIP", 50_000, "D"),
				purchase("B Two", "BIP", 50_000, "R"),
				purchase("C Three", "BIP", 50_000, "D"),
			}},
			want: true,
		},
		{
			name: "weighted total above bar passes",
			cluster: contracts.ActorCluster{Ticker: "BIG", Trades: []contracts.ActorTrade{
				purchase("A One", "BIG", 70_000, "D"),
				purchase("B Two", "BIG", 60_000, "D"),
				purchase("C Three", "BIG", 90_000, "D"),
			}},
			want: true,
		},
		{
			name: "high conviction actor passes",
			cluster: contracts.ActorCluster{Ticker: "CONV", Trades: []contracts.ActorTrade{
				purchase("Star Trader", "CONV", 40_000, "D"),
				purchase("B Two", "CONV", 40_000, "D"),
				purchase("C Three", "CONV", 40_000, "D"),
			}},
			weights: map[string]float64{"Star Trader": 1.5},
			want:    true,
		},
		{
			name: "too few actors dropped",
			cluster: contracts.ActorCluster{Ticker: "FEW", Trades: []contracts.ActorTrade{
				purchase("A One", "FEW", 200_000, "D"),
				purchase("B Two", "FEW", 200_000, "R"),
			}},
			want: false,
		},
		{
			name: "unanimous small cluster dropped",
			cluster: contracts.ActorCluster{Ticker: "MEH", Trades: []contracts.ActorTrade{
				purchase("A One", "MEH", 40_000, "D"),
				purchase("B Two", "MEH", 40_000, "D"),
				purchase("C Three", "MEH", 40_000, "D"),
			}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(tt.weights)

			result, err := engine.Fuse(context.Background(), contracts.FusionInput{
				ActorClusters: []contracts.ActorCluster{tt.cluster},
			})
			require.NoError(t, err)

			if tt.want {
				require.Len(t, result.Tier0, 1, "expected a tier0 signal")
				assert.Equal(t, tt.cluster.Ticker, result.Tier0[0].Ticker)
				assert.Equal(t, contracts.Tier0, result.Tier0[0].Tier)
			} else {
				assert.Empty(t, result.Tier0, "cluster should be silently dropped")
			}
			// Dropped or not, standalone clusters never reach the insider tiers.
			assert.Equal(t, 0, result.InsiderTierCount())
		})
	}
}

func TestFuse_OrderedByCombinedScore(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderClusters: []contracts.InsiderCluster{
			{Ticker: "LOW", ClusterCount: 1, TotalValue: 100_000},
			{Ticker: "HIGH", ClusterCount: 4, TotalValue: 2e6},
			{Ticker: "MID", ClusterCount: 2, TotalValue: 800_000},
		},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, result.Tier4, 3)
	assert.Equal(t, "HIGH", result.Tier4[0].Ticker)
	assert.Equal(t, "MID", result.Tier4[1].Ticker)
	assert.Equal(t, "LOW", result.Tier4[2].Ticker)
}

func TestFuse_DegradedToTier0Only(t *testing.T) {
	engine := newTestEngine(nil)

	input := contracts.FusionInput{
		InsiderFailed: true,
		InsiderError:  "openinsider returned 503",
		ActorClusters: []contracts.ActorCluster{
			{Ticker: "BIP", Trades: []contracts.ActorTrade{
				purchase("A One", "BIP", 50_000, "D"),
				purchase("B Two", "BIP", 50_000, "R"),
				purchase("C Three", "BIP", 50_000, "D"),
			}},
		},
	}

	result, err := engine.Fuse(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, "openinsider returned 503", result.DegradedReason)
	assert.Len(t, result.Tier0, 1)
	assert.Equal(t, 0, result.InsiderTierCount())
}

func TestCombinedScore_AbsentSourceIsPenalty(t *testing.T) {
	engine := newTestEngine(nil)

	full := &contracts.Signal{
		Insider:       &contracts.InsiderDetail{Subscore: 8},
		Actor:         &contracts.ActorDetail{Subscore: 8},
		Institutional: &contracts.InstitutionalDetail{Subscore: 8},
		Squeeze:       &contracts.SqueezeDetail{Subscore: 8},
	}
	partial := &contracts.Signal{
		Insider: &contracts.InsiderDetail{Subscore: 8},
		Actor:   &contracts.ActorDetail{Subscore: 8},
	}

	// 8*(0.35+0.30+0.20+0.15) = 8 vs 8*(0.35+0.30) = 5.2
	assert.InDelta(t, 8.0, engine.combinedScore(full), 0.001)
	assert.InDelta(t, 5.2, engine.combinedScore(partial), 0.001)
}
