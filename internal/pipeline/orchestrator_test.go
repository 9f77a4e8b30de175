package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/enrich"
	"github.com/mreyes/confluence/internal/external/thirteenf"
	"github.com/mreyes/confluence/internal/fusion"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/internal/tickerguard"
	"github.com/mreyes/confluence/internal/trustweight"
	"github.com/mreyes/confluence/pkg/logger"
)

type fakeInsiders struct {
	clusters []contracts.InsiderCluster
	err      error
}

func (f *fakeInsiders) FetchClusterBuys(context.Context) ([]contracts.InsiderCluster, error) {
	return f.clusters, f.err
}

type fakeActors struct {
	trades []contracts.ActorTrade
	err    error
}

func (f *fakeActors) FetchRecentPurchases(context.Context, int) ([]contracts.ActorTrade, error) {
	return f.trades, f.err
}

type fakeShortInterest struct{}

func (fakeShortInterest) Fetch(_ context.Context, ticker string) (*contracts.ShortInterestSnapshot, error) {
	return &contracts.ShortInterestSnapshot{
		Ticker:            ticker,
		ShortPercentFloat: 0.05,
		DaysToCover:       1,
		MarketCap:         1e9,
		DataAvailable:     true,
	}, nil
}

type fakeSignalRepo struct {
	saved []*contracts.TieredResult
}

func (f *fakeSignalRepo) SaveRun(_ context.Context, result *contracts.TieredResult) error {
	f.saved = append(f.saved, result)
	return nil
}

func (f *fakeSignalRepo) LatestRun(context.Context) (*contracts.TieredResult, error) {
	if len(f.saved) == 0 {
		return nil, nil
	}
	return f.saved[len(f.saved)-1], nil
}

type fakeNotifier struct {
	runs int
}

func (f *fakeNotifier) BroadcastRun(*contracts.TieredResult) { f.runs++ }

func newTestOrchestrator(t *testing.T, insiders InsiderSource, actors ActorSource) (*Orchestrator, *fakeSignalRepo, *fakeNotifier) {
	t.Helper()
	log := logger.NewNop()
	cfg := strategyconfig.Default()

	guard := tickerguard.New(tickerguard.NewMemoryStore(), log)
	trust := trustweight.NewEngine(trustweight.NewMemoryActorRepo(), trustweight.NewMemoryTradeRepo(), cfg.Trust, log)
	enricher := enrich.New(fakeShortInterest{}, 2, log)
	fuser := fusion.NewEngine(cfg.Fusion, trust, log)
	repo := &fakeSignalRepo{}
	notifier := &fakeNotifier{}

	orch := NewOrchestrator(insiders, actors, nil, guard, trust, enricher, fuser, repo, notifier, cfg, log)
	return orch, repo, notifier
}

func TestRun_FullPass(t *testing.T) {
	insiders := &fakeInsiders{clusters: []contracts.InsiderCluster{
		{Ticker: "NVDA", Company: "NVIDIA", ClusterCount: 3, TotalValue: 1.5e6},
		{Ticker: "??", ClusterCount: 2, TotalValue: 300_000},
	}}
	actors := &fakeActors{trades: []contracts.ActorTrade{
		{Politician: "Jane Doe", Ticker: "NVDA", TransactionType: "purchase",
			TradeDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Amount: 65_000, Party: "D", Chamber: "House"},
	}}

	orch, repo, notifier := newTestOrchestrator(t, insiders, actors)

	result, err := orch.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	require.NotNil(t, result.Result)
	assert.False(t, result.Result.Degraded)
	assert.Equal(t, 1, result.Result.ClustersAnalyzed, "invalid ticker cluster dropped")
	assert.Equal(t, 1, result.TickersDropped)
	assert.Equal(t, 1, result.TradesRecorded)

	require.Len(t, result.Result.Tier2, 1)
	assert.Equal(t, "NVDA", result.Result.Tier2[0].Ticker)
	assert.Equal(t, 2, result.Result.Tier2[0].SignalCount)

	assert.Len(t, repo.saved, 1, "run persisted")
	assert.Equal(t, 1, notifier.runs, "run broadcast")
	assert.Contains(t, result.CompletedStages, "persist")
}

func TestRun_InsiderSourceFailureDegrades(t *testing.T) {
	insiders := &fakeInsiders{err: errors.New("openinsider returned 503")}
	actors := &fakeActors{trades: []contracts.ActorTrade{
		{Politician: "A One", Ticker: "BIP", TransactionType: "purchase",
			TradeDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Amount: 50_000, Party: "D", Chamber: "House"},
		{Politician: "B Two", Ticker: "BIP", TransactionType: "purchase",
			TradeDate: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), Amount: 50_000, Party: "R", Chamber: "Senate"},
		{Politician: "C Three", Ticker: "BIP", TransactionType: "purchase",
			TradeDate: time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC), Amount: 50_000, Party: "D", Chamber: "House"},
	}}

	orch, repo, _ := newTestOrchestrator(t, insiders, actors)

	result, err := orch.Run(context.Background(), RunConfig{})
	require.NoError(t, err, "source failure must not abort the run")

	require.NotNil(t, result.Result)
	assert.True(t, result.Result.Degraded)
	assert.Equal(t, 0, result.Result.InsiderTierCount())
	assert.Len(t, result.Result.Tier0, 1)
	assert.Len(t, repo.saved, 1, "degraded runs are still persisted")
}

func TestRun_ActorSourceFailureContinues(t *testing.T) {
	insiders := &fakeInsiders{clusters: []contracts.InsiderCluster{
		{Ticker: "GME", ClusterCount: 5, TotalValue: 2e6},
	}}
	actors := &fakeActors{err: errors.New("capitoltrades timeout")}

	orch, _, _ := newTestOrchestrator(t, insiders, actors)

	result, err := orch.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	assert.False(t, result.Result.Degraded)
	assert.Equal(t, 0, result.TradesRecorded)
	require.Len(t, result.Result.Tier3, 1)
	assert.Equal(t, "GME", result.Result.Tier3[0].Ticker)
}

func TestRun_HoldingsFileLiftsToTierOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holdings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
as_of: "2026-06-30"
funds:
  - name: Alpha Capital
    holdings: [NVDA]
  - name: Beta Partners
    holdings: [NVDA, GME]
`), 0o644))

	insiders := &fakeInsiders{clusters: []contracts.InsiderCluster{
		{Ticker: "NVDA", Company: "NVIDIA", ClusterCount: 3, TotalValue: 1.5e6},
	}}
	actors := &fakeActors{trades: []contracts.ActorTrade{
		{Politician: "Jane Doe", Ticker: "NVDA", TransactionType: "purchase",
			TradeDate: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), Amount: 65_000, Party: "D", Chamber: "House"},
	}}

	log := logger.NewNop()
	cfg := strategyconfig.Default()
	guard := tickerguard.New(tickerguard.NewMemoryStore(), log)
	trust := trustweight.NewEngine(trustweight.NewMemoryActorRepo(), trustweight.NewMemoryTradeRepo(), cfg.Trust, log)
	enricher := enrich.New(fakeShortInterest{}, 2, log)
	fuser := fusion.NewEngine(cfg.Fusion, trust, log)
	repo := &fakeSignalRepo{}
	holdings := thirteenf.New(path, log)

	orch := NewOrchestrator(insiders, actors, holdings, guard, trust, enricher, fuser, repo, &fakeNotifier{}, cfg, log)

	result, err := orch.Run(context.Background(), RunConfig{})
	require.NoError(t, err)

	// Insider cluster + actor cluster + 13F overlap: three sources.
	require.Len(t, result.Result.Tier1, 1)
	signal := result.Result.Tier1[0]
	assert.Equal(t, "NVDA", signal.Ticker)
	assert.Equal(t, 3, signal.SignalCount)
	require.NotNil(t, signal.Institutional)
	assert.Equal(t, 2, signal.Institutional.OverlapCount)
}

func TestRun_DryRunSkipsPersistence(t *testing.T) {
	insiders := &fakeInsiders{clusters: []contracts.InsiderCluster{
		{Ticker: "GME", ClusterCount: 2, TotalValue: 400_000},
	}}

	orch, repo, notifier := newTestOrchestrator(t, insiders, &fakeActors{})

	result, err := orch.Run(context.Background(), RunConfig{DryRun: true})
	require.NoError(t, err)

	assert.NotNil(t, result.Result)
	assert.Empty(t, repo.saved)
	assert.Equal(t, 0, notifier.runs)
	assert.NotContains(t, result.CompletedStages, "persist")
}

func TestClusterByTicker(t *testing.T) {
	trades := []contracts.ActorTrade{
		{Politician: "A", Ticker: "ZZZ"},
		{Politician: "B", Ticker: "AAA"},
		{Politician: "C", Ticker: "ZZZ"},
		{Politician: "D", Ticker: ""},
	}

	clusters := ClusterByTicker(trades)
	require.Len(t, clusters, 2)
	assert.Equal(t, "AAA", clusters[0].Ticker)
	assert.Equal(t, "ZZZ", clusters[1].Ticker)
	assert.Len(t, clusters[1].Trades, 2)
}
