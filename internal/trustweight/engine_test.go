package trustweight

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

func newTestEngine(t *testing.T) (*Engine, *MemoryActorRepo, *MemoryTradeRepo) {
	t.Helper()
	actors := NewMemoryActorRepo()
	trades := NewMemoryTradeRepo()
	cfg := strategyconfig.Default().Trust
	return NewEngine(actors, trades, cfg, logger.NewNop()), actors, trades
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestWeight_Active(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "John Smith",
		BaseWeight: 1.2,
		Status:     contracts.StatusActive,
	}))

	assert.Equal(t, 1.2, engine.Weight(ctx, "John Smith", time.Now()))
}

func TestWeight_RetiringBoost(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Jane Doe",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetiring,
	}))

	assert.InDelta(t, 1.5, engine.Weight(ctx, "Jane Doe", time.Now()), 0.001)
}

func TestWeight_RetiredDecay(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	termEnded := asOf.AddDate(0, 0, -90) // one half-life ago

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Robert Roe",
		BaseWeight: 2.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &termEnded,
	}))

	// One half-life elapsed: 2.0 halves to 1.0.
	got := engine.Weight(ctx, "Robert Roe", asOf)
	assert.InDelta(t, 1.0, got, 0.01)
}

func TestWeight_RetiredTwoHalfLives(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	termEnded := asOf.AddDate(0, 0, -180)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Quartered",
		BaseWeight: 2.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &termEnded,
	}))

	got := engine.Weight(ctx, "Quartered", asOf)
	assert.InDelta(t, 0.5, got, 0.01)
}

func TestWeight_RetiredDayZeroEqualsBase(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Day Zero",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &asOf,
	}))

	// The retiring boost drops to the raw decay factor at day 0; the
	// discontinuity (1.5 -> 1.0) is intentional, not smoothed.
	assert.InDelta(t, 1.0, engine.Weight(ctx, "Day Zero", asOf), 0.001)
}

func TestWeight_MonotonicDecayWithFloor(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	termEnded := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Old Timer",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &termEnded,
	}))

	prev := engine.Weight(ctx, "Old Timer", termEnded)
	for days := 1; days <= 1200; days += 30 {
		asOf := termEnded.AddDate(0, 0, days)
		w := engine.Weight(ctx, "Old Timer", asOf)
		assert.LessOrEqual(t, w, prev, "weight must be non-increasing at day %d", days)
		assert.GreaterOrEqual(t, w, 0.2, "weight must never fall below the floor")
		prev = w
	}

	// Deep past: pinned at exactly the floor.
	assert.InDelta(t, 0.2, engine.Weight(ctx, "Old Timer", termEnded.AddDate(10, 0, 0)), 0.001)
}

func TestWeight_FutureTermEndedTreatedAsRetiring(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	future := asOf.AddDate(0, 3, 0)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Data Error",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &future,
	}))

	assert.InDelta(t, 1.5, engine.Weight(ctx, "Data Error", asOf), 0.001)
}

func TestWeight_RetiredWithoutTermEnded(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "No Term",
		BaseWeight: 2.0,
		Status:     contracts.StatusRetired,
	}))

	assert.InDelta(t, 0.4, engine.Weight(ctx, "No Term", time.Now()), 0.001)
}

func TestWeight_UnknownActorReturnsDefault(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	assert.Equal(t, 1.0, engine.Weight(context.Background(), "Nobody", time.Now()))
}

func TestIsHighConviction(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Boosted",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetiring, // 1.5 >= 1.25
	}))
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Plain",
		BaseWeight: 1.0,
		Status:     contracts.StatusActive,
	}))

	assert.True(t, engine.IsHighConviction(ctx, "Boosted", time.Now()))
	assert.False(t, engine.IsHighConviction(ctx, "Plain", time.Now()))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	engine, actors, _ := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:   "Jane Doe",
		Status: contracts.StatusActive,
	}))

	termEnded := datePtr(2026, 12, 31)
	require.NoError(t, engine.UpdateStatus(ctx, "Jane Doe", contracts.StatusRetiring, termEnded, nil))

	actor, err := actors.Get(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusRetiring, actor.Status)
	require.NotNil(t, actor.TermEnded)
	assert.Equal(t, *termEnded, *actor.TermEnded)

	assert.Error(t, engine.UpdateStatus(ctx, "Nobody", contracts.StatusRetired, nil, nil))
}

func TestRecordTrades_Idempotent(t *testing.T) {
	ctx := context.Background()
	engine, _, trades := newTestEngine(t)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Jane Doe",
		BaseWeight: 1.0,
		Status:     contracts.StatusActive,
	}))

	batch := []contracts.ActorTrade{
		{
			Politician:      "Jane Doe",
			Ticker:          "NVDA",
			TransactionType: "purchase",
			TradeDate:       time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:          65_000,
			Party:           "D",
			Chamber:         "House",
		},
		{
			Politician:      "Jane Doe",
			Ticker:          "NVDA",
			TransactionType: "purchase",
			TradeDate:       time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
			Amount:          32_500,
			Party:           "D",
			Chamber:         "House",
		},
	}

	added, err := engine.RecordTrades(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	// Replaying the same batch adds nothing.
	added, err = engine.RecordTrades(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	records, err := trades.ListByActor(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestRecordTrades_WeightFrozenAtTradeDate(t *testing.T) {
	ctx := context.Background()
	engine, _, trades := newTestEngine(t)

	// Retired with term ending after the trade date: at the trade's
	// date the retirement was still ahead, so the contemporaneous
	// weight is the retiring boost, not the decayed value.
	termEnded := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name:       "Late Filer",
		BaseWeight: 1.0,
		Status:     contracts.StatusRetired,
		TermEnded:  &termEnded,
	}))

	added, err := engine.RecordTrades(ctx, []contracts.ActorTrade{{
		Politician:      "Late Filer",
		Ticker:          "TSLA",
		TransactionType: "purchase",
		TradeDate:       time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Amount:          100_000,
	}})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	records, err := trades.ListByTicker(ctx, "TSLA")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 1.5, records[0].WeightAtTrade, 0.001)
}

func TestReconcileStatuses(t *testing.T) {
	ctx := context.Background()
	engine, actors, _ := newTestEngine(t)

	asOf := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	past := asOf.AddDate(0, -1, 0)
	future := asOf.AddDate(0, 2, 0)

	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name: "Done", Status: contracts.StatusRetiring, TermEnded: &past,
	}))
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name: "Not Yet", Status: contracts.StatusRetiring, TermEnded: &future,
	}))
	require.NoError(t, engine.AddActor(ctx, &contracts.Actor{
		Name: "Sitting", Status: contracts.StatusActive,
	}))

	flipped, err := engine.ReconcileStatuses(ctx, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	done, _ := actors.Get(ctx, "Done")
	assert.Equal(t, contracts.StatusRetired, done.Status)
	notYet, _ := actors.Get(ctx, "Not Yet")
	assert.Equal(t, contracts.StatusRetiring, notYet.Status)

	last, err := actors.LastAutomatedCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, asOf, last)
}
