package trustweight

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/strategyconfig"
	"github.com/mreyes/confluence/pkg/logger"
)

// Engine maintains the registry of tracked legislators and computes
// their time-sensitive trust multiplier. The weight is recomputed on
// every call as a pure function of the actor record and the asOf time;
// it is never cached across status changes.
type Engine struct {
	actors contracts.ActorRepository
	trades contracts.TradeRepository
	cfg    strategyconfig.Trust
	logger *logger.Logger
}

// NewEngine creates a trust weight engine.
func NewEngine(actors contracts.ActorRepository, trades contracts.TradeRepository, cfg strategyconfig.Trust, log *logger.Logger) *Engine {
	return &Engine{
		actors: actors,
		trades: trades,
		cfg:    cfg,
		logger: log.WithField("module", "trustweight"),
	}
}

// Weight returns the trust multiplier for an actor at asOf.
// Unknown actors get the configured default weight, never an error.
//
// The function is monotonically non-increasing in days since
// retirement, equals base*boost throughout the retiring window, and
// approaches base*minFraction as days grow without ever going below it.
func (e *Engine) Weight(ctx context.Context, name string, asOf time.Time) float64 {
	actor, err := e.actors.Get(ctx, name)
	if err != nil {
		e.logger.WithError(err).WithField("actor", name).Warn("Actor lookup failed, using default weight")
		return e.cfg.DefaultWeight
	}
	if actor == nil {
		return e.cfg.DefaultWeight
	}
	return e.weightOf(actor, asOf)
}

func (e *Engine) weightOf(actor *contracts.Actor, asOf time.Time) float64 {
	base := actor.BaseWeight
	if base <= 0 {
		base = e.cfg.DefaultWeight
	}

	switch actor.Status {
	case contracts.StatusActive:
		return base

	case contracts.StatusRetiring:
		// A lame duck's final trades are historically the
		// highest-information trades; boost, don't discount.
		return base * e.cfg.RetiringBoost

	case contracts.StatusRetired:
		if actor.TermEnded == nil {
			// Conservative floor when the term end is unknown.
			return base * e.cfg.MinWeightFraction
		}
		if actor.TermEnded.After(asOf) {
			// term_ended in the future is a data error; fall back
			// to the retiring treatment rather than decaying.
			e.logger.WithFields(map[string]interface{}{
				"actor":      actor.Name,
				"term_ended": actor.TermEnded.Format("2006-01-02"),
			}).Warn("Retired actor with future term end, treating as retiring")
			return base * e.cfg.RetiringBoost
		}

		// True half-life semantics: one HalfLifeDays interval halves
		// the weight, floored at MinWeightFraction.
		days := asOf.Sub(*actor.TermEnded).Hours() / 24
		decay := math.Max(e.cfg.MinWeightFraction, math.Exp(-days*math.Ln2/e.cfg.HalfLifeDays))
		return base * decay

	default:
		return e.cfg.DefaultWeight
	}
}

// IsHighConviction reports whether the actor's current trust weight
// clears the high-conviction bar.
func (e *Engine) IsHighConviction(ctx context.Context, name string, asOf time.Time) bool {
	return e.Weight(ctx, name, asOf) >= e.cfg.HighConvictionMin
}

// AllWeights returns the trust multiplier of every registered actor.
func (e *Engine) AllWeights(ctx context.Context, asOf time.Time) (map[string]float64, error) {
	actors, err := e.actors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}

	weights := make(map[string]float64, len(actors))
	for _, actor := range actors {
		weights[actor.Name] = e.weightOf(actor, asOf)
	}
	return weights, nil
}

// AddActor registers an actor. A zero base weight defaults to 1.0 and
// an empty status defaults to active.
func (e *Engine) AddActor(ctx context.Context, actor *contracts.Actor) error {
	if actor.Name == "" {
		return fmt.Errorf("actor name is required")
	}
	if actor.BaseWeight <= 0 {
		actor.BaseWeight = 1.0
	}
	if actor.Status == "" {
		actor.Status = contracts.StatusActive
	}
	if actor.Status == contracts.StatusRetired && actor.TermEnded == nil {
		e.logger.WithField("actor", actor.Name).Warn("Retired actor registered without term end date")
	}

	if err := e.actors.Upsert(ctx, actor); err != nil {
		return fmt.Errorf("upsert actor %s: %w", actor.Name, err)
	}
	return nil
}

// UpdateStatus moves an actor through the lifecycle
// active -> retiring -> retired. Regressions are applied but logged,
// since upstream rosters occasionally correct themselves backwards.
func (e *Engine) UpdateStatus(ctx context.Context, name string, status contracts.ActorStatus, termEnded, announced *time.Time) error {
	actor, err := e.actors.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("get actor %s: %w", name, err)
	}
	if actor == nil {
		return fmt.Errorf("unknown actor %s", name)
	}

	if statusRank(status) < statusRank(actor.Status) {
		e.logger.WithFields(map[string]interface{}{
			"actor": name,
			"from":  actor.Status,
			"to":    status,
		}).Warn("Actor status regression")
	}

	actor.Status = status
	if termEnded != nil {
		actor.TermEnded = termEnded
	}
	if announced != nil {
		actor.RetirementAnnounced = announced
	}

	if err := e.actors.Upsert(ctx, actor); err != nil {
		return fmt.Errorf("upsert actor %s: %w", name, err)
	}
	return nil
}

func statusRank(s contracts.ActorStatus) int {
	switch s {
	case contracts.StatusActive:
		return 0
	case contracts.StatusRetiring:
		return 1
	case contracts.StatusRetired:
		return 2
	default:
		return 0
	}
}

// RecordTrades appends disclosed trades to the history. A trade already
// present (matched by ticker, actor and trade date) is never
// duplicated. The weight attached to a new trade is the weight at that
// trade's date, not at insertion time, so backfills carry
// contemporaneous trust values.
func (e *Engine) RecordTrades(ctx context.Context, trades []contracts.ActorTrade) (int, error) {
	added := 0
	perActor := make(map[string]int)

	for _, trade := range trades {
		exists, err := e.trades.Exists(ctx, trade.Ticker, trade.Politician, trade.TradeDate)
		if err != nil {
			return added, fmt.Errorf("trade exists check: %w", err)
		}
		if exists {
			continue
		}

		weight := e.Weight(ctx, trade.Politician, trade.TradeDate)
		status := contracts.StatusActive
		if actor, err := e.actors.Get(ctx, trade.Politician); err == nil && actor != nil {
			status = actor.Status
		}

		record := &contracts.TradeRecord{
			Ticker:          trade.Ticker,
			Actor:           trade.Politician,
			TradeDate:       trade.TradeDate,
			TransactionType: trade.TransactionType,
			Amount:          trade.Amount,
			ConvictionScore: convictionScore(trade.Amount, weight),
			Party:           trade.Party,
			Chamber:         trade.Chamber,
			StatusAtTrade:   string(status),
			WeightAtTrade:   weight,
			LastUpdated:     time.Now(),
		}

		if err := e.trades.Insert(ctx, record); err != nil {
			return added, fmt.Errorf("insert trade %s/%s: %w", trade.Ticker, trade.Politician, err)
		}
		added++
		perActor[trade.Politician]++
	}

	for name, count := range perActor {
		actor, err := e.actors.Get(ctx, name)
		if err != nil || actor == nil {
			continue
		}
		actor.TotalTradesTracked += count
		if err := e.actors.Upsert(ctx, actor); err != nil {
			e.logger.WithError(err).WithField("actor", name).Warn("Failed to update trade count")
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"received": len(trades),
		"added":    added,
	}).Info("Actor trades recorded")

	return added, nil
}

// convictionScore is the base per-trade conviction before any squeeze
// adjustment: trust weight scaled by the disclosed amount, with the
// amount factor saturating at $1M.
func convictionScore(amount, weight float64) float64 {
	factor := 1.0 + math.Min(amount/1_000_000, 1.0)
	return weight * factor
}

// ReconcileStatuses flips retiring actors whose term has ended to
// retired and stamps the registry-level last check timestamp. It is
// scheduled to run before fusion so weight calculation sees settled
// statuses.
func (e *Engine) ReconcileStatuses(ctx context.Context, asOf time.Time) (int, error) {
	actors, err := e.actors.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list actors: %w", err)
	}

	flipped := 0
	for _, actor := range actors {
		if actor.Status != contracts.StatusRetiring {
			continue
		}
		if actor.TermEnded == nil || actor.TermEnded.After(asOf) {
			continue
		}

		actor.Status = contracts.StatusRetired
		if err := e.actors.Upsert(ctx, actor); err != nil {
			e.logger.WithError(err).WithField("actor", actor.Name).Warn("Status reconcile failed")
			continue
		}
		flipped++
		e.logger.WithFields(map[string]interface{}{
			"actor":      actor.Name,
			"term_ended": actor.TermEnded.Format("2006-01-02"),
		}).Info("Actor reconciled to retired")
	}

	if err := e.actors.SetLastAutomatedCheck(ctx, asOf); err != nil {
		e.logger.WithError(err).Warn("Failed to stamp last automated check")
	}

	return flipped, nil
}
