package contracts

import (
	"context"
	"time"
)

// FailureKind classifies a blacklist entry.
type FailureKind string

const (
	FailureTemporary FailureKind = "TEMPORARY"
	FailurePermanent FailureKind = "PERMANENT"
)

// FailureEvent is one recorded lookup failure.
type FailureEvent struct {
	Reason string    `json:"reason"`
	Code   string    `json:"code,omitempty"`
	At     time.Time `json:"at"`
}

// BlacklistEntry tracks a ticker that repeatedly fails lookups.
type BlacklistEntry struct {
	Ticker       string         `json:"ticker"`
	FailureCount int            `json:"failure_count"`
	FailureType  FailureKind    `json:"failure_type"`
	Reason       string         `json:"reason"`
	ErrorCode    string         `json:"error_code,omitempty"`
	LastFailure  time.Time      `json:"last_failure"`
	History      []FailureEvent `json:"failure_history"` // bounded, last 5
}

// BlacklistStore persists blacklist entries keyed by normalized ticker.
// Implementations must make each call a single atomic operation.
type BlacklistStore interface {
	Get(ctx context.Context, ticker string) (*BlacklistEntry, error)
	Put(ctx context.Context, entry *BlacklistEntry) error
	Delete(ctx context.Context, ticker string) error
	List(ctx context.Context) ([]*BlacklistEntry, error)
}

// ActorStatus is the lifecycle status of a tracked legislator.
type ActorStatus string

const (
	StatusActive   ActorStatus = "active"
	StatusRetiring ActorStatus = "retiring"
	StatusRetired  ActorStatus = "retired"
)

// Actor is one tracked legislator whose trades carry a trust weight.
type Actor struct {
	Name                string      `json:"name"`
	Party               string      `json:"party"`
	Chamber             string      `json:"chamber"`
	State               string      `json:"state"`
	BaseWeight          float64     `json:"base_weight"`
	Status              ActorStatus `json:"current_status"`
	TermEnded           *time.Time  `json:"term_ended,omitempty"`
	RetirementAnnounced *time.Time  `json:"retirement_announced,omitempty"`
	PerformanceScore    float64     `json:"performance_score"`
	TotalTradesTracked  int         `json:"total_trades_tracked"`
}

// ActorRepository persists the actor registry keyed by full name.
type ActorRepository interface {
	Get(ctx context.Context, name string) (*Actor, error)
	Upsert(ctx context.Context, actor *Actor) error
	List(ctx context.Context) ([]*Actor, error)
	// LastAutomatedCheck is a registry-level timestamp stamped by the
	// status reconciliation job.
	LastAutomatedCheck(ctx context.Context) (time.Time, error)
	SetLastAutomatedCheck(ctx context.Context, at time.Time) error
}

// TradeRecord is one append-only row of the actor trade history.
// WeightAtTrade is frozen at insert time and never recomputed.
type TradeRecord struct {
	Ticker          string    `json:"ticker"`
	Actor           string    `json:"actor"`
	TradeDate       time.Time `json:"trade_date"`
	TransactionType string    `json:"transaction_type"`
	Amount          float64   `json:"amount"`
	ConvictionScore float64   `json:"conviction_score"`
	Party           string    `json:"party"`
	Chamber         string    `json:"chamber"`
	StatusAtTrade   string    `json:"status_at_trade"`
	WeightAtTrade   float64   `json:"weight_at_trade"`
	LastUpdated     time.Time `json:"last_updated"`
}

// TradeRepository persists the append-only trade history,
// deduplicated by (ticker, actor, trade_date).
type TradeRepository interface {
	Exists(ctx context.Context, ticker, actor string, tradeDate time.Time) (bool, error)
	Insert(ctx context.Context, record *TradeRecord) error
	ListByActor(ctx context.Context, actor string) ([]*TradeRecord, error)
	ListByTicker(ctx context.Context, ticker string) ([]*TradeRecord, error)
}

// SignalRepository persists the output of fusion runs.
type SignalRepository interface {
	SaveRun(ctx context.Context, result *TieredResult) error
	LatestRun(ctx context.Context) (*TieredResult, error)
}
