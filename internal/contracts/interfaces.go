package contracts

import (
	"context"
	"time"
)

// Guard validates tickers and tracks repeat offenders.
// It gates every downstream per-ticker fetch.
type Guard interface {
	Normalize(raw string) string
	Validate(ctx context.Context, ticker string) (bool, string)
	IsBlacklisted(ctx context.Context, ticker string) (bool, string)
	RecordFailure(ctx context.Context, ticker, reason string, kind FailureKind, code string) error
	RecordSuccess(ctx context.Context, ticker string) error
	CleanupExpired(ctx context.Context, asOf time.Time) (int, error)
}

// WeightProvider computes the trust multiplier of an actor at a point
// in time. Unknown actors yield the configured default, never an error.
type WeightProvider interface {
	Weight(ctx context.Context, name string, asOf time.Time) float64
	IsHighConviction(ctx context.Context, name string, asOf time.Time) bool
}

// ShortInterestProvider supplies cached short-interest snapshots.
type ShortInterestProvider interface {
	Fetch(ctx context.Context, ticker string) (*ShortInterestSnapshot, error)
}

// Fuser merges per-source detections into the tiered signal set.
type Fuser interface {
	Fuse(ctx context.Context, input FusionInput) (*TieredResult, error)
}

// FusionInput is the snapshot of per-source detections one fusion pass
// runs over. Optional sources may be nil; InsiderFailed marks the
// insider collaborator as unavailable, which degrades the run to
// tier0-only output instead of aborting.
type FusionInput struct {
	InsiderClusters      []InsiderCluster
	ActorClusters        []ActorCluster
	InstitutionalOverlap map[string]int // ticker -> funds holding, optional
	Squeeze              map[string]*ShortInterestSnapshot

	InsiderFailed bool
	InsiderError  string
}
