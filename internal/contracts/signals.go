package contracts

import "time"

// Tier is the discrete conviction bucket assigned to a fused signal.
type Tier int

const (
	Tier0 Tier = iota // standalone actor conviction, advisory class
	Tier1             // three or more confirming sources
	Tier2             // two confirming sources
	Tier3             // insider-only, strong cluster
	Tier4             // watch list
)

// String returns the tier label used in reports and logs.
func (t Tier) String() string {
	switch t {
	case Tier0:
		return "tier0"
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	case Tier4:
		return "tier4"
	default:
		return "unknown"
	}
}

// Signal is one fused, tier-classified detection for a single ticker.
// Signals live for the duration of one fusion pass; every run is a full
// recomputation over the current input snapshot.
type Signal struct {
	Ticker        string  `json:"ticker"`
	Tier          Tier    `json:"tier"`
	SignalCount   int     `json:"signal_count"`   // distinct contributing sources, 1-4
	CombinedScore float64 `json:"combined_score"` // weighted sum of subscores

	Insider       *InsiderDetail       `json:"insider,omitempty"`
	Actor         *ActorDetail         `json:"actor,omitempty"`
	Institutional *InstitutionalDetail `json:"institutional,omitempty"`
	Squeeze       *SqueezeDetail       `json:"squeeze,omitempty"`
}

// InsiderDetail carries the insider-source contribution of a signal.
type InsiderDetail struct {
	ClusterCount int     `json:"cluster_count"`
	TotalValue   float64 `json:"total_value"`
	Company      string  `json:"company"`
	Subscore     float64 `json:"subscore"` // 0-10
}

// ActorDetail carries the legislator-source contribution of a signal.
type ActorDetail struct {
	ActorCount         int      `json:"actor_count"`
	Actors             []string `json:"actors"`
	WeightedTotal      float64  `json:"weighted_total"` // trust-weighted purchase value, USD
	Bipartisan         bool     `json:"bipartisan"`
	HighConvictionSeen int      `json:"high_conviction_seen"`
	Subscore           float64  `json:"subscore"` // 0-10
}

// InstitutionalDetail carries the 13F-overlap contribution of a signal.
type InstitutionalDetail struct {
	OverlapCount int     `json:"overlap_count"` // funds holding the ticker
	Subscore     float64 `json:"subscore"`      // 0-10
}

// SqueezeDetail carries the short-squeeze contribution of a signal.
type SqueezeDetail struct {
	Score           float64 `json:"score"` // 0-100 composite
	HighPotential   bool    `json:"high_potential"`
	Subscore        float64 `json:"subscore"`                   // 0-10
	ConvictionBoost float64 `json:"conviction_boost,omitempty"` // flat short-interest bump
	ConvictionNote  string  `json:"conviction_note,omitempty"`
}

// TieredResult is the output of one fusion pass: five ordered buckets.
type TieredResult struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Degraded         bool      `json:"degraded"`
	DegradedReason   string    `json:"degraded_reason,omitempty"`
	ClustersAnalyzed int       `json:"clusters_analyzed"`

	Tier0 []*Signal `json:"tier0"`
	Tier1 []*Signal `json:"tier1"`
	Tier2 []*Signal `json:"tier2"`
	Tier3 []*Signal `json:"tier3"`
	Tier4 []*Signal `json:"tier4"`
}

// InsiderTierCount returns the combined size of tiers 1-4.
// Tier 0 is additive and excluded on purpose: it is derived from
// standalone actor clusters, not from insider clusters.
func (r *TieredResult) InsiderTierCount() int {
	return len(r.Tier1) + len(r.Tier2) + len(r.Tier3) + len(r.Tier4)
}

// All returns every signal across the five tiers, tier0 first.
func (r *TieredResult) All() []*Signal {
	out := make([]*Signal, 0, len(r.Tier0)+r.InsiderTierCount())
	out = append(out, r.Tier0...)
	out = append(out, r.Tier1...)
	out = append(out, r.Tier2...)
	out = append(out, r.Tier3...)
	out = append(out, r.Tier4...)
	return out
}

// Bucket returns the slice for the given tier.
func (r *TieredResult) Bucket(t Tier) []*Signal {
	switch t {
	case Tier0:
		return r.Tier0
	case Tier1:
		return r.Tier1
	case Tier2:
		return r.Tier2
	case Tier3:
		return r.Tier3
	case Tier4:
		return r.Tier4
	default:
		return nil
	}
}
