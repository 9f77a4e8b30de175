package strategyconfig

// Config is the tunable strategy surface of the fusion pipeline.
// Everything here is loaded from a single YAML file; code never reads
// strategy tunables from anywhere else.
type Config struct {
	Meta    Meta    `yaml:"meta" json:"meta"`
	Fusion  Fusion  `yaml:"fusion" json:"fusion"`
	Trust   Trust   `yaml:"trust" json:"trust"`
	Enrich  Enrich  `yaml:"enrich" json:"enrich"`
	Sources Sources `yaml:"sources" json:"sources"`
}

// Meta identifies the strategy revision.
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Fusion holds the multi-signal combination tunables.
type Fusion struct {
	Weights    FusionWeights `yaml:"weights" json:"weights"`
	Standalone Standalone    `yaml:"standalone" json:"standalone"`

	// StrongClusterMin is the insider count that lifts a single-source
	// insider signal from the watch list into tier 3.
	StrongClusterMin int `yaml:"strong_cluster_min" json:"strong_cluster_min"`
}

// FusionWeights are the per-source weights of the combined score.
// They must sum to 1.0; an absent source contributes 0 to its term,
// weights are deliberately not renormalized.
type FusionWeights struct {
	Insider       float64 `yaml:"insider" json:"insider"`
	Actor         float64 `yaml:"actor" json:"actor"`
	Institutional float64 `yaml:"institutional" json:"institutional"`
	Squeeze       float64 `yaml:"squeeze" json:"squeeze"`
}

// Sum returns the total of the four weights.
func (w FusionWeights) Sum() float64 {
	return w.Insider + w.Actor + w.Institutional + w.Squeeze
}

// Standalone is the bar a pure actor cluster must clear for tier 0.
// A cluster that fails it produces no signal at all.
type Standalone struct {
	MinActors        int     `yaml:"min_actors" json:"min_actors"`
	MinScore         float64 `yaml:"min_score" json:"min_score"` // actor subscore, 0-10
	WeightedTotalMin float64 `yaml:"weighted_total_min" json:"weighted_total_min"`
}

// Trust holds the time-decay trust model tunables.
type Trust struct {
	RetiringBoost     float64 `yaml:"retiring_boost" json:"retiring_boost"`
	HalfLifeDays      float64 `yaml:"half_life_days" json:"half_life_days"`
	MinWeightFraction float64 `yaml:"min_weight_fraction" json:"min_weight_fraction"`
	DefaultWeight     float64 `yaml:"default_weight" json:"default_weight"`

	// HighConvictionMin is the trust weight at or above which an actor
	// counts as high-conviction in the fusion bonuses.
	HighConvictionMin float64 `yaml:"high_conviction_min" json:"high_conviction_min"`
}

// Enrich holds the batch enrichment tunables.
type Enrich struct {
	Workers int `yaml:"workers" json:"workers"`
}

// Sources toggles the optional upstream collaborators.
type Sources struct {
	Institutional bool `yaml:"institutional" json:"institutional"`
	ShortInterest bool `yaml:"short_interest" json:"short_interest"`
}

// Default returns the shipped strategy configuration.
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "confluence_us_v1",
			Version:    "1.0",
		},
		Fusion: Fusion{
			Weights: FusionWeights{
				Insider:       0.35,
				Actor:         0.30,
				Institutional: 0.20,
				Squeeze:       0.15,
			},
			Standalone: Standalone{
				MinActors:        3,
				MinScore:         5.0,
				WeightedTotalMin: 150_000,
			},
			StrongClusterMin: 5,
		},
		Trust: Trust{
			RetiringBoost:     1.5,
			HalfLifeDays:      90,
			MinWeightFraction: 0.2,
			DefaultWeight:     1.0,
			HighConvictionMin: 1.25,
		},
		Enrich: Enrich{
			Workers: 5,
		},
		Sources: Sources{
			Institutional: true,
			ShortInterest: true,
		},
	}
}
