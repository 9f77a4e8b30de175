package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError reports a constraint violation that stops startup.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints.
func Validate(cfg *Config) error {
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Fusion ===
	w := cfg.Fusion.Weights
	if w.Insider < 0 || w.Actor < 0 || w.Institutional < 0 || w.Squeeze < 0 {
		return ValidationError{"fusion.weights", "must be non-negative"}
	}
	if math.Abs(w.Sum()-1.0) > 0.01 {
		return ValidationError{"fusion.weights", fmt.Sprintf("must sum to 1.0, got %.4f", w.Sum())}
	}
	if cfg.Fusion.StrongClusterMin < 1 {
		return ValidationError{"fusion.strong_cluster_min", "must be >= 1"}
	}
	if cfg.Fusion.Standalone.MinActors < 1 {
		return ValidationError{"fusion.standalone.min_actors", "must be >= 1"}
	}
	if cfg.Fusion.Standalone.MinScore < 0 || cfg.Fusion.Standalone.MinScore > 10 {
		return ValidationError{"fusion.standalone.min_score", "must be in [0, 10]"}
	}
	if cfg.Fusion.Standalone.WeightedTotalMin < 0 {
		return ValidationError{"fusion.standalone.weighted_total_min", "must be >= 0"}
	}

	// === Trust ===
	if cfg.Trust.RetiringBoost < 1.0 {
		return ValidationError{"trust.retiring_boost", "must be >= 1.0"}
	}
	if cfg.Trust.HalfLifeDays <= 0 {
		return ValidationError{"trust.half_life_days", "must be > 0"}
	}
	if cfg.Trust.MinWeightFraction <= 0 || cfg.Trust.MinWeightFraction >= 1 {
		return ValidationError{"trust.min_weight_fraction", "must be in (0, 1)"}
	}
	if cfg.Trust.DefaultWeight <= 0 {
		return ValidationError{"trust.default_weight", "must be > 0"}
	}
	if cfg.Trust.HighConvictionMin <= 0 {
		return ValidationError{"trust.high_conviction_min", "must be > 0"}
	}

	// === Enrich ===
	if cfg.Enrich.Workers < 1 || cfg.Enrich.Workers > 64 {
		return ValidationError{"enrich.workers", "must be in [1, 64]"}
	}

	return nil
}
