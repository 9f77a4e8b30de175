package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.InDelta(t, 1.0, cfg.Fusion.Weights.Sum(), 0.001)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid default",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "weights do not sum to 1",
			mutate:  func(c *Config) { c.Fusion.Weights.Insider = 0.9 },
			wantErr: "fusion.weights",
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.Fusion.Weights.Squeeze = -0.1 },
			wantErr: "fusion.weights",
		},
		{
			name:    "missing strategy id",
			mutate:  func(c *Config) { c.Meta.StrategyID = "" },
			wantErr: "meta.strategy_id",
		},
		{
			name:    "retiring boost below 1",
			mutate:  func(c *Config) { c.Trust.RetiringBoost = 0.8 },
			wantErr: "trust.retiring_boost",
		},
		{
			name:    "min weight fraction out of range",
			mutate:  func(c *Config) { c.Trust.MinWeightFraction = 1.5 },
			wantErr: "trust.min_weight_fraction",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Enrich.Workers = 0 },
			wantErr: "enrich.workers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	yaml := `
meta:
  strategy_id: confluence_test
  version: "0.1"
fusion:
  weights:
    insider: 0.35
    actor: 0.30
    institutional: 0.20
    squeeze: 0.15
  standalone:
    min_actors: 3
    min_score: 5.0
    weighted_total_min: 150000
  strong_cluster_min: 5
trust:
  retiring_boost: 1.5
  half_life_days: 90
  min_weight_fraction: 0.2
  default_weight: 1.0
  high_conviction_min: 1.25
enrich:
  workers: 5
sources:
  institutional: true
  short_interest: true
`
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "confluence_test", cfg.Meta.StrategyID)
	assert.Equal(t, 5, cfg.Fusion.StrongClusterMin)
	assert.Equal(t, 90.0, cfg.Trust.HalfLifeDays)
}

func TestLoad_UnknownField(t *testing.T) {
	yaml := `
meta:
  strategy_id: x
  version: "0.1"
fusion:
  weights:
    insider: 1.0
    actor: 0.0
    institutional: 0.0
    squeeze: 0.0
  bogus_field: true
`
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Meta.StrategyID, cfg.Meta.StrategyID)
}
