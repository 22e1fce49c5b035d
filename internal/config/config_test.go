package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.05, cfg.Features.RiskFreeRate)
	assert.Equal(t, 0.045, cfg.Backtest.RiskFreeRate)
	assert.Equal(t, 126, cfg.Features.MomentumWindow)
	assert.Equal(t, 4, cfg.Clustering.NClusters)
	assert.Equal(t, 5, cfg.Clustering.MinSamples)
	assert.Equal(t, int64(42), cfg.Clustering.Seed)
	assert.Equal(t, "SPY", cfg.Data.Benchmark)
	assert.Equal(t, domain.FillForward, cfg.Data.FillMethod)

	total := 0.0
	for _, w := range cfg.Portfolio.ScoreWeights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.yaml", `
root_dir: `+dir+`
data:
  benchmark: QQQ
  fill_method: BFILL
clustering:
  n_clusters: 3
  segment_names:
    -1: Wild
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "QQQ", cfg.Data.Benchmark)
	assert.Equal(t, domain.FillBackward, cfg.Data.FillMethod, "enums are normalized")
	assert.Equal(t, 3, cfg.Clustering.NClusters)
	assert.Equal(t, "Wild", cfg.Clustering.SegmentNames.Name(domain.OutlierLabel))
	assert.Equal(t, "Stable", cfg.Clustering.SegmentNames.Name(3), "unspecified names keep defaults")
	assert.Equal(t, 10000.0, cfg.Backtest.InitialCapital)
	assert.Equal(t, dir, cfg.RootDir)
}

func TestLoad_ScoreWeightsReplaceDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.yaml", `
root_dir: `+dir+`
portfolio:
  score_weights:
    annualized_return: 0.5
    momentum: 0.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[domain.FeatureName]float64{
		domain.FeatureAnnualizedReturn: 0.5,
		domain.FeatureMomentum:         0.5,
	}, cfg.Portfolio.ScoreWeights)

	path = writeFile(t, dir, "other.yaml", "root_dir: "+dir+"\nportfolio:\n  outlier_min_return: 0.1\n")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults().Portfolio.ScoreWeights, cfg.Portfolio.ScoreWeights, "omitted weights keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CLUSTERFOLIO_BENCHMARK", "VTI")
	t.Setenv("CLUSTERFOLIO_SEED", "7")
	t.Setenv("CLUSTERFOLIO_DATA_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "VTI", cfg.Data.Benchmark)
	assert.Equal(t, int64(7), cfg.Clustering.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero clusters", func(c *Config) { c.Clustering.NClusters = 0 }},
		{"negative cost", func(c *Config) { c.Backtest.TransactionCost = -0.1 }},
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }},
		{"unknown fill method", func(c *Config) { c.Data.FillMethod = "mean" }},
		{"unknown cluster method", func(c *Config) { c.Clustering.Method = "hdbscan" }},
		{"bad train end", func(c *Config) { c.Data.TrainEnd = "2023/12/31" }},
		{"unknown score feature", func(c *Config) { c.Portfolio.ScoreWeights["alpha_x"] = 1 }},
		{"zero lookback", func(c *Config) { c.Features.MomentumWindow = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPath(t *testing.T) {
	cfg := Defaults()
	cfg.RootDir = "/srv/run"
	assert.Equal(t, "/srv/run/data/features_matrix.csv", cfg.Path("data/features_matrix.csv"))
	assert.Equal(t, "/tmp/x.db", cfg.Path("/tmp/x.db"))
}
