package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rentstat/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/rents.dat", cfg.Input.File)
	assert.Equal(t, int64(42), cfg.Analysis.Seed)
	assert.Equal(t, 0, cfg.Analysis.Factor.Factors)
	assert.Equal(t, 100, cfg.Analysis.Factor.ParallelIterations)
	assert.Equal(t, 2, cfg.Analysis.Cluster.KMin)
	assert.Equal(t, 8, cfg.Analysis.Cluster.KMax)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "reports", cfg.Paths.ReportsDir)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
input:
  file: testdata/cities.dat
analysis:
  seed: 7
  cluster:
    k: 3
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testdata/cities.dat", cfg.Input.File)
	assert.Equal(t, int64(7), cfg.Analysis.Seed)
	assert.Equal(t, 3, cfg.Analysis.Cluster.K)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, 300, cfg.Analysis.Cluster.MaxIter)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))

	t.Setenv("RENTSTAT_LOGGING_LEVEL", "warn")
	t.Setenv("RENTSTAT_ANALYSIS_SEED", "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(99), cfg.Analysis.Seed)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero max iter", func(c *Config) { c.Analysis.Factor.MaxIter = 0 }},
		{"percentile above one", func(c *Config) { c.Analysis.Factor.ParallelPercentile = 1.5 }},
		{"single cluster", func(c *Config) { c.Analysis.Cluster.K = 1 }},
		{"inverted k range", func(c *Config) {
			c.Analysis.Cluster.KMin = 6
			c.Analysis.Cluster.KMax = 3
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeInvalidConfig, apperrors.CodeOf(err))
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
