package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"rentstat/internal/config"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, "cities.dat", "out", 3, 2, 7)

	assert.Equal(t, "cities.dat", cfg.Input.File)
	assert.Equal(t, "out", cfg.Paths.ReportsDir)
	assert.Equal(t, filepath.Join("out", "plots"), cfg.Paths.PlotsDir)
	assert.Equal(t, 3, cfg.Analysis.Cluster.K)
	assert.Equal(t, 2, cfg.Analysis.Factor.Factors)
	assert.Equal(t, int64(7), cfg.Analysis.Seed)
}

func TestApplyOverridesZeroValuesKeepConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Seed = 11
	applyOverrides(cfg, "", "", 0, 0, 0)

	assert.Equal(t, "data/rents.dat", cfg.Input.File)
	assert.Equal(t, "reports", cfg.Paths.ReportsDir)
	assert.Equal(t, filepath.Join("reports", "plots"), cfg.Paths.PlotsDir)
	assert.Equal(t, int64(11), cfg.Analysis.Seed)
}
