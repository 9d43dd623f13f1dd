// Command analyzer runs the full exploratory analysis pipeline over a
// city rental dataset: load, standardize, PCA, factor analysis,
// clustering, and report generation.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"rentstat/internal/config"
	"rentstat/internal/infrastructure"
	"rentstat/internal/pipeline"
)

// applyOverrides layers command-line flags over the loaded
// configuration. Zero values leave the configured setting untouched.
func applyOverrides(cfg *config.Config, input, out string, k, factors int, seed int64) {
	if input != "" {
		cfg.Input.File = input
	}
	if out != "" {
		cfg.Paths.ReportsDir = out
		cfg.Paths.PlotsDir = filepath.Join(out, "plots")
	}
	if k > 0 {
		cfg.Analysis.Cluster.K = k
	}
	if factors > 0 {
		cfg.Analysis.Factor.Factors = factors
	}
	if seed != 0 {
		cfg.Analysis.Seed = seed
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration (optional)")
	inputPath := flag.String("input", "", "dataset file (overrides config)")
	outputDir := flag.String("out", "", "reports directory (overrides config)")
	clusters := flag.Int("k", 0, "fixed cluster count (0 = auto via silhouette sweep)")
	factors := flag.Int("factors", 0, "fixed factor count (0 = auto via parallel analysis)")
	seed := flag.Int64("seed", 0, "random seed (0 = keep configured seed)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	applyOverrides(cfg, *inputPath, *outputDir, *clusters, *factors, *seed)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration after flag overrides", "error", err)
		os.Exit(1)
	}

	logger, closeLog, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer closeLog()

	logger.Info("starting analysis",
		"input", cfg.Input.File,
		"reports_dir", cfg.Paths.ReportsDir,
		"seed", cfg.Analysis.Seed,
	)

	registry, err := pipeline.DefaultRegistry()
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	state := &pipeline.State{Config: cfg}
	if err := pipeline.NewRunner(registry, logger).Run(context.Background(), state); err != nil {
		logger.Error("analysis failed", "error", err)
		closeLog()
		os.Exit(1)
	}

	logger.Info("analysis complete",
		"observations", state.Table.Rows(),
		"factors", state.Factor.NumFactors,
		"clusters", state.Cluster.K,
	)
}
