// Package config loads and validates the analyzer configuration.
//
// Configuration is layered: code defaults, then an optional YAML file,
// then RENTSTAT_* environment variables. The merged result is validated
// before the pipeline starts.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "rentstat/internal/errors"
)

// Config represents the complete analyzer configuration.
type Config struct {
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// InputConfig describes the dataset file.
type InputConfig struct {
	// File is the whitespace-delimited dataset with a header row.
	File string `yaml:"file" envconfig:"FILE" validate:"required"`
	// IDColumn optionally names the identifier column. Empty means
	// auto-detect (the single non-numeric column).
	IDColumn string `yaml:"id_column" envconfig:"ID_COLUMN"`
	// NAValues are tokens treated as missing (and rejected).
	NAValues []string `yaml:"na_values" envconfig:"NA_VALUES"`
}

// AnalysisConfig groups the statistical parameters.
type AnalysisConfig struct {
	// Seed drives every stochastic step (parallel analysis, k-means
	// seeding) so repeated runs are identical.
	Seed    int64         `yaml:"seed" envconfig:"SEED"`
	Factor  FactorConfig  `yaml:"factor" envconfig:"FACTOR"`
	Cluster ClusterConfig `yaml:"cluster" envconfig:"CLUSTER"`
}

// FactorConfig parameterizes the factor analysis step.
type FactorConfig struct {
	// Factors fixes the factor count; 0 defers to parallel analysis.
	Factors int `yaml:"factors" envconfig:"FACTORS" validate:"min=0"`
	// MaxIter bounds the EM iterations of the ML fit.
	MaxIter int `yaml:"max_iter" envconfig:"MAX_ITER" validate:"min=1"`
	// Tol is the log-likelihood convergence tolerance.
	Tol float64 `yaml:"tol" envconfig:"TOL" validate:"gt=0"`
	// ParallelIterations is the Monte Carlo sample count for Horn's
	// parallel analysis.
	ParallelIterations int `yaml:"parallel_iterations" envconfig:"PARALLEL_ITERATIONS" validate:"min=10"`
	// ParallelPercentile is the simulated-eigenvalue percentile an
	// observed eigenvalue must exceed to retain a factor.
	ParallelPercentile float64 `yaml:"parallel_percentile" envconfig:"PARALLEL_PERCENTILE" validate:"gt=0,lte=1"`
}

// ClusterConfig parameterizes the clustering step.
type ClusterConfig struct {
	// K fixes the cluster count; 0 defers to the elbow/silhouette sweep.
	K int `yaml:"k" envconfig:"K" validate:"min=0"`
	// KMin and KMax bound the sweep when K is 0.
	KMin int `yaml:"k_min" envconfig:"K_MIN" validate:"min=2"`
	KMax int `yaml:"k_max" envconfig:"K_MAX" validate:"min=2"`
	// MaxIter bounds Lloyd iterations per restart.
	MaxIter int `yaml:"max_iter" envconfig:"MAX_ITER" validate:"min=1"`
	// Restarts is the number of k-means++ seedings; the lowest-WSS
	// solution wins.
	Restarts int `yaml:"restarts" envconfig:"RESTARTS" validate:"min=1"`
	// Components is how many leading PCA score columns feed the
	// clustering; 0 means all.
	Components int `yaml:"components" envconfig:"COMPONENTS" validate:"min=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains output locations.
type PathsConfig struct {
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	PlotsDir   string `yaml:"plots_dir" envconfig:"PLOTS_DIR" validate:"required"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			File:     "data/rents.dat",
			NAValues: []string{"NA", "NaN", "."},
		},
		Analysis: AnalysisConfig{
			Seed: 42,
			Factor: FactorConfig{
				Factors:            0,
				MaxIter:            500,
				Tol:                1e-6,
				ParallelIterations: 100,
				ParallelPercentile: 0.95,
			},
			Cluster: ClusterConfig{
				K:          0,
				KMin:       2,
				KMax:       8,
				MaxIter:    300,
				Restarts:   10,
				Components: 2,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/rentstat.log",
		},
		Paths: PathsConfig{
			ReportsDir: "reports",
			PlotsDir:   "reports/plots",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment overrides, then validates it. configPath may be ""
// to skip the file layer.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("RENTSTAT", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidConfig, "", "configuration validation failed", err)
	}
	if c.Analysis.Cluster.K == 1 {
		return apperrors.New(apperrors.CodeInvalidConfig, "",
			"cluster k must be 0 (auto) or at least 2")
	}
	if c.Analysis.Cluster.K == 0 && c.Analysis.Cluster.KMin > c.Analysis.Cluster.KMax {
		return apperrors.New(apperrors.CodeInvalidConfig, "",
			fmt.Sprintf("cluster k range inverted: k_min=%d > k_max=%d",
				c.Analysis.Cluster.KMin, c.Analysis.Cluster.KMax))
	}
	return nil
}
