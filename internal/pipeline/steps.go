package pipeline

import (
	"context"
	"log/slog"

	"rentstat/internal/cluster"
	"rentstat/internal/dataset"
	"rentstat/internal/factor"
	"rentstat/internal/pca"
	"rentstat/internal/report"
)

// LoadStep reads the dataset file into the shared state.
type LoadStep struct{}

func (LoadStep) ID() string   { return "load" }
func (LoadStep) Name() string { return "Load dataset" }

func (LoadStep) Run(ctx context.Context, state *State) error {
	tbl, err := dataset.Load(state.Config.Input.File, dataset.LoadOptions{
		IDColumn: state.Config.Input.IDColumn,
		NAValues: state.Config.Input.NAValues,
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "dataset loaded",
		"file", state.Config.Input.File,
		"observations", tbl.Rows(),
		"variables", tbl.Cols(),
		"identifier", tbl.IDName,
	)
	state.Table = tbl
	return nil
}

// StandardizeStep rescales every column to zero mean and unit variance.
type StandardizeStep struct{}

func (StandardizeStep) ID() string   { return "standardize" }
func (StandardizeStep) Name() string { return "Standardize columns" }

func (StandardizeStep) Run(ctx context.Context, state *State) error {
	std, err := dataset.Standardize(state.Table)
	if err != nil {
		return err
	}
	state.Standardized = std
	return nil
}

// PCAStep computes the principal component decomposition.
type PCAStep struct{}

func (PCAStep) ID() string   { return "pca" }
func (PCAStep) Name() string { return "Principal component analysis" }

func (PCAStep) Run(ctx context.Context, state *State) error {
	res, err := pca.Compute(state.Standardized)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "pca complete",
		"components", res.Components(),
		"first_eigenvalue", res.Eigenvalues[0],
	)
	state.PCA = res
	return nil
}

// FactorStep runs diagnostics and the maximum-likelihood factor model.
type FactorStep struct{}

func (FactorStep) ID() string   { return "factor" }
func (FactorStep) Name() string { return "Factor analysis" }

func (FactorStep) Run(ctx context.Context, state *State) error {
	cfg := state.Config.Analysis
	analyzer := factor.NewAnalyzer(factor.Params{
		Factors:            cfg.Factor.Factors,
		MaxIter:            cfg.Factor.MaxIter,
		Tol:                cfg.Factor.Tol,
		ParallelIterations: cfg.Factor.ParallelIterations,
		ParallelPercentile: cfg.Factor.ParallelPercentile,
		Seed:               cfg.Seed,
	}, slog.Default())

	res, err := analyzer.Analyze(ctx, state.Standardized)
	if err != nil {
		return err
	}
	state.Factor = res
	return nil
}

// ClusterStep partitions the observations on their PCA scores.
type ClusterStep struct{}

func (ClusterStep) ID() string   { return "cluster" }
func (ClusterStep) Name() string { return "K-means and Ward clustering" }

func (ClusterStep) Run(ctx context.Context, state *State) error {
	cfg := state.Config.Analysis
	state.ClusterInput = state.PCA.ScoreColumns(cfg.Cluster.Components)

	analyzer := cluster.NewAnalyzer(cluster.Params{
		K:        cfg.Cluster.K,
		KMin:     cfg.Cluster.KMin,
		KMax:     cfg.Cluster.KMax,
		MaxIter:  cfg.Cluster.MaxIter,
		Restarts: cfg.Cluster.Restarts,
		Seed:     cfg.Seed,
	}, slog.Default())

	res, err := analyzer.Analyze(ctx, state.ClusterInput)
	if err != nil {
		return err
	}
	state.Cluster = res
	return nil
}

// ReportStep renders all artifacts.
type ReportStep struct{}

func (ReportStep) ID() string   { return "report" }
func (ReportStep) Name() string { return "Generate reports" }

func (ReportStep) Run(ctx context.Context, state *State) error {
	writer := report.NewWriter(state.Config.Paths.ReportsDir, state.Config.Paths.PlotsDir, slog.Default())
	return writer.Generate(ctx, report.Inputs{
		Table:        state.Table,
		Standardized: state.Standardized,
		PCA:          state.PCA,
		Factor:       state.Factor,
		Cluster:      state.Cluster,
	})
}

// DefaultRegistry wires the full analysis pipeline in order.
func DefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	steps := []Step{
		LoadStep{},
		StandardizeStep{},
		PCAStep{},
		FactorStep{},
		ClusterStep{},
		ReportStep{},
	}
	for _, s := range steps {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
