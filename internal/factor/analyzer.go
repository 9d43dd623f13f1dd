package factor

import (
	"context"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"rentstat/internal/dataset"
	apperrors "rentstat/internal/errors"
)

// Params configures a factor analysis run.
type Params struct {
	// Factors fixes the factor count; 0 defers to parallel analysis.
	Factors int
	// MaxIter bounds EM iterations.
	MaxIter int
	// Tol is the EM convergence tolerance.
	Tol float64
	// ParallelIterations is the Monte Carlo sample count for parallel
	// analysis.
	ParallelIterations int
	// ParallelPercentile is the simulated-eigenvalue percentile used
	// as the retention threshold.
	ParallelPercentile float64
	// Seed drives the parallel analysis simulations.
	Seed int64
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{
		Factors:            0,
		MaxIter:            500,
		Tol:                1e-6,
		ParallelIterations: 100,
		ParallelPercentile: 0.95,
		Seed:               42,
	}
}

// Analyzer orchestrates the factor analysis step.
type Analyzer struct {
	params Params
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given parameters.
func NewAnalyzer(params Params, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{params: params, logger: logger}
}

// Analyze runs diagnostics, selects the factor count, fits the ML
// model, rotates, and scores.
func (a *Analyzer) Analyze(ctx context.Context, std *dataset.Standardized) (*Result, error) {
	n, p := std.Data.Dims()
	corr := std.CorrelationMatrix()

	bartlett, err := BartlettTest(corr, n)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "bartlett sphericity test",
		"chi_square", bartlett.ChiSquare,
		"df", bartlett.DF,
		"p_value", bartlett.PValue,
	)

	kmo, err := KMO(corr)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "kmo sampling adequacy", "overall", kmo.Overall)
	if kmo.Overall < 0.5 {
		a.logger.WarnContext(ctx, "kmo below 0.5, factor solution may be unstable",
			"overall", kmo.Overall)
	}

	observed, err := CorrelationEigenvalues(corr)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(a.params.Seed))
	parallel, err := ParallelAnalysis(observed, n, a.params.ParallelIterations,
		a.params.ParallelPercentile, rng)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "parallel analysis", "suggested_factors", parallel.Suggested)

	k := a.params.Factors
	if k == 0 {
		k = parallel.Suggested
	}
	// At least one factor is always fitted; more than p-1 is not
	// identified.
	if k < 1 {
		k = 1
	}
	if k > p-1 {
		k = p - 1
	}

	lambda, psi, logLik, iterations, converged, err := mlFit(corr, k, a.params.MaxIter, a.params.Tol)
	if err != nil {
		return nil, err
	}
	if !converged {
		return nil, apperrors.New(apperrors.CodeNoConvergence, "factor",
			"maximum-likelihood fit did not converge")
	}
	a.logger.InfoContext(ctx, "ml factor fit",
		"factors", k,
		"iterations", iterations,
		"log_likelihood", logLik,
	)

	rotated := Varimax(lambda)

	communalities := make([]float64, p)
	uniquenesses := make([]float64, p)
	for i := 0; i < p; i++ {
		h2 := 0.0
		for j := 0; j < k; j++ {
			h2 += rotated.At(i, j) * rotated.At(i, j)
		}
		communalities[i] = h2
		uniquenesses[i] = psi[i]
	}

	scores, err := regressionScores(std.Data, corr, rotated)
	if err != nil {
		return nil, err
	}

	return &Result{
		Columns:       append([]string(nil), std.Columns...),
		Bartlett:      bartlett,
		KMO:           kmo,
		Parallel:      parallel,
		NumFactors:    k,
		Loadings:      rotated,
		Communalities: communalities,
		Uniquenesses:  uniquenesses,
		Scores:        scores,
		Converged:     converged,
		Iterations:    iterations,
		LogLikelihood: logLik,
	}, nil
}

// regressionScores computes Thomson regression factor scores
// F = Z R^-1 Lambda.
func regressionScores(z mat.Matrix, corr *mat.SymDense, loadings *mat.Dense) (*mat.Dense, error) {
	var inv mat.Dense
	if err := inv.Inverse(corr); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDegenerateMatrix, "factor",
			"invert correlation matrix for scoring", err)
	}

	var weights mat.Dense
	weights.Mul(&inv, loadings)

	var scores mat.Dense
	scores.Mul(z, &weights)
	return mat.DenseCopyOf(&scores), nil
}
