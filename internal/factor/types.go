// Package factor implements maximum-likelihood factor analysis with
// factorability diagnostics, factor-count selection via parallel
// analysis, varimax rotation, and regression factor scores.
package factor

import "gonum.org/v1/gonum/mat"

// BartlettResult is the outcome of Bartlett's test of sphericity.
// A small PValue rejects the hypothesis that the correlation matrix is
// an identity, i.e. the data is factorable.
type BartlettResult struct {
	ChiSquare float64
	DF        int
	PValue    float64
}

// KMOResult holds Kaiser-Meyer-Olkin sampling adequacy measures.
type KMOResult struct {
	// Overall is the global KMO statistic in [0,1].
	Overall float64
	// PerVariable is the MSA for each variable, in column order.
	PerVariable []float64
}

// ParallelResult is the outcome of Horn's parallel analysis.
type ParallelResult struct {
	// Suggested is the number of factors whose observed eigenvalue
	// exceeds the simulated threshold.
	Suggested int
	// Observed are the eigenvalues of the sample correlation matrix,
	// descending.
	Observed []float64
	// Threshold are the per-rank simulated eigenvalue percentiles.
	Threshold []float64
}

// Result is the complete factor analysis output.
type Result struct {
	// Columns are the variable names, in input order.
	Columns []string

	Bartlett BartlettResult
	KMO      KMOResult
	Parallel ParallelResult

	// NumFactors is the fitted factor count (configured or suggested).
	NumFactors int
	// Loadings is the varimax-rotated p×k loading matrix.
	Loadings *mat.Dense
	// Communalities are per-variable shares of variance explained by
	// the common factors (row sums of squared loadings).
	Communalities []float64
	// Uniquenesses are the fitted specific variances (1 - communality
	// at the ML solution).
	Uniquenesses []float64
	// Scores are regression-method factor scores (n×k).
	Scores *mat.Dense

	// Converged reports whether the EM fit met its tolerance within
	// the iteration budget.
	Converged bool
	// Iterations is the EM iteration count used.
	Iterations int
	// LogLikelihood is the final profiled log-likelihood value.
	LogLikelihood float64
}
