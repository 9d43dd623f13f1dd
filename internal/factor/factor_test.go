package factor

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"rentstat/internal/dataset"
	apperrors "rentstat/internal/errors"
)

func TestBartlettIdentity(t *testing.T) {
	// An identity correlation matrix has log-determinant zero, so the
	// statistic collapses and sphericity cannot be rejected.
	corr := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})

	res, err := BartlettTest(corr, 50)
	require.NoError(t, err)

	assert.InDelta(t, 0, res.ChiSquare, 1e-12)
	assert.Equal(t, 3, res.DF)
	assert.InDelta(t, 1, res.PValue, 1e-12)
}

func TestBartlettCorrelated(t *testing.T) {
	// det = 1 - 0.8^2 = 0.36; chi2 = (99 - 1.5) * -ln(0.36).
	corr := mat.NewSymDense(2, []float64{
		1, 0.8,
		0.8, 1,
	})

	res, err := BartlettTest(corr, 100)
	require.NoError(t, err)

	expected := 97.5 * -math.Log(0.36)
	assert.InDelta(t, expected, res.ChiSquare, 1e-9)
	assert.Equal(t, 1, res.DF)
	assert.Less(t, res.PValue, 1e-6)
}

func TestBartlettNotPositiveDefinite(t *testing.T) {
	corr := mat.NewSymDense(2, []float64{
		1, 1,
		1, 1,
	})

	_, err := BartlettTest(corr, 100)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDegenerateMatrix, apperrors.CodeOf(err))
}

func TestKMOTwoVariables(t *testing.T) {
	// With two variables the partial correlation equals the zero-order
	// correlation, so KMO is exactly 0.5 regardless of r.
	for _, r := range []float64{0.2, 0.5, 0.9} {
		corr := mat.NewSymDense(2, []float64{1, r, r, 1})
		res, err := KMO(corr)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, res.Overall, 1e-12, "r=%v", r)
		require.Len(t, res.PerVariable, 2)
		for _, msa := range res.PerVariable {
			assert.InDelta(t, 0.5, msa, 1e-12)
		}
	}
}

func TestKMOBounds(t *testing.T) {
	corr := mat.NewSymDense(3, []float64{
		1, 0.6, 0.5,
		0.6, 1, 0.4,
		0.5, 0.4, 1,
	})

	res, err := KMO(corr)
	require.NoError(t, err)

	assert.Greater(t, res.Overall, 0.0)
	assert.LessOrEqual(t, res.Overall, 1.0)
	for _, msa := range res.PerVariable {
		assert.Greater(t, msa, 0.0)
		assert.LessOrEqual(t, msa, 1.0)
	}
}

func TestParallelAnalysisThresholds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	t.Run("dominant first eigenvalue", func(t *testing.T) {
		observed := []float64{3.0, 0.5, 0.5, 0.5, 0.5}
		res, err := ParallelAnalysis(observed, 100, 50, 0.95, rng)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Suggested)
		require.Len(t, res.Threshold, 5)
		// Simulated thresholds descend with rank.
		for r := 1; r < len(res.Threshold); r++ {
			assert.GreaterOrEqual(t, res.Threshold[r-1], res.Threshold[r])
		}
	})

	t.Run("flat spectrum suggests nothing", func(t *testing.T) {
		observed := []float64{1, 1, 1, 1, 1}
		res, err := ParallelAnalysis(observed, 100, 50, 0.95, rng)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Suggested)
	})
}

// oneFactorCorrelation builds the exact correlation matrix of a
// single-factor model with the given loadings.
func oneFactorCorrelation(loadings []float64) *mat.SymDense {
	p := len(loadings)
	corr := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			if i == j {
				corr.SetSym(i, i, 1)
			} else {
				corr.SetSym(i, j, loadings[i]*loadings[j])
			}
		}
	}
	return corr
}

func TestMLFitRecoversOneFactorModel(t *testing.T) {
	true1 := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4}
	corr := oneFactorCorrelation(true1)

	lambda, psi, _, iterations, converged, err := mlFit(corr, 1, 2000, 1e-10)
	require.NoError(t, err)
	require.True(t, converged, "EM should converge on exact model data")
	assert.Greater(t, iterations, 0)

	p, k := lambda.Dims()
	require.Equal(t, 6, p)
	require.Equal(t, 1, k)

	for i, want := range true1 {
		assert.InDelta(t, want, math.Abs(lambda.At(i, 0)), 0.05, "loading %d", i)
		assert.InDelta(t, 1-want*want, psi[i], 0.05, "uniqueness %d", i)
	}
}

func TestMLFitInvalidFactorCount(t *testing.T) {
	corr := oneFactorCorrelation([]float64{0.8, 0.7, 0.6})

	_, _, _, _, _, err := mlFit(corr, 3, 100, 1e-6)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDegenerateMatrix, apperrors.CodeOf(err))
}

func TestVarimaxPreservesCommunalities(t *testing.T) {
	loadings := mat.NewDense(6, 2, []float64{
		0.7, 0.3,
		0.6, 0.4,
		0.8, 0.2,
		0.2, 0.7,
		0.3, 0.8,
		0.1, 0.6,
	})

	before := make([]float64, 6)
	for i := 0; i < 6; i++ {
		before[i] = loadings.At(i, 0)*loadings.At(i, 0) + loadings.At(i, 1)*loadings.At(i, 1)
	}

	rotated := Varimax(loadings)

	p, k := rotated.Dims()
	require.Equal(t, 6, p)
	require.Equal(t, 2, k)
	for i := 0; i < 6; i++ {
		after := rotated.At(i, 0)*rotated.At(i, 0) + rotated.At(i, 1)*rotated.At(i, 1)
		assert.InDelta(t, before[i], after, 1e-9, "communality %d", i)
	}

	// The rotation should not reduce the varimax criterion (sum of
	// loading-variance per factor).
	assert.GreaterOrEqual(t, varimaxCriterion(rotated), varimaxCriterion(loadings)-1e-9)
}

func varimaxCriterion(m *mat.Dense) float64 {
	p, k := m.Dims()
	total := 0.0
	for j := 0; j < k; j++ {
		var sum2, sum4 float64
		for i := 0; i < p; i++ {
			x2 := m.At(i, j) * m.At(i, j)
			sum2 += x2
			sum4 += x2 * x2
		}
		total += sum4/float64(p) - (sum2/float64(p))*(sum2/float64(p))
	}
	return total
}

func TestVarimaxSingleFactor(t *testing.T) {
	loadings := mat.NewDense(3, 1, []float64{-0.8, -0.6, -0.7})
	rotated := Varimax(loadings)

	// Sign is oriented positive, values untouched otherwise.
	assert.InDelta(t, 0.8, rotated.At(0, 0), 1e-12)
	assert.InDelta(t, 0.6, rotated.At(1, 0), 1e-12)
	assert.InDelta(t, 0.7, rotated.At(2, 0), 1e-12)
}

// syntheticTwoFactor samples standardized data with a clear two-factor
// block structure.
func syntheticTwoFactor(t *testing.T, n int, seed int64) *dataset.Standardized {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	p := 6

	data := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		f1 := rng.NormFloat64()
		f2 := rng.NormFloat64()
		for j := 0; j < p; j++ {
			common := f1
			if j >= 3 {
				common = f2
			}
			data.Set(i, j, 0.85*common+0.4*rng.NormFloat64())
		}
	}

	cols := []string{"v1", "v2", "v3", "v4", "v5", "v6"}
	ids := make([]string, n)
	tbl := &dataset.Table{Columns: cols, IDName: "id", IDs: ids, Data: data}
	std, err := dataset.Standardize(tbl)
	require.NoError(t, err)
	return std
}

func TestAnalyzerEndToEnd(t *testing.T) {
	std := syntheticTwoFactor(t, 200, 11)

	params := DefaultParams()
	params.MaxIter = 2000
	analyzer := NewAnalyzer(params, slog.Default())

	res, err := analyzer.Analyze(context.Background(), std)
	require.NoError(t, err)

	assert.Less(t, res.Bartlett.PValue, 0.01, "block-structured data is factorable")
	assert.Greater(t, res.KMO.Overall, 0.0)
	assert.GreaterOrEqual(t, res.NumFactors, 1)
	assert.LessOrEqual(t, res.NumFactors, 5)

	p := len(res.Columns)
	lr, lc := res.Loadings.Dims()
	assert.Equal(t, p, lr)
	assert.Equal(t, res.NumFactors, lc)

	n, k := res.Scores.Dims()
	assert.Equal(t, 200, n)
	assert.Equal(t, res.NumFactors, k)

	// At the ML solution the reproduced diagonal matches the observed
	// unit variances, so communality + uniqueness is close to one.
	for i := 0; i < p; i++ {
		assert.InDelta(t, 1.0, res.Communalities[i]+res.Uniquenesses[i], 0.05,
			"variable %s", res.Columns[i])
	}
	assert.True(t, res.Converged)
}

func TestAnalyzerDeterministic(t *testing.T) {
	params := DefaultParams()
	params.MaxIter = 2000

	a, err := NewAnalyzer(params, nil).Analyze(context.Background(), syntheticTwoFactor(t, 150, 3))
	require.NoError(t, err)
	b, err := NewAnalyzer(params, nil).Analyze(context.Background(), syntheticTwoFactor(t, 150, 3))
	require.NoError(t, err)

	assert.Equal(t, a.NumFactors, b.NumFactors)
	assert.True(t, mat.Equal(a.Loadings, b.Loadings))
	assert.True(t, mat.Equal(a.Scores, b.Scores))
	assert.Equal(t, a.Parallel.Suggested, b.Parallel.Suggested)
}
