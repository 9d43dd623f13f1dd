package factor

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "rentstat/internal/errors"
)

// CorrelationEigenvalues returns the eigenvalues of a correlation
// matrix in descending order.
func CorrelationEigenvalues(corr *mat.SymDense) ([]float64, error) {
	var es mat.EigenSym
	if ok := es.Factorize(corr, false); !ok {
		return nil, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			"eigen-decomposition of correlation matrix failed")
	}
	vals := es.Values(nil)
	// EigenSym reports ascending order.
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	return vals, nil
}

// ParallelAnalysis implements Horn's parallel analysis: the observed
// eigenvalues are compared rank by rank against a percentile of
// eigenvalues obtained from uncorrelated standard-normal datasets of
// the same shape. Counting stops at the first rank that fails, so the
// suggestion is the run length of leading informative components.
func ParallelAnalysis(observed []float64, n, iterations int, percentile float64, rng *rand.Rand) (ParallelResult, error) {
	p := len(observed)

	sims := make([][]float64, p)
	for r := range sims {
		sims[r] = make([]float64, 0, iterations)
	}

	sample := mat.NewDense(n, p, nil)
	corr := mat.NewSymDense(p, nil)
	for it := 0; it < iterations; it++ {
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				sample.Set(i, j, rng.NormFloat64())
			}
		}
		stat.CorrelationMatrix(corr, sample, nil)
		vals, err := CorrelationEigenvalues(corr)
		if err != nil {
			return ParallelResult{}, err
		}
		for r := 0; r < p; r++ {
			sims[r] = append(sims[r], vals[r])
		}
	}

	threshold := make([]float64, p)
	for r := 0; r < p; r++ {
		sort.Float64s(sims[r])
		idx := int(percentile * float64(len(sims[r])))
		if idx >= len(sims[r]) {
			idx = len(sims[r]) - 1
		}
		threshold[r] = sims[r][idx]
	}

	suggested := 0
	for r := 0; r < p; r++ {
		if observed[r] <= threshold[r] {
			break
		}
		suggested++
	}

	return ParallelResult{
		Suggested: suggested,
		Observed:  append([]float64(nil), observed...),
		Threshold: threshold,
	}, nil
}
