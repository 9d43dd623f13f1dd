package factor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "rentstat/internal/errors"
)

// BartlettTest runs Bartlett's test of sphericity on a correlation
// matrix for n observations.
//
//	chi2 = -(n - 1 - (2p+5)/6) * ln det(R),  df = p(p-1)/2
func BartlettTest(corr *mat.SymDense, n int) (BartlettResult, error) {
	p := corr.SymmetricDim()
	if n <= p {
		return BartlettResult{}, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			fmt.Sprintf("bartlett test needs n > p, got n=%d p=%d", n, p))
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(corr); !ok {
		return BartlettResult{}, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			"correlation matrix is not positive definite")
	}
	logDet := chol.LogDet()

	factor := float64(n-1) - (2*float64(p)+5)/6
	chi2 := -factor * logDet
	if chi2 < 0 {
		chi2 = 0
	}
	df := p * (p - 1) / 2

	dist := distuv.ChiSquared{K: float64(df)}
	pValue := 1 - dist.CDF(chi2)

	return BartlettResult{ChiSquare: chi2, DF: df, PValue: pValue}, nil
}

// KMO computes the Kaiser-Meyer-Olkin measure of sampling adequacy
// from a correlation matrix. Values above 0.6 are conventionally
// considered adequate for factor analysis.
func KMO(corr *mat.SymDense) (KMOResult, error) {
	p := corr.SymmetricDim()

	var inv mat.Dense
	if err := inv.Inverse(corr); err != nil {
		return KMOResult{}, apperrors.Wrap(apperrors.CodeDegenerateMatrix, "factor",
			"invert correlation matrix", err)
	}

	// Anti-image partial correlations from the inverse.
	partial := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if i == j {
				continue
			}
			d := math.Sqrt(inv.At(i, i) * inv.At(j, j))
			partial.Set(i, j, -inv.At(i, j)/d)
		}
	}

	perVar := make([]float64, p)
	var sumR2, sumA2 float64
	for i := 0; i < p; i++ {
		var rowR2, rowA2 float64
		for j := 0; j < p; j++ {
			if i == j {
				continue
			}
			r := corr.At(i, j)
			a := partial.At(i, j)
			rowR2 += r * r
			rowA2 += a * a
		}
		sumR2 += rowR2
		sumA2 += rowA2
		if rowR2+rowA2 == 0 {
			perVar[i] = math.NaN()
		} else {
			perVar[i] = rowR2 / (rowR2 + rowA2)
		}
	}

	if sumR2+sumA2 == 0 {
		return KMOResult{}, apperrors.New(apperrors.CodeDegenerateMatrix, "factor",
			"correlation matrix has no off-diagonal structure")
	}

	return KMOResult{
		Overall:     sumR2 / (sumR2 + sumA2),
		PerVariable: perVar,
	}, nil
}
