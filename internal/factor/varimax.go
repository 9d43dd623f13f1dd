package factor

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	varimaxMaxIter = 100
	varimaxTol     = 1e-8
)

// Varimax applies an orthogonal varimax rotation to a p×k loading
// matrix, concentrating each variable's loading on few factors.
// Orthogonality preserves communalities. Factors are returned ordered
// by explained variance with a positive dominant loading.
func Varimax(loadings *mat.Dense) *mat.Dense {
	p, k := loadings.Dims()
	if k < 2 {
		out := mat.DenseCopyOf(loadings)
		orientColumns(out)
		return out
	}

	rotation := eye(k)
	d := 0.0

	var (
		rotated, cubed, colScaled, target mat.Dense
		u, v                              mat.Dense
	)

	for iter := 0; iter < varimaxMaxIter; iter++ {
		rotated.Mul(loadings, rotation)

		// target = L^3 - L diag(colSums(L^2))/p
		cubed.Apply(func(_, _ int, x float64) float64 { return x * x * x }, &rotated)

		colSums := make([]float64, k)
		for j := 0; j < k; j++ {
			for i := 0; i < p; i++ {
				x := rotated.At(i, j)
				colSums[j] += x * x
			}
		}
		colScaled.CloneFrom(&rotated)
		for j := 0; j < k; j++ {
			scale := colSums[j] / float64(p)
			for i := 0; i < p; i++ {
				colScaled.Set(i, j, colScaled.At(i, j)*scale)
			}
		}
		target.Sub(&cubed, &colScaled)

		var m mat.Dense
		m.Mul(loadings.T(), &target)

		var svd mat.SVD
		if ok := svd.Factorize(&m, mat.SVDThin); !ok {
			break
		}
		svd.UTo(&u)
		svd.VTo(&v)
		s := svd.Values(nil)

		rotation.Mul(&u, v.T())

		dNew := 0.0
		for _, sv := range s {
			dNew += sv
		}
		if dNew < d*(1+varimaxTol) {
			break
		}
		d = dNew
	}

	var out mat.Dense
	out.Mul(loadings, rotation)

	result := mat.DenseCopyOf(&out)
	sortFactorsByVariance(result)
	orientColumns(result)
	return result
}

func eye(k int) *mat.Dense {
	m := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// sortFactorsByVariance reorders columns so the factor explaining the
// most variance comes first.
func sortFactorsByVariance(m *mat.Dense) {
	p, k := m.Dims()

	ss := make([]float64, k)
	for j := 0; j < k; j++ {
		for i := 0; i < p; i++ {
			ss[j] += m.At(i, j) * m.At(i, j)
		}
	}

	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	// insertion sort by descending sum of squares; k is tiny
	for i := 1; i < k; i++ {
		for j := i; j > 0 && ss[order[j]] > ss[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	src := mat.DenseCopyOf(m)
	for j, from := range order {
		for i := 0; i < p; i++ {
			m.Set(i, j, src.At(i, from))
		}
	}
}

// orientColumns flips factor signs so each column's largest-magnitude
// loading is positive.
func orientColumns(m *mat.Dense) {
	p, k := m.Dims()
	for j := 0; j < k; j++ {
		maxAbs, maxVal := 0.0, 0.0
		for i := 0; i < p; i++ {
			if a := math.Abs(m.At(i, j)); a > maxAbs {
				maxAbs, maxVal = a, m.At(i, j)
			}
		}
		if maxVal < 0 {
			for i := 0; i < p; i++ {
				m.Set(i, j, -m.At(i, j))
			}
		}
	}
}
