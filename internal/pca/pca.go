// Package pca computes principal components of the standardized
// observation matrix via gonum's eigen-decomposition.
package pca

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"rentstat/internal/dataset"
	apperrors "rentstat/internal/errors"
)

// Result holds the full principal component decomposition.
type Result struct {
	// Columns are the variable names, in input order.
	Columns []string
	// Eigenvalues of the correlation matrix, descending.
	Eigenvalues []float64
	// VarianceRatio is the share of total variance per component.
	VarianceRatio []float64
	// Cumulative is the running sum of VarianceRatio; its last entry
	// is 1 up to rounding.
	Cumulative []float64
	// Vectors holds the component directions, one per column (p×p).
	Vectors *mat.Dense
	// Loadings are the vectors scaled by the square root of their
	// eigenvalue, i.e. variable-component correlations (p×p).
	Loadings *mat.Dense
	// Scores are the observations projected onto the components (n×p).
	Scores *mat.Dense
}

// Components returns the number of components (= number of variables).
func (r *Result) Components() int {
	return len(r.Eigenvalues)
}

// ScoreColumns returns the leading k score columns as an n×k matrix.
// k = 0 or k > p yields all columns.
func (r *Result) ScoreColumns(k int) *mat.Dense {
	n, p := r.Scores.Dims()
	if k <= 0 || k > p {
		k = p
	}
	out := mat.NewDense(n, k, nil)
	out.Copy(r.Scores.Slice(0, n, 0, k))
	return out
}

// Compute runs PCA on standardized data. Since every column has unit
// variance, the covariance of the input is its correlation matrix and
// the eigenvalues sum to the number of variables.
func Compute(std *dataset.Standardized) (*Result, error) {
	n, p := std.Data.Dims()
	if n <= p {
		return nil, apperrors.New(apperrors.CodeDegenerateMatrix, "pca",
			fmt.Sprintf("need more observations (%d) than variables (%d)", n, p))
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(std.Data, nil); !ok {
		return nil, apperrors.New(apperrors.CodeDegenerateMatrix, "pca",
			"principal component decomposition failed")
	}

	vars := pc.VarsTo(nil)
	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	orientVectors(&vectors)

	total := floats.Sum(vars)
	if total <= 0 {
		return nil, apperrors.New(apperrors.CodeDegenerateMatrix, "pca", "zero total variance")
	}

	ratio := make([]float64, p)
	cum := make([]float64, p)
	running := 0.0
	for i, v := range vars {
		ratio[i] = v / total
		running += ratio[i]
		cum[i] = running
	}

	loadings := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		scale := 0.0
		if vars[j] > 0 {
			scale = math.Sqrt(vars[j])
		}
		for i := 0; i < p; i++ {
			loadings.Set(i, j, vectors.At(i, j)*scale)
		}
	}

	scores := mat.NewDense(n, p, nil)
	scores.Mul(std.Data, &vectors)

	return &Result{
		Columns:       append([]string(nil), std.Columns...),
		Eigenvalues:   vars,
		VarianceRatio: ratio,
		Cumulative:    cum,
		Vectors:       &vectors,
		Loadings:      loadings,
		Scores:        scores,
	}, nil
}

// orientVectors fixes the arbitrary sign of each component so the
// entry with the largest magnitude is positive, making repeated runs
// comparable.
func orientVectors(v *mat.Dense) {
	r, c := v.Dims()
	for j := 0; j < c; j++ {
		maxAbs, maxVal := 0.0, 0.0
		for i := 0; i < r; i++ {
			a := v.At(i, j)
			if abs(a) > maxAbs {
				maxAbs, maxVal = abs(a), a
			}
		}
		if maxVal < 0 {
			for i := 0; i < r; i++ {
				v.Set(i, j, -v.At(i, j))
			}
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
