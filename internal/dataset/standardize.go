package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "rentstat/internal/errors"
)

// ColumnMoments records the location and scale removed from one column
// during standardization.
type ColumnMoments struct {
	Name   string
	Mean   float64
	StdDev float64
}

// Standardized is the zero-mean, unit-variance view of a table.
type Standardized struct {
	// Columns mirrors Table.Columns.
	Columns []string
	// Data is the n×p standardized matrix.
	Data *mat.Dense
	// Moments holds the per-column mean and standard deviation that
	// were removed, for reporting.
	Moments []ColumnMoments
}

// Standardize rescales every numeric column to mean 0 and sample
// variance 1. A constant column has no scale and aborts the run.
func Standardize(t *Table) (*Standardized, error) {
	n, p := t.Data.Dims()

	out := mat.NewDense(n, p, nil)
	moments := make([]ColumnMoments, p)
	col := make([]float64, n)

	for j := 0; j < p; j++ {
		mat.Col(col, j, t.Data)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			return nil, apperrors.New(apperrors.CodeDegenerateMatrix, "standardize",
				fmt.Sprintf("column %s is constant", t.Columns[j]))
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, (col[i]-mean)/std)
		}
		moments[j] = ColumnMoments{Name: t.Columns[j], Mean: mean, StdDev: std}
	}

	return &Standardized{
		Columns: append([]string(nil), t.Columns...),
		Data:    out,
		Moments: moments,
	}, nil
}

// CorrelationMatrix returns the p×p sample correlation matrix of the
// standardized data.
func (s *Standardized) CorrelationMatrix() *mat.SymDense {
	_, p := s.Data.Dims()
	corr := mat.NewSymDense(p, nil)
	stat.CorrelationMatrix(corr, s.Data, nil)
	return corr
}
