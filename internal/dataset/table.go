// Package dataset loads the rental observation table and prepares it
// for multivariate analysis.
//
// The input is a whitespace-delimited text file with a header row. One
// column holds a non-numeric row identifier (the city name); it is
// segregated on load and excluded from every numeric computation.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	apperrors "rentstat/internal/errors"
)

// Table is the in-memory observation table: rows are entities (cities),
// columns are numeric measurements. Identifier labels are kept aside.
type Table struct {
	// Columns are the numeric column names in file order.
	Columns []string
	// IDName is the header of the identifier column.
	IDName string
	// IDs are the per-row identifier labels, len == Rows().
	IDs []string
	// Data is the n×p numeric matrix.
	Data *mat.Dense
}

// Rows returns the observation count.
func (t *Table) Rows() int {
	r, _ := t.Data.Dims()
	return r
}

// Cols returns the numeric column count.
func (t *Table) Cols() int {
	_, c := t.Data.Dims()
	return c
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]float64, error) {
	for j, col := range t.Columns {
		if col == name {
			out := make([]float64, t.Rows())
			mat.Col(out, j, t.Data)
			return out, nil
		}
	}
	return nil, fmt.Errorf("no such column: %s", name)
}

// LoadOptions configures dataset parsing.
type LoadOptions struct {
	// IDColumn names the identifier column. Empty means auto-detect:
	// exactly one column of the first data row must be non-numeric.
	IDColumn string
	// NAValues are tokens rejected as missing values.
	NAValues []string
}

// Load reads a whitespace-delimited dataset with a header row.
func Load(path string, opts LoadOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeInputMissing, "load",
				fmt.Sprintf("dataset file %s not found", path), err)
		}
		return nil, apperrors.Wrap(apperrors.CodeInputMalformed, "load", "open dataset", err)
	}
	defer file.Close()

	na := make(map[string]bool, len(opts.NAValues))
	for _, v := range opts.NAValues {
		na[v] = true
	}

	scanner := bufio.NewScanner(file)

	header, err := readHeader(scanner)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	line := 1
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != len(header) {
			return nil, apperrors.New(apperrors.CodeInputMalformed, "load",
				fmt.Sprintf("line %d: expected %d fields, got %d", line, len(header), len(fields)))
		}
		for _, f := range fields {
			if na[f] {
				return nil, apperrors.New(apperrors.CodeMissingValue, "load",
					fmt.Sprintf("line %d: missing value %q", line, f))
			}
		}
		rows = append(rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInputMalformed, "load", "read dataset", err)
	}
	if len(rows) < 3 {
		return nil, apperrors.New(apperrors.CodeInputMalformed, "load",
			fmt.Sprintf("need at least 3 observations, got %d", len(rows)))
	}

	idIdx, err := identifierIndex(header, rows[0], opts.IDColumn)
	if err != nil {
		return nil, err
	}

	n := len(rows)
	p := len(header) - 1
	if p < 2 {
		return nil, apperrors.New(apperrors.CodeInputMalformed, "load",
			fmt.Sprintf("need at least 2 numeric columns, got %d", p))
	}

	columns := make([]string, 0, p)
	for j, name := range header {
		if j != idIdx {
			columns = append(columns, name)
		}
	}

	ids := make([]string, n)
	data := mat.NewDense(n, p, nil)
	for i, fields := range rows {
		k := 0
		for j, f := range fields {
			if j == idIdx {
				ids[i] = f
				continue
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInputMalformed, "load",
					fmt.Sprintf("line %d, column %s: non-numeric value %q", i+2, header[j], f), err)
			}
			data.Set(i, k, v)
			k++
		}
	}

	return &Table{
		Columns: columns,
		IDName:  header[idIdx],
		IDs:     ids,
		Data:    data,
	}, nil
}

func readHeader(scanner *bufio.Scanner) ([]string, error) {
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInputMalformed, "load", "read header", err)
	}
	return nil, apperrors.New(apperrors.CodeInputMalformed, "load", "dataset is empty")
}

// identifierIndex resolves the identifier column, either by name or by
// detecting the single non-numeric column of the first data row.
func identifierIndex(header, firstRow []string, name string) (int, error) {
	if name != "" {
		for j, h := range header {
			if h == name {
				return j, nil
			}
		}
		return 0, apperrors.New(apperrors.CodeInputMalformed, "load",
			fmt.Sprintf("identifier column %q not in header", name))
	}

	idx := -1
	for j, f := range firstRow {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			if idx >= 0 {
				return 0, apperrors.New(apperrors.CodeInputMalformed, "load",
					fmt.Sprintf("multiple non-numeric columns: %s and %s", header[idx], header[j]))
			}
			idx = j
		}
	}
	if idx < 0 {
		return 0, apperrors.New(apperrors.CodeInputMalformed, "load",
			"no identifier column found; every column of the first row is numeric")
	}
	return idx, nil
}
