package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "rentstat/internal/errors"
)

// writeWorkbook exports the numeric results to an Excel workbook with
// one sheet per analysis.
func (w *Writer) writeWorkbook(path string, in Inputs) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "create workbook style", err)
	}

	writeSheet := func(name string, header []string, rows [][]interface{}) error {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		for j, h := range header {
			cell, err := excelize.CoordinatesToCellName(j+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, h); err != nil {
				return err
			}
			if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
				return err
			}
		}
		for i, row := range rows {
			for j, v := range row {
				cell, err := excelize.CoordinatesToCellName(j+1, i+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(name, cell, v); err != nil {
					return err
				}
			}
		}
		return nil
	}

	// Variance sheet.
	varianceRows := make([][]interface{}, len(in.PCA.Eigenvalues))
	for i := range in.PCA.Eigenvalues {
		varianceRows[i] = []interface{}{
			fmt.Sprintf("PC%d", i+1),
			in.PCA.Eigenvalues[i],
			in.PCA.VarianceRatio[i],
			in.PCA.Cumulative[i],
		}
	}
	if err := writeSheet("PCA Variance",
		[]string{"Component", "Eigenvalue", "Share", "Cumulative"}, varianceRows); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write variance sheet", err)
	}

	// PCA loadings sheet.
	loadingHeader := []string{"Variable"}
	for j := range in.PCA.Eigenvalues {
		loadingHeader = append(loadingHeader, fmt.Sprintf("PC%d", j+1))
	}
	loadingRows := make([][]interface{}, len(in.PCA.Columns))
	for i, name := range in.PCA.Columns {
		row := []interface{}{name}
		for j := range in.PCA.Eigenvalues {
			row = append(row, in.PCA.Loadings.At(i, j))
		}
		loadingRows[i] = row
	}
	if err := writeSheet("PCA Loadings", loadingHeader, loadingRows); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write loadings sheet", err)
	}

	// Factor sheet.
	factorHeader := []string{"Variable"}
	for j := 0; j < in.Factor.NumFactors; j++ {
		factorHeader = append(factorHeader, fmt.Sprintf("Factor %d", j+1))
	}
	factorHeader = append(factorHeader, "Communality", "Uniqueness", "MSA")
	factorRows := make([][]interface{}, len(in.Factor.Columns))
	for i, name := range in.Factor.Columns {
		row := []interface{}{name}
		for j := 0; j < in.Factor.NumFactors; j++ {
			row = append(row, in.Factor.Loadings.At(i, j))
		}
		row = append(row,
			in.Factor.Communalities[i],
			in.Factor.Uniquenesses[i],
			in.Factor.KMO.PerVariable[i])
		factorRows[i] = row
	}
	if err := writeSheet("Factor Loadings", factorHeader, factorRows); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write factor sheet", err)
	}

	// Cluster sheet.
	clusterRows := make([][]interface{}, in.Table.Rows())
	for i, id := range in.Table.IDs {
		clusterRows[i] = []interface{}{
			id,
			in.Cluster.Labels[i] + 1,
			in.Cluster.Hierarchical.Labels[i] + 1,
			in.Cluster.Silhouette.PerObservation[i],
		}
	}
	if err := writeSheet("Clusters",
		[]string{in.Table.IDName, "KMeans", "Ward", "Silhouette"}, clusterRows); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write cluster sheet", err)
	}

	// Drop the default sheet and save.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "remove default sheet", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "save workbook", err)
	}
	return nil
}
