package report

import (
	"encoding/csv"
	"fmt"
	"os"

	apperrors "rentstat/internal/errors"
)

// writeScoresCSV exports one row per observation: identifier, original
// measurements, PCA scores, factor scores, and cluster labels. A UTF-8
// BOM keeps Excel happy.
func (w *Writer) writeScoresCSV(path string, in Inputs) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "create scores csv", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write BOM", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{in.Table.IDName}
	header = append(header, in.Table.Columns...)
	for j := range in.PCA.Eigenvalues {
		header = append(header, fmt.Sprintf("PC%d", j+1))
	}
	for j := 0; j < in.Factor.NumFactors; j++ {
		header = append(header, fmt.Sprintf("Factor%d", j+1))
	}
	header = append(header, "KMeansCluster", "WardCluster", "Silhouette")
	if err := writer.Write(header); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "write csv header", err)
	}

	for i, id := range in.Table.IDs {
		record := []string{id}
		for j := range in.Table.Columns {
			record = append(record, formatFloat(in.Table.Data.At(i, j)))
		}
		for j := range in.PCA.Eigenvalues {
			record = append(record, formatFloat(in.PCA.Scores.At(i, j)))
		}
		for j := 0; j < in.Factor.NumFactors; j++ {
			record = append(record, formatFloat(in.Factor.Scores.At(i, j)))
		}
		record = append(record,
			fmt.Sprintf("%d", in.Cluster.Labels[i]+1),
			fmt.Sprintf("%d", in.Cluster.Hierarchical.Labels[i]+1),
			formatFloat(in.Cluster.Silhouette.PerObservation[i]))
		if err := writer.Write(record); err != nil {
			return apperrors.Wrap(apperrors.CodeReportWrite, "report",
				fmt.Sprintf("write csv record %d", i), err)
		}
	}

	writer.Flush()
	return writer.Error()
}
