// Package report renders analysis results into diagnostic plots,
// Word documents with formatted tables, an Excel workbook, and a
// combined CSV export.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rentstat/internal/cluster"
	"rentstat/internal/dataset"
	apperrors "rentstat/internal/errors"
	"rentstat/internal/factor"
	"rentstat/internal/pca"
)

// Inputs bundles everything the reporter needs.
type Inputs struct {
	Table        *dataset.Table
	Standardized *dataset.Standardized
	PCA          *pca.Result
	Factor       *factor.Result
	Cluster      *cluster.Result
}

// Writer renders all report artifacts into a reports directory.
type Writer struct {
	reportsDir string
	plotsDir   string
	logger     *slog.Logger
}

// NewWriter creates a report writer. Directories are created on demand.
func NewWriter(reportsDir, plotsDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{reportsDir: reportsDir, plotsDir: plotsDir, logger: logger}
}

// Generate writes every artifact: plots, Word documents, the Excel
// workbook, and the combined CSV. Any write failure aborts.
func (w *Writer) Generate(ctx context.Context, in Inputs) error {
	for _, dir := range []string{w.reportsDir, w.plotsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return apperrors.Wrap(apperrors.CodeReportWrite, "report",
				fmt.Sprintf("create directory %s", dir), err)
		}
	}

	plots, err := w.writePlots(in)
	if err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "plots written", "count", len(plots), "dir", w.plotsDir)

	docPath := filepath.Join(w.reportsDir, "multivariate_report.docx")
	if err := w.writeWordReport(docPath, in); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "word report written", "path", docPath)

	clusterDocPath := filepath.Join(w.reportsDir, "clustering_report.docx")
	if err := w.writeClusterWordReport(clusterDocPath, in); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "clustering word report written", "path", clusterDocPath)

	xlsxPath := filepath.Join(w.reportsDir, "analysis_results.xlsx")
	if err := w.writeWorkbook(xlsxPath, in); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "workbook written", "path", xlsxPath)

	csvPath := filepath.Join(w.reportsDir, "scores_clusters.csv")
	if err := w.writeScoresCSV(csvPath, in); err != nil {
		return err
	}
	w.logger.InfoContext(ctx, "scores csv written", "path", csvPath)

	return nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
