package report

import (
	"fmt"

	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/document"
	"github.com/unidoc/unioffice/measurement"
	"github.com/unidoc/unioffice/schema/soo/wml"

	apperrors "rentstat/internal/errors"
)

// writeWordReport renders the PCA and factor analysis tables into a
// Word document.
func (w *Writer) writeWordReport(path string, in Inputs) error {
	doc := document.New()

	title(doc, "Multivariate Analysis of City Rental Data")

	heading(doc, "Dataset")
	summary := [][]string{
		{"Observations", fmt.Sprintf("%d", in.Table.Rows())},
		{"Variables", fmt.Sprintf("%d", in.Table.Cols())},
		{"Identifier", in.Table.IDName},
	}
	addTable(doc, []string{"Property", "Value"}, summary)

	heading(doc, "Standardization")
	rows := make([][]string, 0, len(in.Standardized.Moments))
	for _, m := range in.Standardized.Moments {
		rows = append(rows, []string{m.Name, formatFloat(m.Mean), formatFloat(m.StdDev)})
	}
	addTable(doc, []string{"Variable", "Mean", "Std. Dev."}, rows)

	heading(doc, "Principal Components: Explained Variance")
	rows = rows[:0]
	for i := range in.PCA.Eigenvalues {
		rows = append(rows, []string{
			fmt.Sprintf("PC%d", i+1),
			formatFloat(in.PCA.Eigenvalues[i]),
			formatFloat(in.PCA.VarianceRatio[i]),
			formatFloat(in.PCA.Cumulative[i]),
		})
	}
	addTable(doc, []string{"Component", "Eigenvalue", "Share", "Cumulative"}, rows)

	heading(doc, "Principal Component Loadings")
	header := []string{"Variable"}
	for j := range in.PCA.Eigenvalues {
		header = append(header, fmt.Sprintf("PC%d", j+1))
	}
	rows = rows[:0]
	for i, name := range in.PCA.Columns {
		row := []string{name}
		for j := range in.PCA.Eigenvalues {
			row = append(row, formatFloat(in.PCA.Loadings.At(i, j)))
		}
		rows = append(rows, row)
	}
	addTable(doc, header, rows)

	heading(doc, "Factorability Diagnostics")
	diag := [][]string{
		{"Bartlett chi-square", formatFloat(in.Factor.Bartlett.ChiSquare)},
		{"Bartlett df", fmt.Sprintf("%d", in.Factor.Bartlett.DF)},
		{"Bartlett p-value", fmt.Sprintf("%.6f", in.Factor.Bartlett.PValue)},
		{"KMO overall", formatFloat(in.Factor.KMO.Overall)},
		{"Parallel analysis factors", fmt.Sprintf("%d", in.Factor.Parallel.Suggested)},
		{"Fitted factors", fmt.Sprintf("%d", in.Factor.NumFactors)},
	}
	addTable(doc, []string{"Diagnostic", "Value"}, diag)

	heading(doc, "Rotated Factor Loadings")
	header = []string{"Variable"}
	for j := 0; j < in.Factor.NumFactors; j++ {
		header = append(header, fmt.Sprintf("Factor %d", j+1))
	}
	header = append(header, "Communality", "Uniqueness")
	rows = rows[:0]
	for i, name := range in.Factor.Columns {
		row := []string{name}
		for j := 0; j < in.Factor.NumFactors; j++ {
			row = append(row, formatFloat(in.Factor.Loadings.At(i, j)))
		}
		row = append(row,
			formatFloat(in.Factor.Communalities[i]),
			formatFloat(in.Factor.Uniquenesses[i]))
		rows = append(rows, row)
	}
	addTable(doc, header, rows)

	if err := doc.SaveToFile(path); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "save word report", err)
	}
	return nil
}

// writeClusterWordReport renders the clustering tables into a second
// Word document.
func (w *Writer) writeClusterWordReport(path string, in Inputs) error {
	doc := document.New()

	title(doc, "Cluster Analysis of City Rental Data")

	heading(doc, "Cluster Selection")
	rows := make([][]string, 0, len(in.Cluster.Sweep))
	for _, sp := range in.Cluster.Sweep {
		rows = append(rows, []string{
			fmt.Sprintf("%d", sp.K),
			formatFloat(sp.WSS),
			formatFloat(sp.MeanSilhouette),
		})
	}
	addTable(doc, []string{"k", "WSS", "Mean Silhouette"}, rows)

	heading(doc, fmt.Sprintf("Cluster Assignment (k=%d)", in.Cluster.K))
	rows = rows[:0]
	for i, id := range in.Table.IDs {
		rows = append(rows, []string{
			id,
			fmt.Sprintf("%d", in.Cluster.Labels[i]+1),
			fmt.Sprintf("%d", in.Cluster.Hierarchical.Labels[i]+1),
			formatFloat(in.Cluster.Silhouette.PerObservation[i]),
		})
	}
	addTable(doc, []string{in.Table.IDName, "K-means Cluster", "Ward Cluster", "Silhouette"}, rows)

	heading(doc, "Cluster Quality")
	rows = rows[:0]
	counts := make([]int, in.Cluster.K)
	for _, l := range in.Cluster.Labels {
		counts[l]++
	}
	for c := 0; c < in.Cluster.K; c++ {
		rows = append(rows, []string{
			fmt.Sprintf("%d", c+1),
			fmt.Sprintf("%d", counts[c]),
			formatFloat(in.Cluster.Silhouette.PerCluster[c]),
		})
	}
	addTable(doc, []string{"Cluster", "Size", "Mean Silhouette"}, rows)

	if err := doc.SaveToFile(path); err != nil {
		return apperrors.Wrap(apperrors.CodeReportWrite, "report", "save clustering word report", err)
	}
	return nil
}

func title(doc *document.Document, text string) {
	para := doc.AddParagraph()
	para.SetStyle("Title")
	para.AddRun().AddText(text)
}

func heading(doc *document.Document, text string) {
	para := doc.AddParagraph()
	para.SetStyle("Heading1")
	para.AddRun().AddText(text)
}

func addTable(doc *document.Document, header []string, rows [][]string) {
	table := doc.AddTable()
	table.Properties().SetWidthPercent(100)
	borders := table.Properties().Borders()
	borders.SetAll(wml.ST_BorderSingle, color.Auto, 0.5*measurement.Point)

	hdr := table.AddRow()
	for _, h := range header {
		cell := hdr.AddCell()
		run := cell.AddParagraph().AddRun()
		run.Properties().SetBold(true)
		run.AddText(h)
	}

	for _, r := range rows {
		row := table.AddRow()
		for _, v := range r {
			row.AddCell().AddParagraph().AddRun().AddText(v)
		}
	}

	// Space after each table.
	doc.AddParagraph()
}
