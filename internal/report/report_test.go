package report

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"rentstat/internal/cluster"
	"rentstat/internal/dataset"
	"rentstat/internal/factor"
	"rentstat/internal/pca"
)

// buildInputs runs the analysis chain on a small synthetic table so
// the reporter gets mutually consistent results.
func buildInputs(t *testing.T) Inputs {
	t.Helper()
	rng := rand.New(rand.NewSource(21))

	n, p := 18, 4
	data := mat.NewDense(n, p, nil)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		base := rng.NormFloat64()
		for j := 0; j < p; j++ {
			data.Set(i, j, 0.8*base+0.6*rng.NormFloat64())
		}
		ids[i] = string(rune('A' + i))
	}

	tbl := &dataset.Table{
		Columns: []string{"rent", "income", "vacancy", "commute"},
		IDName:  "city",
		IDs:     ids,
		Data:    data,
	}
	std, err := dataset.Standardize(tbl)
	require.NoError(t, err)

	pcaRes, err := pca.Compute(std)
	require.NoError(t, err)

	faParams := factor.DefaultParams()
	faParams.MaxIter = 2000
	faRes, err := factor.NewAnalyzer(faParams, nil).Analyze(context.Background(), std)
	require.NoError(t, err)

	clParams := cluster.DefaultParams()
	clParams.KMax = 4
	clRes, err := cluster.NewAnalyzer(clParams, nil).Analyze(context.Background(), pcaRes.ScoreColumns(2))
	require.NoError(t, err)

	return Inputs{
		Table:        tbl,
		Standardized: std,
		PCA:          pcaRes,
		Factor:       faRes,
		Cluster:      clRes,
	}
}

func TestGenerateWritesAllArtifacts(t *testing.T) {
	dir := t.TempDir()
	reportsDir := filepath.Join(dir, "reports")
	plotsDir := filepath.Join(reportsDir, "plots")

	in := buildInputs(t)
	w := NewWriter(reportsDir, plotsDir, nil)
	require.NoError(t, w.Generate(context.Background(), in))

	for _, name := range []string{
		"multivariate_report.docx",
		"clustering_report.docx",
		"analysis_results.xlsx",
		"scores_clusters.csv",
	} {
		assert.FileExists(t, filepath.Join(reportsDir, name))
	}
	for _, name := range []string{
		"scree.png", "cumulative_variance.png", "elbow.png",
		"silhouette.png", "cluster_scatter.png",
	} {
		assert.FileExists(t, filepath.Join(plotsDir, name))
	}
}

func TestWorkbookSheets(t *testing.T) {
	dir := t.TempDir()
	in := buildInputs(t)
	w := NewWriter(dir, filepath.Join(dir, "plots"), nil)
	require.NoError(t, w.Generate(context.Background(), in))

	f, err := excelize.OpenFile(filepath.Join(dir, "analysis_results.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.ElementsMatch(t,
		[]string{"PCA Variance", "PCA Loadings", "Factor Loadings", "Clusters"},
		sheets)

	// Header row of the cluster sheet.
	rows, err := f.GetRows("Clusters")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "city", rows[0][0])
	assert.Len(t, rows, in.Table.Rows()+1)
}
