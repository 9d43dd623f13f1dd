package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentstat/internal/config"
)

const citiesDataset = `city rent income vacancy commute
Aachen 612.5 2310 4.2 24.1
Augsburg 641.0 2388 3.9 22.7
Bochum 529.4 2068 7.1 27.9
Bonn 705.0 2590 3.1 21.4
Bremen 584.2 2190 5.8 26.0
Dortmund 538.8 2095 6.9 28.3
Dresden 566.1 2150 5.2 23.8
Essen 548.3 2105 6.8 27.5
Freiburg 742.6 2655 2.6 19.8
Hannover 601.7 2295 4.6 24.9
Karlsruhe 668.9 2470 3.4 21.9
Kiel 553.0 2130 6.1 25.6
Koeln 801.2 2720 2.4 20.6
Leipzig 571.3 2165 5.0 23.2
Mainz 689.5 2515 3.2 21.1
Muenster 664.8 2455 3.6 22.3
Nuernberg 619.4 2340 4.4 23.5
Rostock 541.6 2110 6.4 26.8
Trier 577.9 2230 5.5 25.2
Wuppertal 521.7 2045 7.5 28.8
`

// TestFullPipeline runs every step end to end on a small dataset and
// checks all report artifacts land on disk.
func TestFullPipeline(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "cities.dat")
	require.NoError(t, os.WriteFile(dataPath, []byte(citiesDataset), 0644))

	cfg := config.Default()
	cfg.Input.File = dataPath
	cfg.Analysis.Factor.MaxIter = 2000
	cfg.Analysis.Cluster.KMax = 5
	cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
	cfg.Paths.PlotsDir = filepath.Join(dir, "reports", "plots")
	require.NoError(t, cfg.Validate())

	registry, err := DefaultRegistry()
	require.NoError(t, err)

	state := &State{Config: cfg}
	require.NoError(t, NewRunner(registry, nil).Run(context.Background(), state))

	// Results are present and consistent.
	require.NotNil(t, state.PCA)
	require.NotNil(t, state.Factor)
	require.NotNil(t, state.Cluster)

	n := state.Table.Rows()
	assert.Equal(t, 20, n)
	require.Len(t, state.Cluster.Labels, n)
	for _, l := range state.Cluster.Labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, state.Cluster.K)
	}

	// Every artifact exists and is non-empty.
	artifacts := []string{
		filepath.Join(cfg.Paths.ReportsDir, "multivariate_report.docx"),
		filepath.Join(cfg.Paths.ReportsDir, "clustering_report.docx"),
		filepath.Join(cfg.Paths.ReportsDir, "analysis_results.xlsx"),
		filepath.Join(cfg.Paths.ReportsDir, "scores_clusters.csv"),
		filepath.Join(cfg.Paths.PlotsDir, "scree.png"),
		filepath.Join(cfg.Paths.PlotsDir, "cumulative_variance.png"),
		filepath.Join(cfg.Paths.PlotsDir, "elbow.png"),
		filepath.Join(cfg.Paths.PlotsDir, "silhouette.png"),
		filepath.Join(cfg.Paths.PlotsDir, "cluster_scatter.png"),
	}
	for _, path := range artifacts {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}

	// The CSV round-trips with one record per city.
	raw, err := os.ReadFile(filepath.Join(cfg.Paths.ReportsDir, "scores_clusters.csv"))
	require.NoError(t, err)
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\ufeff")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, n+1)
	assert.Equal(t, "city", records[0][0])
}

// TestFullPipelineDeterministic verifies the round-trip property: the
// same input and seed produce identical numeric outcomes.
func TestFullPipelineDeterministic(t *testing.T) {
	run := func(dir string) *State {
		dataPath := filepath.Join(dir, "cities.dat")
		require.NoError(t, os.WriteFile(dataPath, []byte(citiesDataset), 0644))

		cfg := config.Default()
		cfg.Input.File = dataPath
		cfg.Analysis.Factor.MaxIter = 2000
		cfg.Analysis.Cluster.KMax = 5
		cfg.Paths.ReportsDir = filepath.Join(dir, "reports")
		cfg.Paths.PlotsDir = filepath.Join(dir, "reports", "plots")

		registry, err := DefaultRegistry()
		require.NoError(t, err)
		state := &State{Config: cfg}
		require.NoError(t, NewRunner(registry, nil).Run(context.Background(), state))
		return state
	}

	a := run(t.TempDir())
	b := run(t.TempDir())

	assert.Equal(t, a.PCA.Eigenvalues, b.PCA.Eigenvalues)
	assert.Equal(t, a.Factor.NumFactors, b.Factor.NumFactors)
	assert.Equal(t, a.Cluster.K, b.Cluster.K)
	assert.Equal(t, a.Cluster.Labels, b.Cluster.Labels)
}
