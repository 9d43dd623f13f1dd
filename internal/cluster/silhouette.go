package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SilhouetteResult holds silhouette diagnostics for a partition.
type SilhouetteResult struct {
	// PerObservation are silhouette widths in [-1, 1], one per row.
	PerObservation []float64
	// PerCluster are mean widths per cluster label.
	PerCluster []float64
	// Mean is the overall mean width.
	Mean float64
}

// Silhouette computes silhouette widths for a labeled dataset.
// Singleton clusters receive width 0 by convention, as does every
// observation when no second non-empty cluster exists.
func Silhouette(data *mat.Dense, labels []int, k int) SilhouetteResult {
	n, _ := data.Dims()

	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}

	perObs := make([]float64, n)
	for i := 0; i < n; i++ {
		own := labels[i]
		if sizes[own] <= 1 {
			perObs[i] = 0
			continue
		}

		// Mean distance to every cluster.
		sums := make([]float64, k)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += math.Sqrt(sqDistRow(data, i, data, j))
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if m := sums[c] / float64(sizes[c]); m < b {
				b = m
			}
		}

		if math.IsInf(b, 1) {
			// No other non-empty cluster to compare against.
			continue
		}
		if max := math.Max(a, b); max > 0 {
			perObs[i] = (b - a) / max
		}
	}

	perCluster := make([]float64, k)
	mean := 0.0
	for i, s := range perObs {
		perCluster[labels[i]] += s
		mean += s
	}
	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			perCluster[c] /= float64(sizes[c])
		}
	}

	return SilhouetteResult{
		PerObservation: perObs,
		PerCluster:     perCluster,
		Mean:           mean / float64(n),
	}
}
