// Package cluster partitions observations with K-means on component
// scores, selects k via an elbow/silhouette sweep, and cross-checks
// the partition with Ward hierarchical clustering.
package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	apperrors "rentstat/internal/errors"
)

// kmeansOnce runs one k-means++ seeding followed by Lloyd iterations.
func kmeansOnce(data *mat.Dense, k, maxIter int, rng *rand.Rand) ([]int, *mat.Dense, float64, error) {
	n, _ := data.Dims()
	if k < 1 || k > n {
		return nil, nil, 0, apperrors.New(apperrors.CodeInvalidConfig, "cluster",
			fmt.Sprintf("k=%d out of range for %d observations", k, n))
	}

	centroids := seedPlusPlus(data, k, rng)
	labels := make([]int, n)
	counts := make([]int, k)

	for iter := 0; iter < maxIter; iter++ {
		changed := false

		// Assignment step.
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				if dist := sqDistRow(data, i, centroids, c); dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if labels[i] != best || iter == 0 {
				if labels[i] != best {
					changed = true
				}
				labels[i] = best
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Update step.
		updateCentroids(data, labels, centroids, counts)
	}

	wss := 0.0
	for i := 0; i < n; i++ {
		wss += sqDistRow(data, i, centroids, labels[i])
	}
	return labels, centroids, wss, nil
}

// updateCentroids recomputes every cluster mean for the current labels,
// then re-seeds each empty cluster with the point farthest from its own
// mean. Means are normalized before the re-seed scan so distances are
// measured against actual centroids, and the donor cluster's mean is
// adjusted to exclude the stolen point. labels and counts are updated
// in place.
func updateCentroids(data *mat.Dense, labels []int, centroids *mat.Dense, counts []int) {
	n, d := data.Dims()
	k, _ := centroids.Dims()

	centroids.Zero()
	for c := range counts {
		counts[c] = 0
	}
	for i := 0; i < n; i++ {
		c := labels[i]
		counts[c]++
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)+data.At(i, j))
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}

	for c := 0; c < k; c++ {
		if counts[c] != 0 {
			continue
		}
		// Only clusters with at least two members can donate a point.
		far, farDist := -1, -1.0
		for i := 0; i < n; i++ {
			if counts[labels[i]] < 2 {
				continue
			}
			if dist := sqDistRow(data, i, centroids, labels[i]); dist > farDist {
				far, farDist = i, dist
			}
		}
		if far < 0 {
			continue
		}
		donor := labels[far]
		for j := 0; j < d; j++ {
			mean := (centroids.At(donor, j)*float64(counts[donor]) - data.At(far, j)) /
				float64(counts[donor]-1)
			centroids.Set(donor, j, mean)
			centroids.Set(c, j, data.At(far, j))
		}
		counts[donor]--
		counts[c] = 1
		labels[far] = c
	}
}

// KMeans runs k-means with multiple k-means++ restarts and keeps the
// lowest within-cluster sum of squares.
func KMeans(data *mat.Dense, k, maxIter, restarts int, rng *rand.Rand) ([]int, *mat.Dense, float64, error) {
	var (
		bestLabels    []int
		bestCentroids *mat.Dense
		bestWSS       = math.Inf(1)
	)

	for r := 0; r < restarts; r++ {
		labels, centroids, wss, err := kmeansOnce(data, k, maxIter, rng)
		if err != nil {
			return nil, nil, 0, err
		}
		if wss < bestWSS {
			bestLabels, bestCentroids, bestWSS = labels, centroids, wss
		}
	}
	return bestLabels, bestCentroids, bestWSS, nil
}

// seedPlusPlus picks initial centroids with the k-means++ scheme:
// each new centroid is drawn with probability proportional to the
// squared distance from the nearest existing centroid.
func seedPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)

	first := rng.Intn(n)
	for j := 0; j < d; j++ {
		centroids.Set(0, j, data.At(first, j))
	}

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = sqDistRow(data, i, centroids, 0)
	}

	for c := 1; c < k; c++ {
		total := 0.0
		for _, dist := range minDist {
			total += dist
		}

		var pick int
		if total == 0 {
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			acc := 0.0
			pick = n - 1
			for i, dist := range minDist {
				acc += dist
				if acc >= target {
					pick = i
					break
				}
			}
		}

		for j := 0; j < d; j++ {
			centroids.Set(c, j, data.At(pick, j))
		}
		for i := 0; i < n; i++ {
			if dist := sqDistRow(data, i, centroids, c); dist < minDist[i] {
				minDist[i] = dist
			}
		}
	}
	return centroids
}

func sqDistRow(a *mat.Dense, ai int, b *mat.Dense, bi int) float64 {
	_, d := a.Dims()
	sum := 0.0
	for j := 0; j < d; j++ {
		diff := a.At(ai, j) - b.At(bi, j)
		sum += diff * diff
	}
	return sum
}
