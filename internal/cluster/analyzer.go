package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	apperrors "rentstat/internal/errors"
)

// Params configures the clustering step.
type Params struct {
	// K fixes the cluster count; 0 defers to the sweep.
	K int
	// KMin and KMax bound the sweep when K is 0.
	KMin, KMax int
	// MaxIter bounds Lloyd iterations per restart.
	MaxIter int
	// Restarts is the number of k-means++ seedings per k.
	Restarts int
	// Seed drives centroid seeding.
	Seed int64
}

// DefaultParams returns the parameters used when nothing is configured.
func DefaultParams() Params {
	return Params{K: 0, KMin: 2, KMax: 8, MaxIter: 300, Restarts: 10, Seed: 42}
}

// SweepPoint records the diagnostics for one candidate k.
type SweepPoint struct {
	K              int
	WSS            float64
	MeanSilhouette float64
}

// Result is the complete clustering output.
type Result struct {
	// K is the final cluster count.
	K int
	// Labels assigns each observation to exactly one cluster in [0,K).
	Labels []int
	// Centroids is the K×d matrix of cluster centers.
	Centroids *mat.Dense
	// WSS is the within-cluster sum of squares of the final partition.
	WSS float64
	// Sweep holds the elbow/silhouette diagnostics per candidate k
	// (also populated when K was fixed, for the elbow plot).
	Sweep []SweepPoint
	// Silhouette holds the diagnostics of the final partition.
	Silhouette SilhouetteResult
	// Hierarchical is the Ward cross-check cut at the same K.
	Hierarchical HierarchicalResult
}

// Analyzer orchestrates the clustering step.
type Analyzer struct {
	params Params
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer with the given parameters.
func NewAnalyzer(params Params, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{params: params, logger: logger}
}

// Analyze selects k (unless fixed), partitions the data with K-means,
// computes silhouette diagnostics, and runs the Ward cross-check.
// The data is typically the leading PCA score columns.
func (a *Analyzer) Analyze(ctx context.Context, data *mat.Dense) (*Result, error) {
	n, _ := data.Dims()
	if n < 3 {
		return nil, apperrors.New(apperrors.CodeInvalidConfig, "cluster",
			fmt.Sprintf("need at least 3 observations, got %d", n))
	}

	kMin, kMax := a.params.KMin, a.params.KMax
	if kMax > n-1 {
		kMax = n - 1
	}
	if kMin < 2 {
		kMin = 2
	}
	if kMin > kMax {
		kMin = kMax
	}

	rng := rand.New(rand.NewSource(a.params.Seed))

	sweep := make([]SweepPoint, 0, kMax-kMin+1)
	bestK, bestSil := kMin, -2.0
	for k := kMin; k <= kMax; k++ {
		labels, _, wss, err := KMeans(data, k, a.params.MaxIter, a.params.Restarts, rng)
		if err != nil {
			return nil, err
		}
		sil := Silhouette(data, labels, k)
		sweep = append(sweep, SweepPoint{K: k, WSS: wss, MeanSilhouette: sil.Mean})
		a.logger.DebugContext(ctx, "cluster sweep point",
			"k", k, "wss", wss, "mean_silhouette", sil.Mean)
		if sil.Mean > bestSil {
			bestK, bestSil = k, sil.Mean
		}
	}

	k := a.params.K
	if k == 0 {
		k = bestK
		a.logger.InfoContext(ctx, "selected cluster count",
			"k", k, "mean_silhouette", bestSil)
	} else if k < 2 || k > n-1 {
		// A single cluster has no silhouette; more clusters than
		// observations minus one cannot all be non-empty.
		return nil, apperrors.New(apperrors.CodeInvalidConfig, "cluster",
			fmt.Sprintf("configured k=%d outside valid range [2, %d]", k, n-1))
	}

	// Final partition with a fresh deterministic seeding sequence.
	finalRng := rand.New(rand.NewSource(a.params.Seed + 1))
	labels, centroids, wss, err := KMeans(data, k, a.params.MaxIter, a.params.Restarts, finalRng)
	if err != nil {
		return nil, err
	}

	sil := Silhouette(data, labels, k)
	ward := Ward(data, k)

	a.logger.InfoContext(ctx, "clustering complete",
		"k", k,
		"wss", wss,
		"mean_silhouette", sil.Mean,
	)

	return &Result{
		K:            k,
		Labels:       labels,
		Centroids:    centroids,
		WSS:          wss,
		Sweep:        sweep,
		Silhouette:   sil,
		Hierarchical: ward,
	}, nil
}
