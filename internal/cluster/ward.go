package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Merge records one agglomeration step: clusters A and B (indices into
// the running cluster sequence, initial singletons are 0..n-1) joined
// at the given height into a cluster of Size observations.
type Merge struct {
	A      int
	B      int
	Height float64
	Size   int
}

// HierarchicalResult is the outcome of Ward-linkage agglomerative
// clustering.
type HierarchicalResult struct {
	// Merges lists all n-1 agglomerations in order; heights are
	// non-decreasing.
	Merges []Merge
	// Labels is the partition obtained by cutting the tree at k
	// clusters, relabeled to 0..k-1 in order of first appearance.
	Labels []int
}

// Ward runs agglomerative clustering with Ward linkage (Lance-Williams
// update on squared Euclidean distances) and cuts the tree at k.
func Ward(data *mat.Dense, k int) HierarchicalResult {
	n, _ := data.Dims()

	// Active cluster bookkeeping. Cluster ids grow past n as merges
	// happen, matching the usual dendrogram numbering.
	type node struct {
		id     int
		size   int
		active bool
	}
	nodes := make([]node, 0, 2*n-1)
	for i := 0; i < n; i++ {
		nodes = append(nodes, node{id: i, size: 1, active: true})
	}

	// Squared-distance matrix between active clusters, indexed by
	// position in nodes.
	dist := make([][]float64, 2*n-1)
	for i := range dist {
		dist[i] = make([]float64, 2*n-1)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sqDistRow(data, i, data, j)
			dist[i][j], dist[j][i] = d, d
		}
	}

	// member maps each observation to its current cluster position.
	member := make([]int, n)
	for i := range member {
		member[i] = i
	}

	merges := make([]Merge, 0, n-1)
	var cutLabels []int
	activeCount := n
	if k >= n {
		cutLabels = relabel(member)
	}

	for activeCount > 1 {
		// Find the closest active pair.
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < len(nodes); i++ {
			if !nodes[i].active {
				continue
			}
			for j := i + 1; j < len(nodes); j++ {
				if !nodes[j].active {
					continue
				}
				if dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}

		ni := float64(nodes[bi].size)
		nj := float64(nodes[bj].size)

		newIdx := len(nodes)
		nodes = append(nodes, node{id: newIdx, size: nodes[bi].size + nodes[bj].size, active: true})
		nodes[bi].active = false
		nodes[bj].active = false

		// Lance-Williams update for Ward linkage.
		for m := 0; m < newIdx; m++ {
			if !nodes[m].active {
				continue
			}
			nm := float64(nodes[m].size)
			total := ni + nj + nm
			d := ((ni+nm)*dist[bi][m] + (nj+nm)*dist[bj][m] - nm*best) / total
			dist[newIdx][m], dist[m][newIdx] = d, d
		}

		for o := range member {
			if member[o] == bi || member[o] == bj {
				member[o] = newIdx
			}
		}

		merges = append(merges, Merge{
			A:      nodes[bi].id,
			B:      nodes[bj].id,
			Height: math.Sqrt(best),
			Size:   nodes[newIdx].size,
		})

		activeCount--
		if activeCount == k {
			cutLabels = relabel(member)
		}
	}

	if cutLabels == nil {
		cutLabels = relabel(member)
	}

	return HierarchicalResult{Merges: merges, Labels: cutLabels}
}

// relabel maps arbitrary cluster positions to compact labels 0..k-1 in
// order of first appearance.
func relabel(member []int) []int {
	labels := make([]int, len(member))
	next := 0
	seen := make(map[int]int)
	for i, m := range member {
		l, ok := seen[m]
		if !ok {
			l = next
			seen[m] = l
			next++
		}
		labels[i] = l
	}
	return labels
}
