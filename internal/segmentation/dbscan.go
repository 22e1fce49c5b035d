package segmentation

import (
	"sort"

	"github.com/aristath/clusterfolio/pkg/formulas"
)

// minEps replaces a non-positive neighborhood radius.
const minEps = 1e-9

// noise is the DBSCAN label of points outside every dense region.
const noise = -1

// AutoEps derives the neighborhood radius as the given percentile of every
// point's distance to its k-th nearest neighbor, the point itself counting as
// the first neighbor.
func AutoEps(dist [][]float64, k int, percentile float64) float64 {
	n := len(dist)
	if n == 0 {
		return minEps
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	kth := make([]float64, n)
	row := make([]float64, n)
	for i := range dist {
		copy(row, dist[i])
		sort.Float64s(row)
		kth[i] = row[k-1]
	}

	eps := formulas.Percentile(kth, percentile)
	if !(eps > 0) {
		eps = minEps
	}
	return eps
}

// DBSCAN labels density clusters 0..m-1 and noise as -1. A point is a core
// point when at least minSamples points, itself included, lie within eps.
func DBSCAN(dist [][]float64, eps float64, minSamples int) []int {
	n := len(dist)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noise
	}

	neighbors := make([][]int, n)
	core := make([]bool, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if dist[i][j] <= eps {
				neighbors[i] = append(neighbors[i], j)
			}
		}
		core[i] = len(neighbors[i]) >= minSamples
	}

	visited := make([]bool, n)
	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] || !core[i] {
			continue
		}
		// Breadth-first expansion from an unvisited core point.
		queue := []int{i}
		visited[i] = true
		labels[i] = cluster
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if !core[p] {
				continue
			}
			for _, q := range neighbors[p] {
				if labels[q] == noise {
					labels[q] = cluster
				}
				if !visited[q] {
					visited[q] = true
					queue = append(queue, q)
				}
			}
		}
		cluster++
	}
	return labels
}
