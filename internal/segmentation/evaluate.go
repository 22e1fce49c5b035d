package segmentation

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// distinctLabels returns the labels present, in first-seen order.
func distinctLabels(labels []int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, l := range labels {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

// Silhouette returns the mean silhouette coefficient of the labeling, or NaN
// unless 2 <= clusters <= n-1. Members of singleton clusters score 0.
func Silhouette(dist [][]float64, labels []int) float64 {
	n := len(labels)
	clusters := distinctLabels(labels)
	if len(clusters) < 2 || len(clusters) > n-1 {
		return math.NaN()
	}

	size := make(map[int]int, len(clusters))
	for _, l := range labels {
		size[l]++
	}

	total := 0.0
	sums := make(map[int]float64, len(clusters))
	for i := 0; i < n; i++ {
		for _, c := range clusters {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			sums[labels[j]] += dist[i][j]
		}

		own := labels[i]
		if size[own] <= 1 {
			continue
		}
		a := sums[own] / float64(size[own]-1)
		b := math.Inf(1)
		for _, c := range clusters {
			if c == own {
				continue
			}
			b = math.Min(b, sums[c]/float64(size[c]))
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

// DaviesBouldin returns the Davies-Bouldin index of the labeling (lower is
// better), or NaN with fewer than two clusters. Coincident centroids count as
// infinitely far apart.
func DaviesBouldin(x [][]float64, labels []int) float64 {
	clusters := distinctLabels(labels)
	if len(clusters) < 2 {
		return math.NaN()
	}
	d := len(x[0])

	centroids := make(map[int][]float64, len(clusters))
	counts := make(map[int]int, len(clusters))
	for _, c := range clusters {
		centroids[c] = make([]float64, d)
	}
	for i, row := range x {
		floats.Add(centroids[labels[i]], row)
		counts[labels[i]]++
	}
	for _, c := range clusters {
		floats.Scale(1/float64(counts[c]), centroids[c])
	}

	scatter := make(map[int]float64, len(clusters))
	for i, row := range x {
		scatter[labels[i]] += floats.Distance(row, centroids[labels[i]], 2)
	}
	allZero := true
	for _, c := range clusters {
		scatter[c] /= float64(counts[c])
		if scatter[c] != 0 {
			allZero = false
		}
	}
	if allZero {
		return 0
	}

	total := 0.0
	for _, ci := range clusters {
		worst := 0.0
		for _, cj := range clusters {
			if ci == cj {
				continue
			}
			sep := floats.Distance(centroids[ci], centroids[cj], 2)
			if sep == 0 {
				continue
			}
			worst = math.Max(worst, (scatter[ci]+scatter[cj])/sep)
		}
		total += worst
	}
	return total / float64(len(clusters))
}
