package formulas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Linkage is the inter-cluster distance used to merge clusters.
type Linkage string

const (
	LinkageSingle   Linkage = "single"
	LinkageComplete Linkage = "complete"
	LinkageAverage  Linkage = "average"
)

// ClusterNode is a node of an agglomerative dendrogram. Leaves index the rows
// of the distance matrix it was built from.
type ClusterNode struct {
	Left    *ClusterNode
	Right   *ClusterNode
	Leaves  []int
	MinLeaf int
}

// IsLeaf reports whether n is a single observation.
func (n *ClusterNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Agglomerate merges clusters bottom-up until stopAt clusters remain (1 builds
// the full dendrogram). Ties are broken by the smallest leaf indices of the
// candidate pair, so the result is deterministic. The remaining clusters are
// returned ordered by MinLeaf.
func Agglomerate(dist [][]float64, linkage Linkage, stopAt int) []*ClusterNode {
	n := len(dist)
	if stopAt < 1 {
		stopAt = 1
	}
	clusters := make([]*ClusterNode, 0, n)
	for i := 0; i < n; i++ {
		clusters = append(clusters, &ClusterNode{Leaves: []int{i}, MinLeaf: i})
	}

	for len(clusters) > stopAt {
		bestI := 0
		bestJ := 1
		bestD := clusterDistance(dist, clusters[0], clusters[1], linkage)

		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := clusterDistance(dist, clusters[i], clusters[j], linkage)
				if d < bestD || (d == bestD && clusterPairLess(clusters[i], clusters[j], clusters[bestI], clusters[bestJ])) {
					bestD = d
					bestI = i
					bestJ = j
				}
			}
		}

		left := clusters[bestI]
		right := clusters[bestJ]
		if right.MinLeaf < left.MinLeaf {
			left, right = right, left
		}

		leaves := make([]int, 0, len(left.Leaves)+len(right.Leaves))
		leaves = append(leaves, left.Leaves...)
		leaves = append(leaves, right.Leaves...)
		merged := &ClusterNode{
			Left:    left,
			Right:   right,
			Leaves:  leaves,
			MinLeaf: left.MinLeaf,
		}

		next := make([]*ClusterNode, 0, len(clusters)-1)
		for k := 0; k < len(clusters); k++ {
			if k == bestI || k == bestJ {
				continue
			}
			next = append(next, clusters[k])
		}
		next = append(next, merged)
		clusters = next
	}

	sortByMinLeaf(clusters)
	return clusters
}

// LeafOrder returns the leaves of node in dendrogram order (quasi-diagonal order).
func LeafOrder(node *ClusterNode) []int {
	if node == nil {
		return nil
	}
	if node.IsLeaf() {
		return []int{node.Leaves[0]}
	}
	out := LeafOrder(node.Left)
	return append(out, LeafOrder(node.Right)...)
}

func sortByMinLeaf(nodes []*ClusterNode) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j].MinLeaf < nodes[j-1].MinLeaf; j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func clusterPairLess(a1, b1, a2, b2 *ClusterNode) bool {
	// Tie-break by (minLeaf, then second minLeaf) of the pair.
	x1, y1 := a1.MinLeaf, b1.MinLeaf
	if y1 < x1 {
		x1, y1 = y1, x1
	}
	x2, y2 := a2.MinLeaf, b2.MinLeaf
	if y2 < x2 {
		x2, y2 = y2, x2
	}
	if x1 != x2 {
		return x1 < x2
	}
	return y1 < y2
}

func clusterDistance(dist [][]float64, a, b *ClusterNode, linkage Linkage) float64 {
	switch linkage {
	case LinkageComplete:
		best := math.Inf(-1)
		for _, i := range a.Leaves {
			for _, j := range b.Leaves {
				best = math.Max(best, dist[i][j])
			}
		}
		return best
	case LinkageAverage:
		sum := 0.0
		for _, i := range a.Leaves {
			for _, j := range b.Leaves {
				sum += dist[i][j]
			}
		}
		return sum / float64(len(a.Leaves)*len(b.Leaves))
	default:
		best := math.Inf(1)
		for _, i := range a.Leaves {
			for _, j := range b.Leaves {
				best = math.Min(best, dist[i][j])
			}
		}
		return best
	}
}

// EuclideanDistances returns the pairwise distance matrix of the rows of x.
func EuclideanDistances(x [][]float64) [][]float64 {
	n := len(x)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(x[i], x[j], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

// CorrelationMatrixFromCovariance calculates the correlation matrix from a covariance matrix.
//
// Formula: corr(i,j) = cov(i,j) / sqrt(cov(i,i) * cov(j,j))
func CorrelationMatrixFromCovariance(cov [][]float64) ([][]float64, error) {
	n := len(cov)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}
	for i := 0; i < n; i++ {
		if len(cov[i]) != n {
			return nil, fmt.Errorf("covariance matrix is not square")
		}
		if v := cov[i][i]; v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid variance on diagonal at %d: %v", i, v)
		}
	}

	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		corr[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			val := cov[i][j] / math.Sqrt(cov[i][i]*cov[j][j])
			val = math.Max(-1, math.Min(1, val))
			corr[i][j] = val
			corr[j][i] = val
		}
	}
	return corr, nil
}

// CorrelationToDistance maps correlations to d_ij = sqrt(2 * (1 - rho_ij)).
func CorrelationToDistance(corr [][]float64) [][]float64 {
	dist := make([][]float64, len(corr))
	for i := range corr {
		dist[i] = make([]float64, len(corr[i]))
		for j, rho := range corr[i] {
			rho = math.Max(-1, math.Min(1, rho))
			dist[i][j] = math.Sqrt(2 * (1 - rho))
		}
	}
	return dist
}
