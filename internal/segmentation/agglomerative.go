package segmentation

import (
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// Agglomerate merges points bottom-up until k clusters remain and labels
// them 0..k-1 in order of their lowest member index.
func Agglomerate(dist [][]float64, k int, linkage domain.Linkage) []int {
	labels := make([]int, len(dist))
	if len(dist) == 0 {
		return labels
	}
	if k > len(dist) {
		k = len(dist)
	}
	for label, node := range formulas.Agglomerate(dist, formulas.Linkage(linkage), k) {
		for _, leaf := range node.Leaves {
			labels[leaf] = label
		}
	}
	return labels
}
