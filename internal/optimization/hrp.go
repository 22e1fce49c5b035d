package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/clusterfolio/pkg/formulas"
)

// HRP allocates weights by hierarchical risk parity: cluster the assets on
// correlation distance, order them along the dendrogram, then split risk
// recursively between the two halves by inverse cluster variance.
func HRP(cov [][]float64, linkage formulas.Linkage) ([]float64, error) {
	n := len(cov)
	if n == 0 {
		return nil, fmt.Errorf("no assets provided")
	}
	if n == 1 {
		return []float64{1}, nil
	}

	corr, err := formulas.CorrelationMatrixFromCovariance(cov)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate correlation matrix from covariance: %w", err)
	}
	if linkage == "" {
		linkage = formulas.LinkageSingle
	}

	root := formulas.Agglomerate(formulas.CorrelationToDistance(corr), linkage, 1)[0]
	order := formulas.LeafOrder(root)
	if len(order) != n {
		return nil, fmt.Errorf("invalid HRP order length %d", len(order))
	}

	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}
	bisect(weights, cov, order)

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("invalid HRP weight sum: %v", sum)
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

func bisect(weights []float64, cov [][]float64, order []int) {
	if len(order) <= 1 {
		return
	}
	split := len(order) / 2
	left, right := order[:split], order[split:]

	vLeft := clusterVariance(cov, left)
	vRight := clusterVariance(cov, right)
	alpha := 0.5
	if vLeft+vRight > 0 {
		alpha = 1 - vLeft/(vLeft+vRight)
	}
	alpha = math.Max(0, math.Min(1, alpha))

	for _, i := range left {
		weights[i] *= alpha
	}
	for _, i := range right {
		weights[i] *= 1 - alpha
	}
	bisect(weights, cov, left)
	bisect(weights, cov, right)
}

// clusterVariance is the variance of the inverse-variance portfolio of idxs.
func clusterVariance(cov [][]float64, idxs []int) float64 {
	if len(idxs) == 1 {
		return math.Max(cov[idxs[0]][idxs[0]], 0)
	}

	const eps = 1e-12
	inv := make([]float64, len(idxs))
	sumInv := 0.0
	for k, i := range idxs {
		inv[k] = 1 / math.Max(cov[i][i], eps)
		sumInv += inv[k]
	}
	for k := range inv {
		inv[k] /= sumInv
	}

	variance := 0.0
	for a, i := range idxs {
		for b, j := range idxs {
			variance += inv[a] * cov[i][j] * inv[b]
		}
	}
	return math.Max(variance, 0)
}
