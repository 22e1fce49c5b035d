package segmentation

import (
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// ElbowPoint is the fit quality of one candidate K.
type ElbowPoint struct {
	K          int           `json:"k"`
	Inertia    float64       `json:"inertia"`
	Silhouette domain.Metric `json:"silhouette"`
}

// ElbowScan fits K-Means for every K in [minK, maxK] on standardized data and
// reports inertia and silhouette, to help choose the cluster count.
func ElbowScan(x [][]float64, minK, maxK int, opts KMeansOptions) []ElbowPoint {
	if minK < 2 {
		minK = 2
	}
	if maxK > len(x) {
		maxK = len(x)
	}
	dist := formulas.EuclideanDistances(x)

	var out []ElbowPoint
	for k := minK; k <= maxK; k++ {
		o := opts
		o.K = k
		res := KMeans(x, o)
		out = append(out, ElbowPoint{
			K:          k,
			Inertia:    res.Inertia,
			Silhouette: domain.Defined(Silhouette(dist, res.Labels)),
		})
	}
	return out
}
