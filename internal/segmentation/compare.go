package segmentation

import "github.com/aristath/clusterfolio/internal/domain"

// comparedMethods are scored by CompareMethods, in output order.
var comparedMethods = []domain.ClusterMethod{
	domain.ClusterHybrid,
	domain.ClusterKMeans,
	domain.ClusterAgglomerative,
}

// MethodScore is the clustering quality of one method on a batch.
type MethodScore struct {
	Method        domain.ClusterMethod `json:"method"`
	NClusters     int                  `json:"n_clusters"`
	NOutliers     int                  `json:"n_outliers"`
	Silhouette    domain.Metric        `json:"silhouette"`
	DaviesBouldin domain.Metric        `json:"davies_bouldin"`
}

type quality struct {
	NClusters     int
	NOutliers     int
	Silhouette    domain.Metric
	DaviesBouldin domain.Metric
}

// evaluateLabels scores a labelling on its non-outlier subset. Fewer than two
// clusters leave both scores undefined.
func evaluateLabels(x, dist [][]float64, labels []int) quality {
	q := quality{Silhouette: domain.Undefined(), DaviesBouldin: domain.Undefined()}

	var inX [][]float64
	var inLabels, inIdx []int
	seen := make(map[int]bool)
	for i, l := range labels {
		if l == int(domain.OutlierLabel) {
			q.NOutliers++
			continue
		}
		inX = append(inX, x[i])
		inLabels = append(inLabels, l)
		inIdx = append(inIdx, i)
		seen[l] = true
	}
	q.NClusters = len(seen)
	if q.NClusters < 2 {
		return q
	}

	inDist := make([][]float64, len(inIdx))
	for a, i := range inIdx {
		inDist[a] = make([]float64, len(inIdx))
		for b, j := range inIdx {
			inDist[a][b] = dist[i][j]
		}
	}
	q.Silhouette = domain.Defined(Silhouette(inDist, inLabels))
	q.DaviesBouldin = domain.Defined(DaviesBouldin(inX, inLabels))
	return q
}

// CompareMethods labels the standardized batch x with every clustering method
// under the same options and scores each one.
func (e *Engine) CompareMethods(x, dist [][]float64, opts Options) ([]MethodScore, error) {
	out := make([]MethodScore, 0, len(comparedMethods))
	for _, method := range comparedMethods {
		o := opts
		o.Method = method
		var scratch Metadata
		labels, err := e.label(x, dist, o, &scratch)
		if err != nil {
			return nil, err
		}
		q := evaluateLabels(x, dist, labels)
		out = append(out, MethodScore{
			Method:        method,
			NClusters:     q.NClusters,
			NOutliers:     q.NOutliers,
			Silhouette:    q.Silhouette,
			DaviesBouldin: q.DaviesBouldin,
		})
	}

	evt := e.log.Debug()
	for _, m := range out {
		evt = evt.Float64(string(m.Method), m.Silhouette.Or(-1))
	}
	evt.Msg("Compared clustering methods")
	return out, nil
}
