// Package segmentation groups assets by their standardized risk/return
// features: density outliers first, then a fixed-K partition of the rest.
package segmentation

import (
	"fmt"
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
	"github.com/rs/zerolog"
)

// Options parameterize a segmentation run.
type Options struct {
	Method        domain.ClusterMethod
	Features      []domain.FeatureName
	NClusters     int
	MinSamples    int
	EpsPercentile float64
	Eps           float64 // > 0 overrides the automatic radius
	Seed          int64
	NInit         int
	MaxIter       int
	Linkage       domain.Linkage
	Names         domain.SegmentNames
	ElbowMaxK     int // >= 2 records an elbow scan over K in [2, ElbowMaxK]
	// CompareMethods scores every clustering method on the same batch.
	CompareMethods bool
}

// Metadata describes a segmentation run.
type Metadata struct {
	Method        domain.ClusterMethod        `json:"method"`
	Features      []domain.FeatureName        `json:"features"`
	NAssets       int                         `json:"n_assets"`
	Dropped       []string                    `json:"dropped"`
	NOutliers     int                         `json:"n_outliers"`
	PctOutliers   float64                     `json:"pct_outliers"`
	EpsUsed       float64                     `json:"eps_used"`
	NClusters     int                         `json:"n_clusters"`
	Seed          int64                       `json:"seed"`
	Silhouette    domain.Metric               `json:"silhouette"`
	DaviesBouldin domain.Metric               `json:"davies_bouldin"`
	PCAVariance   [2]float64                  `json:"pca_variance_explained"`
	ClusterSizes  map[domain.SegmentLabel]int `json:"cluster_sizes"`
	Elbow         []ElbowPoint                `json:"elbow,omitempty"`
	Methods       []MethodScore               `json:"methods,omitempty"`
}

// Result holds one SegmentedAsset per asset with complete clustering features.
type Result struct {
	Assets   []domain.SegmentedAsset
	Metadata Metadata
}

// Engine runs segmentation batches.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a segmentation engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "segmentation").Logger(),
	}
}

// Run segments the rows of features. Rows with any undefined clustering
// feature are dropped and never appear in the result.
func (e *Engine) Run(features *domain.FeatureMatrix, opts Options) (*Result, error) {
	if len(opts.Features) == 0 {
		return nil, fmt.Errorf("no clustering features configured")
	}
	if opts.Names == nil {
		opts.Names = domain.DefaultSegmentNames()
	}

	var rows []domain.FeatureRow
	var dropped []string
	for _, r := range features.Rows {
		if r.Complete(opts.Features) {
			rows = append(rows, r)
		} else {
			dropped = append(dropped, r.Ticker)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Ticker < rows[j].Ticker })
	if len(dropped) > 0 {
		e.log.Warn().
			Int("dropped", len(dropped)).
			Strs("tickers", dropped).
			Msg("Dropped assets with undefined clustering features")
	}

	meta := Metadata{
		Method:        opts.Method,
		Features:      opts.Features,
		NAssets:       len(rows),
		Dropped:       dropped,
		Seed:          opts.Seed,
		Silhouette:    domain.Undefined(),
		DaviesBouldin: domain.Undefined(),
		ClusterSizes:  make(map[domain.SegmentLabel]int),
	}
	if len(rows) == 0 {
		e.log.Warn().Msg("No assets to segment")
		return &Result{Metadata: meta}, nil
	}

	raw := make([][]float64, len(rows))
	for i, r := range rows {
		raw[i] = make([]float64, len(opts.Features))
		for j, f := range opts.Features {
			raw[i][j] = r.Get(f).Value
		}
	}
	x, _ := FitTransform(raw)
	dist := formulas.EuclideanDistances(x)

	labels, err := e.label(x, dist, opts, &meta)
	if err != nil {
		return nil, err
	}

	q := evaluateLabels(x, dist, labels)
	meta.Silhouette = q.Silhouette
	meta.DaviesBouldin = q.DaviesBouldin

	if opts.CompareMethods {
		meta.Methods, err = e.CompareMethods(x, dist, opts)
		if err != nil {
			return nil, err
		}
	}

	if opts.ElbowMaxK >= 2 {
		meta.Elbow = ElbowScan(x, 2, opts.ElbowMaxK, KMeansOptions{
			Seed:    opts.Seed,
			NInit:   opts.NInit,
			MaxIter: opts.MaxIter,
			Tol:     1e-4,
		})
	}

	proj := Project2D(x)
	meta.PCAVariance = proj.VarianceRatio

	assets := make([]domain.SegmentedAsset, len(rows))
	for i, r := range rows {
		label := domain.SegmentLabel(labels[i])
		assets[i] = domain.SegmentedAsset{
			Features:    r,
			Segment:     label,
			SegmentName: opts.Names.Name(label),
			PC1:         proj.Coords[i][0],
			PC2:         proj.Coords[i][1],
		}
		meta.ClusterSizes[label]++
	}
	meta.NOutliers = meta.ClusterSizes[domain.OutlierLabel]
	meta.PctOutliers = 100 * float64(meta.NOutliers) / float64(len(rows))

	evt := e.log.Info().
		Str("method", string(opts.Method)).
		Int("assets", len(rows)).
		Int("outliers", meta.NOutliers).
		Int("clusters", meta.NClusters).
		Float64("eps", meta.EpsUsed)
	if meta.Silhouette.Valid {
		evt = evt.Float64("silhouette", meta.Silhouette.Value)
	}
	evt.Msg("Segmented assets")

	if !meta.Silhouette.Valid {
		e.log.Warn().Msg("Fewer than two clusters survived, quality scores undefined")
	}

	return &Result{Assets: assets, Metadata: meta}, nil
}

func (e *Engine) label(x, dist [][]float64, opts Options, meta *Metadata) ([]int, error) {
	kopts := KMeansOptions{
		K:       opts.NClusters,
		Seed:    opts.Seed,
		NInit:   opts.NInit,
		MaxIter: opts.MaxIter,
		Tol:     1e-4,
	}

	switch opts.Method {
	case domain.ClusterHybrid, "":
		eps := opts.Eps
		if eps <= 0 {
			eps = AutoEps(dist, opts.MinSamples, opts.EpsPercentile)
		}
		meta.EpsUsed = eps

		density := DBSCAN(dist, eps, opts.MinSamples)
		labels := make([]int, len(x))
		var inliers [][]float64
		var idx []int
		for i, l := range density {
			if l == noise {
				labels[i] = int(domain.OutlierLabel)
				continue
			}
			inliers = append(inliers, x[i])
			idx = append(idx, i)
		}
		if len(inliers) == 0 {
			e.log.Warn().Float64("eps", eps).Msg("Every asset flagged as outlier")
			return labels, nil
		}
		res := KMeans(inliers, kopts)
		for a, i := range idx {
			labels[i] = res.Labels[a]
		}
		meta.NClusters = len(res.Centroids)
		return labels, nil

	case domain.ClusterKMeans:
		res := KMeans(x, kopts)
		meta.NClusters = len(res.Centroids)
		return res.Labels, nil

	case domain.ClusterAgglomerative:
		labels := Agglomerate(dist, opts.NClusters, opts.Linkage)
		meta.NClusters = min(opts.NClusters, len(x))
		return labels, nil
	}
	return nil, fmt.Errorf("unknown cluster method %q", opts.Method)
}
