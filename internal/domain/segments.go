package domain

import "fmt"

// SegmentLabel is the cluster id of an asset. OutlierLabel is reserved for
// density outliers; normal clusters are 0..K-1.
type SegmentLabel int

// OutlierLabel marks assets in under-dense neighborhoods.
const OutlierLabel SegmentLabel = -1

// SegmentNames maps labels to human-readable segment names.
type SegmentNames map[SegmentLabel]string

// DefaultSegmentNames is the fallback mapping when configuration provides none.
func DefaultSegmentNames() SegmentNames {
	return SegmentNames{
		OutlierLabel: "Outliers",
		0:            "Conservative",
		1:            "High-Performance",
		2:            "Moderate",
		3:            "Stable",
	}
}

// Name returns the configured name for label, or "Cluster_<label>".
func (n SegmentNames) Name(label SegmentLabel) string {
	if name, ok := n[label]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Cluster_%d", int(label))
}

// Label resolves a segment name back to its label.
func (n SegmentNames) Label(name string) (SegmentLabel, bool) {
	for l, s := range n {
		if s == name {
			return l, true
		}
	}
	return 0, false
}

// SegmentedAsset is a feature row with its segment assignment and its
// position in the two-component projection.
type SegmentedAsset struct {
	Features    FeatureRow   `msgpack:"features"`
	Segment     SegmentLabel `msgpack:"segment"`
	SegmentName string       `msgpack:"segment_name"`
	PC1         float64      `msgpack:"pc1"`
	PC2         float64      `msgpack:"pc2"`
}

// Ticker returns the asset ticker.
func (a SegmentedAsset) Ticker() string {
	return a.Features.Ticker
}

// ScoredAsset is a segmented asset with its composite score.
type ScoredAsset struct {
	SegmentedAsset
	Score float64 `msgpack:"score"`
}

// SegmentSummary aggregates the members of one segment.
type SegmentSummary struct {
	Segment         SegmentLabel
	Name            string
	Count           int
	MeanReturn      float64
	StdReturn       float64
	MeanVolatility  float64
	MeanSharpe      float64
	MeanBeta        float64
	MeanMaxDrawdown float64
}
