// Package scoring ranks segmented assets with a composite momentum score and
// draws profile portfolios from the ranked segments.
package scoring

import (
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
)

// neutralScore is the normalized value of a missing or constant metric.
const neutralScore = 0.5

// MinMax scales values to [0,1] across the whole slice. Undefined values get
// the neutral 0.5, and so does every value of a constant column.
func MinMax(values []domain.Metric) []float64 {
	out := make([]float64, len(values))
	lo, hi := 0.0, 0.0
	seen := false
	for _, v := range values {
		if !v.Valid {
			continue
		}
		if !seen || v.Value < lo {
			lo = v.Value
		}
		if !seen || v.Value > hi {
			hi = v.Value
		}
		seen = true
	}

	for i, v := range values {
		switch {
		case !v.Valid, !(hi > lo):
			out[i] = neutralScore
		default:
			out[i] = (v.Value - lo) / (hi - lo)
		}
	}
	return out
}

// Score computes the composite score of every asset: the weighted sum of its
// metrics min-max normalized over the full universe.
func Score(assets []domain.SegmentedAsset, weights map[domain.FeatureName]float64) []domain.ScoredAsset {
	scored := make([]domain.ScoredAsset, len(assets))
	for i, a := range assets {
		scored[i] = domain.ScoredAsset{SegmentedAsset: a}
	}

	// Fixed summation order keeps scores bit-identical across runs.
	names := make([]domain.FeatureName, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	column := make([]domain.Metric, len(assets))
	for _, name := range names {
		for i, a := range assets {
			column[i] = a.Features.Get(name)
		}
		for i, v := range MinMax(column) {
			scored[i].Score += weights[name] * v
		}
	}
	return scored
}

// Rank orders assets by descending score, ties broken by ticker.
func Rank(assets []domain.ScoredAsset) {
	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].Score != assets[j].Score {
			return assets[i].Score > assets[j].Score
		}
		return assets[i].Ticker() < assets[j].Ticker()
	})
}
