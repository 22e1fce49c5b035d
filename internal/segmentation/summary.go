package segmentation

import (
	"sort"
	"strings"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// Summarize aggregates the members of each segment, ordered by label.
// Undefined member metrics are left out of the means.
func Summarize(assets []domain.SegmentedAsset) []domain.SegmentSummary {
	groups := make(map[domain.SegmentLabel][]domain.SegmentedAsset)
	for _, a := range assets {
		groups[a.Segment] = append(groups[a.Segment], a)
	}

	labels := make([]domain.SegmentLabel, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	out := make([]domain.SegmentSummary, 0, len(labels))
	for _, l := range labels {
		members := groups[l]
		collect := func(name domain.FeatureName) []float64 {
			var vals []float64
			for _, m := range members {
				if v := m.Features.Get(name); v.Valid {
					vals = append(vals, v.Value)
				}
			}
			return vals
		}
		returns := collect(domain.FeatureAnnualizedReturn)
		out = append(out, domain.SegmentSummary{
			Segment:         l,
			Name:            members[0].SegmentName,
			Count:           len(members),
			MeanReturn:      formulas.Mean(returns),
			StdReturn:       formulas.StdDev(returns),
			MeanVolatility:  formulas.Mean(collect(domain.FeatureAnnualizedVolatility)),
			MeanSharpe:      formulas.Mean(collect(domain.FeatureSharpeRatio)),
			MeanBeta:        formulas.Mean(collect(domain.FeatureBeta)),
			MeanMaxDrawdown: formulas.Mean(collect(domain.FeatureMaxDrawdown)),
		})
	}
	return out
}

// TickersBySegment lists member tickers per segment name, sorted.
func TickersBySegment(assets []domain.SegmentedAsset) map[string][]string {
	out := make(map[string][]string)
	for _, a := range assets {
		out[a.SegmentName] = append(out[a.SegmentName], a.Ticker())
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}

// JoinTickers renders a ticker list as a single comma-separated cell.
func JoinTickers(tickers []string) string {
	return strings.Join(tickers, ",")
}
