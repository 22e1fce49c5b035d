package optimization

import (
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
)

// ApplyConcentrationRules caps each weight at maxPerAsset, scales down every
// segment whose total exceeds maxPerSegment, then renormalizes to one. The
// renormalization can push a capped weight back above its cap; the caps are
// a single pass, not a constraint solve.
func ApplyConcentrationRules(
	weights map[string]float64,
	segments map[string]domain.SegmentLabel,
	maxPerAsset float64,
	maxPerSegment float64,
) map[string]float64 {
	adjusted := make(map[string]float64, len(weights))
	for t, w := range weights {
		if maxPerAsset > 0 && w > maxPerAsset {
			w = maxPerAsset
		}
		adjusted[t] = w
	}

	if maxPerSegment > 0 {
		totals := make(map[domain.SegmentLabel]float64)
		for t, w := range adjusted {
			if seg, ok := segments[t]; ok {
				totals[seg] += w
			}
		}
		for t, w := range adjusted {
			seg, ok := segments[t]
			if ok && totals[seg] > maxPerSegment {
				adjusted[t] = w * maxPerSegment / totals[seg]
			}
		}
	}

	// Sum in ticker order so the result is reproducible.
	tickers := make([]string, 0, len(adjusted))
	for t := range adjusted {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	total := 0.0
	for _, t := range tickers {
		total += adjusted[t]
	}
	if total > 0 {
		for _, t := range tickers {
			adjusted[t] /= total
		}
	}
	return adjusted
}
