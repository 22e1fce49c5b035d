package formulas

import (
	"math"
	"sort"
)

// DrawdownSeries returns the running-maximum-relative decline at each point:
// (value - runningMax) / runningMax. Values are <= 0.
func DrawdownSeries(series []float64) []float64 {
	drawdowns := make([]float64, len(series))
	peak := math.Inf(-1)
	for i, v := range series {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdowns[i] = (v - peak) / peak
		}
	}
	return drawdowns
}

// MaxDrawdown is the most negative value of DrawdownSeries.
// A monotonically non-decreasing series yields exactly 0.
func MaxDrawdown(series []float64) float64 {
	worst := 0.0
	for _, dd := range DrawdownSeries(series) {
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// HistoricalVaR returns the tail-probability quantile of daily returns
// (tail = 0.05 for 95% confidence).
func HistoricalVaR(returns []float64, tail float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return Quantile(returns, tail)
}

// VaRCVaR returns the historical VaR at the given tail probability and the
// mean of the returns at or below it.
func VaRCVaR(returns []float64, tail float64) (float64, float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	v := quantileSorted(sorted, tail)

	sum := 0.0
	count := 0
	for _, r := range sorted {
		if r > v {
			break
		}
		sum += r
		count++
	}
	if count == 0 {
		return v, v
	}
	return v, sum / float64(count)
}
