package formulas

import "math"

// MinOverlapObservations is the fewest paired observations for which beta
// and Jensen's alpha are reported.
const MinOverlapObservations = 30

// Beta is cov(asset, benchmark) / var(benchmark) over already aligned return
// series. ok is false below MinOverlapObservations. A flat benchmark yields 0.
func Beta(asset, benchmark []float64) (float64, bool) {
	if len(asset) != len(benchmark) || len(asset) < MinOverlapObservations {
		return 0, false
	}
	variance := Variance(benchmark)
	if !(variance > 0) {
		return 0, true
	}
	return Covariance(asset, benchmark) / variance, true
}

// JensenAlpha is assetAnnual - (riskFree + beta*(benchmarkAnnual - riskFree)).
func JensenAlpha(assetAnnual, benchmarkAnnual, beta, riskFree float64) float64 {
	return assetAnnual - (riskFree + beta*(benchmarkAnnual-riskFree))
}

// RSquared is the squared Pearson correlation of aligned return series.
func RSquared(asset, benchmark []float64) (float64, bool) {
	c, ok := Correlation(asset, benchmark)
	if !ok {
		return 0, false
	}
	return c * c, true
}

// TrackingError is the annualized standard deviation of active returns.
func TrackingError(asset, benchmark []float64) (float64, bool) {
	if len(asset) != len(benchmark) || len(asset) < 2 {
		return 0, false
	}
	active := make([]float64, len(asset))
	for i := range asset {
		active[i] = asset[i] - benchmark[i]
	}
	return StdDev(active) * math.Sqrt(TradingDaysPerYear), true
}
