package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// DefaultVolOfVolWindow is the rolling window (one trading month) used for
// volatility-of-volatility.
const DefaultVolOfVolWindow = 21

// RollingVolatility returns the annualized rolling standard deviation of the
// returns over window observations. The first window-1 positions are NaN.
func RollingVolatility(returns []float64, window int) []float64 {
	out := make([]float64, len(returns))
	if window < 2 || len(returns) < window {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	// talib.StdDev uses the population variance; rescale to the sample estimator.
	population := talib.StdDev(returns, window, 1.0)
	correction := math.Sqrt(float64(window) / float64(window-1))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = population[i] * correction * math.Sqrt(TradingDaysPerYear)
	}
	return out
}

// VolatilityOfVolatility is the sample standard deviation of the rolling
// annualized volatility. ok is false when fewer than two rolling windows fit.
func VolatilityOfVolatility(returns []float64, window int) (float64, bool) {
	if window <= 0 {
		window = DefaultVolOfVolWindow
	}
	rolling := DropNaN(RollingVolatility(returns, window))
	if len(rolling) < 2 {
		return 0, false
	}
	return StdDev(rolling), true
}

// Momentum is the percentage price change over the trailing lookback:
// price[last]/price[last-lookback] - 1. With too little history it falls back
// to the full-series return price[last]/price[first] - 1.
func Momentum(prices []float64, lookback int) float64 {
	n := len(prices)
	if n < 2 {
		return 0
	}
	if lookback <= 0 || n <= lookback {
		return TotalReturn(prices)
	}

	roc := talib.Roc(prices, lookback)
	return roc[n-1] / 100
}
