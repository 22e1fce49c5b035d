package formulas

import "math"

const (
	// TradingDaysPerYear is the annualization base for daily statistics.
	TradingDaysPerYear = 252
	// CalendarDaysPerYear converts elapsed calendar days to years.
	CalendarDaysPerYear = 365.25
)

// DailyReturns converts prices to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]; the first observation has
// no prior value and is dropped.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] != 0 {
			returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return returns
}

// TotalReturn is last/first - 1 over a price or equity series.
func TotalReturn(series []float64) float64 {
	if len(series) < 2 || series[0] == 0 {
		return 0
	}
	return series[len(series)-1]/series[0] - 1
}

// AnnualizeByTradingDays compounds a total return observed over nDays
// trading days: (1+total)^(252/nDays) - 1.
//
// Feature engineering and the buy-and-hold simulator both annualize this way.
func AnnualizeByTradingDays(totalReturn float64, nDays int) float64 {
	if nDays <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, TradingDaysPerYear/float64(nDays)) - 1
}

// AnnualizeByCalendarYears compounds a total return observed over a number of
// calendar years (elapsed days / 365.25): (1+total)^(1/years) - 1.
//
// Used by the equity-curve evaluator; it is not interchangeable with
// AnnualizeByTradingDays.
func AnnualizeByCalendarYears(totalReturn float64, years float64) float64 {
	if years <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns × sqrt(252 trading days)
func AnnualizedVolatility(dailyReturns []float64) float64 {
	return StdDev(dailyReturns) * math.Sqrt(TradingDaysPerYear)
}

// DownsideDeviation is the standard deviation of the negative daily returns
// annualized by sqrt(252). Fewer than two negative returns yield 0.
func DownsideDeviation(dailyReturns []float64) float64 {
	negatives := make([]float64, 0, len(dailyReturns))
	for _, r := range dailyReturns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	return StdDev(negatives) * math.Sqrt(TradingDaysPerYear)
}
