package backtest

import (
	"math"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// RollingPoint holds trailing-window statistics ending at Date. Values are
// undefined until the window is full.
type RollingPoint struct {
	Date       time.Time
	Return     domain.Metric
	Volatility domain.Metric
	Sharpe     domain.Metric
	Drawdown   domain.Metric
}

// RollingMetrics computes annualized mean return, volatility, their ratio and
// the drawdown from the window high for every date of the curve.
func RollingMetrics(dates []time.Time, equity []float64, window int) []RollingPoint {
	out := make([]RollingPoint, len(equity))
	returns := formulas.DailyReturns(equity)
	for i := range equity {
		p := RollingPoint{Date: dates[i]}

		// returns[i-1] is the return into day i.
		if window > 1 && i >= window {
			w := returns[i-window : i]
			ret := formulas.Mean(w) * formulas.TradingDaysPerYear
			vol := formulas.AnnualizedVolatility(w)
			p.Return = domain.Defined(ret)
			p.Volatility = domain.Defined(vol)
			p.Sharpe = domain.MetricOf(ret/vol, vol > 0)
		}
		if window > 0 && i >= window-1 {
			peak := math.Inf(-1)
			for _, v := range equity[i-window+1 : i+1] {
				peak = math.Max(peak, v)
			}
			p.Drawdown = domain.MetricOf((equity[i]-peak)/peak, peak > 0)
		}
		out[i] = p
	}
	return out
}

// MonthlyReturn is the return of one calendar month, dated at its last
// trading day.
type MonthlyReturn struct {
	Date   time.Time
	Return float64
}

// MonthlyReturns compounds the curve by month-end values. The first month
// has no prior month-end and is omitted.
func MonthlyReturns(dates []time.Time, equity []float64) []MonthlyReturn {
	var ends []int
	for i := range dates {
		if i == len(dates)-1 || dates[i].Year() != dates[i+1].Year() || dates[i].Month() != dates[i+1].Month() {
			ends = append(ends, i)
		}
	}

	var out []MonthlyReturn
	for k := 1; k < len(ends); k++ {
		prev, cur := equity[ends[k-1]], equity[ends[k]]
		if prev == 0 {
			continue
		}
		out = append(out, MonthlyReturn{Date: dates[ends[k]], Return: cur/prev - 1})
	}
	return out
}
