package backtest

import (
	"time"

	"github.com/aristath/clusterfolio/pkg/formulas"
)

// CurveMetrics evaluates an equity curve with calendar-time annualization:
// years are elapsed calendar days / 365.25. The simulator's own
// PerformanceMetrics use trading-day annualization instead.
type CurveMetrics struct {
	TotalReturn  float64
	AnnualReturn float64
	Volatility   float64
	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64
	MaxDrawdown  float64
	WinRate      float64
	NDays        int
	NYears       float64
}

// EvaluateEquityCurve computes CurveMetrics for an equity curve over dates.
func EvaluateEquityCurve(dates []time.Time, equity []float64, riskFree float64) CurveMetrics {
	m := CurveMetrics{NDays: len(equity)}
	if len(equity) < 2 || len(dates) != len(equity) {
		return m
	}

	returns := formulas.DailyReturns(equity)
	m.TotalReturn = formulas.TotalReturn(equity)
	m.NYears = dates[len(dates)-1].Sub(dates[0]).Hours() / 24 / formulas.CalendarDaysPerYear
	m.AnnualReturn = formulas.AnnualizeByCalendarYears(m.TotalReturn, m.NYears)
	m.Volatility = formulas.AnnualizedVolatility(returns)
	m.MaxDrawdown = formulas.MaxDrawdown(equity)
	m.SharpeRatio = formulas.SharpeRatio(m.AnnualReturn, m.Volatility, riskFree)
	m.SortinoRatio = formulas.SortinoRatio(m.AnnualReturn, formulas.DownsideDeviation(returns), riskFree)
	m.CalmarRatio = formulas.CalmarRatio(m.AnnualReturn, m.MaxDrawdown)
	m.WinRate = formulas.PositiveRatio(returns)
	return m
}

// ComparisonRow is one metric side by side.
type ComparisonRow struct {
	Metric     string
	Portfolio  float64
	Benchmark  float64
	Difference float64
}

// Compare lines up portfolio and benchmark metrics with their difference.
func Compare(portfolio, benchmark CurveMetrics) []ComparisonRow {
	row := func(name string, p, b float64) ComparisonRow {
		return ComparisonRow{Metric: name, Portfolio: p, Benchmark: b, Difference: p - b}
	}
	return []ComparisonRow{
		row("total_return", portfolio.TotalReturn, benchmark.TotalReturn),
		row("annual_return", portfolio.AnnualReturn, benchmark.AnnualReturn),
		row("volatility", portfolio.Volatility, benchmark.Volatility),
		row("sharpe_ratio", portfolio.SharpeRatio, benchmark.SharpeRatio),
		row("sortino_ratio", portfolio.SortinoRatio, benchmark.SortinoRatio),
		row("calmar_ratio", portfolio.CalmarRatio, benchmark.CalmarRatio),
		row("max_drawdown", portfolio.MaxDrawdown, benchmark.MaxDrawdown),
		row("win_rate", portfolio.WinRate, benchmark.WinRate),
		row("n_days", float64(portfolio.NDays), float64(benchmark.NDays)),
		row("n_years", portfolio.NYears, benchmark.NYears),
	}
}
