package domain

import "time"

// PerformanceMetrics is the scalar summary of an equity curve.
type PerformanceMetrics struct {
	InitialCapital       float64 `msgpack:"initial_capital"`
	FinalValue           float64 `msgpack:"final_value"`
	TotalReturn          float64 `msgpack:"total_return"`
	AnnualizedReturn     float64 `msgpack:"annualized_return"`
	AnnualizedVolatility float64 `msgpack:"annualized_volatility"`
	SharpeRatio          float64 `msgpack:"sharpe_ratio"`
	SortinoRatio         float64 `msgpack:"sortino_ratio"`
	CalmarRatio          float64 `msgpack:"calmar_ratio"`
	MaxDrawdown          float64 `msgpack:"max_drawdown"`
}

// Position is the static share count held for one ticker.
type Position struct {
	Ticker     string  `msgpack:"ticker"`
	Weight     float64 `msgpack:"weight"`
	Shares     float64 `msgpack:"shares"`
	EntryPrice float64 `msgpack:"entry_price"`
	ExitPrice  float64 `msgpack:"exit_price"`
	EntryValue float64 `msgpack:"entry_value"`
	ExitValue  float64 `msgpack:"exit_value"`
}

// BacktestResult is a simulated equity curve over a price window.
// Dates, Equity and Drawdown have equal length; Returns has one fewer.
type BacktestResult struct {
	Label     string             `msgpack:"label"`
	Dates     []time.Time        `msgpack:"dates"`
	Equity    []float64          `msgpack:"equity"`
	Drawdown  []float64          `msgpack:"drawdown"`
	Returns   []float64          `msgpack:"returns"`
	Positions []Position         `msgpack:"positions"`
	Excluded  []string           `msgpack:"excluded"`
	Metrics   PerformanceMetrics `msgpack:"metrics"`
}

// ProfileBacktest pairs a portfolio simulation with the benchmark simulated
// over the same window.
type ProfileBacktest struct {
	Profile   string         `msgpack:"profile"`
	Portfolio BacktestResult `msgpack:"portfolio"`
	Benchmark BacktestResult `msgpack:"benchmark"`
	// Alpha is the portfolio total return minus the benchmark total return.
	Alpha float64 `msgpack:"alpha"`
}
