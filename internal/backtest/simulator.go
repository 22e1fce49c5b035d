// Package backtest simulates portfolios over the held-out price window and
// summarizes the resulting equity curves.
package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// Options parameterize a buy-and-hold simulation.
type Options struct {
	InitialCapital float64
	// TransactionCost is the round-trip cost; half is charged on entry and
	// half on exit.
	TransactionCost float64
	RiskFreeRate    float64
}

// Simulate buys the weighted tickers on the first date of the window and
// holds the share counts unchanged to the last date. Tickers absent from the
// window, or without a price on its first date, are excluded and the
// remaining weights renormalized. A gap after entry carries the last price
// forward.
func Simulate(prices *domain.PriceMatrix, weights map[string]float64, label string, opts Options) (*domain.BacktestResult, error) {
	if prices.Len() == 0 {
		return nil, fmt.Errorf("%s: empty price window: %w", label, domain.ErrInsufficientHistory)
	}

	tickers := make([]string, 0, len(weights))
	for t := range weights {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var kept, excluded []string
	total := 0.0
	for _, t := range tickers {
		series, ok := prices.Series(t)
		if !ok || !validPrice(series[0]) || weights[t] <= 0 {
			excluded = append(excluded, t)
			continue
		}
		kept = append(kept, t)
		total += weights[t]
	}
	if len(kept) == 0 || !(total > 0) {
		return nil, fmt.Errorf("%s: no tradable tickers in the window: %w", label, domain.ErrEmptyUniverse)
	}

	halfCost := opts.TransactionCost / 2
	invested := opts.InitialCapital * (1 - halfCost)

	positions := make([]domain.Position, len(kept))
	series := make([][]float64, len(kept))
	for i, t := range kept {
		series[i], _ = prices.Series(t)
		w := weights[t] / total
		entry := series[i][0]
		positions[i] = domain.Position{
			Ticker:     t,
			Weight:     w,
			Shares:     invested * w / entry,
			EntryPrice: entry,
			EntryValue: invested * w,
		}
	}

	n := prices.Len()
	equity := make([]float64, n)
	last := make([]float64, len(kept))
	for d := 0; d < n; d++ {
		for i := range kept {
			if p := series[i][d]; validPrice(p) {
				last[i] = p
			}
			equity[d] += positions[i].Shares * last[i]
		}
	}
	equity[n-1] *= 1 - halfCost

	for i := range positions {
		positions[i].ExitPrice = last[i]
		positions[i].ExitValue = positions[i].Shares * last[i] * (1 - halfCost)
	}

	return &domain.BacktestResult{
		Label:     label,
		Dates:     append(prices.Dates[:0:0], prices.Dates...),
		Equity:    equity,
		Drawdown:  formulas.DrawdownSeries(equity),
		Returns:   formulas.DailyReturns(equity),
		Positions: positions,
		Excluded:  excluded,
		Metrics:   Performance(equity, opts.InitialCapital, opts.RiskFreeRate),
	}, nil
}

// Benchmark simulates the benchmark alone at full weight.
func Benchmark(prices *domain.PriceMatrix, ticker string, opts Options) (*domain.BacktestResult, error) {
	if !prices.Has(ticker) {
		return nil, fmt.Errorf("%s: %w", ticker, domain.ErrBenchmarkMissing)
	}
	return Simulate(prices, map[string]float64{ticker: 1}, ticker, opts)
}

// Performance summarizes an equity curve. Returns are annualized with a
// 252/n exponent where n is the number of equity points, entry day included.
// The feature builder counts daily returns instead (one fewer), so the two
// annualized figures differ slightly for the same window.
func Performance(equity []float64, initialCapital, riskFree float64) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{InitialCapital: initialCapital}
	if len(equity) == 0 {
		return m
	}
	m.FinalValue = equity[len(equity)-1]
	if initialCapital > 0 {
		m.TotalReturn = (m.FinalValue - initialCapital) / initialCapital
	}

	returns := formulas.DailyReturns(equity)
	m.AnnualizedReturn = formulas.AnnualizeByTradingDays(m.TotalReturn, len(equity))
	m.AnnualizedVolatility = formulas.AnnualizedVolatility(returns)
	m.MaxDrawdown = formulas.MaxDrawdown(equity)
	m.SharpeRatio = formulas.SharpeRatio(m.AnnualizedReturn, m.AnnualizedVolatility, riskFree)
	m.SortinoRatio = formulas.SortinoRatio(m.AnnualizedReturn, formulas.DownsideDeviation(returns), riskFree)
	m.CalmarRatio = formulas.CalmarRatio(m.AnnualizedReturn, m.MaxDrawdown)
	return m
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}
