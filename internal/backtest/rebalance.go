package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
)

// RebalanceOptions parameterize RunRebalancing.
type RebalanceOptions struct {
	InitialCapital float64
	// TransactionCost is charged on every sale and every purchase.
	TransactionCost float64
	Frequency       domain.RebalanceFrequency
	RiskFreeRate    float64
}

// RunRebalancing simulates a portfolio that is fully liquidated and rebought
// at the target weights on the first date and on the last trading date of
// every month or quarter. Every requested ticker must be in the window.
func RunRebalancing(prices *domain.PriceMatrix, weights map[string]float64, opts RebalanceOptions) (*domain.BacktestResult, error) {
	tickers := make([]string, 0, len(weights))
	var missing []string
	for t := range weights {
		if !prices.Has(t) {
			missing = append(missing, t)
		}
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("tickers not in price window %v: %w", missing, domain.ErrEmptyUniverse)
	}
	if len(tickers) == 0 {
		return nil, domain.ErrEmptyUniverse
	}
	if prices.Len() == 0 {
		return nil, fmt.Errorf("empty price window: %w", domain.ErrInsufficientHistory)
	}

	rebalance := rebalanceDays(prices.Dates, opts.Frequency)
	cost := opts.TransactionCost
	cash := opts.InitialCapital
	shares := make(map[string]float64, len(tickers))
	last := make(map[string]float64, len(tickers))

	equity := make([]float64, prices.Len())
	for d := range prices.Dates {
		for _, t := range tickers {
			if p := prices.Prices[t][d]; validPrice(p) {
				last[t] = p
			}
		}

		if rebalance[d] {
			for _, t := range tickers {
				cash += shares[t] * last[t] * (1 - cost)
				shares[t] = 0
			}
			// Size purchases so that cost included they spend the cash exactly.
			budget := cash / (1 + cost)
			for _, t := range tickers {
				if last[t] <= 0 {
					continue
				}
				invest := budget * weights[t]
				shares[t] = invest / last[t]
				cash -= invest * (1 + cost)
			}
		}

		value := cash
		for _, t := range tickers {
			value += shares[t] * last[t]
		}
		equity[d] = value
	}

	return &domain.BacktestResult{
		Label:    "rebalanced",
		Dates:    append(prices.Dates[:0:0], prices.Dates...),
		Equity:   equity,
		Drawdown: formulas.DrawdownSeries(equity),
		Returns:  formulas.DailyReturns(equity),
		Metrics:  Performance(equity, opts.InitialCapital, opts.RiskFreeRate),
	}, nil
}

// rebalanceDays flags the first date and the last date of each period.
func rebalanceDays(dates []time.Time, freq domain.RebalanceFrequency) []bool {
	out := make([]bool, len(dates))
	if len(dates) == 0 {
		return out
	}
	out[0] = true
	for i := 0; i < len(dates); i++ {
		if i == len(dates)-1 || periodKey(dates[i], freq) != periodKey(dates[i+1], freq) {
			out[i] = true
		}
	}
	return out
}

func periodKey(t time.Time, freq domain.RebalanceFrequency) int {
	if freq == domain.RebalanceQuarterly {
		return t.Year()*10 + (int(t.Month())-1)/3
	}
	return t.Year()*100 + int(t.Month())
}
