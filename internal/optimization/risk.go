// Package optimization provides alternative weighting schemes for a selected
// portfolio: bounded max-Sharpe, hierarchical risk parity and concentration caps.
// Equal weighting remains the default; these are opt-in.
package optimization

import (
	"fmt"
	"math"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AlignedReturns returns the daily returns of tickers restricted to the dates
// on which every ticker has a defined return. Rows are dates, columns follow
// tickers.
func AlignedReturns(prices *domain.PriceMatrix, tickers []string) ([][]float64, error) {
	series := make([][]float64, len(tickers))
	for j, t := range tickers {
		if !prices.Has(t) {
			return nil, fmt.Errorf("ticker %s not in price matrix", t)
		}
		series[j] = prices.Returns(t)
	}
	if len(series) == 0 {
		return nil, nil
	}

	var rows [][]float64
	for i := range series[0] {
		row := make([]float64, len(tickers))
		ok := true
		for j := range tickers {
			v := series[j][i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
			row[j] = v
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// AnnualizedMoments returns the annualized mean returns and sample covariance
// of the aligned return rows.
func AnnualizedMoments(rows [][]float64) ([]float64, [][]float64, error) {
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("insufficient data: need at least 2 observations, got %d", len(rows))
	}
	n := len(rows[0])

	data := mat.NewDense(len(rows), n, nil)
	for i, r := range rows {
		data.SetRow(i, r)
	}
	var sym mat.SymDense
	stat.CovarianceMatrix(&sym, data, nil)

	mu := make([]float64, n)
	cov := make([][]float64, n)
	for j := 0; j < n; j++ {
		mu[j] = formulas.Mean(mat.Col(nil, j, data)) * formulas.TradingDaysPerYear
		cov[j] = make([]float64, n)
		for k := 0; k < n; k++ {
			cov[j][k] = sym.At(j, k) * formulas.TradingDaysPerYear
		}
	}
	return mu, cov, nil
}

func portfolioMoments(w, mu []float64, cov [][]float64) (ret, variance float64) {
	for i := range w {
		ret += mu[i] * w[i]
		for j := range w {
			variance += w[i] * w[j] * cov[i][j]
		}
	}
	return ret, variance
}
