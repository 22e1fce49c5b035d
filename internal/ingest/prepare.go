package ingest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
)

// ImputeAdjClose fills a missing adjusted close with the raw close of the
// same row and returns the number of rows imputed.
func ImputeAdjClose(rows []PriceRow) int {
	imputed := 0
	for i := range rows {
		if math.IsNaN(rows[i].AdjClose) && !math.IsNaN(rows[i].Close) {
			rows[i].AdjClose = rows[i].Close
			imputed++
		}
	}
	return imputed
}

// ValidTickers returns, sorted, the tickers with at least minObservations
// rows carrying a usable adjusted close.
func ValidTickers(rows []PriceRow, minObservations int) []string {
	counts := make(map[string]int)
	for _, r := range rows {
		if r.AdjClose > 0 {
			counts[r.Ticker]++
		}
	}

	var valid []string
	for t, n := range counts {
		if n >= minObservations {
			valid = append(valid, t)
		}
	}
	sort.Strings(valid)
	return valid
}

// Pivot turns long-format rows of the given tickers into a PriceMatrix over
// the union of their dates. Duplicate (ticker, date) rows keep the last value.
func Pivot(rows []PriceRow, tickers []string) *domain.PriceMatrix {
	keep := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		keep[t] = true
	}

	dateSet := make(map[time.Time]struct{})
	for _, r := range rows {
		if keep[r.Ticker] {
			dateSet[r.Date] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	sorted := append([]string(nil), tickers...)
	sort.Strings(sorted)
	m := domain.NewPriceMatrix(dates, sorted)
	for _, r := range rows {
		if !keep[r.Ticker] || !(r.AdjClose > 0) {
			continue
		}
		m.Prices[r.Ticker][index[r.Date]] = r.AdjClose
	}
	return m
}

// Impute fills missing prices in place according to method and returns the
// number of values filled (or, for FillDrop, the number of dates removed).
func Impute(m *domain.PriceMatrix, method domain.FillMethod) (*domain.PriceMatrix, int, error) {
	switch method {
	case domain.FillForward:
		return m, fillColumns(m, forwardFill), nil
	case domain.FillBackward:
		return m, fillColumns(m, backwardFill), nil
	case domain.FillInterpolate:
		return m, fillColumns(m, interpolate), nil
	case domain.FillDrop:
		complete := make(map[time.Time]bool, m.Len())
		for i, d := range m.Dates {
			complete[d] = true
			for _, t := range m.Tickers {
				if math.IsNaN(m.Prices[t][i]) {
					complete[d] = false
					break
				}
			}
		}
		out := m.Filter(func(d time.Time) bool { return complete[d] })
		return out, m.Len() - out.Len(), nil
	}
	return nil, 0, fmt.Errorf("unknown fill method %q", method)
}

func fillColumns(m *domain.PriceMatrix, fill func([]float64) int) int {
	total := 0
	for _, t := range m.Tickers {
		total += fill(m.Prices[t])
	}
	return total
}

// forwardFill carries the last observation forward. Leading gaps stay missing.
func forwardFill(col []float64) int {
	filled := 0
	last := math.NaN()
	for i, v := range col {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				col[i] = last
				filled++
			}
			continue
		}
		last = v
	}
	return filled
}

// backwardFill carries the next observation backward. Trailing gaps stay missing.
func backwardFill(col []float64) int {
	filled := 0
	next := math.NaN()
	for i := len(col) - 1; i >= 0; i-- {
		if math.IsNaN(col[i]) {
			if !math.IsNaN(next) {
				col[i] = next
				filled++
			}
			continue
		}
		next = col[i]
	}
	return filled
}

// interpolate fills interior gaps linearly by position.
func interpolate(col []float64) int {
	filled := 0
	prev := -1
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			step := (v - col[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				col[j] = col[prev] + step*float64(j-prev)
				filled++
			}
		}
		prev = i
	}
	return filled
}

// ValidateBenchmark checks that the benchmark is a column with at most
// maxMissing of its observations missing.
func ValidateBenchmark(m *domain.PriceMatrix, ticker string, maxMissing float64) error {
	if !m.Has(ticker) {
		return fmt.Errorf("%s not in price matrix: %w", ticker, domain.ErrBenchmarkMissing)
	}
	if frac := m.MissingFraction(ticker); frac > maxMissing {
		return fmt.Errorf("%s missing %.1f%% of observations (max %.1f%%): %w",
			ticker, frac*100, maxMissing*100, domain.ErrBenchmarkMissing)
	}
	return nil
}

// SplitTrainTest splits at cutoff: train holds dates up to and including the
// cutoff, test holds the later dates.
func SplitTrainTest(m *domain.PriceMatrix, cutoff time.Time) (*domain.PriceMatrix, *domain.PriceMatrix) {
	train := m.Filter(func(d time.Time) bool { return !d.After(cutoff) })
	test := m.Filter(func(d time.Time) bool { return d.After(cutoff) })
	return train, test
}

// Summary describes a price matrix.
type Summary struct {
	Tickers      int       `json:"n_tickers"`
	Dates        int       `json:"n_dates"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	MissingCells int       `json:"missing_cells"`
}

// Summarize reports the shape, date range and missing cells of m.
func Summarize(m *domain.PriceMatrix) Summary {
	s := Summary{Tickers: len(m.Tickers), Dates: m.Len()}
	s.Start, s.End = m.DateRange()
	for _, t := range m.Tickers {
		s.MissingCells += m.Len() - m.ValidCount(t)
	}
	return s
}
