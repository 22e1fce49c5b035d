package domain

import (
	"math"
	"sort"
	"time"
)

// PriceMatrix holds adjusted-close prices for a set of tickers over ascending,
// unique trading dates. A missing observation is stored as NaN.
type PriceMatrix struct {
	Dates   []time.Time          `msgpack:"dates"`
	Tickers []string             `msgpack:"tickers"`
	Prices  map[string][]float64 `msgpack:"prices"`
}

// NewPriceMatrix returns a matrix with every observation missing.
func NewPriceMatrix(dates []time.Time, tickers []string) *PriceMatrix {
	m := &PriceMatrix{
		Dates:   append([]time.Time(nil), dates...),
		Tickers: append([]string(nil), tickers...),
		Prices:  make(map[string][]float64, len(tickers)),
	}
	for _, t := range tickers {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		m.Prices[t] = col
	}
	return m
}

// Len returns the number of dates.
func (m *PriceMatrix) Len() int {
	return len(m.Dates)
}

// Has reports whether ticker is a column of the matrix.
func (m *PriceMatrix) Has(ticker string) bool {
	_, ok := m.Prices[ticker]
	return ok
}

// Series returns the price column for ticker, aligned with Dates.
func (m *PriceMatrix) Series(ticker string) ([]float64, bool) {
	col, ok := m.Prices[ticker]
	return col, ok
}

// ValidCount returns the number of non-missing observations of ticker.
func (m *PriceMatrix) ValidCount(ticker string) int {
	n := 0
	for _, v := range m.Prices[ticker] {
		if isPrice(v) {
			n++
		}
	}
	return n
}

// MissingFraction returns the share of missing observations of ticker.
// An absent ticker is fully missing.
func (m *PriceMatrix) MissingFraction(ticker string) float64 {
	if !m.Has(ticker) || len(m.Dates) == 0 {
		return 1
	}
	return 1 - float64(m.ValidCount(ticker))/float64(len(m.Dates))
}

// ValidPrices returns the non-missing prices of ticker in date order.
func (m *PriceMatrix) ValidPrices(ticker string) []float64 {
	col := m.Prices[ticker]
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if isPrice(v) {
			out = append(out, v)
		}
	}
	return out
}

// Returns returns simple daily returns of ticker aligned with Dates. Position i
// is NaN unless both observation i-1 and i are present.
func (m *PriceMatrix) Returns(ticker string) []float64 {
	col := m.Prices[ticker]
	out := make([]float64, len(col))
	for i := range col {
		out[i] = math.NaN()
		if i == 0 {
			continue
		}
		if isPrice(col[i-1]) && isPrice(col[i]) {
			out[i] = col[i]/col[i-1] - 1
		}
	}
	return out
}

// Filter returns a new matrix with the dates for which keep is true.
func (m *PriceMatrix) Filter(keep func(time.Time) bool) *PriceMatrix {
	idx := make([]int, 0, len(m.Dates))
	for i, d := range m.Dates {
		if keep(d) {
			idx = append(idx, i)
		}
	}

	dates := make([]time.Time, len(idx))
	for j, i := range idx {
		dates[j] = m.Dates[i]
	}
	out := &PriceMatrix{
		Dates:   dates,
		Tickers: append([]string(nil), m.Tickers...),
		Prices:  make(map[string][]float64, len(m.Tickers)),
	}
	for _, t := range m.Tickers {
		src := m.Prices[t]
		col := make([]float64, len(idx))
		for j, i := range idx {
			col[j] = src[i]
		}
		out.Prices[t] = col
	}
	return out
}

// Select returns a matrix restricted to the given tickers, in the given order.
// Unknown tickers are ignored.
func (m *PriceMatrix) Select(tickers []string) *PriceMatrix {
	out := &PriceMatrix{
		Dates:  append([]time.Time(nil), m.Dates...),
		Prices: make(map[string][]float64, len(tickers)),
	}
	for _, t := range tickers {
		col, ok := m.Prices[t]
		if !ok {
			continue
		}
		out.Tickers = append(out.Tickers, t)
		out.Prices[t] = append([]float64(nil), col...)
	}
	return out
}

// SortTickers orders the ticker columns alphabetically.
func (m *PriceMatrix) SortTickers() {
	sort.Strings(m.Tickers)
}

// DateRange returns the first and last dates; zero values when empty.
func (m *PriceMatrix) DateRange() (time.Time, time.Time) {
	if len(m.Dates) == 0 {
		return time.Time{}, time.Time{}
	}
	return m.Dates[0], m.Dates[len(m.Dates)-1]
}

func isPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
