package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func sampleMatrix() *PriceMatrix {
	m := NewPriceMatrix([]time.Time{day(0), day(1), day(2), day(3)}, []string{"AAA", "BBB"})
	copy(m.Prices["AAA"], []float64{10, 11, math.NaN(), 12})
	copy(m.Prices["BBB"], []float64{20, 20, 20, 20})
	return m
}

func TestPriceMatrix_Counts(t *testing.T) {
	m := sampleMatrix()

	assert.Equal(t, 4, m.Len())
	assert.Equal(t, 3, m.ValidCount("AAA"))
	assert.InDelta(t, 0.25, m.MissingFraction("AAA"), 1e-12)
	assert.Equal(t, 1.0, m.MissingFraction("ZZZ"))
	assert.Equal(t, []float64{10, 11, 12}, m.ValidPrices("AAA"))
}

func TestPriceMatrix_Returns(t *testing.T) {
	r := sampleMatrix().Returns("AAA")
	require.Len(t, r, 4)

	assert.True(t, math.IsNaN(r[0]))
	assert.InDelta(t, 0.1, r[1], 1e-12)
	assert.True(t, math.IsNaN(r[2]))
	assert.True(t, math.IsNaN(r[3]), "a gap breaks the return chain")
}

func TestPriceMatrix_Filter(t *testing.T) {
	m := sampleMatrix()
	cutoff := day(1)

	train := m.Filter(func(d time.Time) bool { return !d.After(cutoff) })
	test := m.Filter(func(d time.Time) bool { return d.After(cutoff) })

	assert.Equal(t, 2, train.Len())
	assert.Equal(t, 2, test.Len())
	assert.Equal(t, []float64{10, 11}, train.Prices["AAA"])

	first, last := test.DateRange()
	assert.Equal(t, day(2), first)
	assert.Equal(t, day(3), last)
}

func TestPriceMatrix_Select(t *testing.T) {
	m := sampleMatrix().Select([]string{"BBB", "ZZZ"})
	assert.Equal(t, []string{"BBB"}, m.Tickers)
	assert.False(t, m.Has("AAA"))
}
