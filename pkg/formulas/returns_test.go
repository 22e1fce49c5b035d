package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyReturns(t *testing.T) {
	assert.Empty(t, DailyReturns([]float64{100}))

	returns := DailyReturns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)
}

func TestTotalReturn(t *testing.T) {
	assert.InDelta(t, 0.5, TotalReturn([]float64{100, 80, 150}), 1e-12)
	assert.Equal(t, 0.0, TotalReturn([]float64{100}))
}

func TestAnnualizeByTradingDays(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		days     int
		expected float64
	}{
		{"one year is unchanged", 0.10, 252, 0.10},
		{"half year compounds", 0.10, 126, 0.21},
		{"zero days", 0.10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AnnualizeByTradingDays(tt.total, tt.days), 1e-9)
		})
	}
}

func TestAnnualizeByCalendarYears(t *testing.T) {
	assert.InDelta(t, math.Sqrt(1.21)-1, AnnualizeByCalendarYears(0.21, 2), 1e-12)
	assert.Equal(t, 0.0, AnnualizeByCalendarYears(0.21, 0))
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Equal(t, 0.0, AnnualizedVolatility(makeReturns(0.001, 100)))

	returns := []float64{0.01, -0.01, 0.01, -0.01}
	assert.InDelta(t, StdDev(returns)*math.Sqrt(252), AnnualizedVolatility(returns), 1e-12)
}

func TestDownsideDeviation(t *testing.T) {
	assert.Equal(t, 0.0, DownsideDeviation([]float64{0.01, 0.02, -0.01}), "one negative return has no dispersion")

	returns := []float64{0.02, -0.01, 0.03, -0.03}
	expected := StdDev([]float64{-0.01, -0.03}) * math.Sqrt(252)
	assert.InDelta(t, expected, DownsideDeviation(returns), 1e-12)
}
