package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{"monotonic series has no drawdown", []float64{100, 101, 105, 110}, 0},
		{"peak to trough", []float64{100, 120, 90, 130}, -0.25},
		{"ends in drawdown", []float64{100, 50}, -0.5},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxDrawdown(tt.series), 1e-12)
		})
	}
}

func TestDrawdownSeries(t *testing.T) {
	dd := DrawdownSeries([]float64{100, 120, 90, 130})
	assert.InDeltaSlice(t, []float64{0, 0, -0.25, 0}, dd, 1e-12)
	for _, v := range dd {
		assert.LessOrEqual(t, v, 0.0)
	}
}

func TestVaRCVaR(t *testing.T) {
	returns := []float64{0.03, -0.05, 0.01, -0.02, 0.02}

	v, cv := VaRCVaR(returns, 0.05)
	assert.InDelta(t, -0.044, v, 1e-12)
	assert.InDelta(t, -0.05, cv, 1e-12)
	assert.LessOrEqual(t, cv, v)
	assert.InDelta(t, v, HistoricalVaR(returns, 0.05), 1e-12)

	v, cv = VaRCVaR(nil, 0.05)
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 0.0, cv)
}
