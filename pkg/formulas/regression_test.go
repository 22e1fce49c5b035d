package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wave(n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(float64(i)*0.7)
	}
	return out
}

func TestBeta(t *testing.T) {
	bench := wave(60, 0.01)

	beta, ok := Beta(bench, bench)
	require.True(t, ok)
	assert.InDelta(t, 1.0, beta, 1e-9)

	scaled := make([]float64, len(bench))
	for i, r := range bench {
		scaled[i] = 2 * r
	}
	beta, ok = Beta(scaled, bench)
	require.True(t, ok)
	assert.InDelta(t, 2.0, beta, 1e-9)
}

func TestBeta_RequiresOverlap(t *testing.T) {
	bench := wave(MinOverlapObservations-1, 0.01)
	_, ok := Beta(bench, bench)
	assert.False(t, ok)
}

func TestBeta_FlatBenchmark(t *testing.T) {
	beta, ok := Beta(wave(40, 0.01), makeReturns(0.001, 40))
	assert.True(t, ok)
	assert.Equal(t, 0.0, beta)
}

func TestJensenAlpha(t *testing.T) {
	assert.InDelta(t, 0.0, JensenAlpha(0.12, 0.12, 1, 0.05), 1e-12)
	// 0.20 - (0.05 + 1.5*(0.10-0.05)) = 0.075
	assert.InDelta(t, 0.075, JensenAlpha(0.20, 0.10, 1.5, 0.05), 1e-12)
}

func TestRSquaredAndTrackingError(t *testing.T) {
	bench := wave(50, 0.01)

	r2, ok := RSquared(bench, bench)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r2, 1e-9)

	te, ok := TrackingError(bench, bench)
	require.True(t, ok)
	assert.InDelta(t, 0.0, te, 1e-12)

	_, ok = TrackingError([]float64{0.01}, []float64{0.01})
	assert.False(t, ok)
}
