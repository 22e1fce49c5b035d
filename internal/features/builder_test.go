package features

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticMatrix builds a deterministic random-walk price matrix. CLONE is an
// exact copy of SPY, LEVER is SPY scaled by 3, SHORT only has 50 prices.
func syntheticMatrix(days int) *domain.PriceMatrix {
	rng := rand.New(rand.NewSource(7))
	dates := make([]time.Time, days)
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	tickers := []string{"SPY", "CLONE", "LEVER", "AAA", "BBB", "SHORT"}
	m := domain.NewPriceMatrix(dates, tickers)

	walk := func(start, drift, vol float64) []float64 {
		out := make([]float64, days)
		p := start
		for i := range out {
			out[i] = p
			p *= 1 + drift + vol*rng.NormFloat64()
		}
		return out
	}

	spy := walk(400, 0.0004, 0.01)
	copy(m.Prices["SPY"], spy)
	copy(m.Prices["CLONE"], spy)
	for i, p := range spy {
		m.Prices["LEVER"][i] = 3 * p
	}
	copy(m.Prices["AAA"], walk(50, 0.001, 0.02))
	copy(m.Prices["BBB"], walk(20, -0.0005, 0.015))
	short := walk(10, 0.0, 0.01)
	copy(m.Prices["SHORT"][days-50:], short[:50])
	return m
}

func defaultOptions() Options {
	return Options{
		Benchmark:      "SPY",
		RiskFreeRate:   0.05,
		MomentumWindow: 126,
		MinHistory:     60,
		VolOfVolWindow: 21,
		Workers:        2,
	}
}

func TestBuild_BenchmarkCopy(t *testing.T) {
	matrix, err := NewBuilder(zerolog.Nop()).Build(context.Background(), syntheticMatrix(300), defaultOptions())
	require.NoError(t, err)

	clone, ok := matrix.Row("CLONE")
	require.True(t, ok)
	require.True(t, clone.Beta.Valid)
	assert.InDelta(t, 1.0, clone.Beta.Value, 1e-9)
	assert.InDelta(t, 0.0, clone.Alpha.Value, 1e-9)
	assert.InDelta(t, 1.0, clone.Correlation.Value, 1e-9)
	assert.InDelta(t, 1.0, clone.RSquared.Value, 1e-9)
	assert.InDelta(t, 0.0, clone.TrackingError.Value, 1e-9)

	lever, ok := matrix.Row("LEVER")
	require.True(t, ok)
	assert.InDelta(t, 1.0, lever.Beta.Value, 1e-9, "a scaled copy has the same returns")
	assert.InDelta(t, 1.0, lever.Correlation.Value, 1e-9)
}

func TestBuild_ExcludesBenchmarkAndShortHistory(t *testing.T) {
	matrix, err := NewBuilder(zerolog.Nop()).Build(context.Background(), syntheticMatrix(300), defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "BBB", "CLONE", "LEVER"}, matrix.Tickers())
	assert.Equal(t, "SPY", matrix.Benchmark)
}

func TestBuild_RowContents(t *testing.T) {
	matrix, err := NewBuilder(zerolog.Nop()).Build(context.Background(), syntheticMatrix(300), defaultOptions())
	require.NoError(t, err)

	row, ok := matrix.Row("AAA")
	require.True(t, ok)
	assert.Equal(t, 300, row.Observations)
	for _, name := range domain.AllFeatures {
		assert.True(t, row.Get(name).Valid, string(name))
	}
	assert.LessOrEqual(t, row.MaxDrawdown.Value, 0.0)
	assert.LessOrEqual(t, row.CVaR95.Value, row.VaR95.Value)
	assert.GreaterOrEqual(t, row.PositiveRatio.Value, 0.0)
	assert.LessOrEqual(t, row.PositiveRatio.Value, 1.0)
}

func TestBuild_Idempotent(t *testing.T) {
	prices := syntheticMatrix(300)
	builder := NewBuilder(zerolog.Nop())

	first, err := builder.Build(context.Background(), prices, defaultOptions())
	require.NoError(t, err)
	opts := defaultOptions()
	opts.Workers = 1
	second, err := builder.Build(context.Background(), prices, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_ShortOverlapLeavesBetaUndefined(t *testing.T) {
	prices := syntheticMatrix(300)
	opts := defaultOptions()
	opts.MinHistory = 20
	// AAA keeps only 25 prices, so fewer than 30 returns overlap the benchmark.
	for i := 0; i < 275; i++ {
		prices.Prices["AAA"][i] = math.NaN()
	}

	matrix, err := NewBuilder(zerolog.Nop()).Build(context.Background(), prices, opts)
	require.NoError(t, err)

	row, ok := matrix.Row("AAA")
	require.True(t, ok)
	assert.False(t, row.Beta.Valid)
	assert.False(t, row.Alpha.Valid)
	assert.True(t, row.AnnualizedReturn.Valid)
}

func TestBuild_MissingBenchmark(t *testing.T) {
	opts := defaultOptions()
	opts.Benchmark = "QQQ"
	_, err := NewBuilder(zerolog.Nop()).Build(context.Background(), syntheticMatrix(100), opts)
	assert.ErrorIs(t, err, domain.ErrBenchmarkMissing)
}

func TestBuild_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(zerolog.Nop()).Build(ctx, syntheticMatrix(100), defaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeSafely_RecoversPanic(t *testing.T) {
	_, err := computeSafely("AAA", nil, benchmarkSeries{}, defaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}
