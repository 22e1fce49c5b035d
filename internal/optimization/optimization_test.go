package optimization

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sum(w []float64) float64 {
	s := 0.0
	for _, v := range w {
		s += v
	}
	return s
}

func TestMaxSharpe_FavorsHigherReturn(t *testing.T) {
	mu := []float64{0.20, 0.05}
	cov := [][]float64{{0.04, 0}, {0, 0.04}}

	w, stats, err := MaxSharpe(mu, cov, Bounds{Min: 0, Max: 1}, 0)
	require.NoError(t, err)

	// Tangency weights are proportional to mu for equal uncorrelated variance.
	assert.InDelta(t, 1.0, sum(w), 1e-9)
	assert.InDelta(t, 0.8, w[0], 0.05)
	assert.Greater(t, stats.Sharpe, 0.0)
}

func TestMaxSharpe_RespectsBounds(t *testing.T) {
	mu := []float64{0.30, 0.05, 0.04}
	cov := [][]float64{{0.04, 0, 0}, {0, 0.04, 0}, {0, 0, 0.04}}

	w, _, err := MaxSharpe(mu, cov, Bounds{Min: 0.1, Max: 0.5}, 0.02)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, sum(w), 1e-9)
	for _, v := range w {
		assert.GreaterOrEqual(t, v, 0.1-1e-9)
		assert.LessOrEqual(t, v, 0.5+1e-9)
	}
	assert.InDelta(t, 0.5, w[0], 1e-3)
}

func TestMaxSharpe_InfeasibleBounds(t *testing.T) {
	_, _, err := MaxSharpe([]float64{0.1, 0.1}, [][]float64{{1, 0}, {0, 1}}, Bounds{Min: 0, Max: 0.2}, 0)
	assert.Error(t, err)

	_, _, err = MaxSharpe(nil, nil, Bounds{Max: 1}, 0)
	assert.Error(t, err)
}

func TestHRP_InverseVariance(t *testing.T) {
	w, err := HRP([][]float64{{0.04, 0}, {0, 0.01}}, formulas.LinkageSingle)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, w[0], 1e-12)
	assert.InDelta(t, 0.8, w[1], 1e-12)
}

func TestHRP_EdgeCases(t *testing.T) {
	w, err := HRP([][]float64{{0.05}}, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, w)

	_, err = HRP(nil, "")
	assert.Error(t, err)

	_, err = HRP([][]float64{{0, 0}, {0, 0.01}}, "")
	assert.Error(t, err, "zero variance has no correlation")
}

func TestHRP_SumsToOne(t *testing.T) {
	cov := [][]float64{
		{0.040, 0.018, 0.002, 0.001},
		{0.018, 0.030, 0.001, 0.002},
		{0.002, 0.001, 0.010, 0.004},
		{0.001, 0.002, 0.004, 0.020},
	}
	w, err := HRP(cov, formulas.LinkageAverage)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sum(w), 1e-12)
	for _, v := range w {
		assert.Greater(t, v, 0.0)
	}
}

func TestApplyConcentrationRules(t *testing.T) {
	weights := map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2}
	segments := map[string]domain.SegmentLabel{"A": 0, "B": 0, "C": 1}

	got := ApplyConcentrationRules(weights, segments, 0.4, 0.6)

	// A capped to 0.4, segment 0 scaled from 0.7 to 0.6, then renormalized by 0.8.
	assert.InDelta(t, 0.4*6/7/0.8, got["A"], 1e-12)
	assert.InDelta(t, 0.3*6/7/0.8, got["B"], 1e-12)
	assert.InDelta(t, 0.25, got["C"], 1e-12)
	assert.Equal(t, 0.5, weights["A"], "input is not mutated")
}

func trainPrices(days int) *domain.PriceMatrix {
	dates := make([]time.Time, days)
	for i := range dates {
		dates[i] = time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
	}
	m := domain.NewPriceMatrix(dates, []string{"AAA", "BBB", "CCC"})
	for i := 0; i < days; i++ {
		x := float64(i)
		m.Prices["AAA"][i] = 100 * math.Exp(0.001*x+0.02*math.Sin(x/3))
		m.Prices["BBB"][i] = 50 * math.Exp(0.0002*x+0.01*math.Cos(x/5))
		m.Prices["CCC"][i] = 20 * math.Exp(0.0005*x+0.015*math.Sin(x/7+1))
	}
	if days > 10 {
		m.Prices["CCC"][10] = math.NaN()
	}
	return m
}

func portfolio() domain.Portfolio {
	return domain.Portfolio{Profile: "moderate", Holdings: []domain.Holding{
		{Ticker: "AAA", Segment: 1},
		{Ticker: "BBB", Segment: 2},
		{Ticker: "CCC", Segment: 2},
	}}
}

func TestAlignedReturns_SkipsGaps(t *testing.T) {
	rows, err := AlignedReturns(trainPrices(50), []string{"AAA", "CCC"})
	require.NoError(t, err)
	// Day 0 has no return and the gap at day 10 removes days 10 and 11.
	assert.Len(t, rows, 47)

	_, err = AlignedReturns(trainPrices(50), []string{"ZZZ"})
	assert.Error(t, err)
}

func TestReweight(t *testing.T) {
	opt := NewOptimizer(zerolog.Nop())
	prices := trainPrices(200)

	for _, scheme := range []domain.WeightingScheme{domain.WeightingEqual, domain.WeightingMaxSharpe, domain.WeightingHRP} {
		t.Run(string(scheme), func(t *testing.T) {
			w, err := opt.Reweight(portfolio(), prices, Options{
				Scheme:        scheme,
				RiskFreeRate:  0.02,
				Bounds:        Bounds{Min: 0, Max: 1},
				Linkage:       domain.LinkageSingle,
				MaxPerAsset:   0.6,
				MaxPerSegment: 0.8,
			})
			require.NoError(t, err)
			require.Len(t, w, 3)

			total := 0.0
			for _, v := range w {
				assert.GreaterOrEqual(t, v, 0.0)
				total += v
			}
			assert.InDelta(t, 1.0, total, 1e-9)
		})
	}
}

func TestReweight_Errors(t *testing.T) {
	opt := NewOptimizer(zerolog.Nop())

	_, err := opt.Reweight(domain.Portfolio{Profile: "empty"}, trainPrices(10), Options{})
	assert.ErrorIs(t, err, domain.ErrEmptyPortfolio)

	_, err = opt.Reweight(portfolio(), trainPrices(10), Options{Scheme: "kelly"})
	assert.Error(t, err)
}
