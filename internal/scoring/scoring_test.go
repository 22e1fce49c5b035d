package scoring

import (
	"fmt"
	"testing"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asset(ticker string, seg domain.SegmentLabel, annRet, momentum float64) domain.SegmentedAsset {
	return domain.SegmentedAsset{
		Features: domain.FeatureRow{
			Ticker:           ticker,
			AnnualizedReturn: domain.Defined(annRet),
			Momentum:         domain.Defined(momentum),
			SharpeRatio:      domain.Defined(annRet * 2),
			Beta:             domain.Defined(1),
		},
		Segment:     seg,
		SegmentName: domain.DefaultSegmentNames().Name(seg),
	}
}

func defaultWeights() map[domain.FeatureName]float64 {
	return map[domain.FeatureName]float64{
		domain.FeatureAnnualizedReturn: 0.35,
		domain.FeatureMomentum:         0.30,
		domain.FeatureSharpeRatio:      0.15,
		domain.FeatureBeta:             0.20,
	}
}

func TestMinMax(t *testing.T) {
	t.Run("scales to unit interval", func(t *testing.T) {
		got := MinMax([]domain.Metric{domain.Defined(1), domain.Defined(3), domain.Defined(2)})
		assert.Equal(t, []float64{0, 1, 0.5}, got)
	})

	t.Run("constant column is neutral", func(t *testing.T) {
		got := MinMax([]domain.Metric{domain.Defined(0.7), domain.Defined(0.7), domain.Defined(0.7)})
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, got)
	})

	t.Run("undefined values are neutral", func(t *testing.T) {
		got := MinMax([]domain.Metric{domain.Defined(0), domain.Undefined(), domain.Defined(4)})
		assert.Equal(t, []float64{0, 0.5, 1}, got)
	})

	t.Run("all undefined", func(t *testing.T) {
		got := MinMax([]domain.Metric{domain.Undefined(), domain.Undefined()})
		assert.Equal(t, []float64{0.5, 0.5}, got)
	})
}

func TestScore(t *testing.T) {
	assets := []domain.SegmentedAsset{
		asset("LOW", 0, 0.0, 0.0),
		asset("HIGH", 0, 0.2, 0.1),
	}
	scored := Score(assets, defaultWeights())

	// Beta is constant, so it contributes 0.20 * 0.5 to both.
	assert.InDelta(t, 0.10, scored[0].Score, 1e-12)
	assert.InDelta(t, 0.35+0.30+0.15+0.10, scored[1].Score, 1e-12)
}

func TestScore_MissingMetricIsNeutral(t *testing.T) {
	a := asset("A", 0, 0.1, 0.1)
	a.Features.Momentum = domain.Undefined()
	scored := Score([]domain.SegmentedAsset{a, asset("B", 0, 0.3, 0.2)}, map[domain.FeatureName]float64{
		domain.FeatureMomentum: 1,
	})
	assert.Equal(t, 0.5, scored[0].Score)
	assert.Equal(t, 0.5, scored[1].Score, "single defined value is a constant column")
}

func TestRank_TiesByTicker(t *testing.T) {
	assets := []domain.ScoredAsset{
		{SegmentedAsset: asset("C", 0, 0, 0), Score: 0.5},
		{SegmentedAsset: asset("A", 0, 0, 0), Score: 0.5},
		{SegmentedAsset: asset("B", 0, 0, 0), Score: 0.9},
	}
	Rank(assets)
	assert.Equal(t, "B", assets[0].Ticker())
	assert.Equal(t, "A", assets[1].Ticker())
	assert.Equal(t, "C", assets[2].Ticker())
}

func universe() []domain.ScoredAsset {
	var assets []domain.SegmentedAsset
	for i := 0; i < 5; i++ {
		assets = append(assets, asset(fmt.Sprintf("S0_%d", i), 0, 0.05+0.01*float64(i), 0.02))
		assets = append(assets, asset(fmt.Sprintf("S1_%d", i), 1, 0.20+0.02*float64(i), 0.10))
	}
	assets = append(assets,
		asset("OUT_NEG", domain.OutlierLabel, -0.30, -0.2),
		asset("OUT_LOW", domain.OutlierLabel, 0.08, 0.3),
		asset("OUT_HIGH", domain.OutlierLabel, 0.50, 0.4),
	)
	return Score(assets, defaultWeights())
}

func TestSelect_TopPerSegmentEqualWeight(t *testing.T) {
	sel := NewSelector(zerolog.Nop())
	profile := domain.Profile{Name: "moderate", Distribution: domain.Distribution{0: 2, 1: 3}}

	p := sel.Select(universe(), profile, Options{})

	require.Len(t, p.Holdings, 5)
	assert.Equal(t, []string{"S0_4", "S0_3", "S1_4", "S1_3", "S1_2"}, p.Tickers())
	assert.InDelta(t, 1.0, p.TotalWeight(), 1e-12)
	for _, h := range p.Holdings {
		assert.InDelta(t, 0.2, h.Weight, 1e-12)
	}
}

func TestSelect_OutlierMinimumReturn(t *testing.T) {
	sel := NewSelector(zerolog.Nop())
	profile := domain.Profile{Name: "speculative", Distribution: domain.Distribution{domain.OutlierLabel: 3}}

	p := sel.Select(universe(), profile, Options{OutlierMinReturn: 0.08})

	require.Len(t, p.Holdings, 1)
	for _, h := range p.Holdings {
		assert.Greater(t, h.Features.AnnualizedReturn.Value, 0.08)
	}
	assert.Equal(t, "OUT_HIGH", p.Holdings[0].Ticker)
}

func TestSelect_SkipsEmptySegments(t *testing.T) {
	sel := NewSelector(zerolog.Nop())
	profile := domain.Profile{Name: "conservative", Distribution: domain.Distribution{3: 5, 0: 1}}

	p := sel.Select(universe(), profile, Options{})
	require.Len(t, p.Holdings, 1)
	assert.Equal(t, 1.0, p.Holdings[0].Weight)
}

func TestSelect_NothingSelected(t *testing.T) {
	sel := NewSelector(zerolog.Nop())
	p := sel.Select(universe(), domain.Profile{Name: "empty", Distribution: domain.Distribution{7: 2}}, Options{})

	assert.True(t, p.Empty())
	assert.Equal(t, "empty", p.Profile)
	assert.Equal(t, 0.0, p.TotalWeight())
}

func TestSelectAll_WeightsSumToOne(t *testing.T) {
	sel := NewSelector(zerolog.Nop())
	profiles := []domain.Profile{
		{Name: "aggressive", Distribution: domain.Distribution{1: 7, 0: 2, domain.OutlierLabel: 1}},
		{Name: "balanced", Distribution: domain.Distribution{domain.OutlierLabel: 2, 0: 2, 1: 2}},
	}

	portfolios := sel.SelectAll(universe(), profiles, Options{})
	require.Len(t, portfolios, 2)
	for _, p := range portfolios {
		require.False(t, p.Empty())
		assert.InDelta(t, 1.0, p.TotalWeight(), 1e-12, p.Profile)
	}
	assert.Equal(t, 5+2+1, len(portfolios[0].Holdings))
}

func TestApplyWeights(t *testing.T) {
	p := domain.Portfolio{Holdings: []domain.Holding{{Ticker: "A"}, {Ticker: "B"}}}
	ApplyWeights(&p, map[string]float64{"A": 0.7})
	assert.Equal(t, 0.7, p.Holdings[0].Weight)
	assert.Equal(t, 0.0, p.Holdings[1].Weight)
}
