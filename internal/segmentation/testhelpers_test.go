package segmentation

import (
	"fmt"
	"math/rand"

	"github.com/aristath/clusterfolio/internal/domain"
)

// blobs returns points scattered tightly around each center, followed by
// the given far-away stragglers.
func blobs(seed int64, perCenter int, centers [][]float64, stragglers [][]float64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	var out [][]float64
	for _, c := range centers {
		for i := 0; i < perCenter; i++ {
			p := make([]float64, len(c))
			for j := range c {
				p[j] = c[j] + 0.1*rng.NormFloat64()
			}
			out = append(out, p)
		}
	}
	return append(out, stragglers...)
}

// featureMatrixFrom maps 2-D points onto annualized return and volatility.
func featureMatrixFrom(points [][]float64) *domain.FeatureMatrix {
	m := &domain.FeatureMatrix{Benchmark: "SPY"}
	for i, p := range points {
		m.Rows = append(m.Rows, domain.FeatureRow{
			Ticker:               fmt.Sprintf("T%03d", i),
			AnnualizedReturn:     domain.Defined(p[0]),
			AnnualizedVolatility: domain.Defined(p[1]),
			SharpeRatio:          domain.Defined(p[0] - p[1]),
			Beta:                 domain.Defined(1),
			MaxDrawdown:          domain.Defined(-0.1),
		})
	}
	return m
}

func testOptions() Options {
	return Options{
		Method:        domain.ClusterHybrid,
		Features:      []domain.FeatureName{domain.FeatureAnnualizedReturn, domain.FeatureAnnualizedVolatility},
		NClusters:     3,
		MinSamples:    5,
		EpsPercentile: 90,
		Seed:          42,
		NInit:         10,
		MaxIter:       300,
		Linkage:       domain.LinkageAverage,
		Names:         domain.DefaultSegmentNames(),
	}
}
