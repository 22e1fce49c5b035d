// Package features builds the per-asset feature matrix from a price matrix.
package features

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/pkg/formulas"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options parameterize a build.
type Options struct {
	Benchmark      string
	RiskFreeRate   float64
	MomentumWindow int
	MinHistory     int
	VolOfVolWindow int
	Workers        int // <= 0 uses GOMAXPROCS
}

// Builder applies the metric battery to every non-benchmark ticker.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a feature matrix builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "features").Logger(),
	}
}

// benchmarkSeries carries the benchmark data every asset is compared against.
type benchmarkSeries struct {
	returns []float64 // aligned with the matrix dates, NaN where undefined
	annual  float64
}

// Build computes one FeatureRow per ticker with at least MinHistory valid
// prices. A ticker whose computation fails is logged and skipped; only a
// missing benchmark or a cancelled context fails the build.
func (b *Builder) Build(ctx context.Context, prices *domain.PriceMatrix, opts Options) (*domain.FeatureMatrix, error) {
	if !prices.Has(opts.Benchmark) {
		return nil, fmt.Errorf("%s: %w", opts.Benchmark, domain.ErrBenchmarkMissing)
	}

	benchPrices := prices.ValidPrices(opts.Benchmark)
	bench := benchmarkSeries{
		returns: prices.Returns(opts.Benchmark),
		annual: formulas.AnnualizeByTradingDays(
			formulas.TotalReturn(benchPrices), len(benchPrices)-1),
	}

	tickers := make([]string, 0, len(prices.Tickers))
	for _, t := range prices.Tickers {
		if t != opts.Benchmark {
			tickers = append(tickers, t)
		}
	}
	sort.Strings(tickers)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rows := make([]*domain.FeatureRow, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, ticker := range tickers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := computeSafely(ticker, prices, bench, opts)
			if err != nil {
				b.log.Warn().
					Str("ticker", ticker).
					Err(err).
					Msg("Skipping ticker")
				return nil
			}
			rows[i] = &row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("feature build cancelled: %w", err)
	}

	matrix := &domain.FeatureMatrix{Benchmark: opts.Benchmark}
	for _, r := range rows {
		if r != nil {
			matrix.Rows = append(matrix.Rows, *r)
		}
	}

	b.log.Info().
		Int("assets", matrix.Len()).
		Int("skipped", len(tickers)-matrix.Len()).
		Str("benchmark", opts.Benchmark).
		Msg("Built feature matrix")

	return matrix, nil
}

// computeSafely isolates a single ticker so that a panic in one computation
// surfaces as an error for that ticker only.
func computeSafely(ticker string, prices *domain.PriceMatrix, bench benchmarkSeries, opts Options) (row domain.FeatureRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metric computation panicked: %v", r)
		}
	}()
	return computeRow(ticker, prices, bench, opts)
}

func computeRow(ticker string, prices *domain.PriceMatrix, bench benchmarkSeries, opts Options) (domain.FeatureRow, error) {
	valid := prices.ValidPrices(ticker)
	if len(valid) < opts.MinHistory {
		return domain.FeatureRow{}, fmt.Errorf("%d valid prices, need %d: %w",
			len(valid), opts.MinHistory, domain.ErrInsufficientHistory)
	}

	returns := formulas.DailyReturns(valid)
	rf := opts.RiskFreeRate

	total := formulas.TotalReturn(valid)
	// n is the number of daily returns, not prices.
	annual := formulas.AnnualizeByTradingDays(total, len(returns))
	vol := formulas.AnnualizedVolatility(returns)
	downside := formulas.DownsideDeviation(returns)
	mdd := formulas.MaxDrawdown(valid)
	var95, cvar95 := formulas.VaRCVaR(returns, 0.05)

	row := domain.FeatureRow{
		Ticker:       ticker,
		Observations: len(valid),

		TotalReturn:          domain.Defined(total),
		AnnualizedReturn:     domain.Defined(annual),
		AnnualizedVolatility: domain.Defined(vol),
		DownsideDeviation:    domain.Defined(downside),
		MaxDrawdown:          domain.Defined(mdd),
		VaR95:                domain.Defined(var95),
		CVaR95:               domain.Defined(cvar95),
		SharpeRatio:          domain.Defined(formulas.SharpeRatio(annual, vol, rf)),
		SortinoRatio:         domain.Defined(formulas.SortinoRatio(annual, downside, rf)),
		CalmarRatio:          domain.Defined(formulas.CalmarRatio(annual, mdd)),
		PositiveRatio:        domain.Defined(formulas.PositiveRatio(returns)),
		GainLossRatio:        domain.MetricOf(formulas.GainLossRatio(returns)),
		Skewness:             domain.MetricOf(formulas.Skewness(returns)),
		Kurtosis:             domain.MetricOf(formulas.ExcessKurtosis(returns)),
		VolOfVol:             domain.MetricOf(formulas.VolatilityOfVolatility(returns, opts.VolOfVolWindow)),
		Momentum:             domain.Defined(formulas.Momentum(valid, opts.MomentumWindow)),
	}

	// Relative metrics use only the dates where both return series are defined.
	assetAligned, benchAligned := formulas.PairwiseComplete(prices.Returns(ticker), bench.returns)

	beta, betaOK := formulas.Beta(assetAligned, benchAligned)
	row.Beta = domain.MetricOf(beta, betaOK)
	if betaOK {
		row.Alpha = domain.Defined(formulas.JensenAlpha(annual, bench.annual, beta, rf))
	}
	row.Correlation = domain.MetricOf(formulas.Correlation(assetAligned, benchAligned))
	row.RSquared = domain.MetricOf(formulas.RSquared(assetAligned, benchAligned))
	row.TrackingError = domain.MetricOf(formulas.TrackingError(assetAligned, benchAligned))

	return row, nil
}
