package backtest

import (
	"context"
	"fmt"
	"runtime"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner backtests every profile portfolio against the benchmark.
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a new backtest runner.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		log: log.With().Str("component", "backtest").Logger(),
	}
}

// RunProfile simulates one portfolio and compares it with a benchmark run
// over the same window.
func RunProfile(prices *domain.PriceMatrix, p domain.Portfolio, bench *domain.BacktestResult, opts Options) (*domain.ProfileBacktest, error) {
	if p.Empty() {
		return nil, fmt.Errorf("profile %s: nothing to simulate: %w", p.Profile, domain.ErrEmptyPortfolio)
	}
	res, err := Simulate(prices, p.Weights(), p.Profile, opts)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", p.Profile, err)
	}
	return &domain.ProfileBacktest{
		Profile:   p.Profile,
		Portfolio: *res,
		Benchmark: *bench,
		Alpha:     res.Metrics.TotalReturn - bench.Metrics.TotalReturn,
	}, nil
}

// RunAll backtests the portfolios concurrently and returns the results in
// portfolio order. Any profile failing fails the whole run, naming the
// profile.
func (r *Runner) RunAll(
	ctx context.Context,
	prices *domain.PriceMatrix,
	portfolios []domain.Portfolio,
	benchmark string,
	opts Options,
	workers int,
) ([]domain.ProfileBacktest, error) {
	bench, err := Benchmark(prices, benchmark, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate benchmark: %w", err)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]domain.ProfileBacktest, len(portfolios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range portfolios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := RunProfile(prices, p, bench, opts)
			if err != nil {
				return err
			}
			if len(res.Portfolio.Excluded) > 0 {
				r.log.Warn().
					Str("profile", p.Profile).
					Strs("tickers", res.Portfolio.Excluded).
					Msg("Tickers missing from the test window were excluded")
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		r.log.Info().
			Str("profile", res.Profile).
			Float64("total_return", res.Portfolio.Metrics.TotalReturn).
			Float64("alpha", res.Alpha).
			Float64("sharpe", res.Portfolio.Metrics.SharpeRatio).
			Float64("max_drawdown", res.Portfolio.Metrics.MaxDrawdown).
			Msg("Backtest complete")
	}
	return results, nil
}
