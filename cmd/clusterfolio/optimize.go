package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/aristath/clusterfolio/internal/artifacts"
	"github.com/aristath/clusterfolio/internal/backtest"
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/optimization"
	"github.com/spf13/cobra"
)

func newOptimizeCmd(a *app) *cobra.Command {
	var (
		profile   string
		scheme    string
		maxWeight float64
		compare   bool
	)
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Print alternative weights for a built portfolio",
		Long: `Reweight the holdings of a portfolio built by the portfolio stage with
max-Sharpe or hierarchical risk parity on the training window, then apply the
concentration caps. With --compare the equal-weight, reweighted buy-and-hold
and periodically rebalanced variants are evaluated on the test window.`,
		Example: `  clusterfolio optimize --profile moderate --scheme max_sharpe
  clusterfolio optimize --profile aggressive --scheme hrp --compare`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := domain.ParseWeightingScheme(scheme)
			if err != nil {
				return err
			}
			store := a.pipeline().Store()

			var portfolios []domain.Portfolio
			if err := store.Load(artifacts.Portfolios, &portfolios); err != nil {
				return fmt.Errorf("run the portfolio stage first: %w", err)
			}
			var selected *domain.Portfolio
			for i := range portfolios {
				if portfolios[i].Profile == profile {
					selected = &portfolios[i]
				}
			}
			if selected == nil {
				return fmt.Errorf("no portfolio for profile %q", profile)
			}

			var train domain.PriceMatrix
			if err := store.Load(artifacts.PricesTrain, &train); err != nil {
				return fmt.Errorf("run the ingest stage first: %w", err)
			}

			if maxWeight <= 0 {
				maxWeight = 1
			}
			weights, err := optimization.NewOptimizer(a.log).Reweight(*selected, &train, optimization.Options{
				Scheme:        ws,
				RiskFreeRate:  a.cfg.Features.RiskFreeRate,
				Bounds:        optimization.Bounds{Min: 0, Max: maxWeight},
				Linkage:       a.cfg.Clustering.Linkage,
				MaxPerAsset:   a.cfg.Portfolio.MaxWeightPerAsset,
				MaxPerSegment: a.cfg.Portfolio.MaxWeightPerSegment,
			})
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TICKER\tSEGMENT\tCURRENT\tOPTIMIZED")
			for _, h := range selected.Holdings {
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\n", h.Ticker, h.SegmentName, h.Weight, weights[h.Ticker])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !compare {
				return nil
			}
			var test domain.PriceMatrix
			if err := store.Load(artifacts.PricesTest, &test); err != nil {
				return fmt.Errorf("run the ingest stage first: %w", err)
			}
			return a.printComparison(cmd, &test, selected.Weights(), weights)
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "Profile whose portfolio is reweighted")
	cmd.Flags().StringVar(&scheme, "scheme", string(domain.WeightingMaxSharpe), "Weighting scheme: equal, max_sharpe or hrp")
	cmd.Flags().Float64Var(&maxWeight, "max-weight", 1, "Upper bound per asset for max_sharpe")
	cmd.Flags().BoolVar(&compare, "compare", false, "Backtest current and optimized weights on the test window")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}

// printComparison evaluates the current weights, the optimized weights held
// and the optimized weights rebalanced, side by side with the benchmark.
func (a *app) printComparison(cmd *cobra.Command, test *domain.PriceMatrix, current, optimized map[string]float64) error {
	opts := backtest.Options{
		InitialCapital:  a.cfg.Backtest.InitialCapital,
		TransactionCost: a.cfg.Backtest.TransactionCost,
		RiskFreeRate:    a.cfg.Backtest.RiskFreeRate,
	}
	bench, err := backtest.Benchmark(test, a.cfg.Data.Benchmark, opts)
	if err != nil {
		return err
	}
	held, err := backtest.Simulate(test, current, "current", opts)
	if err != nil {
		return err
	}
	reweighted, err := backtest.Simulate(test, optimized, "optimized", opts)
	if err != nil {
		return err
	}
	rebalanced, err := backtest.RunRebalancing(test, optimized, backtest.RebalanceOptions{
		InitialCapital:  a.cfg.Backtest.InitialCapital,
		TransactionCost: a.cfg.Backtest.TransactionCost,
		Frequency:       a.cfg.Backtest.Rebalance,
		RiskFreeRate:    a.cfg.Backtest.RiskFreeRate,
	})
	if err != nil {
		return err
	}

	rf := a.cfg.Backtest.RiskFreeRate
	benchMetrics := backtest.EvaluateEquityCurve(bench.Dates, bench.Equity, rf)
	variants := []*domain.BacktestResult{held, reweighted, rebalanced}
	rows := make([][]backtest.ComparisonRow, len(variants))
	for i, v := range variants {
		rows[i] = backtest.Compare(backtest.EvaluateEquityCurve(v.Dates, v.Equity, rf), benchMetrics)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\nMETRIC\tCURRENT\tOPTIMIZED\tREBALANCED (%s)\t%s\n", a.cfg.Backtest.Rebalance, bench.Label)
	for k := range rows[0] {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			rows[0][k].Metric, rows[0][k].Portfolio, rows[1][k].Portfolio, rows[2][k].Portfolio, rows[0][k].Benchmark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	excluded := append(append([]string{}, reweighted.Excluded...), rebalanced.Excluded...)
	sort.Strings(excluded)
	if len(excluded) > 0 {
		printf(cmd, "\nexcluded from simulation: %v\n", excluded)
	}
	return nil
}
