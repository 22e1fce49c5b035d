package reports

import (
	"sort"

	"github.com/aristath/clusterfolio/internal/backtest"
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/segmentation"
)

// portfolioMetricColumns are the underlying metrics repeated on every holding row.
var portfolioMetricColumns = []domain.FeatureName{
	domain.FeatureAnnualizedReturn,
	domain.FeatureAnnualizedVolatility,
	domain.FeatureSharpeRatio,
	domain.FeatureMaxDrawdown,
	domain.FeatureBeta,
	domain.FeatureMomentum,
}

func featureHeader(prefix ...string) []string {
	header := append([]string{}, prefix...)
	for _, f := range domain.AllFeatures {
		header = append(header, string(f))
	}
	return header
}

func featureCells(row domain.FeatureRow) []string {
	out := make([]string, len(domain.AllFeatures))
	for i, f := range domain.AllFeatures {
		out[i] = row.Get(f).String()
	}
	return out
}

// WriteFeatures writes one row per asset with every metric. Undefined
// metrics are empty cells.
func WriteFeatures(path string, fm *domain.FeatureMatrix) error {
	rows := make([][]string, 0, fm.Len())
	for _, r := range fm.Rows {
		rows = append(rows, append([]string{r.Ticker, itoa(r.Observations)}, featureCells(r)...))
	}
	return writeCSV(path, featureHeader("ticker", "n_obs"), rows)
}

// WriteSegments writes one row per segmented asset with its label, name and
// projection coordinates.
func WriteSegments(path string, assets []domain.SegmentedAsset) error {
	rows := make([][]string, 0, len(assets))
	for _, a := range assets {
		prefix := []string{a.Ticker(), itoa(int(a.Segment)), a.SegmentName, ftoa(a.PC1), ftoa(a.PC2)}
		rows = append(rows, append(prefix, featureCells(a.Features)...))
	}
	return writeCSV(path, featureHeader("ticker", "segment", "segment_name", "pc1", "pc2"), rows)
}

// WriteSegmentSummary writes the per-segment aggregates.
func WriteSegmentSummary(path string, summaries []domain.SegmentSummary) error {
	header := []string{
		"segment", "segment_name", "count", "mean_return", "std_return",
		"mean_volatility", "mean_sharpe", "mean_beta", "mean_max_drawdown",
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			itoa(int(s.Segment)), s.Name, itoa(s.Count),
			ftoa(s.MeanReturn), ftoa(s.StdReturn), ftoa(s.MeanVolatility),
			ftoa(s.MeanSharpe), ftoa(s.MeanBeta), ftoa(s.MeanMaxDrawdown),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteTickersBySegment writes segment name, member count and the member
// tickers joined in one cell.
func WriteTickersBySegment(path string, assets []domain.SegmentedAsset) error {
	bySegment := segmentation.TickersBySegment(assets)
	names := make([]string, 0, len(bySegment))
	for name := range bySegment {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		tickers := bySegment[name]
		rows = append(rows, []string{name, itoa(len(tickers)), segmentation.JoinTickers(tickers)})
	}
	return writeCSV(path, []string{"segment_name", "count", "tickers"}, rows)
}

// WriteSegmentationMethods writes one row per clustering method compared on
// the same batch. Undefined scores are empty cells.
func WriteSegmentationMethods(path string, scores []segmentation.MethodScore) error {
	rows := make([][]string, 0, len(scores))
	for _, m := range scores {
		rows = append(rows, []string{
			string(m.Method), itoa(m.NClusters), itoa(m.NOutliers),
			m.Silhouette.String(), m.DaviesBouldin.String(),
		})
	}
	return writeCSV(path, []string{"method", "n_clusters", "n_outliers", "silhouette", "davies_bouldin"}, rows)
}

// WriteSegmentationMetadata writes the run description as JSON.
func WriteSegmentationMetadata(path string, meta segmentation.Metadata) error {
	return writeJSON(path, meta)
}

func portfolioRows(portfolios []domain.Portfolio) [][]string {
	var rows [][]string
	for _, p := range portfolios {
		for _, h := range p.Holdings {
			row := []string{
				p.Profile, h.Ticker, itoa(int(h.Segment)), h.SegmentName,
				ftoa(h.Weight), ftoa(h.Score),
			}
			for _, f := range portfolioMetricColumns {
				row = append(row, h.Features.Get(f).String())
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func portfolioHeader() []string {
	header := []string{"profile", "ticker", "segment", "segment_name", "weight", "score"}
	for _, f := range portfolioMetricColumns {
		header = append(header, string(f))
	}
	return header
}

// WritePortfolio writes the composition of one profile.
func WritePortfolio(path string, p domain.Portfolio) error {
	return writeCSV(path, portfolioHeader(), portfolioRows([]domain.Portfolio{p}))
}

// WritePortfolios writes every profile's holdings into one table.
func WritePortfolios(path string, portfolios []domain.Portfolio) error {
	return writeCSV(path, portfolioHeader(), portfolioRows(portfolios))
}

// performanceRows lists the scalar metrics in output order.
func performanceRows(m domain.PerformanceMetrics) [][2]string {
	return [][2]string{
		{"initial_capital", ftoa(m.InitialCapital)},
		{"final_value", ftoa(m.FinalValue)},
		{"total_return", ftoa(m.TotalReturn)},
		{"annualized_return", ftoa(m.AnnualizedReturn)},
		{"annualized_volatility", ftoa(m.AnnualizedVolatility)},
		{"sharpe_ratio", ftoa(m.SharpeRatio)},
		{"sortino_ratio", ftoa(m.SortinoRatio)},
		{"calmar_ratio", ftoa(m.CalmarRatio)},
		{"max_drawdown", ftoa(m.MaxDrawdown)},
	}
}

// WriteBacktestMetrics writes metric name against portfolio and benchmark values.
func WriteBacktestMetrics(path string, bt domain.ProfileBacktest) error {
	portfolio := performanceRows(bt.Portfolio.Metrics)
	benchmark := performanceRows(bt.Benchmark.Metrics)
	rows := make([][]string, 0, len(portfolio)+1)
	for i := range portfolio {
		rows = append(rows, []string{portfolio[i][0], portfolio[i][1], benchmark[i][1]})
	}
	rows = append(rows, []string{"alpha", ftoa(bt.Alpha), "0"})
	return writeCSV(path, []string{"metric", "portfolio", "benchmark"}, rows)
}

// WriteBacktestEquity writes the daily portfolio and benchmark equity with
// their drawdowns.
func WriteBacktestEquity(path string, bt domain.ProfileBacktest) error {
	header := []string{"date", "portfolio", "benchmark", "portfolio_drawdown", "benchmark_drawdown"}
	n := min(len(bt.Portfolio.Dates), len(bt.Benchmark.Equity))
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, []string{
			bt.Portfolio.Dates[i].Format(dateLayout),
			ftoa(bt.Portfolio.Equity[i]), ftoa(bt.Benchmark.Equity[i]),
			ftoa(bt.Portfolio.Drawdown[i]), ftoa(bt.Benchmark.Drawdown[i]),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteEquityCurves writes every profile's equity curve in long format.
func WriteEquityCurves(path string, backtests []domain.ProfileBacktest) error {
	var rows [][]string
	for _, bt := range backtests {
		n := min(len(bt.Portfolio.Dates), len(bt.Benchmark.Equity))
		for i := 0; i < n; i++ {
			rows = append(rows, []string{
				bt.Profile, bt.Portfolio.Dates[i].Format(dateLayout),
				ftoa(bt.Portfolio.Equity[i]), ftoa(bt.Benchmark.Equity[i]),
			})
		}
	}
	return writeCSV(path, []string{"profile", "date", "portfolio", "benchmark"}, rows)
}

// WritePositions writes the static share counts of a buy-and-hold run.
func WritePositions(path string, result domain.BacktestResult) error {
	header := []string{"ticker", "weight", "shares", "entry_price", "exit_price", "entry_value", "exit_value"}
	rows := make([][]string, 0, len(result.Positions))
	for _, p := range result.Positions {
		rows = append(rows, []string{
			p.Ticker, ftoa(p.Weight), ftoa(p.Shares),
			ftoa(p.EntryPrice), ftoa(p.ExitPrice), ftoa(p.EntryValue), ftoa(p.ExitValue),
		})
	}
	return writeCSV(path, header, rows)
}

// WriteMonthly writes calendar-month returns of the portfolio and benchmark.
func WriteMonthly(path string, bt domain.ProfileBacktest) error {
	portfolio := backtest.MonthlyReturns(bt.Portfolio.Dates, bt.Portfolio.Equity)
	benchmark := backtest.MonthlyReturns(bt.Benchmark.Dates, bt.Benchmark.Equity)
	benchByMonth := make(map[string]float64, len(benchmark))
	for _, m := range benchmark {
		benchByMonth[m.Date.Format("2006-01")] = m.Return
	}

	rows := make([][]string, 0, len(portfolio))
	for _, m := range portfolio {
		month := m.Date.Format("2006-01")
		bench := ""
		if v, ok := benchByMonth[month]; ok {
			bench = ftoa(v)
		}
		rows = append(rows, []string{month, ftoa(m.Return), bench})
	}
	return writeCSV(path, []string{"month", "portfolio", "benchmark"}, rows)
}

// WriteRolling writes trailing-window metrics of the portfolio curve.
func WriteRolling(path string, result domain.BacktestResult, window int) error {
	points := backtest.RollingMetrics(result.Dates, result.Equity, window)
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.Date.Format(dateLayout),
			p.Return.String(), p.Volatility.String(), p.Sharpe.String(), p.Drawdown.String(),
		})
	}
	return writeCSV(path, []string{"date", "rolling_return", "rolling_volatility", "rolling_sharpe", "rolling_drawdown"}, rows)
}

// WriteEvaluation writes the calendar-day comparison of portfolio and benchmark.
func WriteEvaluation(path string, bt domain.ProfileBacktest, riskFree float64) error {
	portfolio := backtest.EvaluateEquityCurve(bt.Portfolio.Dates, bt.Portfolio.Equity, riskFree)
	benchmark := backtest.EvaluateEquityCurve(bt.Benchmark.Dates, bt.Benchmark.Equity, riskFree)
	comparison := backtest.Compare(portfolio, benchmark)
	rows := make([][]string, 0, len(comparison))
	for _, c := range comparison {
		rows = append(rows, []string{c.Metric, ftoa(c.Portfolio), ftoa(c.Benchmark), ftoa(c.Difference)})
	}
	return writeCSV(path, []string{"metric", "portfolio", "benchmark", "difference"}, rows)
}

// WriteBacktestSummary writes one row per profile.
func WriteBacktestSummary(path string, backtests []domain.ProfileBacktest) error {
	header := []string{
		"profile", "n_holdings", "final_value", "total_return", "annualized_return",
		"annualized_volatility", "sharpe_ratio", "sortino_ratio", "calmar_ratio", "max_drawdown",
		"benchmark_total_return", "benchmark_annualized_return", "alpha",
	}
	rows := make([][]string, 0, len(backtests))
	for _, bt := range backtests {
		m := bt.Portfolio.Metrics
		rows = append(rows, []string{
			bt.Profile, itoa(len(bt.Portfolio.Positions)),
			ftoa(m.FinalValue), ftoa(m.TotalReturn), ftoa(m.AnnualizedReturn),
			ftoa(m.AnnualizedVolatility), ftoa(m.SharpeRatio), ftoa(m.SortinoRatio),
			ftoa(m.CalmarRatio), ftoa(m.MaxDrawdown),
			ftoa(bt.Benchmark.Metrics.TotalReturn), ftoa(bt.Benchmark.Metrics.AnnualizedReturn),
			ftoa(bt.Alpha),
		})
	}
	return writeCSV(path, header, rows)
}
