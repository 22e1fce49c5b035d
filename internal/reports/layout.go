package reports

import (
	"fmt"
	"path/filepath"
)

// Layout names every file the pipeline produces under a root directory.
type Layout struct {
	Root string
}

// NewLayout creates a layout rooted at root.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) ProcessedDir() string { return filepath.Join(l.Root, "data", "processed") }
func (l Layout) ArtifactsDir() string { return filepath.Join(l.Root, "data", "artifacts") }
func (l Layout) ReportsDir() string   { return filepath.Join(l.Root, "reports") }
func (l Layout) FiguresDir() string   { return filepath.Join(l.Root, "reports", "figures") }
func (l Layout) APIDir() string       { return filepath.Join(l.Root, "outputs", "api") }

func (l Layout) PricesTrain() string { return filepath.Join(l.ProcessedDir(), "prices_train.csv") }
func (l Layout) PricesTest() string  { return filepath.Join(l.ProcessedDir(), "prices_test.csv") }

func (l Layout) Features() string       { return filepath.Join(l.ReportsDir(), "asset_features.csv") }
func (l Layout) Segments() string       { return filepath.Join(l.ReportsDir(), "asset_segments.csv") }
func (l Layout) SegmentSummary() string { return filepath.Join(l.ReportsDir(), "segment_summary.csv") }
func (l Layout) TickersBySegment() string {
	return filepath.Join(l.ReportsDir(), "tickers_by_segment.csv")
}
func (l Layout) SegmentationMeta() string {
	return filepath.Join(l.ReportsDir(), "segmentation_metadata.json")
}
func (l Layout) SegmentationMethods() string {
	return filepath.Join(l.ReportsDir(), "segmentation_methods.csv")
}
func (l Layout) Portfolio(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("portfolio_%s.csv", p))
}

func (l Layout) BacktestMetrics(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_metrics_%s.csv", p))
}

func (l Layout) BacktestEquity(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_equity_%s.csv", p))
}

func (l Layout) BacktestPositions(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_positions_%s.csv", p))
}

func (l Layout) BacktestMonthly(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_monthly_%s.csv", p))
}

func (l Layout) BacktestRolling(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_rolling_%s.csv", p))
}

func (l Layout) BacktestEvaluation(p string) string {
	return filepath.Join(l.ReportsDir(), fmt.Sprintf("backtest_evaluation_%s.csv", p))
}

func (l Layout) EquityFigure(p string) string {
	return filepath.Join(l.FiguresDir(), fmt.Sprintf("equity_%s.png", p))
}

func (l Layout) APIPortfolios() string      { return filepath.Join(l.APIDir(), "portfolios.csv") }
func (l Layout) APISegments() string        { return filepath.Join(l.APIDir(), "segments.csv") }
func (l Layout) APIBacktestSummary() string { return filepath.Join(l.APIDir(), "backtest_summary.csv") }
func (l Layout) APIEquityCurves() string    { return filepath.Join(l.APIDir(), "equity_curves.csv") }
func (l Layout) APIMetadataCSV() string     { return filepath.Join(l.APIDir(), "metadata.csv") }
func (l Layout) APIMetadataJSON() string    { return filepath.Join(l.APIDir(), "metadata.json") }

func (l Layout) DrawdownFigure(p string) string {
	return filepath.Join(l.FiguresDir(), fmt.Sprintf("drawdown_%s.png", p))
}

func (l Layout) MetricsFile() string {
	return filepath.Join(l.Root, "outputs", "metrics", "clusterfolio.prom")
}
