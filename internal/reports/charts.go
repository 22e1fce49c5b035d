package reports

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/vicanso/go-charts/v2"
)

const (
	chartWidth  = 1000
	chartHeight = 600
)

// RenderEquityChart draws the portfolio and benchmark equity curves as PNG.
func RenderEquityChart(bt domain.ProfileBacktest) ([]byte, error) {
	title := fmt.Sprintf("%s vs %s", bt.Profile, bt.Benchmark.Label)
	subtitle := fmt.Sprintf("Return: %.2f%% | Sharpe: %.2f | MaxDD: %.2f%% | Alpha: %.2f%%",
		bt.Portfolio.Metrics.TotalReturn*100, bt.Portfolio.Metrics.SharpeRatio,
		bt.Portfolio.Metrics.MaxDrawdown*100, bt.Alpha*100)
	return renderLines(
		title+"\n"+subtitle,
		dateLabels(bt.Portfolio),
		[]string{bt.Profile, bt.Benchmark.Label},
		[][]float64{bt.Portfolio.Equity, bt.Benchmark.Equity},
	)
}

// RenderDrawdownChart draws the drawdown curves in percent as PNG.
func RenderDrawdownChart(bt domain.ProfileBacktest) ([]byte, error) {
	return renderLines(
		fmt.Sprintf("%s drawdown", bt.Profile),
		dateLabels(bt.Portfolio),
		[]string{bt.Profile, bt.Benchmark.Label},
		[][]float64{percent(bt.Portfolio.Drawdown), percent(bt.Benchmark.Drawdown)},
	)
}

// WriteCharts renders both figures of a profile.
func WriteCharts(l Layout, bt domain.ProfileBacktest) ([]string, error) {
	equity, err := RenderEquityChart(bt)
	if err != nil {
		return nil, err
	}
	drawdown, err := RenderDrawdownChart(bt)
	if err != nil {
		return nil, err
	}

	files := []string{l.EquityFigure(bt.Profile), l.DrawdownFigure(bt.Profile)}
	for i, buf := range [][]byte{equity, drawdown} {
		if err := ensureDir(filepath.Dir(files[i])); err != nil {
			return nil, err
		}
		if err := os.WriteFile(files[i], buf, 0644); err != nil {
			return nil, fmt.Errorf("write file %s: %w", files[i], err)
		}
	}
	return files, nil
}

func renderLines(title string, xLabels, names []string, series [][]float64) ([]byte, error) {
	if len(xLabels) < 2 {
		return nil, fmt.Errorf("not enough points to chart: %d", len(xLabels))
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			minVal = math.Min(minVal, v)
			maxVal = math.Max(maxVal, v)
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = math.Max(math.Abs(maxVal)*0.05, 1)
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = max(len(xLabels)/3, 3)
	}

	p, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(chartWidth),
		charts.HeightOptionFunc(chartHeight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

func dateLabels(r domain.BacktestResult) []string {
	out := make([]string, len(r.Dates))
	for i, d := range r.Dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}

func percent(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * 100
	}
	return out
}
