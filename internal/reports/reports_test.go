package reports

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/segmentation"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleBacktest() domain.ProfileBacktest {
	dates := []time.Time{day(1, 30), day(1, 31), day(2, 1), day(2, 29), day(3, 1)}
	return domain.ProfileBacktest{
		Profile: "moderate",
		Portfolio: domain.BacktestResult{
			Label:    "moderate",
			Dates:    dates,
			Equity:   []float64{10000, 10100, 10200, 10302, 10250},
			Drawdown: []float64{0, 0, 0, 0, -0.005},
			Positions: []domain.Position{
				{Ticker: "AAA", Weight: 0.5, Shares: 50, EntryPrice: 100, ExitPrice: 102, EntryValue: 5000, ExitValue: 5100},
				{Ticker: "BBB", Weight: 0.5, Shares: 25, EntryPrice: 200, ExitPrice: 206, EntryValue: 5000, ExitValue: 5150},
			},
			Metrics: domain.PerformanceMetrics{InitialCapital: 10000, FinalValue: 10250, TotalReturn: 0.025, SharpeRatio: 1.2},
		},
		Benchmark: domain.BacktestResult{
			Label:    "SPY",
			Dates:    dates,
			Equity:   []float64{10000, 10050, 10100, 10150, 10100},
			Drawdown: []float64{0, 0, 0, 0, -0.0049},
			Metrics:  domain.PerformanceMetrics{InitialCapital: 10000, FinalValue: 10100, TotalReturn: 0.01},
		},
		Alpha: 0.015,
	}
}

func samplePortfolio() domain.Portfolio {
	return domain.Portfolio{
		Profile: "moderate",
		Holdings: []domain.Holding{
			{Ticker: "AAA", Segment: 1, SegmentName: "High-Performance", Weight: 0.5, Score: 0.9,
				Features: domain.FeatureRow{Ticker: "AAA", AnnualizedReturn: domain.Defined(0.2)}},
			{Ticker: "ZZZ", Segment: domain.OutlierLabel, SegmentName: "Outliers", Weight: 0.5, Score: 0.4,
				Features: domain.FeatureRow{Ticker: "ZZZ"}},
		},
	}
}

func TestWriteFeatures_UndefinedIsEmptyCell(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	fm := &domain.FeatureMatrix{Rows: []domain.FeatureRow{{
		Ticker:           "AAA",
		Observations:     250,
		AnnualizedReturn: domain.Defined(0.1),
	}}}
	require.NoError(t, WriteFeatures(path, fm))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAA", rows[0]["ticker"])
	assert.Equal(t, "250", rows[0]["n_obs"])
	assert.Equal(t, "0.1", rows[0]["annualized_return"])
	assert.Equal(t, "", rows[0]["beta"])
	assert.Len(t, rows[0], len(domain.AllFeatures)+2)
}

func TestWriteSegmentsAndSummaries(t *testing.T) {
	dir := t.TempDir()
	assets := []domain.SegmentedAsset{
		{Features: domain.FeatureRow{Ticker: "BBB"}, Segment: 0, SegmentName: "Conservative", PC1: 1.5, PC2: -0.5},
		{Features: domain.FeatureRow{Ticker: "AAA"}, Segment: 0, SegmentName: "Conservative"},
		{Features: domain.FeatureRow{Ticker: "XXX"}, Segment: domain.OutlierLabel, SegmentName: "Outliers"},
	}

	segPath := filepath.Join(dir, "segments.csv")
	require.NoError(t, WriteSegments(segPath, assets))
	rows, err := ReadCSV(segPath)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "1.5", rows[0]["pc1"])
	assert.Equal(t, "-1", rows[2]["segment"])

	tbsPath := filepath.Join(dir, "tickers.csv")
	require.NoError(t, WriteTickersBySegment(tbsPath, assets))
	rows, err = ReadCSV(tbsPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Conservative", rows[0]["segment_name"])
	assert.Equal(t, "AAA,BBB", rows[0]["tickers"])
	assert.Equal(t, "2", rows[0]["count"])

	sumPath := filepath.Join(dir, "summary.csv")
	require.NoError(t, WriteSegmentSummary(sumPath, segmentation.Summarize(assets)))
	rows, err = ReadCSV(sumPath)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	metaPath := filepath.Join(dir, "meta.json")
	require.NoError(t, WriteSegmentationMetadata(metaPath, segmentation.Metadata{NAssets: 3, NOutliers: 1}))
	data, err := os.ReadFile(metaPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"n_outliers": 1`)
}

func TestWriteSegmentationMethods(t *testing.T) {
	path := filepath.Join(t.TempDir(), "methods.csv")
	require.NoError(t, WriteSegmentationMethods(path, []segmentation.MethodScore{
		{Method: domain.ClusterHybrid, NClusters: 3, NOutliers: 2, Silhouette: domain.Defined(0.61), DaviesBouldin: domain.Defined(0.4)},
		{Method: domain.ClusterKMeans, NClusters: 1, Silhouette: domain.Undefined(), DaviesBouldin: domain.Undefined()},
	}))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hybrid", rows[0]["method"])
	assert.Equal(t, "2", rows[0]["n_outliers"])
	assert.Equal(t, "0.61", rows[0]["silhouette"])
	assert.Equal(t, "", rows[1]["davies_bouldin"], "undefined scores are empty")
}

func TestWritePortfolios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolios.csv")
	other := samplePortfolio()
	other.Profile = "aggressive"
	require.NoError(t, WritePortfolios(path, []domain.Portfolio{samplePortfolio(), other}))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "moderate", rows[0]["profile"])
	assert.Equal(t, "0.5", rows[0]["weight"])
	assert.Equal(t, "0.2", rows[0]["annualized_return"])
	assert.Equal(t, "", rows[1]["annualized_return"])
	assert.Equal(t, "aggressive", rows[3]["profile"])
}

func TestWriteBacktestTables(t *testing.T) {
	dir := t.TempDir()
	bt := sampleBacktest()

	metricsPath := filepath.Join(dir, "metrics.csv")
	require.NoError(t, WriteBacktestMetrics(metricsPath, bt))
	rows, err := ReadCSV(metricsPath)
	require.NoError(t, err)
	byMetric := map[string]map[string]string{}
	for _, r := range rows {
		byMetric[r["metric"]] = r
	}
	assert.Equal(t, "10250", byMetric["final_value"]["portfolio"])
	assert.Equal(t, "10100", byMetric["final_value"]["benchmark"])
	assert.Equal(t, "0.015", byMetric["alpha"]["portfolio"])

	equityPath := filepath.Join(dir, "equity.csv")
	require.NoError(t, WriteBacktestEquity(equityPath, bt))
	rows, err = ReadCSV(equityPath)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "2024-01-30", rows[0]["date"])
	assert.Equal(t, "10050", rows[1]["benchmark"])

	posPath := filepath.Join(dir, "positions.csv")
	require.NoError(t, WritePositions(posPath, bt.Portfolio))
	rows, err = ReadCSV(posPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "5150", rows[1]["exit_value"])

	monthlyPath := filepath.Join(dir, "monthly.csv")
	require.NoError(t, WriteMonthly(monthlyPath, bt))
	rows, err = ReadCSV(monthlyPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-02", rows[0]["month"])
	assert.NotEmpty(t, rows[0]["benchmark"])

	evalPath := filepath.Join(dir, "evaluation.csv")
	require.NoError(t, WriteEvaluation(evalPath, bt, 0.045))
	rows, err = ReadCSV(evalPath)
	require.NoError(t, err)
	assert.Len(t, rows, 10)

	rollingPath := filepath.Join(dir, "rolling.csv")
	require.NoError(t, WriteRolling(rollingPath, bt.Portfolio, 2))
	rows, err = ReadCSV(rollingPath)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "", rows[0]["rolling_return"])
	assert.NotEmpty(t, rows[4]["rolling_return"])

	summaryPath := filepath.Join(dir, "summary.csv")
	curvesPath := filepath.Join(dir, "curves.csv")
	require.NoError(t, WriteBacktestSummary(summaryPath, []domain.ProfileBacktest{bt}))
	require.NoError(t, WriteEquityCurves(curvesPath, []domain.ProfileBacktest{bt, bt}))
	rows, err = ReadCSV(summaryPath)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0]["n_holdings"])
	assert.Equal(t, "0.01", rows[0]["benchmark_total_return"])
	rows, err = ReadCSV(curvesPath)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

func TestWriteMetadata(t *testing.T) {
	l := NewLayout(t.TempDir())
	m := RunMetadata{
		RunID:      "run-1",
		Benchmark:  "SPY",
		TrainStart: day(1, 2),
		TrainEnd:   day(6, 28),
		Profiles:   []string{"conservative", "moderate"},
	}
	require.NoError(t, WriteMetadata(l.APIMetadataJSON(), l.APIMetadataCSV(), m))

	rows, err := ReadCSV(l.APIMetadataCSV())
	require.NoError(t, err)
	kv := map[string]string{}
	for _, r := range rows {
		kv[r["key"]] = r["value"]
	}
	assert.Equal(t, "SPY", kv["benchmark"])
	assert.Equal(t, "2024-06-28", kv["train_end"])
	assert.Equal(t, "conservative,moderate", kv["profiles"])
	assert.FileExists(t, l.APIMetadataJSON())
}

func TestReadCSV_Missing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestRenderCharts(t *testing.T) {
	l := NewLayout(t.TempDir())
	files, err := WriteCharts(l, sampleBacktest())
	require.NoError(t, err)
	require.Equal(t, []string{l.EquityFigure("moderate"), l.DrawdownFigure("moderate")}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestRenderChart_TooShort(t *testing.T) {
	bt := sampleBacktest()
	bt.Portfolio.Dates = bt.Portfolio.Dates[:1]
	_, err := RenderEquityChart(bt)
	assert.Error(t, err)
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeUploader) Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(input.Bucket)+"/"+aws.ToString(input.Key)] = data
	return &manager.UploadOutput{Location: "s3://" + aws.ToString(input.Key)}, nil
}

func TestPublisher_PublishDir(t *testing.T) {
	root := t.TempDir()
	l := NewLayout(root)
	require.NoError(t, WriteMetadata(l.APIMetadataJSON(), l.APIMetadataCSV(), RunMetadata{RunID: "r1"}))

	up := &fakeUploader{objects: map[string][]byte{}}
	pub := NewPublisher(up, "bucket", "clusterfolio", zerolog.Nop())
	keys, err := pub.PublishDir(context.Background(), "r1", root, l.APIDir())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"clusterfolio/r1/outputs/api/metadata.csv",
		"clusterfolio/r1/outputs/api/metadata.json",
	}, keys)
	assert.Contains(t, string(up.objects["bucket/clusterfolio/r1/outputs/api/metadata.csv"]), "run_id,r1")
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	_, err := NewS3Publisher(context.Background(), PublishOptions{}, zerolog.Nop())
	assert.Error(t, err)
}
