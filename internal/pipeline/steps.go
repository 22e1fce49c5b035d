package pipeline

import (
	"context"
	"fmt"

	"github.com/aristath/clusterfolio/internal/artifacts"
	"github.com/aristath/clusterfolio/internal/backtest"
	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/aristath/clusterfolio/internal/features"
	"github.com/aristath/clusterfolio/internal/ingest"
	"github.com/aristath/clusterfolio/internal/optimization"
	"github.com/aristath/clusterfolio/internal/reports"
	"github.com/aristath/clusterfolio/internal/scoring"
	"github.com/aristath/clusterfolio/internal/segmentation"
)

// reportWrite is one report file and the function producing it.
type reportWrite struct {
	path  string
	write func(string) error
}

// prepareInputs loads the price database, cleans it and writes the train and test
// windows.
func (p *Pipeline) prepareInputs(ctx context.Context) (stageOutput, error) {
	cutoff, err := p.cfg.TrainCutoff()
	if err != nil {
		return stageOutput{}, err
	}

	db, err := p.openDB(p.cfg.Path(p.cfg.Data.SourceDB))
	if err != nil {
		return stageOutput{}, err
	}
	defer db.Close()

	res, err := ingest.Prepare(ctx, ingest.NewSQLiteSource(db, p.log), ingest.Options{
		Table:               p.cfg.Data.Table,
		Benchmark:           p.cfg.Data.Benchmark,
		MinObservations:     p.cfg.Data.MinObservations,
		TrainEnd:            cutoff,
		FillMethod:          p.cfg.Data.FillMethod,
		MaxBenchmarkMissing: p.cfg.Data.MaxBenchmarkMissing,
	}, p.log)
	if err != nil {
		return stageOutput{}, err
	}

	var out stageOutput
	for _, w := range []struct {
		name string
		csv  string
		m    *domain.PriceMatrix
	}{
		{artifacts.PricesTrain, p.layout.PricesTrain(), res.Train},
		{artifacts.PricesTest, p.layout.PricesTest(), res.Test},
	} {
		if err := ingest.WritePricesCSV(w.csv, w.m); err != nil {
			return out, err
		}
		snap, err := p.store.Save(w.name, w.m)
		if err != nil {
			return out, err
		}
		out.files = append(out.files, w.csv, snap)
	}
	out.records = len(res.ValidTickers)
	return out, nil
}

func (p *Pipeline) loadPrices(name string) (*domain.PriceMatrix, error) {
	var m domain.PriceMatrix
	if err := p.store.Load(name, &m); err != nil {
		return nil, fmt.Errorf("run the ingest stage first: %w", err)
	}
	return &m, nil
}

// buildFeatures computes the training-window metrics of every asset.
func (p *Pipeline) buildFeatures(ctx context.Context) (stageOutput, error) {
	train, err := p.loadPrices(artifacts.PricesTrain)
	if err != nil {
		return stageOutput{}, err
	}

	fm, err := features.NewBuilder(p.log).Build(ctx, train, features.Options{
		Benchmark:      p.cfg.Data.Benchmark,
		RiskFreeRate:   p.cfg.Features.RiskFreeRate,
		MomentumWindow: p.cfg.Features.MomentumWindow,
		MinHistory:     p.cfg.Features.MinHistory,
		VolOfVolWindow: p.cfg.Features.VolOfVolWindow,
		Workers:        p.cfg.Features.Workers,
	})
	if err != nil {
		return stageOutput{}, err
	}
	p.metrics.Assets.Set(float64(fm.Len()))

	snap, err := p.store.Save(artifacts.Features, fm)
	if err != nil {
		return stageOutput{}, err
	}
	if err := reports.WriteFeatures(p.layout.Features(), fm); err != nil {
		return stageOutput{}, err
	}
	return stageOutput{files: []string{snap, p.layout.Features()}, records: fm.Len()}, nil
}

// segment clusters the feature matrix and writes the segment tables.
func (p *Pipeline) segment() (stageOutput, error) {
	var fm domain.FeatureMatrix
	if err := p.store.Load(artifacts.Features, &fm); err != nil {
		return stageOutput{}, fmt.Errorf("run the features stage first: %w", err)
	}

	c := p.cfg.Clustering
	res, err := segmentation.NewEngine(p.log).Run(&fm, segmentation.Options{
		Method:         c.Method,
		Features:       c.Features,
		NClusters:      c.NClusters,
		MinSamples:     c.MinSamples,
		EpsPercentile:  c.EpsPercentile,
		Eps:            c.Eps,
		Seed:           c.Seed,
		NInit:          c.NInit,
		MaxIter:        c.MaxIter,
		Linkage:        c.Linkage,
		Names:          c.SegmentNames,
		ElbowMaxK:      c.ElbowMaxK,
		CompareMethods: c.CompareMethods,
	})
	if err != nil {
		return stageOutput{}, err
	}
	p.metrics.Segments.Set(float64(res.Metadata.NClusters))
	p.metrics.Outliers.Set(float64(res.Metadata.NOutliers))

	snap, err := p.store.Save(artifacts.Segments, res)
	if err != nil {
		return stageOutput{}, err
	}
	out := stageOutput{files: []string{snap}, records: len(res.Assets)}

	writes := []reportWrite{
		{p.layout.Segments(), func(path string) error { return reports.WriteSegments(path, res.Assets) }},
		{p.layout.SegmentSummary(), func(path string) error {
			return reports.WriteSegmentSummary(path, segmentation.Summarize(res.Assets))
		}},
		{p.layout.TickersBySegment(), func(path string) error { return reports.WriteTickersBySegment(path, res.Assets) }},
		{p.layout.SegmentationMeta(), func(path string) error { return reports.WriteSegmentationMetadata(path, res.Metadata) }},
	}
	if len(res.Metadata.Methods) > 0 {
		writes = append(writes, reportWrite{p.layout.SegmentationMethods(), func(path string) error {
			return reports.WriteSegmentationMethods(path, res.Metadata.Methods)
		}})
	}
	for _, w := range writes {
		if err := w.write(w.path); err != nil {
			return out, err
		}
		out.files = append(out.files, w.path)
	}
	return out, nil
}

func (p *Pipeline) loadSegments() (*segmentation.Result, error) {
	var res segmentation.Result
	if err := p.store.Load(artifacts.Segments, &res); err != nil {
		return nil, fmt.Errorf("run the segmentation stage first: %w", err)
	}
	return &res, nil
}

// buildPortfolios scores and selects assets per profile, then backtests the
// portfolios over the test window.
func (p *Pipeline) buildPortfolios(ctx context.Context) (stageOutput, error) {
	res, err := p.loadSegments()
	if err != nil {
		return stageOutput{}, err
	}
	train, err := p.loadPrices(artifacts.PricesTrain)
	if err != nil {
		return stageOutput{}, err
	}
	test, err := p.loadPrices(artifacts.PricesTest)
	if err != nil {
		return stageOutput{}, err
	}

	scored := scoring.Score(res.Assets, p.cfg.Portfolio.ScoreWeights)
	scoring.Rank(scored)
	portfolios := scoring.NewSelector(p.log).SelectAll(scored, p.profiles, scoring.Options{
		OutlierMinReturn: p.cfg.Portfolio.OutlierMinReturn,
	})
	if p.cfg.Portfolio.Weighting != domain.WeightingEqual {
		p.reweight(portfolios, train)
	}

	backtests, err := backtest.NewRunner(p.log).RunAll(ctx, test, portfolios, p.cfg.Data.Benchmark,
		p.backtestOptions(), p.cfg.Features.Workers)
	if err != nil {
		return stageOutput{}, err
	}

	var out stageOutput
	for _, snap := range []struct {
		name string
		v    any
	}{
		{artifacts.Scored, scored},
		{artifacts.Portfolios, portfolios},
		{artifacts.Backtests, backtests},
	} {
		path, err := p.store.Save(snap.name, snap.v)
		if err != nil {
			return out, err
		}
		out.files = append(out.files, path)
	}

	for i, bt := range backtests {
		files, err := p.writeProfileReports(portfolios[i], bt)
		if err != nil {
			return out, fmt.Errorf("profile %s: %w", bt.Profile, err)
		}
		out.files = append(out.files, files...)

		p.metrics.PortfolioReturn.WithLabelValues(bt.Profile).Set(bt.Portfolio.Metrics.TotalReturn)
		p.metrics.PortfolioAlpha.WithLabelValues(bt.Profile).Set(bt.Alpha)
		p.metrics.PortfolioSharpe.WithLabelValues(bt.Profile).Set(bt.Portfolio.Metrics.SharpeRatio)
	}
	out.records = len(backtests)
	return out, nil
}

// reweight replaces equal weights with the configured scheme. A profile the
// optimizer cannot handle keeps its equal weights.
func (p *Pipeline) reweight(portfolios []domain.Portfolio, train *domain.PriceMatrix) {
	opt := optimization.NewOptimizer(p.log)
	opts := optimization.Options{
		Scheme:        p.cfg.Portfolio.Weighting,
		RiskFreeRate:  p.cfg.Features.RiskFreeRate,
		Bounds:        optimization.Bounds{Min: 0, Max: 1},
		Linkage:       p.cfg.Clustering.Linkage,
		MaxPerAsset:   p.cfg.Portfolio.MaxWeightPerAsset,
		MaxPerSegment: p.cfg.Portfolio.MaxWeightPerSegment,
	}
	for i := range portfolios {
		if portfolios[i].Empty() {
			continue
		}
		weights, err := opt.Reweight(portfolios[i], train, opts)
		if err != nil {
			p.log.Warn().Err(err).Str("profile", portfolios[i].Profile).Msg("Keeping equal weights")
			continue
		}
		scoring.ApplyWeights(&portfolios[i], weights)
	}
}

func (p *Pipeline) backtestOptions() backtest.Options {
	return backtest.Options{
		InitialCapital:  p.cfg.Backtest.InitialCapital,
		TransactionCost: p.cfg.Backtest.TransactionCost,
		RiskFreeRate:    p.cfg.Backtest.RiskFreeRate,
	}
}

func (p *Pipeline) writeProfileReports(portfolio domain.Portfolio, bt domain.ProfileBacktest) ([]string, error) {
	name := bt.Profile
	writes := []reportWrite{
		{p.layout.Portfolio(name), func(path string) error { return reports.WritePortfolio(path, portfolio) }},
		{p.layout.BacktestMetrics(name), func(path string) error { return reports.WriteBacktestMetrics(path, bt) }},
		{p.layout.BacktestEquity(name), func(path string) error { return reports.WriteBacktestEquity(path, bt) }},
		{p.layout.BacktestPositions(name), func(path string) error { return reports.WritePositions(path, bt.Portfolio) }},
		{p.layout.BacktestMonthly(name), func(path string) error { return reports.WriteMonthly(path, bt) }},
		{p.layout.BacktestRolling(name), func(path string) error {
			return reports.WriteRolling(path, bt.Portfolio, p.cfg.Backtest.RollingWindow)
		}},
		{p.layout.BacktestEvaluation(name), func(path string) error {
			return reports.WriteEvaluation(path, bt, p.cfg.Backtest.RiskFreeRate)
		}},
	}
	files := make([]string, 0, len(writes))
	for _, w := range writes {
		if err := w.write(w.path); err != nil {
			return files, err
		}
		files = append(files, w.path)
	}
	return files, nil
}

// writeReports produces the consolidated tables, run metadata, figures and
// the optional upload.
func (p *Pipeline) writeReports(ctx context.Context) (stageOutput, error) {
	res, err := p.loadSegments()
	if err != nil {
		return stageOutput{}, err
	}
	var portfolios []domain.Portfolio
	if err := p.store.Load(artifacts.Portfolios, &portfolios); err != nil {
		return stageOutput{}, fmt.Errorf("run the portfolio stage first: %w", err)
	}
	var backtests []domain.ProfileBacktest
	if err := p.store.Load(artifacts.Backtests, &backtests); err != nil {
		return stageOutput{}, fmt.Errorf("run the portfolio stage first: %w", err)
	}
	train, err := p.loadPrices(artifacts.PricesTrain)
	if err != nil {
		return stageOutput{}, err
	}
	test, err := p.loadPrices(artifacts.PricesTest)
	if err != nil {
		return stageOutput{}, err
	}

	meta := reports.RunMetadata{
		RunID:           p.runID,
		GeneratedAt:     p.now().UTC(),
		Benchmark:       p.cfg.Data.Benchmark,
		InitialCapital:  p.cfg.Backtest.InitialCapital,
		TransactionCost: p.cfg.Backtest.TransactionCost,
		RiskFreeRate:    p.cfg.Backtest.RiskFreeRate,
		Weighting:       string(p.cfg.Portfolio.Weighting),
		NAssets:         len(res.Assets),
		NSegments:       res.Metadata.NClusters,
		NOutliers:       res.Metadata.NOutliers,
	}
	meta.TrainStart, meta.TrainEnd = train.DateRange()
	meta.TestStart, meta.TestEnd = test.DateRange()
	for _, pf := range portfolios {
		meta.Profiles = append(meta.Profiles, pf.Profile)
	}

	l := p.layout
	var out stageOutput
	writes := []reportWrite{
		{l.APIPortfolios(), func(path string) error { return reports.WritePortfolios(path, portfolios) }},
		{l.APISegments(), func(path string) error { return reports.WriteSegments(path, res.Assets) }},
		{l.APIBacktestSummary(), func(path string) error { return reports.WriteBacktestSummary(path, backtests) }},
		{l.APIEquityCurves(), func(path string) error { return reports.WriteEquityCurves(path, backtests) }},
		{l.APIMetadataJSON(), func(path string) error { return reports.WriteMetadata(path, l.APIMetadataCSV(), meta) }},
	}
	for _, w := range writes {
		if err := w.write(w.path); err != nil {
			return out, err
		}
		out.files = append(out.files, w.path)
	}
	out.files = append(out.files, l.APIMetadataCSV())

	if p.cfg.Publish.Charts {
		for _, bt := range backtests {
			files, err := reports.WriteCharts(l, bt)
			if err != nil {
				p.log.Warn().Err(err).Str("profile", bt.Profile).Msg("Skipping charts")
				continue
			}
			out.files = append(out.files, files...)
		}
	}

	if err := p.publish(ctx); err != nil {
		return out, err
	}
	out.records = len(backtests)
	return out, nil
}

// publish uploads the reports and API tables when a bucket is configured.
func (p *Pipeline) publish(ctx context.Context) error {
	pub := p.publisher
	if pub == nil {
		if p.cfg.Publish.S3Bucket == "" {
			return nil
		}
		var err error
		pub, err = reports.NewS3Publisher(ctx, reports.PublishOptions{
			Bucket:    p.cfg.Publish.S3Bucket,
			Prefix:    p.cfg.Publish.S3Prefix,
			Region:    p.cfg.Publish.S3Region,
			Endpoint:  p.cfg.Publish.S3Endpoint,
			AccessKey: p.cfg.Publish.S3AccessKey,
			SecretKey: p.cfg.Publish.S3SecretKey,
		}, p.log)
		if err != nil {
			return err
		}
		p.publisher = pub
	}

	for _, dir := range []string{p.layout.ReportsDir(), p.layout.APIDir()} {
		if _, err := pub.PublishDir(ctx, p.runID, p.layout.Root, dir); err != nil {
			return err
		}
	}
	return nil
}
