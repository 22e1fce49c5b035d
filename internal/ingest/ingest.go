package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
)

// Options parameterize Prepare.
type Options struct {
	Table               string
	Benchmark           string
	MinObservations     int
	TrainEnd            time.Time
	FillMethod          domain.FillMethod
	MaxBenchmarkMissing float64
}

// Result is the output of the ingestion stage.
type Result struct {
	Train        *domain.PriceMatrix
	Test         *domain.PriceMatrix
	ValidTickers []string
	Imputed      int
	Summary      Summary
}

// Prepare loads the source table, filters tickers by history length, pivots,
// fills gaps, validates the benchmark and splits at the training cutoff.
func Prepare(ctx context.Context, src *SQLiteSource, opts Options, log zerolog.Logger) (*Result, error) {
	log = log.With().Str("component", "ingest").Logger()

	rows, err := src.LoadRows(ctx, opts.Table, LoadOptions{})
	if err != nil {
		return nil, err
	}

	adj := ImputeAdjClose(rows)
	log.Info().Int("rows", adj).Msg("Imputed missing adj_close from close")

	valid := ValidTickers(rows, opts.MinObservations)
	log.Info().
		Int("tickers", len(valid)).
		Int("min_observations", opts.MinObservations).
		Msg("Filtered tickers by observation count")

	matrix := Pivot(rows, valid)
	if err := ValidateBenchmark(matrix, opts.Benchmark, 1); err != nil {
		return nil, err
	}

	matrix, filled, err := Impute(matrix, opts.FillMethod)
	if err != nil {
		return nil, err
	}
	log.Info().Int("values", filled).Str("method", string(opts.FillMethod)).Msg("Filled missing prices")

	if err := ValidateBenchmark(matrix, opts.Benchmark, opts.MaxBenchmarkMissing); err != nil {
		return nil, err
	}

	train, test := SplitTrainTest(matrix, opts.TrainEnd)
	if train.Len() == 0 || test.Len() == 0 {
		return nil, fmt.Errorf("split at %s leaves train=%d test=%d dates: %w",
			opts.TrainEnd.Format(dateLayout), train.Len(), test.Len(), domain.ErrInsufficientHistory)
	}

	res := &Result{
		Train:        train,
		Test:         test,
		ValidTickers: valid,
		Imputed:      filled,
		Summary:      Summarize(matrix),
	}
	log.Info().
		Int("train_days", train.Len()).
		Int("test_days", test.Len()).
		Int("tickers", res.Summary.Tickers).
		Msg("Split prices into train and test windows")
	return res, nil
}
