package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE prices (
			ticker TEXT NOT NULL,
			date TEXT NOT NULL,
			close REAL,
			adj_close REAL
		);
	`)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func insertSeries(t *testing.T, db *sql.DB, ticker string, start time.Time, n int, price func(int) float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		p := price(i)
		_, err := db.Exec(`INSERT INTO prices (ticker, date, close, adj_close) VALUES (?, ?, ?, ?)`,
			ticker, start.AddDate(0, 0, i).Format("2006-01-02"), p, p)
		require.NoError(t, err)
	}
}

func TestLoadRows_ImputesAndFilters(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	insertSeries(t, db, "SPY", start, 40, func(i int) float64 { return 100 + float64(i) })
	insertSeries(t, db, "SHORT", start, 5, func(i int) float64 { return 10 })
	_, err := db.Exec(`INSERT INTO prices (ticker, date, close, adj_close) VALUES ('AAA', '2023-12-01', 50, NULL)`)
	require.NoError(t, err)

	src := NewSQLiteSource(db, zerolog.Nop())
	rows, err := src.LoadRows(context.Background(), "prices", LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, rows, 46)

	assert.Equal(t, 1, ImputeAdjClose(rows))
	assert.Equal(t, []string{"SPY"}, ValidTickers(rows, 30))
	assert.Equal(t, []string{"AAA", "SHORT", "SPY"}, ValidTickers(rows, 1))

	filtered, err := src.LoadRows(context.Background(), "prices", LoadOptions{
		StartDate: start.AddDate(0, 0, 35),
		Tickers:   []string{"SPY"},
	})
	require.NoError(t, err)
	assert.Len(t, filtered, 5)
}

func TestLoadRows_MissingTable(t *testing.T) {
	src := NewSQLiteSource(setupTestDB(t), zerolog.Nop())
	_, err := src.LoadRows(context.Background(), "quotes", LoadOptions{})
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestOpenSQLite_MissingFile(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "trading_data.db"))
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, v := range []any{"2024-03-05", []byte("2024-03-05 13:00:00"), want.Unix(), want.Add(5 * time.Hour)} {
		got, err := parseDate(v)
		require.NoError(t, err, fmt.Sprint(v))
		assert.Equal(t, want, got)
	}
	_, err := parseDate("yesterday")
	assert.Error(t, err)
}

func gapMatrix() *domain.PriceMatrix {
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)
	}
	m := domain.NewPriceMatrix(dates, []string{"A"})
	nan := math.NaN()
	copy(m.Prices["A"], []float64{nan, 10, nan, 14, nan})
	return m
}

func TestImpute(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		method   domain.FillMethod
		expected []float64
		filled   int
	}{
		{domain.FillForward, []float64{nan, 10, 10, 14, 14}, 2},
		{domain.FillBackward, []float64{10, 10, 14, 14, nan}, 2},
		{domain.FillInterpolate, []float64{nan, 10, 12, 14, nan}, 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			m, filled, err := Impute(gapMatrix(), tt.method)
			require.NoError(t, err)
			assert.Equal(t, tt.filled, filled)
			for i, want := range tt.expected {
				got := m.Prices["A"][i]
				if math.IsNaN(want) {
					assert.True(t, math.IsNaN(got), "index %d", i)
				} else {
					assert.InDelta(t, want, got, 1e-12, "index %d", i)
				}
			}
		})
	}

	m, dropped, err := Impute(gapMatrix(), domain.FillDrop)
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, []float64{10, 14}, m.Prices["A"])

	_, _, err = Impute(gapMatrix(), "mean")
	assert.Error(t, err)
}

func TestValidateBenchmark(t *testing.T) {
	m := gapMatrix()

	assert.ErrorIs(t, ValidateBenchmark(m, "SPY", 0.05), domain.ErrBenchmarkMissing)
	assert.ErrorIs(t, ValidateBenchmark(m, "A", 0.05), domain.ErrBenchmarkMissing)
	assert.NoError(t, ValidateBenchmark(m, "A", 0.7))
}

func TestSplitTrainTest_Disjoint(t *testing.T) {
	m := gapMatrix()
	cutoff := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	train, test := SplitTrainTest(m, cutoff)
	assert.Equal(t, 3, train.Len())
	assert.Equal(t, 2, test.Len())

	_, trainEnd := train.DateRange()
	testStart, _ := test.DateRange()
	assert.Equal(t, cutoff, trainEnd)
	assert.True(t, testStart.After(trainEnd))
}

func TestPricesCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "prices_train.csv")
	m := gapMatrix()

	require.NoError(t, WritePricesCSV(path, m))
	back, err := ReadPricesCSV(path)
	require.NoError(t, err)

	assert.Equal(t, m.Dates, back.Dates)
	assert.Equal(t, m.Tickers, back.Tickers)
	assert.Equal(t, 2, back.ValidCount("A"))
	assert.Equal(t, 14.0, back.Prices["A"][3])

	_, err = ReadPricesCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestPrepare(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	insertSeries(t, db, "SPY", start, 120, func(i int) float64 { return 100 + float64(i) })
	insertSeries(t, db, "AAA", start, 120, func(i int) float64 { return 50 + 0.5*float64(i) })
	insertSeries(t, db, "TINY", start, 10, func(i int) float64 { return 5 })

	res, err := Prepare(context.Background(), NewSQLiteSource(db, zerolog.Nop()), Options{
		Table:               "prices",
		Benchmark:           "SPY",
		MinObservations:     100,
		TrainEnd:            time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		FillMethod:          domain.FillForward,
		MaxBenchmarkMissing: 0.05,
	}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA", "SPY"}, res.ValidTickers)
	assert.Equal(t, 61, res.Train.Len())
	assert.Equal(t, 59, res.Test.Len())
	assert.False(t, res.Train.Has("TINY"))
}

func TestPrepare_BenchmarkMissing(t *testing.T) {
	db := setupTestDB(t)
	start := time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)
	insertSeries(t, db, "AAA", start, 120, func(i int) float64 { return 50 })

	_, err := Prepare(context.Background(), NewSQLiteSource(db, zerolog.Nop()), Options{
		Table:           "prices",
		Benchmark:       "SPY",
		MinObservations: 100,
		TrainEnd:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
		FillMethod:      domain.FillForward,
	}, zerolog.Nop())
	assert.ErrorIs(t, err, domain.ErrBenchmarkMissing)
}
