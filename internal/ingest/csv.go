package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
)

const dateLayout = "2006-01-02"

// WritePricesCSV writes m as `date,<ticker>...` with empty cells for missing prices.
func WritePricesCSV(path string, m *domain.PriceMatrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := append([]string{"date"}, m.Tickers...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(header))
	for i, d := range m.Dates {
		record[0] = d.Format(dateLayout)
		for j, t := range m.Tickers {
			v := m.Prices[t][i]
			if math.IsNaN(v) {
				record[j+1] = ""
			} else {
				record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadPricesCSV reads a file written by WritePricesCSV.
func ReadPricesCSV(path string) (*domain.PriceMatrix, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("prices file %s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(records) == 0 || len(records[0]) == 0 || records[0][0] != "date" {
		return nil, fmt.Errorf("prices file %s: missing date header", path)
	}

	tickers := records[0][1:]
	dates := make([]time.Time, 0, len(records)-1)
	for _, rec := range records[1:] {
		d, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("prices file %s: %w", path, err)
		}
		dates = append(dates, d)
	}

	m := domain.NewPriceMatrix(dates, tickers)
	for i, rec := range records[1:] {
		for j, t := range tickers {
			cell := rec[j+1]
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("prices file %s: ticker %s row %d: %w", path, t, i+2, err)
			}
			m.Prices[t][i] = v
		}
	}
	return m, nil
}
