// Package ingest loads daily prices from the SQLite trading database and
// prepares the train and test price matrices.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/clusterfolio/internal/domain"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"
)

// PriceRow is one long-format observation. Missing prices are NaN.
type PriceRow struct {
	Ticker   string
	Date     time.Time
	Close    float64
	AdjClose float64
}

// LoadOptions narrows the rows read from the source table.
type LoadOptions struct {
	StartDate time.Time // zero = no lower bound
	Tickers   []string  // empty = every ticker
}

// SQLiteSource reads long-format daily prices (ticker, date, close, adj_close)
type SQLiteSource struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteSource creates a source over an open database
func NewSQLiteSource(db *sql.DB, log zerolog.Logger) *SQLiteSource {
	return &SQLiteSource{
		db:  db,
		log: log.With().Str("component", "sqlite_source").Logger(),
	}
}

// OpenSQLite opens the database file at path. A missing file is ErrInputNotFound.
func OpenSQLite(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("database %s: %w", path, domain.ErrInputNotFound)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// ListTables returns the user tables of the database
func (s *SQLiteSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// LoadRows reads every row of table. The table must exist; its name is
// checked against sqlite_master before being interpolated into the query.
func (s *SQLiteSource) LoadRows(ctx context.Context, table string, opts LoadOptions) ([]PriceRow, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range tables {
		if t == table {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("table %q: %w", table, domain.ErrInputNotFound)
	}

	query := fmt.Sprintf(`SELECT ticker, date, close, adj_close FROM "%s"`, table)
	var conditions []string
	var args []any
	if !opts.StartDate.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, opts.StartDate.Format("2006-01-02"))
	}
	if len(opts.Tickers) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(opts.Tickers)), ",")
		conditions = append(conditions, "ticker IN ("+placeholders+")")
		for _, t := range opts.Tickers {
			args = append(args, t)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ticker, date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	var out []PriceRow
	skipped := 0
	for rows.Next() {
		var (
			ticker   string
			rawDate  any
			closeV   sql.NullFloat64
			adjClose sql.NullFloat64
		)
		if err := rows.Scan(&ticker, &rawDate, &closeV, &adjClose); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}

		date, err := parseDate(rawDate)
		if err != nil {
			skipped++
			continue
		}

		row := PriceRow{Ticker: ticker, Date: date, Close: math.NaN(), AdjClose: math.NaN()}
		if closeV.Valid {
			row.Close = closeV.Float64
		}
		if adjClose.Valid {
			row.AdjClose = adjClose.Float64
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	if skipped > 0 {
		s.log.Warn().Int("rows", skipped).Str("table", table).Msg("Skipped rows with unparseable dates")
	}
	s.log.Info().Int("rows", len(out)).Str("table", table).Msg("Loaded price rows")
	return out, nil
}

// parseDate accepts the date encodings found in price tables: ISO text,
// driver-parsed timestamps and Unix seconds.
func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return truncateDay(d), nil
	case int64:
		return truncateDay(time.Unix(d, 0).UTC()), nil
	case float64:
		return truncateDay(time.Unix(int64(d), 0).UTC()), nil
	case []byte:
		return parseDateString(string(d))
	case string:
		return parseDateString(d)
	}
	return time.Time{}, fmt.Errorf("unsupported date value %v", v)
}

func parseDateString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), nil
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return truncateDay(time.Unix(unix, 0).UTC()), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
