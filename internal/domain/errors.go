package domain

import "errors"

// Sentinel errors shared across stages. Callers match them with errors.Is.
var (
	// ErrBenchmarkMissing is returned when the benchmark ticker is absent from
	// a price matrix or has too many missing observations.
	ErrBenchmarkMissing = errors.New("benchmark ticker missing")
	// ErrEmptyUniverse is returned when no eligible ticker is left to simulate.
	ErrEmptyUniverse = errors.New("empty eligible ticker universe")
	// ErrInsufficientHistory marks a ticker with too few valid observations.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrEmptyPortfolio is returned when a profile selected no assets.
	ErrEmptyPortfolio = errors.New("portfolio has no holdings")
	// ErrInputNotFound is returned when a required input file or table is missing.
	ErrInputNotFound = errors.New("required input not found")
)
