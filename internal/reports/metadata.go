package reports

import (
	"strings"
	"time"
)

// RunMetadata describes the inputs and parameters of a pipeline run.
type RunMetadata struct {
	RunID           string    `json:"run_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	Benchmark       string    `json:"benchmark"`
	InitialCapital  float64   `json:"initial_capital"`
	TransactionCost float64   `json:"transaction_cost"`
	RiskFreeRate    float64   `json:"risk_free_rate"`
	Weighting       string    `json:"weighting"`
	TrainStart      time.Time `json:"train_start"`
	TrainEnd        time.Time `json:"train_end"`
	TestStart       time.Time `json:"test_start"`
	TestEnd         time.Time `json:"test_end"`
	NAssets         int       `json:"n_assets"`
	NSegments       int       `json:"n_segments"`
	NOutliers       int       `json:"n_outliers"`
	Profiles        []string  `json:"profiles"`
}

// pairs flattens the metadata into key/value rows.
func (m RunMetadata) pairs() [][]string {
	return [][]string{
		{"run_id", m.RunID},
		{"generated_at", m.GeneratedAt.UTC().Format(time.RFC3339)},
		{"benchmark", m.Benchmark},
		{"initial_capital", ftoa(m.InitialCapital)},
		{"transaction_cost", ftoa(m.TransactionCost)},
		{"risk_free_rate", ftoa(m.RiskFreeRate)},
		{"weighting", m.Weighting},
		{"train_start", m.TrainStart.Format(dateLayout)},
		{"train_end", m.TrainEnd.Format(dateLayout)},
		{"test_start", m.TestStart.Format(dateLayout)},
		{"test_end", m.TestEnd.Format(dateLayout)},
		{"n_assets", itoa(m.NAssets)},
		{"n_segments", itoa(m.NSegments)},
		{"n_outliers", itoa(m.NOutliers)},
		{"profiles", strings.Join(m.Profiles, ",")},
	}
}

// WriteMetadata writes the metadata as JSON to jsonPath and as key,value
// rows to csvPath.
func WriteMetadata(jsonPath, csvPath string, m RunMetadata) error {
	if err := writeJSON(jsonPath, m); err != nil {
		return err
	}
	return writeCSV(csvPath, []string{"key", "value"}, m.pairs())
}
