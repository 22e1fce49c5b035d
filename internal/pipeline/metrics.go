package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the run metrics exported to a node-exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	StageDuration *prometheus.GaugeVec
	StageRuns     *prometheus.CounterVec
	LastSuccess   *prometheus.GaugeVec

	Assets   prometheus.Gauge
	Segments prometheus.Gauge
	Outliers prometheus.Gauge

	PortfolioReturn *prometheus.GaugeVec
	PortfolioAlpha  *prometheus.GaugeVec
	PortfolioSharpe *prometheus.GaugeVec
}

// NewMetrics creates the metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		StageDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clusterfolio_stage_duration_seconds",
				Help: "Duration of the last run of each pipeline stage in seconds",
			},
			[]string{"stage"},
		),
		StageRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clusterfolio_stage_runs_total",
				Help: "Total number of stage runs by result",
			},
			[]string{"stage", "result"},
		),
		LastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clusterfolio_stage_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run of each stage",
			},
			[]string{"stage"},
		),
		Assets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clusterfolio_assets",
			Help: "Number of assets with computed features",
		}),
		Segments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clusterfolio_segments",
			Help: "Number of non-outlier segments",
		}),
		Outliers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clusterfolio_outliers",
			Help: "Number of assets labeled as outliers",
		}),
		PortfolioReturn: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clusterfolio_portfolio_total_return",
				Help: "Backtest total return per profile",
			},
			[]string{"profile"},
		),
		PortfolioAlpha: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clusterfolio_portfolio_alpha",
				Help: "Backtest total return minus benchmark total return per profile",
			},
			[]string{"profile"},
		),
		PortfolioSharpe: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "clusterfolio_portfolio_sharpe_ratio",
				Help: "Backtest Sharpe ratio per profile",
			},
			[]string{"profile"},
		),
	}

	m.registry.MustRegister(
		m.StageDuration, m.StageRuns, m.LastSuccess,
		m.Assets, m.Segments, m.Outliers,
		m.PortfolioReturn, m.PortfolioAlpha, m.PortfolioSharpe,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry for HTTP handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
