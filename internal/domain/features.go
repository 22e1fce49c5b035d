package domain

import (
	"fmt"
	"sort"
)

// FeatureName identifies one per-asset metric.
type FeatureName string

const (
	FeatureTotalReturn          FeatureName = "total_return"
	FeatureAnnualizedReturn     FeatureName = "annualized_return"
	FeatureAnnualizedVolatility FeatureName = "annualized_volatility"
	FeatureDownsideDeviation    FeatureName = "downside_deviation"
	FeatureMaxDrawdown          FeatureName = "max_drawdown"
	FeatureVaR95                FeatureName = "var_95"
	FeatureCVaR95               FeatureName = "cvar_95"
	FeatureSharpeRatio          FeatureName = "sharpe_ratio"
	FeatureSortinoRatio         FeatureName = "sortino_ratio"
	FeatureCalmarRatio          FeatureName = "calmar_ratio"
	FeatureBeta                 FeatureName = "beta"
	FeatureAlpha                FeatureName = "alpha"
	FeatureRSquared             FeatureName = "r_squared"
	FeatureCorrelation          FeatureName = "correlation"
	FeatureTrackingError        FeatureName = "tracking_error"
	FeatureSkewness             FeatureName = "skewness"
	FeatureKurtosis             FeatureName = "kurtosis"
	FeaturePositiveRatio        FeatureName = "positive_ratio"
	FeatureGainLossRatio        FeatureName = "gain_loss_ratio"
	FeatureVolOfVol             FeatureName = "vol_of_vol"
	FeatureMomentum             FeatureName = "momentum"
)

// AllFeatures lists every feature in output column order.
var AllFeatures = []FeatureName{
	FeatureTotalReturn,
	FeatureAnnualizedReturn,
	FeatureAnnualizedVolatility,
	FeatureDownsideDeviation,
	FeatureMaxDrawdown,
	FeatureVaR95,
	FeatureCVaR95,
	FeatureSharpeRatio,
	FeatureSortinoRatio,
	FeatureCalmarRatio,
	FeatureBeta,
	FeatureAlpha,
	FeatureRSquared,
	FeatureCorrelation,
	FeatureTrackingError,
	FeatureSkewness,
	FeatureKurtosis,
	FeaturePositiveRatio,
	FeatureGainLossRatio,
	FeatureVolOfVol,
	FeatureMomentum,
}

// ParseFeatureName validates a feature name read from configuration.
func ParseFeatureName(s string) (FeatureName, error) {
	for _, f := range AllFeatures {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", s)
}

// FeatureRow holds the metrics computed for one ticker over the training window.
type FeatureRow struct {
	Ticker       string `msgpack:"ticker"`
	Observations int    `msgpack:"n_obs"`

	TotalReturn          Metric `msgpack:"total_return"`
	AnnualizedReturn     Metric `msgpack:"annualized_return"`
	AnnualizedVolatility Metric `msgpack:"annualized_volatility"`
	DownsideDeviation    Metric `msgpack:"downside_deviation"`
	MaxDrawdown          Metric `msgpack:"max_drawdown"`
	VaR95                Metric `msgpack:"var_95"`
	CVaR95               Metric `msgpack:"cvar_95"`
	SharpeRatio          Metric `msgpack:"sharpe_ratio"`
	SortinoRatio         Metric `msgpack:"sortino_ratio"`
	CalmarRatio          Metric `msgpack:"calmar_ratio"`
	Beta                 Metric `msgpack:"beta"`
	Alpha                Metric `msgpack:"alpha"`
	RSquared             Metric `msgpack:"r_squared"`
	Correlation          Metric `msgpack:"correlation"`
	TrackingError        Metric `msgpack:"tracking_error"`
	Skewness             Metric `msgpack:"skewness"`
	Kurtosis             Metric `msgpack:"kurtosis"`
	PositiveRatio        Metric `msgpack:"positive_ratio"`
	GainLossRatio        Metric `msgpack:"gain_loss_ratio"`
	VolOfVol             Metric `msgpack:"vol_of_vol"`
	Momentum             Metric `msgpack:"momentum"`
}

// Get returns the metric for name. Unknown names are undefined.
func (r *FeatureRow) Get(name FeatureName) Metric {
	if p := r.field(name); p != nil {
		return *p
	}
	return Undefined()
}

// Set assigns the metric for name.
func (r *FeatureRow) Set(name FeatureName, m Metric) error {
	p := r.field(name)
	if p == nil {
		return fmt.Errorf("unknown feature %q", name)
	}
	*p = m
	return nil
}

func (r *FeatureRow) field(name FeatureName) *Metric {
	switch name {
	case FeatureTotalReturn:
		return &r.TotalReturn
	case FeatureAnnualizedReturn:
		return &r.AnnualizedReturn
	case FeatureAnnualizedVolatility:
		return &r.AnnualizedVolatility
	case FeatureDownsideDeviation:
		return &r.DownsideDeviation
	case FeatureMaxDrawdown:
		return &r.MaxDrawdown
	case FeatureVaR95:
		return &r.VaR95
	case FeatureCVaR95:
		return &r.CVaR95
	case FeatureSharpeRatio:
		return &r.SharpeRatio
	case FeatureSortinoRatio:
		return &r.SortinoRatio
	case FeatureCalmarRatio:
		return &r.CalmarRatio
	case FeatureBeta:
		return &r.Beta
	case FeatureAlpha:
		return &r.Alpha
	case FeatureRSquared:
		return &r.RSquared
	case FeatureCorrelation:
		return &r.Correlation
	case FeatureTrackingError:
		return &r.TrackingError
	case FeatureSkewness:
		return &r.Skewness
	case FeatureKurtosis:
		return &r.Kurtosis
	case FeaturePositiveRatio:
		return &r.PositiveRatio
	case FeatureGainLossRatio:
		return &r.GainLossRatio
	case FeatureVolOfVol:
		return &r.VolOfVol
	case FeatureMomentum:
		return &r.Momentum
	}
	return nil
}

// Complete reports whether every listed feature is defined.
func (r *FeatureRow) Complete(names []FeatureName) bool {
	for _, n := range names {
		if !r.Get(n).Valid {
			return false
		}
	}
	return true
}

// FeatureMatrix is the set of feature rows keyed by ticker, sorted by ticker.
// The benchmark is never a row.
type FeatureMatrix struct {
	Benchmark string       `msgpack:"benchmark"`
	Rows      []FeatureRow `msgpack:"rows"`
}

// Sort orders rows by ticker.
func (m *FeatureMatrix) Sort() {
	sort.Slice(m.Rows, func(i, j int) bool { return m.Rows[i].Ticker < m.Rows[j].Ticker })
}

// Row returns the row for ticker.
func (m *FeatureMatrix) Row(ticker string) (FeatureRow, bool) {
	for _, r := range m.Rows {
		if r.Ticker == ticker {
			return r, true
		}
	}
	return FeatureRow{}, false
}

// Tickers returns the row tickers in row order.
func (m *FeatureMatrix) Tickers() []string {
	out := make([]string, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = r.Ticker
	}
	return out
}

// Len returns the number of rows.
func (m *FeatureMatrix) Len() int {
	return len(m.Rows)
}
