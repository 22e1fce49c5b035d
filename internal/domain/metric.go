package domain

import (
	"math"
	"strconv"
)

// Metric is a statistic that is either a finite value or explicitly undefined.
// Consumers decide how to treat undefined values (exclude, neutral default,
// or propagate) instead of relying on NaN arithmetic.
type Metric struct {
	Value float64 `json:"value" msgpack:"v"`
	Valid bool    `json:"valid" msgpack:"ok"`
}

// Defined wraps v. NaN and infinities become Undefined.
func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{Value: v, Valid: true}
}

// Undefined returns a metric without a value.
func Undefined() Metric {
	return Metric{}
}

// MetricOf builds a metric from the (value, ok) pairs returned by pkg/formulas.
func MetricOf(v float64, ok bool) Metric {
	if !ok {
		return Metric{}
	}
	return Defined(v)
}

// Or returns the value, or fallback when undefined.
func (m Metric) Or(fallback float64) float64 {
	if !m.Valid {
		return fallback
	}
	return m.Value
}

// Float returns the value or NaN. Only used at file boundaries.
func (m Metric) Float() float64 {
	return m.Or(math.NaN())
}

// String formats the metric for CSV output; undefined renders as an empty cell.
func (m Metric) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

// ParseMetric is the inverse of String.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "NaN", "nan":
		return Metric{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Metric{}, err
	}
	return Defined(v), nil
}
