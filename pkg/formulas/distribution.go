package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Skewness is the bias-corrected sample skewness of the returns.
// ok is false with fewer than three observations or zero dispersion.
func Skewness(returns []float64) (float64, bool) {
	if len(returns) < 3 || StdDev(returns) == 0 {
		return 0, false
	}
	s := stat.Skew(returns, nil)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, true
}

// ExcessKurtosis is the bias-corrected sample excess kurtosis of the returns.
// ok is false with fewer than four observations or zero dispersion.
func ExcessKurtosis(returns []float64) (float64, bool) {
	if len(returns) < 4 || StdDev(returns) == 0 {
		return 0, false
	}
	k := stat.ExKurtosis(returns, nil)
	if math.IsNaN(k) || math.IsInf(k, 0) {
		return 0, false
	}
	return k, true
}

// PositiveRatio is the fraction of strictly positive returns.
func PositiveRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	positive := 0
	for _, r := range returns {
		if r > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(returns))
}

// GainLossRatio is the mean gain over the absolute mean loss.
// ok is false when there are no losing days.
func GainLossRatio(returns []float64) (float64, bool) {
	var gains, losses []float64
	for _, r := range returns {
		switch {
		case r > 0:
			gains = append(gains, r)
		case r < 0:
			losses = append(losses, r)
		}
	}
	if len(losses) == 0 {
		return 0, false
	}
	avgLoss := math.Abs(Mean(losses))
	if avgLoss == 0 {
		return 0, false
	}
	return Mean(gains) / avgLoss, true
}
