package formulas

import "math"

// SharpeRatio is (annualReturn - riskFree) / annualVolatility.
// A zero (or undefined) denominator yields 0.
func SharpeRatio(annualReturn, annualVolatility, riskFree float64) float64 {
	if !(annualVolatility > 0) {
		return 0
	}
	return (annualReturn - riskFree) / annualVolatility
}

// SortinoRatio is (annualReturn - riskFree) / downsideDeviation.
// A zero (or undefined) denominator yields 0.
func SortinoRatio(annualReturn, downsideDeviation, riskFree float64) float64 {
	if !(downsideDeviation > 0) {
		return 0
	}
	return (annualReturn - riskFree) / downsideDeviation
}

// CalmarRatio is annualReturn / |maxDrawdown|; 0 when the drawdown is 0.
func CalmarRatio(annualReturn, maxDrawdown float64) float64 {
	if maxDrawdown == 0 {
		return 0
	}
	return annualReturn / math.Abs(maxDrawdown)
}
