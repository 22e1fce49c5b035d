package optimization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bounds limits every individual weight.
type Bounds struct {
	Min float64
	Max float64
}

// Feasible reports whether n weights within the bounds can sum to one.
func (b Bounds) Feasible(n int) bool {
	return b.Min <= b.Max && b.Min*float64(n) <= 1+1e-9 && b.Max*float64(n) >= 1-1e-9
}

// SharpeStats describes the optimized allocation.
type SharpeStats struct {
	Return     float64
	Volatility float64
	Sharpe     float64
}

// MaxSharpe finds fully-invested weights within bounds that maximize
// (mu'w - rf) / sqrt(w'Σw). mu and cov are annualized.
func MaxSharpe(mu []float64, cov [][]float64, bounds Bounds, riskFree float64) ([]float64, SharpeStats, error) {
	n := len(mu)
	if n == 0 {
		return nil, SharpeStats{}, fmt.Errorf("no assets provided")
	}
	if len(cov) != n {
		return nil, SharpeStats{}, fmt.Errorf("covariance matrix size %d doesn't match assets count %d", len(cov), n)
	}
	if !bounds.Feasible(n) {
		return nil, SharpeStats{}, fmt.Errorf("bounds [%v, %v] cannot sum to 1 over %d assets", bounds.Min, bounds.Max, n)
	}

	const penaltyWeight = 1000.0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w := projectToBounds(x, bounds)
			ret, variance := portfolioMoments(w, mu, cov)
			sd := math.Sqrt(math.Max(variance, 1e-10))

			sum := 0.0
			for _, v := range w {
				sum += v
			}
			return -(ret-riskFree)/sd + penaltyWeight*(sum-1)*(sum-1)
		},
	}

	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil {
		return nil, SharpeStats{}, fmt.Errorf("optimization failed: %w", err)
	}

	w := fitToBounds(projectToBounds(result.X, bounds), bounds)
	ret, variance := portfolioMoments(w, mu, cov)
	stats := SharpeStats{Return: ret, Volatility: math.Sqrt(math.Max(variance, 0))}
	if stats.Volatility > 0 {
		stats.Sharpe = (ret - riskFree) / stats.Volatility
	}
	return w, stats, nil
}

func projectToBounds(x []float64, b Bounds) []float64 {
	proj := make([]float64, len(x))
	for i, v := range x {
		proj[i] = math.Max(b.Min, math.Min(b.Max, v))
	}
	return proj
}

// fitToBounds rescales w to sum to one, redistributing the excess over the
// weights that are not pinned at a bound.
func fitToBounds(w []float64, b Bounds) []float64 {
	out := append([]float64(nil), w...)
	for iter := 0; iter < 100; iter++ {
		sum := 0.0
		for _, v := range out {
			sum += v
		}
		gap := 1 - sum
		if math.Abs(gap) < 1e-12 {
			break
		}

		free := 0.0
		for _, v := range out {
			if (gap > 0 && v < b.Max) || (gap < 0 && v > b.Min) {
				free += math.Max(v, 1e-12)
			}
		}
		if free == 0 {
			break
		}
		for i, v := range out {
			if (gap > 0 && v < b.Max) || (gap < 0 && v > b.Min) {
				out[i] = math.Max(b.Min, math.Min(b.Max, v+gap*math.Max(v, 1e-12)/free))
			}
		}
	}
	return out
}
