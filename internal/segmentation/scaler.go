package segmentation

import "gonum.org/v1/gonum/stat"

// Scaler holds the per-column statistics of a standardization. It is fit on
// the batch being clustered and never persisted across runs.
type Scaler struct {
	Mean []float64
	Std  []float64 // population standard deviation
}

// FitTransform standardizes every column of x to zero mean and unit variance.
// A constant column maps to zeros.
func FitTransform(x [][]float64) ([][]float64, Scaler) {
	if len(x) == 0 {
		return nil, Scaler{}
	}
	d := len(x[0])
	s := Scaler{Mean: make([]float64, d), Std: make([]float64, d)}

	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i, row := range x {
			col[i] = row[j]
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
	}

	out := make([][]float64, len(x))
	for i, row := range x {
		out[i] = make([]float64, d)
		for j, v := range row {
			if s.Std[j] > 0 {
				out[i][j] = (v - s.Mean[j]) / s.Std[j]
			}
		}
	}
	return out, s
}
