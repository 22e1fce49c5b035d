package segmentation

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Projection is the two-component principal projection of the standardized
// features.
type Projection struct {
	Coords        [][2]float64
	VarianceRatio [2]float64
}

// Project2D projects the rows of x onto their first two principal components.
// Missing components (fewer than two columns or rows) are zero.
func Project2D(x [][]float64) Projection {
	n := len(x)
	p := Projection{Coords: make([][2]float64, n)}
	if n < 2 {
		return p
	}
	d := len(x[0])

	data := mat.NewDense(n, d, nil)
	for i, row := range x {
		data.SetRow(i, row)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return p
	}
	vars := pc.VarsTo(nil)
	total := 0.0
	for _, v := range vars {
		total += v
	}
	if !(total > 0) {
		return p
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, cols := vecs.Dims()
	k := 2
	if cols < k {
		k = cols
	}

	// Center columns before projecting.
	means := make([]float64, d)
	for j := 0; j < d; j++ {
		means[j] = stat.Mean(mat.Col(nil, j, data), nil)
	}
	centered := mat.NewDense(n, d, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, data)

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, k))
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			p.Coords[i][c] = proj.At(i, c)
		}
	}
	for c := 0; c < k && c < len(vars); c++ {
		p.VarianceRatio[c] = vars[c] / total
	}
	return p
}
