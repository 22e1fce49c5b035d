package segmentation

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// KMeansOptions parameterize KMeans.
type KMeansOptions struct {
	K       int
	Seed    int64
	NInit   int
	MaxIter int
	Tol     float64
}

// KMeansResult is the best of NInit runs.
type KMeansResult struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
	Iter      int
}

// KMeans partitions x into min(K, len(x)) clusters with k-means++ seeding.
// All randomness comes from opts.Seed, so equal inputs give equal labels.
// Assignment ties go to the lowest centroid index; an empty cluster keeps its
// previous centroid.
func KMeans(x [][]float64, opts KMeansOptions) KMeansResult {
	n := len(x)
	if n == 0 {
		return KMeansResult{}
	}
	k := opts.K
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	nInit := opts.NInit
	if nInit < 1 {
		nInit = 1
	}
	maxIter := opts.MaxIter
	if maxIter < 1 {
		maxIter = 300
	}
	tol := scaledTolerance(x, opts.Tol)

	rng := rand.New(rand.NewSource(opts.Seed))
	var best KMeansResult
	for run := 0; run < nInit; run++ {
		res := lloyd(x, kmeansPlusPlus(x, k, rng), maxIter, tol)
		if run == 0 || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best
}

// scaledTolerance expresses tol relative to the mean per-column variance.
func scaledTolerance(x [][]float64, tol float64) float64 {
	if tol <= 0 {
		return 0
	}
	d := len(x[0])
	col := make([]float64, len(x))
	total := 0.0
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		_, v := stat.PopMeanVariance(col, nil)
		total += v
	}
	return tol * total / float64(d)
}

func kmeansPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(x)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), x[rng.Intn(n)]...))

	closest := make([]float64, n)
	for i := range x {
		closest[i] = sqDist(x[i], centroids[0])
	}

	for len(centroids) < k {
		total := floats.Sum(closest)
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			next = n - 1
			for i, d := range closest {
				acc += d
				if acc >= target && d > 0 {
					next = i
					break
				}
			}
		} else {
			// Every point already coincides with a centroid.
			next = rng.Intn(n)
		}
		c := append([]float64(nil), x[next]...)
		centroids = append(centroids, c)
		for i := range x {
			closest[i] = math.Min(closest[i], sqDist(x[i], c))
		}
	}
	return centroids
}

func lloyd(x [][]float64, centroids [][]float64, maxIter int, tol float64) KMeansResult {
	k := len(centroids)
	d := len(x[0])
	labels := make([]int, len(x))

	iter := 0
	for iter = 1; iter <= maxIter; iter++ {
		assign(x, centroids, labels)

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, d)
		}
		for i, row := range x {
			floats.Add(sums[labels[i]], row)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			shift += sqDist(centroids[c], sums[c])
			centroids[c] = sums[c]
		}
		if shift <= tol {
			break
		}
	}
	if iter > maxIter {
		iter = maxIter
	}

	inertia := assign(x, centroids, labels)
	return KMeansResult{Labels: labels, Centroids: centroids, Inertia: inertia, Iter: iter}
}

// assign labels each row with its nearest centroid and returns the inertia.
func assign(x [][]float64, centroids [][]float64, labels []int) float64 {
	inertia := 0.0
	for i, row := range x {
		best := 0
		bestD := sqDist(row, centroids[0])
		for c := 1; c < len(centroids); c++ {
			if d := sqDist(row, centroids[c]); d < bestD {
				best = c
				bestD = d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return inertia
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
