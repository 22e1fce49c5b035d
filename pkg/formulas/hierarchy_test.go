package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgglomerate_StopsAtRequestedClusters(t *testing.T) {
	points := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}, {20, 0}}
	dist := EuclideanDistances(points)

	for _, linkage := range []Linkage{LinkageSingle, LinkageComplete, LinkageAverage} {
		t.Run(string(linkage), func(t *testing.T) {
			clusters := Agglomerate(dist, linkage, 3)
			require.Len(t, clusters, 3)
			assert.ElementsMatch(t, []int{0, 1}, clusters[0].Leaves)
			assert.ElementsMatch(t, []int{2, 3}, clusters[1].Leaves)
			assert.Equal(t, []int{4}, clusters[2].Leaves)
		})
	}
}

func TestAgglomerate_FullTreeAndLeafOrder(t *testing.T) {
	dist := EuclideanDistances([][]float64{{0}, {5}, {1}, {6}})
	root := Agglomerate(dist, LinkageSingle, 1)
	require.Len(t, root, 1)

	order := LeafOrder(root[0])
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, order)
	assert.Equal(t, []int{0, 2, 1, 3}, order)
}

func TestAgglomerate_IdenticalPointsDeterministic(t *testing.T) {
	dist := EuclideanDistances([][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}})
	first := Agglomerate(dist, LinkageAverage, 2)
	second := Agglomerate(dist, LinkageAverage, 2)
	assert.Equal(t, first[0].Leaves, second[0].Leaves)
	assert.Equal(t, first[1].Leaves, second[1].Leaves)
}

func TestCorrelationMatrixFromCovariance(t *testing.T) {
	corr, err := CorrelationMatrixFromCovariance([][]float64{{4, 2}, {2, 4}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, corr[0][1], 1e-12)

	_, err = CorrelationMatrixFromCovariance([][]float64{{0, 0}, {0, 1}})
	assert.Error(t, err)

	dist := CorrelationToDistance(corr)
	assert.InDelta(t, 0.0, dist[0][0], 1e-12)
	assert.InDelta(t, 1.0, dist[0][1], 1e-12)
}
