package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFillMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected FillMethod
		wantErr  bool
	}{
		{"ffill", FillForward, false},
		{" BFILL ", FillBackward, false},
		{"interpolate", FillInterpolate, false},
		{"drop", FillDrop, false},
		{"mean", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFillMethod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseOtherEnums(t *testing.T) {
	m, err := ParseClusterMethod("Agglomerative")
	require.NoError(t, err)
	assert.Equal(t, ClusterAgglomerative, m)
	_, err = ParseClusterMethod("hdbscan")
	assert.Error(t, err)

	l, err := ParseLinkage("average")
	require.NoError(t, err)
	assert.Equal(t, LinkageAverage, l)
	_, err = ParseLinkage("ward")
	assert.Error(t, err)

	w, err := ParseWeightingScheme("max_sharpe")
	require.NoError(t, err)
	assert.Equal(t, WeightingMaxSharpe, w)

	f, err := ParseRebalanceFrequency("quarterly")
	require.NoError(t, err)
	assert.Equal(t, RebalanceQuarterly, f)
	_, err = ParseRebalanceFrequency("weekly")
	assert.Error(t, err)
}
