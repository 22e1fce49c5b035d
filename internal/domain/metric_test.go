package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefined(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		valid bool
	}{
		{"finite", 1.5, true},
		{"zero", 0, true},
		{"nan", math.NaN(), false},
		{"inf", math.Inf(1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, Defined(tt.value).Valid)
		})
	}
}

func TestMetric_Or(t *testing.T) {
	assert.Equal(t, 2.0, Defined(2).Or(0.5))
	assert.Equal(t, 0.5, Undefined().Or(0.5))
	assert.Equal(t, 0.5, MetricOf(3, false).Or(0.5))
	assert.True(t, math.IsNaN(Undefined().Float()))
}

func TestMetric_StringRoundTrip(t *testing.T) {
	m, err := ParseMetric(Defined(-0.125).String())
	require.NoError(t, err)
	assert.Equal(t, Defined(-0.125), m)

	assert.Equal(t, "", Undefined().String())
	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.False(t, m.Valid)

	_, err = ParseMetric("abc")
	assert.Error(t, err)
}
