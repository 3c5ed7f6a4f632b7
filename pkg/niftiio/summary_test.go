package niftiio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"niftivol/internal/models"
)

func TestSummarize(t *testing.T) {
	vol, err := models.FromData([]float64{1, 2, 3, 4, math.NaN(), math.Inf(1)}, 3, 2)
	require.NoError(t, err)

	s := Summarize(vol)
	assert.Equal(t, []int{3, 2}, s.Shape)
	assert.Equal(t, 6, s.Voxels)
	assert.Equal(t, 1, s.NaN)
	assert.Equal(t, 1, s.Inf)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	// Sample standard deviation of 1..4
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
}

func TestSummarizeNoFiniteValues(t *testing.T) {
	vol, err := models.FromData([]float64{math.NaN(), math.NaN()}, 2)
	require.NoError(t, err)

	s := Summarize(vol)
	assert.Equal(t, 2, s.NaN)
	assert.True(t, math.IsNaN(s.Mean))
	assert.True(t, math.IsNaN(s.Max))
}

func TestSummarizeSingleValue(t *testing.T) {
	vol, err := models.FromData([]float64{7}, 1)
	require.NoError(t, err)

	s := Summarize(vol)
	assert.Equal(t, 7.0, s.Mean)
	assert.Equal(t, 0.0, s.Std)
}
