package srs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, []int{1, 3, 7, 14, 30, 60, 90, 180}, params.ReviewIntervals)
	assert.Equal(t, 1, params.InitialReviewDays)
	assert.Equal(t, 90, params.ExcellentAccuracy)
	assert.Equal(t, 70, params.GoodAccuracy)
	assert.Equal(t, 100, params.MasteredProgress)
	assert.Equal(t, 3, params.MasteredLevel)
	assert.Equal(t, 50, params.ReviewingProgress)
	require.NoError(t, params.Validate())

	// The default table must not alias the package variable
	params.ReviewIntervals[0] = 99
	assert.Equal(t, 1, DefaultReviewIntervals[0])
}

func TestReviewIntervalsNonDecreasing(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	for level := 1; level < len(params.ReviewIntervals)+3; level++ {
		assert.GreaterOrEqual(t,
			intervalDays(level, params), intervalDays(level-1, params),
			"interval for level %d shrank", level)
	}
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	t.Run("zero config keeps defaults", func(t *testing.T) {
		t.Parallel()
		params, err := NewParams(ParamsConfig{})
		require.NoError(t, err)
		assert.Equal(t, NewDefaultParams(), params)
	})

	t.Run("overrides are applied", func(t *testing.T) {
		t.Parallel()
		params, err := NewParams(ParamsConfig{
			ReviewIntervals:   []int{2, 4, 8},
			InitialReviewDays: 2,
			ExcellentAccuracy: 95,
			GoodAccuracy:      80,
		})
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4, 8}, params.ReviewIntervals)
		assert.Equal(t, 2, params.InitialReviewDays)
		assert.Equal(t, 95, params.ExcellentAccuracy)
		assert.Equal(t, 80, params.GoodAccuracy)
		assert.Equal(t, 10, params.ExcellentProgressGain)
	})

	invalid := []struct {
		name   string
		config ParamsConfig
	}{
		{"decreasing intervals", ParamsConfig{ReviewIntervals: []int{1, 7, 3}}},
		{"zero day interval", ParamsConfig{ReviewIntervals: []int{1, 0, 3}}},
		{"good band above excellent", ParamsConfig{GoodAccuracy: 95}},
		{"excellent band above 100", ParamsConfig{ExcellentAccuracy: 101}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewParams(tc.config)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams))
		})
	}
}

func TestParamsBand(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	assert.Equal(t, BandExcellent, params.Band(90))
	assert.Equal(t, BandExcellent, params.Band(250))
	assert.Equal(t, BandGood, params.Band(70))
	assert.Equal(t, BandGood, params.Band(89))
	assert.Equal(t, BandPoor, params.Band(69))
	assert.Equal(t, BandPoor, params.Band(-5))
}
