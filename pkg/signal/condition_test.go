package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCondition_DropsAbsentFrames(t *testing.T) {
	samples := []Sample{
		{FrameIndex: 0, Timestamp: 0.0, Height: 200, HasHeight: true},
		{FrameIndex: 1, Timestamp: 0.1},
		{FrameIndex: 2, Timestamp: 0.2, Height: 100, HasHeight: true},
		{FrameIndex: 3, Timestamp: 0.3, Height: 50, HasHeight: true},
	}

	s, err := Condition(samples, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []int{0, 2, 3}, s.FrameIndex)
	assert.Equal(t, []float64{200, 100, 50}, s.Smoothed)
	assert.Equal(t, []float64{0.005, 0.01, 0.02}, s.InvHeight)

	require.Len(t, s.RealVelocity, 3)
	assert.Equal(t, 0.0, s.RealVelocity[0])
	assert.InDelta(t, 0.025, s.RealVelocity[1], 1e-12)
	assert.InDelta(t, 0.1, s.RealVelocity[2], 1e-12)
}

func TestCondition_ConstantHeightHasZeroVelocity(t *testing.T) {
	samples := make([]Sample, 40)
	for i := range samples {
		samples[i] = Sample{FrameIndex: i, Timestamp: float64(i) / 30, Height: 120, HasHeight: true}
	}

	s, err := Condition(samples, DefaultMedianWindow, DefaultAverageWindow)
	require.NoError(t, err)
	for i, v := range s.RealVelocity {
		assert.InDelta(t, 0, v, 1e-12, "index %d", i)
	}
}

func TestCondition_RejectsNonIncreasingTimestamps(t *testing.T) {
	samples := []Sample{
		{FrameIndex: 0, Timestamp: 1.0, Height: 100, HasHeight: true},
		{FrameIndex: 1, Timestamp: 1.0, Height: 100, HasHeight: true},
	}
	_, err := Condition(samples, 1, 1)
	assert.Error(t, err)
}
