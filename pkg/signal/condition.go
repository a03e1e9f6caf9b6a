package signal

import "fmt"

// Default smoothing windows, in samples.
const (
	DefaultMedianWindow  = 9
	DefaultAverageWindow = 15
)

// Sample is one frame's apparent height. Frames without a height are
// dropped before conditioning.
type Sample struct {
	FrameIndex int     `json:"frame_index"`
	Timestamp  float64 `json:"timestamp"`
	Height     float64 `json:"pixel_height"`
	HasHeight  bool    `json:"has_height"`
}

// Series is the conditioned signal, index-aligned across all fields.
type Series struct {
	FrameIndex   []int     `json:"frame_index"`
	Timestamps   []float64 `json:"timestamps"`
	Smoothed     []float64 `json:"smoothed_height"`
	InvHeight    []float64 `json:"inv_height"`
	RealVelocity []float64 `json:"real_velocity"`
}

// Len returns the number of conditioned samples.
func (s *Series) Len() int { return len(s.Timestamps) }

// Condition drops absent samples, smooths the heights with a median then a
// moving average, inverts them and differentiates the inverse against time.
//
// Inverse height is proportional to distance from the camera, so its
// derivative tracks physical walking speed regardless of how far away the
// subject stands.
func Condition(samples []Sample, medianWindow, averageWindow int) (*Series, error) {
	s := &Series{}
	var heights []float64
	last := 0.0
	for _, smp := range samples {
		if !smp.HasHeight {
			continue
		}
		if len(s.Timestamps) > 0 && smp.Timestamp <= last {
			return nil, fmt.Errorf("signal: timestamps not increasing at frame %d (%v <= %v)",
				smp.FrameIndex, smp.Timestamp, last)
		}
		last = smp.Timestamp
		s.FrameIndex = append(s.FrameIndex, smp.FrameIndex)
		s.Timestamps = append(s.Timestamps, smp.Timestamp)
		heights = append(heights, smp.Height)
	}

	s.Smoothed = MovingAverage(MedianFilter(heights, medianWindow), averageWindow)
	s.InvHeight = Inverse(s.Smoothed)
	s.RealVelocity = Derivative(s.InvHeight, s.Timestamps)
	return s, nil
}
