package gait

import (
	"github.com/teslashibe/go-walktest/pkg/calibration"
	"github.com/teslashibe/go-walktest/pkg/marker"
	"github.com/teslashibe/go-walktest/pkg/region"
	"github.com/teslashibe/go-walktest/pkg/timing"
)

// TimingResult is the measured walk.
type TimingResult struct {
	TimeAtNear       float64            `json:"time_at_near_marker"`
	TimeAtFar        float64            `json:"time_at_far_marker"`
	RawWalkTime      float64            `json:"raw_walk_time"`
	CorrectionFactor float64            `json:"correction_factor"`
	Method           calibration.Method `json:"calibration_method"`
	WalkTime         float64            `json:"walk_time_seconds"`
	WalkSpeed        float64            `json:"walk_speed_mps"`
}

// Diagnostics records how a TimingResult was reached.
type Diagnostics struct {
	RunID     string           `json:"run_id"`
	Direction timing.Direction `json:"direction"`

	FramesRead    int `json:"frames_read"`
	FramesUsable  int `json:"frames_usable"`
	MarkerSampled int `json:"marker_frames_sampled"`

	Markers          map[marker.ID]marker.Observation `json:"markers"`
	Calibration      *calibration.Aruco               `json:"calibration,omitempty"`
	CalibrationError string                           `json:"calibration_error,omitempty"`

	Passes          []region.Thresholds `json:"threshold_passes"`
	Region          region.Region       `json:"region"`
	RegionStartTime float64             `json:"region_start_time"`
	RegionEndTime   float64             `json:"region_end_time"`
	LowConfidence   bool                `json:"low_confidence"`

	Mapping timing.Mapping `json:"mapping"`

	// Fallbacks lists, in order, every recoverable failure of the run.
	Fallbacks []string `json:"fallbacks,omitempty"`
}

func (d *Diagnostics) fallback(err error) {
	d.Fallbacks = append(d.Fallbacks, err.Error())
}

// Report is the complete output of one analysis.
type Report struct {
	Result      TimingResult `json:"result"`
	Diagnostics Diagnostics  `json:"diagnostics"`
}
