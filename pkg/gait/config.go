// Package gait runs the 10-meter walk test end to end: it samples the video
// for markers, extracts a height per frame, and turns the height signal into
// a calibrated walk time.
package gait

import (
	"fmt"

	"github.com/teslashibe/go-walktest/pkg/calibration"
	"github.com/teslashibe/go-walktest/pkg/marker"
	"github.com/teslashibe/go-walktest/pkg/pose"
	"github.com/teslashibe/go-walktest/pkg/region"
	"github.com/teslashibe/go-walktest/pkg/signal"
	"github.com/teslashibe/go-walktest/pkg/timing"
	"github.com/teslashibe/go-walktest/pkg/video"
)

// DefaultCorrectionAway is the empirical proportional-mode factor for walks
// away from the camera.
const DefaultCorrectionAway = 2.4974

// Config holds every tunable of one analysis run. It is built once before
// the run and passed by value.
type Config struct {
	// PatientHeight is the subject's real height in meters.
	// Default: 1.70
	PatientHeight float64 `yaml:"patient_height_m" json:"patient_height_m"`

	// MarkerSize is the printed marker's edge length in meters.
	// Default: 0.25
	MarkerSize float64 `yaml:"marker_real_size_m" json:"marker_real_size_m"`

	// MinDetections is how often each marker must be seen to count.
	// Default: 3
	MinDetections int `yaml:"min_detections_per_marker" json:"min_detections_per_marker"`

	// MeasuredDistance is fixed by the course layout (2 m to 12 m).
	MeasuredDistance float64 `yaml:"measurement_distance_m" json:"measurement_distance_m"`

	// Signal conditioning windows, in samples.
	MedianWindow  int `yaml:"smooth_median_window" json:"smooth_median_window"`
	AverageWindow int `yaml:"smooth_avg_window" json:"smooth_avg_window"`

	// Walk region detection.
	RegionSmoothWindow int     `yaml:"region_smooth_window" json:"region_smooth_window"`
	VelPercentile      float64 `yaml:"vel_percentile" json:"vel_percentile"`
	VelThresholdPct    float64 `yaml:"vel_threshold_pct" json:"vel_threshold_pct"`
	VelEndFactor       float64 `yaml:"vel_end_factor" json:"vel_end_factor"`
	MinWalkDuration    float64 `yaml:"min_walk_duration_s" json:"min_walk_duration_s"`

	// Proportional fallback.
	StartFraction  float64 `yaml:"inv_h_start_fraction" json:"inv_h_start_fraction"`
	CorrectionAway float64 `yaml:"correction_factor_away" json:"correction_factor_away"`

	// Direction is the walking direction. Only "away" is supported.
	Direction timing.Direction `yaml:"direction" json:"direction"`

	// ArUco ids of the near and far markers.
	StartMarkerID  int `yaml:"start_marker_id" json:"start_marker_id"`
	FinishMarkerID int `yaml:"finish_marker_id" json:"finish_marker_id"`

	// MarkerSampleSize is N for bookend sampling: first N, last N, N/2 between.
	MarkerSampleSize int `yaml:"marker_sample_size" json:"marker_sample_size"`

	// AssumedDuration estimates the frame count when the container reports none.
	AssumedDuration float64 `yaml:"assumed_duration_s" json:"assumed_duration_s"`

	// MinUsableFrames is the fewest frames with a height the run accepts.
	MinUsableFrames int `yaml:"min_usable_frames" json:"min_usable_frames"`

	// Feature extraction limits.
	HeightNoiseFloor float64 `yaml:"height_noise_floor_px" json:"height_noise_floor_px"`
	MinLandmarks     int     `yaml:"min_landmarks" json:"min_landmarks"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	rc := region.DefaultConfig()
	return Config{
		PatientHeight:      calibration.DefaultPatientHeight,
		MarkerSize:         calibration.DefaultMarkerSize,
		MinDetections:      marker.DefaultMinDetections,
		MeasuredDistance:   calibration.MeasuredDistance,
		MedianWindow:       signal.DefaultMedianWindow,
		AverageWindow:      signal.DefaultAverageWindow,
		RegionSmoothWindow: rc.SmoothWindow,
		VelPercentile:      rc.Percentile,
		VelThresholdPct:    rc.ThresholdPct,
		VelEndFactor:       rc.EndFactor,
		MinWalkDuration:    rc.MinDuration,
		StartFraction:      timing.DefaultStartFraction,
		CorrectionAway:     DefaultCorrectionAway,
		Direction:          timing.Away,
		StartMarkerID:      0,
		FinishMarkerID:     1,
		MarkerSampleSize:   15,
		AssumedDuration:    video.DefaultAssumedDuration,
		MinUsableFrames:    10,
		HeightNoiseFloor:   pose.DefaultHeightNoiseFloor,
		MinLandmarks:       pose.DefaultMinLandmarks,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Direction != timing.Away {
		return fmt.Errorf("%w: %s", ErrUnsupportedDirection, c.Direction)
	}
	if c.PatientHeight <= 0 {
		return fmt.Errorf("patient_height_m must be positive, got %v", c.PatientHeight)
	}
	if c.MarkerSize <= 0 {
		return fmt.Errorf("marker_real_size_m must be positive, got %v", c.MarkerSize)
	}
	if c.MinDetections <= 0 {
		return fmt.Errorf("min_detections_per_marker must be positive, got %d", c.MinDetections)
	}
	if c.MeasuredDistance != calibration.MeasuredDistance {
		return fmt.Errorf("measurement_distance_m is fixed at %v, got %v",
			calibration.MeasuredDistance, c.MeasuredDistance)
	}
	if c.MedianWindow <= 0 || c.AverageWindow <= 0 || c.RegionSmoothWindow <= 0 {
		return fmt.Errorf("smoothing windows must be positive, got median %d, avg %d, region %d",
			c.MedianWindow, c.AverageWindow, c.RegionSmoothWindow)
	}
	// Centered windows are symmetric; an even width would silently grow by one.
	if c.MedianWindow%2 == 0 || c.AverageWindow%2 == 0 || c.RegionSmoothWindow%2 == 0 {
		return fmt.Errorf("smoothing windows must be odd, got median %d, avg %d, region %d",
			c.MedianWindow, c.AverageWindow, c.RegionSmoothWindow)
	}
	if c.VelPercentile <= 0 || c.VelPercentile > 100 {
		return fmt.Errorf("vel_percentile must be in (0, 100], got %v", c.VelPercentile)
	}
	if c.VelThresholdPct <= 0 || c.VelThresholdPct > 100 {
		return fmt.Errorf("vel_threshold_pct must be in (0, 100], got %v", c.VelThresholdPct)
	}
	if c.VelEndFactor <= 0 {
		return fmt.Errorf("vel_end_factor must be positive, got %v", c.VelEndFactor)
	}
	if c.MinWalkDuration <= 0 {
		return fmt.Errorf("min_walk_duration_s must be positive, got %v", c.MinWalkDuration)
	}
	if c.StartFraction <= 0 || c.StartFraction >= 1 {
		return fmt.Errorf("inv_h_start_fraction must be in (0, 1), got %v", c.StartFraction)
	}
	if c.CorrectionAway <= 0 {
		return fmt.Errorf("correction_factor_away must be positive, got %v", c.CorrectionAway)
	}
	if c.StartMarkerID == c.FinishMarkerID {
		return fmt.Errorf("start_marker_id and finish_marker_id must differ, both %d", c.StartMarkerID)
	}
	if c.MarkerSampleSize <= 0 {
		return fmt.Errorf("marker_sample_size must be positive, got %d", c.MarkerSampleSize)
	}
	if c.AssumedDuration <= 0 {
		return fmt.Errorf("assumed_duration_s must be positive, got %v", c.AssumedDuration)
	}
	if c.MinUsableFrames < 2 {
		return fmt.Errorf("min_usable_frames must be at least 2, got %d", c.MinUsableFrames)
	}
	return nil
}

// RegionConfig returns the walk-region detector settings.
func (c *Config) RegionConfig() region.Config {
	return region.Config{
		SmoothWindow: c.RegionSmoothWindow,
		Percentile:   c.VelPercentile,
		ThresholdPct: c.VelThresholdPct,
		EndFactor:    c.VelEndFactor,
		MinDuration:  c.MinWalkDuration,
	}
}

// Proportional returns the fallback calibration model for this run.
func (c *Config) Proportional() *calibration.Proportional {
	return &calibration.Proportional{
		StartFraction: c.StartFraction,
		Correction:    c.CorrectionAway,
	}
}
