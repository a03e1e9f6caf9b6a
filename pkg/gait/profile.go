package gait

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile overrides part of a Config for one diagnosis. Nil fields keep the
// base value.
//
// Example file:
//
//	parkinsons:
//	  description: Shuffling gait, short steps
//	  vel_threshold_pct: 22
//	  min_walk_duration_s: 3
//	stroke:
//	  vel_end_factor: 1.5
type Profile struct {
	Description string `yaml:"description"`

	PatientHeight   *float64 `yaml:"patient_height_m"`
	MarkerSize      *float64 `yaml:"marker_real_size_m"`
	MinDetections   *int     `yaml:"min_detections_per_marker"`
	MedianWindow    *int     `yaml:"smooth_median_window"`
	AverageWindow   *int     `yaml:"smooth_avg_window"`
	VelPercentile   *float64 `yaml:"vel_percentile"`
	VelThresholdPct *float64 `yaml:"vel_threshold_pct"`
	VelEndFactor    *float64 `yaml:"vel_end_factor"`
	MinWalkDuration *float64 `yaml:"min_walk_duration_s"`
	StartFraction   *float64 `yaml:"inv_h_start_fraction"`
	CorrectionAway  *float64 `yaml:"correction_factor_away"`
}

// Apply returns base with the profile's overrides. base is not modified.
func (p Profile) Apply(base Config) Config {
	c := base
	setFloat(&c.PatientHeight, p.PatientHeight)
	setFloat(&c.MarkerSize, p.MarkerSize)
	setInt(&c.MinDetections, p.MinDetections)
	setInt(&c.MedianWindow, p.MedianWindow)
	setInt(&c.AverageWindow, p.AverageWindow)
	setFloat(&c.VelPercentile, p.VelPercentile)
	setFloat(&c.VelThresholdPct, p.VelThresholdPct)
	setFloat(&c.VelEndFactor, p.VelEndFactor)
	setFloat(&c.MinWalkDuration, p.MinWalkDuration)
	setFloat(&c.StartFraction, p.StartFraction)
	setFloat(&c.CorrectionAway, p.CorrectionAway)
	return c
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Profiles is a named set of profiles.
type Profiles map[string]Profile

// ParseProfiles decodes a YAML profile document.
func ParseProfiles(data []byte) (Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("gait: parse profiles: %w", err)
	}
	if p == nil {
		p = Profiles{}
	}
	return p, nil
}

// LoadProfiles reads and decodes a YAML profile file.
func LoadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gait: read profiles: %w", err)
	}
	return ParseProfiles(data)
}

// Names returns the profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve applies the named profile to base and validates the result.
// An empty name returns base unchanged.
func (p Profiles) Resolve(name string, base Config) (Config, error) {
	if name == "" {
		return base, base.Validate()
	}
	prof, ok := p[name]
	if !ok {
		return base, fmt.Errorf("%w: %q (have %v)", ErrUnknownProfile, name, p.Names())
	}
	c := prof.Apply(base)
	if err := c.Validate(); err != nil {
		return base, fmt.Errorf("gait: profile %q: %w", name, err)
	}
	return c, nil
}
