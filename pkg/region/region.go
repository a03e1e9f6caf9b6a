// Package region isolates the walking interval in a real-velocity signal.
package region

import (
	"errors"

	"github.com/teslashibe/go-walktest/pkg/signal"
)

// Recoverable detection outcomes, reported in Result.Err.
var (
	// ErrDegenerateVelocity means the raw velocity has no positive samples;
	// the whole sequence is returned.
	ErrDegenerateVelocity = errors.New("region: no positive velocity samples")

	// ErrShortRegion means no candidate lasted the minimum duration; the
	// widest candidate is returned instead.
	ErrShortRegion = errors.New("region: no region meets the minimum duration")
)

// Config holds the detector tuning.
type Config struct {
	SmoothWindow int     // moving-average window over real velocity, samples
	Percentile   float64 // percentile of positive samples taken as peak velocity
	ThresholdPct float64 // start threshold as a percentage of peak velocity
	EndFactor    float64 // end threshold = start threshold × EndFactor
	MinDuration  float64 // seconds
}

// DefaultConfig returns the tuned detector defaults.
func DefaultConfig() Config {
	return Config{
		SmoothWindow: 31,
		Percentile:   82,
		ThresholdPct: 27,
		EndFactor:    1.7,
		MinDuration:  2.0,
	}
}

// Region is an inclusive index interval into the conditioned series.
type Region struct {
	Start int `json:"start_index"`
	End   int `json:"end_index"`
}

// Len returns the number of samples spanned.
func (r Region) Len() int { return r.End - r.Start }

// Thresholds are the values one pass scanned with.
type Thresholds struct {
	MaxRV float64 `json:"max_rv"`
	Start float64 `json:"threshold_start"`
	End   float64 `json:"threshold_end"`
}

// Result is the detected region plus how it was found.
type Result struct {
	Region        Region       `json:"region"`
	LowConfidence bool         `json:"low_confidence"`
	Passes        []Thresholds `json:"passes"`
	Err           error        `json:"-"` // recoverable reason for LowConfidence
}

// Detect finds the walking interval in velocity, sampled at timestamps.
//
// Ending a region takes a higher bar than starting one (EndFactor > 1), so a
// momentary slowdown mid-walk does not split it.
//
// The scan runs exactly twice. The first pass estimates peak velocity from
// every positive sample, which includes the approach and slowdown phases; the
// second re-estimates it from inside the first region only. The second
// estimate no longer depends on the phases that biased the first, so further
// passes would re-sample the same interval.
func Detect(velocity, timestamps []float64, cfg Config) Result {
	n := min(len(velocity), len(timestamps))
	whole := Region{Start: 0, End: max(0, n-1)}

	raw := velocity[:n]
	if len(signal.Positive(raw)) == 0 {
		return Result{Region: whole, LowConfidence: true, Err: ErrDegenerateVelocity}
	}

	smoothed := signal.MovingAverage(raw, cfg.SmoothWindow)
	positive := signal.Positive(smoothed)
	if len(positive) == 0 {
		// Isolated positive spikes averaged away. Nothing clears the
		// thresholds, so the scan below falls back to the whole sequence.
		positive = signal.Positive(raw)
	}

	var res Result
	th := thresholdsFrom(positive, cfg)
	res.Passes = append(res.Passes, th)
	candidates := scan(smoothed, th)

	best, ok := longest(candidates, timestamps, cfg.MinDuration)
	if !ok {
		widest, found := longest(candidates, timestamps, 0)
		if !found {
			widest = whole
		}
		res.Region = widest
		res.LowConfidence = true
		res.Err = ErrShortRegion
		return res
	}

	inside := signal.Positive(smoothed[best.Start : best.End+1])
	if len(inside) > 0 {
		th = thresholdsFrom(inside, cfg)
		res.Passes = append(res.Passes, th)
		if refined, ok := longest(scan(smoothed, th), timestamps, cfg.MinDuration); ok {
			best = refined
		}
	}

	res.Region = best
	return res
}

func thresholdsFrom(positive []float64, cfg Config) Thresholds {
	maxRV := signal.Percentile(positive, cfg.Percentile)
	start := maxRV * cfg.ThresholdPct / 100
	return Thresholds{
		MaxRV: maxRV,
		Start: start,
		End:   start * cfg.EndFactor,
	}
}

// scan opens a candidate when s rises above th.Start and closes it at the
// first sample below th.End. A candidate still open at the end of the signal
// closes on the last sample.
func scan(s []float64, th Thresholds) []Region {
	var out []Region
	walking := false
	start := 0
	for i, v := range s {
		if walking && v < th.End {
			out = append(out, Region{Start: start, End: i})
			walking = false
		}
		if !walking && v > th.Start {
			walking = true
			start = i
		}
	}
	if walking && start < len(s)-1 {
		out = append(out, Region{Start: start, End: len(s) - 1})
	}
	return out
}

// longest returns the candidate with the greatest duration of at least
// minDuration seconds. Ties go to the later candidate.
func longest(candidates []Region, ts []float64, minDuration float64) (Region, bool) {
	var best Region
	bestDur := -1.0
	for _, r := range candidates {
		if r.End <= r.Start {
			continue
		}
		d := ts[r.End] - ts[r.Start]
		if d < minDuration {
			continue
		}
		if d >= bestDur {
			best, bestDur = r, d
		}
	}
	return best, bestDur >= 0
}
