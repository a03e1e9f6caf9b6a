// Package timing maps the walk region onto the times at which the subject
// crossed the near and far measurement boundaries.
package timing

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/teslashibe/go-walktest/pkg/calibration"
	"github.com/teslashibe/go-walktest/pkg/region"
	"github.com/teslashibe/go-walktest/pkg/signal"
)

// ErrCrossingNotFound is returned when a target inverse height is never
// crossed inside the search window.
var ErrCrossingNotFound = errors.New("timing: boundary crossing not found")

// Tuning constants.
const (
	DefaultStartFraction = 0.60
	MinSearchMargin      = 30 // samples
	flatEpsilon          = 1e-12

	// A sample within reachTolerance·|target| of a target has reached it.
	// Smoothing leaves plateaus a few ULP off the level they rest on.
	reachTolerance = 1e-9
)

// Direction is the walking direction relative to the camera.
type Direction int

const (
	// Away: inverse height increases as the subject walks.
	Away Direction = iota
	// Toward: inverse height decreases.
	Toward
)

// String returns the direction name.
func (d Direction) String() string {
	if d == Toward {
		return "toward"
	}
	return "away"
}

// MarshalText encodes the direction name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes "away" or "toward".
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "away", "":
		*d = Away
	case "toward":
		*d = Toward
	default:
		return fmt.Errorf("timing: unknown direction %q", b)
	}
	return nil
}

// Mapping is the result of one time-mapping strategy.
type Mapping struct {
	Method      calibration.Method `json:"method"`
	TimeAtNear  float64            `json:"time_at_near_marker"`
	TimeAtFar   float64            `json:"time_at_far_marker"`
	RawWalkTime float64            `json:"raw_walk_time"`
	TargetNear  float64            `json:"target_inv_h_near"`
	TargetFar   float64            `json:"target_inv_h_far,omitempty"`

	// Approximate is set when the proportional near crossing could not be
	// interpolated and the region start was used instead.
	Approximate bool `json:"approximate,omitempty"`

	// Extrapolated is set when a boundary the subject stood on was placed by
	// a line fitted through the walk.
	Extrapolated bool `json:"extrapolated,omitempty"`
}

// Crossing returns the interpolated time of the first crossing of target by
// v between indices from and to (inclusive), scanning forward. Away matches a
// rising crossing, Toward a falling one. Flat segments are skipped. A sample
// within rounding of target counts as reaching it.
func Crossing(ts, v []float64, from, to int, target float64, dir Direction) (float64, bool) {
	h, ok := locate(ts, v, from, to, target, dir)
	return h.t, ok
}

// hit is one located crossing.
type hit struct {
	t float64
	// resting is set when the series sits flat on target beside the
	// crossing, as when the subject stands on the line.
	resting bool
}

func locate(ts, v []float64, from, to int, target float64, dir Direction) (hit, bool) {
	from = max(from, 0)
	to = min(to, len(v)-1, len(ts)-1)
	tol := reachTolerance * math.Abs(target)
	for i := from + 1; i <= to; i++ {
		v0, v1 := v[i-1], v[i]
		if flat(v0, v1) {
			continue
		}
		var bracketed bool
		if dir == Away {
			bracketed = v0 <= target+tol && target-tol <= v1
		} else {
			bracketed = v0 >= target-tol && target+tol >= v1
		}
		if !bracketed {
			continue
		}

		frac := math.Min(math.Max((target-v0)/(v1-v0), 0), 1)
		t0, t1 := ts[i-1], ts[i]
		h := hit{t: t0 + frac*(t1-t0)}

		reached := func(x float64) bool { return math.Abs(x-target) <= tol }
		h.resting = (reached(v0) && i >= 2 && flat(v[i-2], v0)) ||
			(reached(v1) && i+1 < len(v) && flat(v1, v[i+1]))
		return h, true
	}
	return hit{}, false
}

func flat(a, b float64) bool {
	return math.Abs(b-a) < flatEpsilon
}

// rampFit fits v = alpha + beta·t through the samples strictly between t0
// and t1.
func rampFit(ts, v []float64, t0, t1 float64) (alpha, beta float64, ok bool) {
	var xs, ys []float64
	for i, t := range ts {
		if t > t0 && t < t1 && i < len(v) {
			xs = append(xs, t)
			ys = append(ys, v[i])
		}
	}
	if len(xs) < 2 {
		return 0, 0, false
	}
	alpha, beta = stat.LinearRegression(xs, ys, nil, false)
	return alpha, beta, beta != 0 && !math.IsNaN(beta)
}

// SearchWindow widens r by max(MinSearchMargin, len/4) samples on each side,
// clipped to [0, n-1].
func SearchWindow(r region.Region, n int) (from, to int) {
	margin := max(MinSearchMargin, r.Len()/4)
	return max(0, r.Start-margin), min(n-1, r.End+margin)
}

// MapAruco finds the crossings of the inverse heights the calibrated model
// predicts at the near and far boundaries.
func MapAruco(cal *calibration.Aruco, s *signal.Series, r region.Region, dir Direction) (Mapping, error) {
	if cal == nil || !cal.Valid {
		return Mapping{}, fmt.Errorf("timing: aruco mapping needs a valid calibration")
	}

	m := Mapping{
		Method:     calibration.MethodAruco,
		TargetNear: cal.ExpectedInverseHeightAt(calibration.NearDistance),
		TargetFar:  cal.ExpectedInverseHeightAt(calibration.FarDistance),
	}

	from, to := SearchWindow(r, s.Len())

	nearHit, ok := locate(s.Timestamps, s.InvHeight, from, to, m.TargetNear, dir)
	if !ok {
		return m, fmt.Errorf("%w: near target %.6f in samples [%d, %d]", ErrCrossingNotFound, m.TargetNear, from, to)
	}
	farHit, ok := locate(s.Timestamps, s.InvHeight, from, to, m.TargetFar, dir)
	if !ok {
		return m, fmt.Errorf("%w: far target %.6f in samples [%d, %d]", ErrCrossingNotFound, m.TargetFar, from, to)
	}
	near, far := nearHit.t, farHit.t
	if far <= near {
		return m, fmt.Errorf("%w: far boundary at %.3fs not after near boundary at %.3fs",
			ErrCrossingNotFound, far, near)
	}

	// Smoothing rounds the corner where a standing phase meets the walk, so
	// a subject standing on a line leaves or reaches it half a window away
	// from the true time. Place such boundaries on the walk's fitted line.
	if nearHit.resting || farHit.resting {
		alpha, beta, fit := rampFit(s.Timestamps, s.InvHeight, near, far)
		if fit && (beta > 0) == (dir == Away) {
			n, f := near, far
			if nearHit.resting {
				n = (m.TargetNear - alpha) / beta
			}
			if farHit.resting {
				f = (m.TargetFar - alpha) / beta
			}
			if f > n {
				near, far = n, f
				m.Extrapolated = true
			}
		}
	}

	m.TimeAtNear = near
	m.TimeAtFar = far
	m.RawWalkTime = far - near
	return m, nil
}

// MapProportional places the near boundary at startFraction of the region's
// inverse-height rise and takes the region end as the far boundary.
func MapProportional(s *signal.Series, r region.Region, startFraction float64) Mapping {
	inv := s.InvHeight
	start, end := inv[r.Start], inv[r.End]

	m := Mapping{
		Method:     calibration.MethodProportional,
		TargetNear: start + startFraction*(end-start),
		TimeAtFar:  s.Timestamps[r.End],
	}

	dir := Away
	if end < start {
		dir = Toward
	}

	near, ok := Crossing(s.Timestamps, inv, r.Start, r.End, m.TargetNear, dir)
	if !ok {
		near = s.Timestamps[r.Start]
		m.Approximate = true
	}

	m.TimeAtNear = near
	m.RawWalkTime = m.TimeAtFar - near
	return m
}
