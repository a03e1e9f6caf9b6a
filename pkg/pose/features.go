package pose

import "math"

// Defaults for feature extraction.
const (
	DefaultHeightNoiseFloor = 30.0 // pixels
	DefaultMinLandmarks     = 4
)

// Which landmark stood in for the head or the feet.
const (
	SourceNone     = ""
	SourceNose     = "nose"
	SourceShoulder = "shoulders"
	SourceAnkle    = "ankles"
	SourceHip      = "hips"
)

// Features is what one frame contributes to the walk test.
type Features struct {
	// Height is |foot_y - head_y| in pixels. Valid only when HasHeight.
	Height    float64 `json:"height"`
	HasHeight bool    `json:"has_height"`

	HeadSource string `json:"head_source"`
	FootSource string `json:"foot_source"`

	// Auxiliary angles for surrounding analyses, in degrees.
	ShoulderTilt float64 `json:"shoulder_tilt"`
	HipTilt      float64 `json:"hip_tilt"`
}

// Extractor computes Features from landmarks.
type Extractor struct {
	NoiseFloor   float64
	MinLandmarks int
}

// NewExtractor returns an Extractor with the given limits. Non-positive
// values fall back to the defaults.
func NewExtractor(noiseFloor float64, minLandmarks int) Extractor {
	if noiseFloor <= 0 {
		noiseFloor = DefaultHeightNoiseFloor
	}
	if minLandmarks <= 0 {
		minLandmarks = DefaultMinLandmarks
	}
	return Extractor{NoiseFloor: noiseFloor, MinLandmarks: minLandmarks}
}

// Extract computes the apparent body height and tilt angles for one frame.
// A nil landmark set yields Features with HasHeight false.
func (e Extractor) Extract(lm *Landmarks) Features {
	var f Features
	if lm == nil {
		return f
	}

	f.ShoulderTilt = tilt(lm, LeftShoulder, RightShoulder)
	f.HipTilt = tilt(lm, LeftHip, RightHip)

	if lm.Count() < e.MinLandmarks {
		return f
	}

	head, headSrc, ok := headProxy(lm)
	if !ok {
		return f
	}
	foot, footSrc, ok := footProxy(lm)
	if !ok {
		return f
	}

	f.HeadSource = headSrc
	f.FootSource = footSrc

	h := math.Abs(foot.Y - head.Y)
	if h < e.NoiseFloor {
		return f
	}
	f.Height = h
	f.HasHeight = true
	return f
}

func headProxy(lm *Landmarks) (Point, string, bool) {
	if p := lm.Points[Nose]; p.Present() {
		return p, SourceNose, true
	}
	if p, ok := lm.midpoint(LeftShoulder, RightShoulder); ok {
		return p, SourceShoulder, true
	}
	return Point{}, SourceNone, false
}

func footProxy(lm *Landmarks) (Point, string, bool) {
	if p, ok := lm.midpoint(LeftAnkle, RightAnkle); ok {
		return p, SourceAnkle, true
	}
	if p, ok := lm.midpoint(LeftHip, RightHip); ok {
		return p, SourceHip, true
	}
	return Point{}, SourceNone, false
}

// tilt returns the angle of the left-right segment against the horizontal in
// [-90, 90] degrees, independent of which way the subject faces.
// Returns 0 when either point is missing.
func tilt(lm *Landmarks, left, right int) float64 {
	l, r := lm.Points[left], lm.Points[right]
	if !l.Present() || !r.Present() {
		return 0
	}
	return math.Atan2(r.Y-l.Y, math.Abs(r.X-l.X)) * 180 / math.Pi
}
