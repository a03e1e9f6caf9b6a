// Package pose turns body landmarks into per-frame walk-test features.
package pose

// Keypoint indices following the COCO-17 convention used by YOLOv8-pose.
const (
	Nose          = 0
	LeftEye       = 1
	RightEye      = 2
	LeftEar       = 3
	RightEar      = 4
	LeftShoulder  = 5
	RightShoulder = 6
	LeftElbow     = 7
	RightElbow    = 8
	LeftWrist     = 9
	RightWrist    = 10
	LeftHip       = 11
	RightHip      = 12
	LeftKnee      = 13
	RightKnee     = 14
	LeftAnkle     = 15
	RightAnkle    = 16
	NumLandmarks  = 17
)

// MinVisibility is the keypoint confidence below which a point counts as absent.
const MinVisibility = 0.3

// Point is a 2D landmark in image pixels.
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"` // 0-1 keypoint confidence
}

// Present reports whether the detector located this point.
// A zero point is the detector's "not found" marker.
func (p Point) Present() bool {
	if p.X == 0 && p.Y == 0 {
		return false
	}
	return p.Visibility >= MinVisibility
}

// Landmarks is the fixed-size landmark set for one person in one frame.
type Landmarks struct {
	Points [NumLandmarks]Point `json:"points"`
	Score  float64             `json:"score"`
}

// Count returns the number of present landmarks.
func (l *Landmarks) Count() int {
	n := 0
	for _, p := range l.Points {
		if p.Present() {
			n++
		}
	}
	return n
}

// midpoint returns the midpoint of a and b when both are present.
func (l *Landmarks) midpoint(a, b int) (Point, bool) {
	pa, pb := l.Points[a], l.Points[b]
	if !pa.Present() || !pb.Present() {
		return Point{}, false
	}
	return Point{
		X:          (pa.X + pb.X) / 2,
		Y:          (pa.Y + pb.Y) / 2,
		Visibility: (pa.Visibility + pb.Visibility) / 2,
	}, true
}

// Estimator is the interface for pose-estimation backends.
type Estimator interface {
	// Estimate returns the landmarks of the most prominent person in the
	// JPEG image, or nil when nobody is detected.
	Estimate(jpeg []byte) (*Landmarks, error)

	// Close releases resources
	Close() error
}
