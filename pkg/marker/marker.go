// Package marker finds the two fiducial markers that bound the measured walk
// and aggregates their apparent sizes across a bookend sample of frames.
package marker

import (
	"fmt"
	"math"

	"github.com/teslashibe/go-walktest/pkg/signal"
)

// DefaultMinDetections is how often a marker must be seen to count.
const DefaultMinDetections = 3

// ID identifies one of the two measurement markers.
type ID int

const (
	// Start is the near marker, 2 m from the zero point.
	Start ID = iota
	// Finish is the far marker, 12 m from the zero point.
	Finish
)

// String returns the marker name.
func (id ID) String() string {
	switch id {
	case Start:
		return "START"
	case Finish:
		return "FINISH"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// MarshalText encodes the marker name, so maps keyed by ID serialize cleanly.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Point is a pixel coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one marker seen in one frame.
type Detection struct {
	ID     ID      `json:"id"`
	Center Point   `json:"center"`
	Size   float64 `json:"size"` // pixels
}

// Observation aggregates every Detection of one marker.
type Observation struct {
	ID           ID      `json:"id"`
	MedianCenter Point   `json:"median_center"`
	MedianSize   float64 `json:"median_size"`
	Count        int     `json:"detection_count"`
}

// Detector is the interface for fiducial-marker backends.
type Detector interface {
	// Detect returns the markers visible in the JPEG image.
	// An empty map means none were found.
	Detect(jpeg []byte) (map[ID]Detection, error)

	// Close releases resources
	Close() error
}

// SizeFromCorners returns the larger of the horizontal and vertical spans of
// a marker's corners.
func SizeFromCorners(corners []Point) float64 {
	if len(corners) == 0 {
		return 0
	}
	minX, maxX := corners[0].X, corners[0].X
	minY, maxY := corners[0].Y, corners[0].Y
	for _, c := range corners[1:] {
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		minY = math.Min(minY, c.Y)
		maxY = math.Max(maxY, c.Y)
	}
	return math.Max(maxX-minX, maxY-minY)
}

// CenterOf returns the mean of the corners.
func CenterOf(corners []Point) Point {
	if len(corners) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range corners {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(corners))
	return Point{X: c.X / n, Y: c.Y / n}
}

// SampleFrames returns the bookend frame indices for marker detection: the
// first n and last n frames plus a sparse stride through the middle.
// The walker is assumed to occlude markers only mid-clip. Indices are sorted
// and unique. A clip of at most 2n frames is sampled in full.
func SampleFrames(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if total <= 2*n {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}

	out := make([]int, 0, 2*n+n/2+1)
	for i := 0; i < n; i++ {
		out = append(out, i)
	}

	middle := total - 2*n
	if count := n / 2; count > 0 {
		stride := middle / (count + 1)
		if stride < 1 {
			stride = 1
		}
		for i := n + stride; i < total-n && len(out) < n+count; i += stride {
			out = append(out, i)
		}
	}

	for i := total - n; i < total; i++ {
		out = append(out, i)
	}
	return out
}

// Aggregate reduces per-frame detections to one Observation per marker using
// the median size and center. Markers seen fewer than minDetections times are
// dropped.
func Aggregate(frames []map[ID]Detection, minDetections int) map[ID]Observation {
	if minDetections <= 0 {
		minDetections = DefaultMinDetections
	}

	sizes := make(map[ID][]float64)
	xs := make(map[ID][]float64)
	ys := make(map[ID][]float64)
	for _, dets := range frames {
		for id, d := range dets {
			sizes[id] = append(sizes[id], d.Size)
			xs[id] = append(xs[id], d.Center.X)
			ys[id] = append(ys[id], d.Center.Y)
		}
	}

	out := make(map[ID]Observation)
	for id, s := range sizes {
		if len(s) < minDetections {
			continue
		}
		out[id] = Observation{
			ID:           id,
			MedianSize:   signal.Median(s),
			MedianCenter: Point{X: signal.Median(xs[id]), Y: signal.Median(ys[id])},
			Count:        len(s),
		}
	}
	return out
}
