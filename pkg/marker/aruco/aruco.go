// Package aruco provides a marker.Detector backed by OpenCV's ArUco module.
package aruco

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-walktest/pkg/marker"
	"gocv.io/x/gocv"
)

// Dictionaries accepted by Config.Dictionary.
var dictionaries = map[string]gocv.ArucoDictionaryCode{
	"4x4_50":   gocv.ArucoDict4x4_50,
	"4x4_100":  gocv.ArucoDict4x4_100,
	"5x5_50":   gocv.ArucoDict5x5_50,
	"5x5_100":  gocv.ArucoDict5x5_100,
	"6x6_50":   gocv.ArucoDict6x6_50,
	"6x6_250":  gocv.ArucoDict6x6_250,
	"original": gocv.ArucoDictArucoOriginal,
}

// Config maps printed ArUco ids onto the two measurement markers.
type Config struct {
	Dictionary string
	StartID    int
	FinishID   int
}

// DefaultConfig returns the 4x4_50 dictionary with ids 0 (start) and 1 (finish).
func DefaultConfig() Config {
	return Config{
		Dictionary: "4x4_50",
		StartID:    0,
		FinishID:   1,
	}
}

// Detector finds the start and finish markers in a frame.
type Detector struct {
	detector gocv.ArucoDetector
	ids      map[int]marker.ID
	mu       sync.Mutex // Protects detection
}

// New builds a detector for cfg.
func New(cfg Config) (*Detector, error) {
	code, ok := dictionaries[cfg.Dictionary]
	if !ok {
		return nil, fmt.Errorf("unknown aruco dictionary %q", cfg.Dictionary)
	}
	if cfg.StartID == cfg.FinishID {
		return nil, fmt.Errorf("start and finish marker ids must differ, both %d", cfg.StartID)
	}

	dict := gocv.GetPredefinedDictionary(code)
	params := gocv.NewArucoDetectorParameters()

	return &Detector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		ids: map[int]marker.ID{
			cfg.StartID:  marker.Start,
			cfg.FinishID: marker.Finish,
		},
	}, nil
}

// Detect finds the start and finish markers in the JPEG image.
func (d *Detector) Detect(jpeg []byte) (map[marker.ID]marker.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	corners, ids, _ := d.detector.DetectMarkers(img)
	return d.collect(corners, ids), nil
}

// collect converts raw ArUco output into detections of the known markers.
// A marker reported twice in one frame keeps its larger instance.
func (d *Detector) collect(corners [][]gocv.Point2f, ids []int) map[marker.ID]marker.Detection {
	out := make(map[marker.ID]marker.Detection)
	for i, raw := range ids {
		id, ok := d.ids[raw]
		if !ok || i >= len(corners) {
			continue
		}

		pts := make([]marker.Point, len(corners[i]))
		for j, c := range corners[i] {
			pts[j] = marker.Point{X: float64(c.X), Y: float64(c.Y)}
		}

		det := marker.Detection{
			ID:     id,
			Center: marker.CenterOf(pts),
			Size:   marker.SizeFromCorners(pts),
		}
		if prev, seen := out[id]; seen && prev.Size >= det.Size {
			continue
		}
		out[id] = det
	}
	return out
}

// Close releases the detector resources
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
