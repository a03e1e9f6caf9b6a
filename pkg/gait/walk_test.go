package gait

import (
	"io"
	"log/slog"
	"math"
	"strconv"

	"github.com/teslashibe/go-walktest/pkg/marker"
	"github.com/teslashibe/go-walktest/pkg/pose"
	"github.com/teslashibe/go-walktest/pkg/signal"
	"github.com/teslashibe/go-walktest/pkg/video"
)

// Synthetic hallway: camera 14 m behind the zero point, f = 1000 px. The
// subject stands at the zero point for 3 s, walks 14 m at 1.25 m/s and
// stands again for 3 s. The 2 m and 12 m lines are crossed 8.0 s apart.
const (
	testFPS      = 30.0
	testDCam     = 14.0
	testFocal    = 1000.0
	testHeight   = 1.70
	walkSpeed    = 1.25
	standBefore  = 3.0
	walkDistance = 14.0
	standAfter   = 3.0

	expectedNear = standBefore + 2/walkSpeed  // 4.6 s
	expectedFar  = standBefore + 12/walkSpeed // 12.6 s
)

func walkDuration() float64 { return walkDistance / walkSpeed }

func clipLength() int {
	return int(math.Round((standBefore + walkDuration() + standAfter) * testFPS))
}

func distanceAt(t float64) float64 {
	switch {
	case t <= standBefore:
		return 0
	case t >= standBefore+walkDuration():
		return walkDistance
	default:
		return walkSpeed * (t - standBefore)
	}
}

func heightAt(t float64) float64 {
	return testFocal * testHeight / (distanceAt(t) + testDCam)
}

func markerSizeAt(d float64) float64 {
	return testFocal * 0.25 / (d + testDCam)
}

func syntheticWalk() []signal.Sample {
	n := clipLength()
	out := make([]signal.Sample, n)
	for i := range out {
		t := video.Timestamp(i, testFPS)
		out[i] = signal.Sample{FrameIndex: i, Timestamp: t, Height: heightAt(t), HasHeight: true}
	}
	return out
}

// lineToLineWalk stands on the 2 m line for 2 s, walks to the 12 m line in
// 8 s and stands there for 2 s.
func lineToLineWalk() []signal.Sample {
	const stand, walk = 2.0, 8.0
	n := int(math.Round((2*stand + walk) * testFPS))
	out := make([]signal.Sample, n)
	for i := range out {
		t := video.Timestamp(i, testFPS)
		d := 2.0
		switch {
		case t >= stand+walk:
			d = 12
		case t > stand:
			d += 10 * (t - stand) / walk
		}
		h := testFocal * testHeight / (d + testDCam)
		out[i] = signal.Sample{FrameIndex: i, Timestamp: t, Height: h, HasHeight: true}
	}
	return out
}

func observations(near, far float64) map[marker.ID]marker.Observation {
	return map[marker.ID]marker.Observation{
		marker.Start:  {ID: marker.Start, MedianSize: near, Count: 15},
		marker.Finish: {ID: marker.Finish, MedianSize: far, Count: 15},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubEstimator reads the frame index out of the frame bytes and returns
// landmarks for the synthetic walk. Every skipEvery-th frame has nobody in it.
type stubEstimator struct {
	skipEvery int
	calls     int
}

func (e *stubEstimator) Estimate(jpeg []byte) (*pose.Landmarks, error) {
	e.calls++
	i, err := strconv.Atoi(string(jpeg))
	if err != nil {
		return nil, err
	}
	if e.skipEvery > 0 && i > 0 && i%e.skipEvery == 0 {
		return nil, nil
	}

	h := heightAt(video.Timestamp(i, testFPS))
	top := 100.0
	lm := &pose.Landmarks{Score: 0.9}
	lm.Points[pose.Nose] = pose.Point{X: 320, Y: top, Visibility: 0.9}
	lm.Points[pose.LeftShoulder] = pose.Point{X: 300, Y: top + 0.15*h, Visibility: 0.9}
	lm.Points[pose.RightShoulder] = pose.Point{X: 340, Y: top + 0.15*h, Visibility: 0.9}
	lm.Points[pose.LeftAnkle] = pose.Point{X: 310, Y: top + h, Visibility: 0.9}
	lm.Points[pose.RightAnkle] = pose.Point{X: 330, Y: top + h, Visibility: 0.9}
	return lm, nil
}

func (e *stubEstimator) Close() error { return nil }

// stubDetector sees both markers in every frame.
type stubDetector struct {
	near, far float64
	calls     int
}

func (d *stubDetector) Detect(jpeg []byte) (map[marker.ID]marker.Detection, error) {
	d.calls++
	if d.near <= 0 {
		return map[marker.ID]marker.Detection{}, nil
	}
	return map[marker.ID]marker.Detection{
		marker.Start:  {ID: marker.Start, Center: marker.Point{X: 200, Y: 400}, Size: d.near},
		marker.Finish: {ID: marker.Finish, Center: marker.Point{X: 330, Y: 300}, Size: d.far},
	}, nil
}

func (d *stubDetector) Close() error { return nil }

func syntheticSource(n int) *video.MemorySource {
	frames := make([]video.Frame, n)
	for i := range frames {
		frames[i] = video.Frame{JPEG: []byte(strconv.Itoa(i))}
	}
	src, err := video.NewMemorySource(frames, testFPS)
	if err != nil {
		panic(err)
	}
	return src
}

// unreportedSource hides its frame count, like a container without one.
type unreportedSource struct {
	*video.MemorySource
}

func (unreportedSource) FrameCount() int { return 0 }

// rateSource reports a fixed nominal frame rate.
type rateSource struct {
	*video.MemorySource
	fps float64
}

func (s rateSource) FPS() float64 { return s.fps }
