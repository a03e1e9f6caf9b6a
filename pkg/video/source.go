// Package video defines the frame source contract used by the walk-test engine.
package video

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned by ReadFrame once the source has no frame at the
// requested index.
var ErrEndOfStream = errors.New("video: end of stream")

// DefaultAssumedDuration is used to estimate the frame count when a container
// reports none.
const DefaultAssumedDuration = 30.0

// Frame is one decoded video frame.
// JPEG holds the encoded image, matching the byte contract of the detectors.
type Frame struct {
	Index     int
	Timestamp float64 // seconds from the start of the clip
	JPEG      []byte
}

// Source is a seekable frame source.
type Source interface {
	// FrameCount is the container's reported frame count. It may be 0 or
	// wrong; use EstimateFrameCount before relying on it.
	FrameCount() int

	// FPS is the nominal frame rate.
	FPS() float64

	// ReadFrame seeks to index and decodes that frame.
	// Returns ErrEndOfStream past the last frame.
	ReadFrame(index int) (Frame, error)
}

// EstimateFrameCount returns reported when it is usable, otherwise
// fps × assumedDuration. Returns 0 when neither is usable.
func EstimateFrameCount(reported int, fps, assumedDuration float64) int {
	if reported > 0 {
		return reported
	}
	if fps <= 0 || assumedDuration <= 0 {
		return 0
	}
	return int(fps * assumedDuration)
}

// Timestamp converts a frame index into seconds.
func Timestamp(index int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(index) / fps
}

// MemorySource replays frames already held in memory.
type MemorySource struct {
	frames []Frame
	fps    float64
}

// NewMemorySource builds a source over frames. Frame indices are reassigned
// to their slice positions and timestamps derived from fps.
func NewMemorySource(frames []Frame, fps float64) (*MemorySource, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("video: fps must be positive, got %v", fps)
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		f.Index = i
		f.Timestamp = Timestamp(i, fps)
		out[i] = f
	}
	return &MemorySource{frames: out, fps: fps}, nil
}

// FrameCount returns the number of frames held.
func (m *MemorySource) FrameCount() int { return len(m.frames) }

// FPS returns the replay frame rate.
func (m *MemorySource) FPS() float64 { return m.fps }

// ReadFrame returns the frame at index.
func (m *MemorySource) ReadFrame(index int) (Frame, error) {
	if index < 0 || index >= len(m.frames) {
		return Frame{}, ErrEndOfStream
	}
	return m.frames[index], nil
}
