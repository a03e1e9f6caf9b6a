package video

import (
	"errors"
	"testing"
)

func TestEstimateFrameCount(t *testing.T) {
	tests := []struct {
		name     string
		reported int
		fps      float64
		assumed  float64
		want     int
	}{
		{"reported count wins", 300, 30, 30, 300},
		{"zero reported uses fps", 0, 30, 30, 900},
		{"negative reported uses fps", -1, 25, 10, 250},
		{"no fps", 0, 0, 30, 0},
		{"no duration", 0, 30, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateFrameCount(tt.reported, tt.fps, tt.assumed)
			if got != tt.want {
				t.Errorf("EstimateFrameCount(%d, %v, %v) = %d, want %d",
					tt.reported, tt.fps, tt.assumed, got, tt.want)
			}
		})
	}
}

func TestMemorySource(t *testing.T) {
	frames := make([]Frame, 4)
	src, err := NewMemorySource(frames, 20)
	if err != nil {
		t.Fatalf("NewMemorySource: %v", err)
	}

	if src.FrameCount() != 4 {
		t.Errorf("FrameCount = %d, want 4", src.FrameCount())
	}

	f, err := src.ReadFrame(3)
	if err != nil {
		t.Fatalf("ReadFrame(3): %v", err)
	}
	if f.Index != 3 || f.Timestamp != 0.15 {
		t.Errorf("frame 3 = {%d, %v}, want {3, 0.15}", f.Index, f.Timestamp)
	}

	if _, err := src.ReadFrame(4); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame(4) err = %v, want ErrEndOfStream", err)
	}
	if _, err := src.ReadFrame(-1); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("ReadFrame(-1) err = %v, want ErrEndOfStream", err)
	}
}

func TestNewMemorySource_InvalidFPS(t *testing.T) {
	if _, err := NewMemorySource(nil, 0); err == nil {
		t.Error("expected error for zero fps")
	}
}
