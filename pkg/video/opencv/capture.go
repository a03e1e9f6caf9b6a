// Package opencv provides a video.Source backed by OpenCV's VideoCapture.
package opencv

import (
	"fmt"
	"os"
	"sync"

	"github.com/teslashibe/go-walktest/pkg/video"
	"gocv.io/x/gocv"
)

// FileSource decodes frames from a video file.
// Sequential reads skip the seek; random reads seek directly.
type FileSource struct {
	capture *gocv.VideoCapture
	fps     float64
	count   int

	mu   sync.Mutex
	next int // index the decoder will produce on the next Read
	img  gocv.Mat
}

// Open opens path for decoding.
func Open(path string) (*FileSource, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", path)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open video: %s could not be opened", path)
	}

	return &FileSource{
		capture: capture,
		fps:     capture.Get(gocv.VideoCaptureFPS),
		count:   int(capture.Get(gocv.VideoCaptureFrameCount)),
		img:     gocv.NewMat(),
	}, nil
}

// FrameCount returns the container's reported frame count (may be 0).
func (s *FileSource) FrameCount() int { return s.count }

// FPS returns the container frame rate.
func (s *FileSource) FPS() float64 { return s.fps }

// ReadFrame seeks to index and returns the JPEG-encoded frame.
func (s *FileSource) ReadFrame(index int) (video.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 {
		return video.Frame{}, video.ErrEndOfStream
	}

	if index != s.next {
		s.capture.Set(gocv.VideoCapturePosFrames, float64(index))
	}

	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		s.next = -1
		return video.Frame{}, video.ErrEndOfStream
	}
	s.next = index + 1

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.img)
	if err != nil {
		return video.Frame{}, fmt.Errorf("encode frame %d: %w", index, err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	return video.Frame{
		Index:     index,
		Timestamp: video.Timestamp(index, s.fps),
		JPEG:      data,
	}, nil
}

// Close releases the decoder.
func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img.Close()
	return s.capture.Close()
}
