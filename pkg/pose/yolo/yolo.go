// Package yolo provides a pose.Estimator backed by a YOLOv8-pose ONNX model.
package yolo

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-walktest/pkg/pose"
	"gocv.io/x/gocv"
)

// YOLOv8-pose output rows: 4 box + 1 score + 17 keypoints × (x, y, conf).
const (
	scoreRow     = 4
	keypointRow0 = 5
	outputRows   = keypointRow0 + pose.NumLandmarks*3
)

// Config holds estimator configuration
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	InputWidth       int
	InputHeight      int
}

// DefaultConfig returns production defaults for YOLOv8n-pose
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n-pose.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Estimator runs YOLOv8-pose through OpenCV's dnn module.
type Estimator struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex // Protects inference
	inputSize image.Point
}

// New loads the model at cfg.ModelPath.
func New(cfg Config) (*Estimator, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load pose model from %s", cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Estimator{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Estimate returns the landmarks of the highest-scoring person in the image.
func (e *Estimator) Estimate(jpeg []byte) (*pose.Landmarks, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, e.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	// [1, 56, N] -> [56, N]
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] != outputRows {
		return nil, fmt.Errorf("unexpected pose output shape %v", sizes)
	}
	flat := output.Reshape(1, sizes[1])
	defer flat.Close()

	data, err := flat.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read pose output: %w", err)
	}

	scaleX := float64(img.Cols()) / float64(e.config.InputWidth)
	scaleY := float64(img.Rows()) / float64(e.config.InputHeight)

	return parseBest(data, sizes[2], e.config.ConfidenceThresh, scaleX, scaleY), nil
}

// parseBest picks the highest-scoring candidate column and rescales its
// keypoints to image pixels. Returns nil when no candidate clears thresh.
func parseBest(data []float32, candidates int, thresh float32, scaleX, scaleY float64) *pose.Landmarks {
	best := -1
	bestScore := thresh
	for i := 0; i < candidates; i++ {
		score := data[scoreRow*candidates+i]
		if score >= bestScore {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	lm := &pose.Landmarks{Score: float64(bestScore)}
	for k := 0; k < pose.NumLandmarks; k++ {
		row := keypointRow0 + k*3
		lm.Points[k] = pose.Point{
			X:          float64(data[row*candidates+best]) * scaleX,
			Y:          float64(data[(row+1)*candidates+best]) * scaleY,
			Visibility: float64(data[(row+2)*candidates+best]),
		}
	}
	return lm
}

// Close releases the network.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
