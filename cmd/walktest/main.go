// walktest measures a 10-meter walk test from a single video.
//
// Usage:
//
//	walktest -video walk.mp4 -height 1.64 [-profile parkinsons]
//
// The report is printed to stdout as JSON; logs go to stderr.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/teslashibe/go-walktest/internal/config"
	"github.com/teslashibe/go-walktest/internal/log"
	"github.com/teslashibe/go-walktest/internal/metrics"
	"github.com/teslashibe/go-walktest/pkg/gait"
	"github.com/teslashibe/go-walktest/pkg/marker/aruco"
	"github.com/teslashibe/go-walktest/pkg/pose/yolo"
	"github.com/teslashibe/go-walktest/pkg/video"
	"github.com/teslashibe/go-walktest/pkg/video/opencv"
)

// options holds the parsed command line.
type options struct {
	Video       string
	Height      float64
	Profile     string
	Profiles    string
	PoseModel   string
	ArucoDict   string
	LogLevel    string
	MetricsFile string
	NoMarkers   bool
	Quiet       bool
}

// parseFlags parses args into options. Environment variables supply defaults.
func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("walktest", flag.ContinueOnError)
	fs.StringVar(&o.Video, "video", "", "Path to the walk-test video (required)")
	fs.Float64Var(&o.Height, "height", 0, "Patient height in meters (default from config or profile)")
	fs.StringVar(&o.Profile, "profile", "", "Diagnosis profile to apply")
	fs.StringVar(&o.Profiles, "profiles", config.ProfilesPath(), "YAML profile file (or WALKTEST_PROFILES)")
	fs.StringVar(&o.PoseModel, "pose-model", config.PoseModelPath(config.DefaultPoseModel), "YOLOv8-pose ONNX model (or WALKTEST_POSE_MODEL)")
	fs.StringVar(&o.ArucoDict, "aruco-dict", config.MarkerDictionary(), "ArUco dictionary (or WALKTEST_ARUCO_DICT)")
	fs.StringVar(&o.LogLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error")
	fs.StringVar(&o.MetricsFile, "metrics-file", config.MetricsFile(), "Write Prometheus textfile metrics here")
	fs.BoolVar(&o.NoMarkers, "no-markers", false, "Skip marker detection and use proportional calibration")
	fs.BoolVar(&o.Quiet, "quiet", false, "Hide the progress bar")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.Video == "" {
		return o, errors.New("-video is required")
	}
	if o.Height < 0 {
		return o, fmt.Errorf("-height must be positive, got %v", o.Height)
	}
	return o, nil
}

// buildConfig resolves defaults, the optional profile and flag overrides
// into one validated Config.
func buildConfig(o options) (gait.Config, error) {
	cfg := gait.DefaultConfig()

	if o.Profile != "" {
		if o.Profiles == "" {
			return cfg, fmt.Errorf("-profile %q needs -profiles or WALKTEST_PROFILES", o.Profile)
		}
		profiles, err := gait.LoadProfiles(o.Profiles)
		if err != nil {
			return cfg, err
		}
		if cfg, err = profiles.Resolve(o.Profile, cfg); err != nil {
			return cfg, err
		}
	}

	if o.Height > 0 {
		cfg.PatientHeight = o.Height
	}
	return cfg, cfg.Validate()
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	log.Init(o.LogLevel)

	if err := run(o, os.Stdout); err != nil {
		log.Error("walk test failed", "video", o.Video, "error", err)
		os.Exit(1)
	}
}

func run(o options, stdout io.Writer) error {
	cfg, err := buildConfig(o)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var rec *metrics.Recorder
	if o.MetricsFile != "" {
		rec = metrics.NewRecorder()
		defer func() {
			if err := rec.WriteTextfile(o.MetricsFile); err != nil {
				log.Warn("metrics not written", "path", o.MetricsFile, "error", err)
			}
		}()
	}

	src, err := opencv.Open(o.Video)
	if err != nil {
		return err
	}
	defer src.Close()

	poseCfg := yolo.DefaultConfig()
	poseCfg.ModelPath = o.PoseModel
	estimator, err := yolo.New(poseCfg)
	if err != nil {
		return fmt.Errorf("pose model: %w", err)
	}
	defer estimator.Close()

	var analyzer *gait.Analyzer
	var opts []gait.Option

	total := video.EstimateFrameCount(src.FrameCount(), src.FPS(), cfg.AssumedDuration)
	var bar *pb.ProgressBar
	if !o.Quiet {
		bar = pb.New(total).SetWriter(os.Stderr).Start()
		opts = append(opts, gait.WithProgress(func(done, _ int) {
			if int64(done) > bar.Total() {
				bar.SetTotal(int64(done))
			}
			bar.SetCurrent(int64(done))
		}))
	}

	if o.NoMarkers {
		// A nil detector makes every run proportional.
		analyzer, err = gait.New(cfg, estimator, nil, opts...)
	} else {
		detector, derr := aruco.New(aruco.Config{
			Dictionary: o.ArucoDict,
			StartID:    cfg.StartMarkerID,
			FinishID:   cfg.FinishMarkerID,
		})
		if derr != nil {
			return fmt.Errorf("marker detector: %w", derr)
		}
		defer detector.Close()
		analyzer, err = gait.New(cfg, estimator, detector, opts...)
	}
	if err != nil {
		return err
	}

	log.Info("analyzing walk test",
		"video", o.Video,
		"frames", total,
		"fps", src.FPS(),
		"patient_height_m", cfg.PatientHeight,
		"profile", o.Profile,
	)

	start := time.Now()
	rep, err := analyzer.Analyze(src)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		rec.ObserveFailure(err, time.Since(start))
		return err
	}
	rec.Observe(rep, time.Since(start))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
