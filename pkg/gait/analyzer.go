package gait

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/teslashibe/go-walktest/internal/log"
	"github.com/teslashibe/go-walktest/pkg/calibration"
	"github.com/teslashibe/go-walktest/pkg/marker"
	"github.com/teslashibe/go-walktest/pkg/pose"
	"github.com/teslashibe/go-walktest/pkg/region"
	"github.com/teslashibe/go-walktest/pkg/signal"
	"github.com/teslashibe/go-walktest/pkg/timing"
	"github.com/teslashibe/go-walktest/pkg/video"
)

// maxReadErrors is how many consecutive undecodable frames end the dense pass.
const maxReadErrors = 30

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger. Default: the package-wide logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithProgress registers a callback invoked after each frame of the dense
// pass. total is the estimated frame count and may be exceeded.
func WithProgress(fn func(done, total int)) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// Analyzer runs walk-test analyses. It holds no per-run state and may be
// reused sequentially; the backends it wraps are not required to be
// goroutine-safe.
type Analyzer struct {
	cfg       Config
	estimator pose.Estimator
	detector  marker.Detector
	extractor pose.Extractor
	logger    *slog.Logger
	progress  func(done, total int)
}

// New returns an Analyzer. detector may be nil, in which case every run
// uses proportional calibration.
func New(cfg Config, estimator pose.Estimator, detector marker.Detector, opts ...Option) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if estimator == nil {
		return nil, errors.New("gait: pose estimator required")
	}

	a := &Analyzer{
		cfg:       cfg,
		estimator: estimator,
		detector:  detector,
		extractor: pose.NewExtractor(cfg.HeightNoiseFloor, cfg.MinLandmarks),
		logger:    log.L(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Config returns the configuration the Analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

// Analyze measures the walk recorded in src. It reads the bookend frames for
// markers, then every frame for heights.
//
// The only error is fatal: too few usable frames, or an unusable source.
// Every other failure degrades the result and is listed in
// Report.Diagnostics.Fallbacks.
func (a *Analyzer) Analyze(src video.Source) (*Report, error) {
	runID := uuid.NewString()
	logger := a.logger.With("run_id", runID)

	fps := src.FPS()
	if fps <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	total := video.EstimateFrameCount(src.FrameCount(), fps, a.cfg.AssumedDuration)
	if src.FrameCount() <= 0 {
		logger.Warn("frame count unreported, estimating", "fps", fps, "estimate", total)
	}

	obs, sampled := a.markerPass(src, total, logger)
	samples := a.heightPass(src, total, logger)

	rep, err := a.run(runID, samples, obs, logger)
	if err != nil {
		return nil, err
	}
	rep.Diagnostics.MarkerSampled = sampled
	return rep, nil
}

// AnalyzeSamples runs the timing engine on heights and marker observations
// extracted elsewhere. samples must be in increasing timestamp order.
func (a *Analyzer) AnalyzeSamples(samples []signal.Sample, obs map[marker.ID]marker.Observation) (*Report, error) {
	runID := uuid.NewString()
	return a.run(runID, samples, obs, a.logger.With("run_id", runID))
}

// markerPass detects markers on the bookend frames and aggregates them.
func (a *Analyzer) markerPass(src video.Source, total int, logger *slog.Logger) (map[marker.ID]marker.Observation, int) {
	if a.detector == nil {
		return nil, 0
	}

	indices := marker.SampleFrames(total, a.cfg.MarkerSampleSize)
	var frames []map[marker.ID]marker.Detection
	sampled := 0
	for _, idx := range indices {
		frame, err := src.ReadFrame(idx)
		if errors.Is(err, video.ErrEndOfStream) {
			continue
		}
		if err != nil {
			logger.Debug("marker frame unreadable", "frame", idx, "error", err)
			continue
		}
		sampled++

		dets, err := a.detector.Detect(frame.JPEG)
		if err != nil {
			logger.Debug("marker detection failed", "frame", idx, "error", err)
			continue
		}
		if len(dets) > 0 {
			frames = append(frames, dets)
		}
	}

	obs := marker.Aggregate(frames, a.cfg.MinDetections)
	logger.Debug("marker pass done", "sampled", sampled, "with_markers", len(frames), "markers", len(obs))
	return obs, sampled
}

// heightPass reads frames in order until the end of the stream and extracts
// one height sample per frame.
func (a *Analyzer) heightPass(src video.Source, total int, logger *slog.Logger) []signal.Sample {
	samples := make([]signal.Sample, 0, total)
	readErrors := 0
	for i := 0; ; i++ {
		frame, err := src.ReadFrame(i)
		if errors.Is(err, video.ErrEndOfStream) {
			break
		}
		if err != nil {
			readErrors++
			logger.Debug("frame unreadable", "frame", i, "error", err)
			if readErrors >= maxReadErrors {
				logger.Warn("too many unreadable frames, ending pass", "frame", i)
				break
			}
			continue
		}
		readErrors = 0

		smp := signal.Sample{FrameIndex: i, Timestamp: frame.Timestamp}
		lm, err := a.estimator.Estimate(frame.JPEG)
		if err != nil {
			logger.Debug("pose estimation failed", "frame", i, "error", err)
		} else {
			f := a.extractor.Extract(lm)
			smp.Height, smp.HasHeight = f.Height, f.HasHeight
		}
		samples = append(samples, smp)

		if a.progress != nil {
			a.progress(i+1, total)
		}
	}
	return samples
}

// run is the timing engine shared by Analyze and AnalyzeSamples.
func (a *Analyzer) run(runID string, samples []signal.Sample, obs map[marker.ID]marker.Observation, logger *slog.Logger) (*Report, error) {
	cfg := a.cfg
	d := Diagnostics{
		RunID:      runID,
		Direction:  cfg.Direction,
		FramesRead: len(samples),
		Markers:    obs,
	}

	for _, s := range samples {
		if s.HasHeight {
			d.FramesUsable++
		}
	}
	if d.FramesUsable < cfg.MinUsableFrames {
		return nil, &InsufficientFramesError{Usable: d.FramesUsable, Required: cfg.MinUsableFrames}
	}

	series, err := signal.Condition(samples, cfg.MedianWindow, cfg.AverageWindow)
	if err != nil {
		return nil, fmt.Errorf("gait: %w", err)
	}

	var model calibration.Model = cfg.Proportional()
	cal, err := calibration.FromObservations(obs, cfg.MarkerSize, cfg.PatientHeight)
	d.Calibration = cal
	if err != nil {
		d.CalibrationError = err.Error()
		d.fallback(err)
		logger.Info("marker calibration unavailable, using proportional", "reason", err)
	}

	rr := region.Detect(series.RealVelocity, series.Timestamps, cfg.RegionConfig())
	d.Passes = rr.Passes
	d.Region = rr.Region
	d.RegionStartTime = series.Timestamps[rr.Region.Start]
	d.RegionEndTime = series.Timestamps[rr.Region.End]
	d.LowConfidence = rr.LowConfidence
	if rr.Err != nil {
		d.fallback(rr.Err)
		logger.Warn("walk region is low confidence", "reason", rr.Err)
	}

	var m timing.Mapping
	if cal.Valid {
		m, err = timing.MapAruco(cal, series, rr.Region, cfg.Direction)
		if err != nil {
			d.fallback(err)
			logger.Info("marker crossing not found, using proportional", "reason", err)
		} else {
			model = cal
		}
	}
	if model.Method() == calibration.MethodProportional {
		m = timing.MapProportional(series, rr.Region, cfg.StartFraction)
		if m.Approximate {
			err := fmt.Errorf("%w: proportional near target, using region start", timing.ErrCrossingNotFound)
			d.fallback(err)
		}
	}
	d.Mapping = m

	res := TimingResult{
		TimeAtNear:       m.TimeAtNear,
		TimeAtFar:        m.TimeAtFar,
		RawWalkTime:      m.RawWalkTime,
		CorrectionFactor: model.CorrectionFactor(),
		Method:           model.Method(),
	}
	res.WalkTime = res.RawWalkTime * res.CorrectionFactor
	if res.WalkTime > 0 {
		res.WalkSpeed = cfg.MeasuredDistance / res.WalkTime
	}

	logger.Info("walk analyzed",
		"method", res.Method,
		"walk_time_s", res.WalkTime,
		"speed_mps", res.WalkSpeed,
		"frames_usable", d.FramesUsable,
		"low_confidence", d.LowConfidence,
	)

	return &Report{Result: res, Diagnostics: d}, nil
}
