// Package metrics exports walk-test outcomes in the Prometheus textfile
// format, for batch runs picked up by a node exporter.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teslashibe/go-walktest/pkg/gait"
)

// Recorder collects per-run metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	failures      *prometheus.CounterVec
	lowConfidence prometheus.Counter
	fallbacks     prometheus.Counter
	walkTime      prometheus.Histogram
	duration      prometheus.Histogram
}

// NewRecorder creates a Recorder with all metrics registered.
func NewRecorder() *Recorder {
	m := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walktest_analyses_total",
			Help: "Completed walk-test analyses by calibration method.",
		}, []string{"method"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walktest_analysis_failures_total",
			Help: "Walk-test analyses that produced no result, by reason.",
		}, []string{"reason"}),
		lowConfidence: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walktest_low_confidence_total",
			Help: "Analyses whose walk region was flagged low confidence.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walktest_fallbacks_total",
			Help: "Recoverable failures recorded across all analyses.",
		}),
		walkTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "walktest_walk_time_seconds",
			Help:    "Corrected 10 m walk times.",
			Buckets: []float64{4, 6, 8, 10, 12, 15, 20, 30, 45, 60},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "walktest_analysis_duration_seconds",
			Help:    "Wall-clock time spent analyzing one video.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.analyses,
		m.failures,
		m.lowConfidence,
		m.fallbacks,
		m.walkTime,
		m.duration,
	)
	return m
}

// Registry returns the registry the metrics live on.
func (m *Recorder) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records a completed analysis.
func (m *Recorder) Observe(rep *gait.Report, elapsed time.Duration) {
	if m == nil || rep == nil {
		return
	}
	m.analyses.WithLabelValues(rep.Result.Method.String()).Inc()
	m.walkTime.Observe(rep.Result.WalkTime)
	m.duration.Observe(elapsed.Seconds())
	if rep.Diagnostics.LowConfidence {
		m.lowConfidence.Inc()
	}
	m.fallbacks.Add(float64(len(rep.Diagnostics.Fallbacks)))
}

// ObserveFailure records an analysis that returned an error.
func (m *Recorder) ObserveFailure(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, gait.ErrInsufficientFrames):
		reason = "insufficient_frames"
	case errors.Is(err, gait.ErrInvalidFrameRate):
		reason = "invalid_frame_rate"
	}
	m.failures.WithLabelValues(reason).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// WriteTextfile atomically writes every metric to path.
func (m *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
