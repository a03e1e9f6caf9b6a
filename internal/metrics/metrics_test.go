package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-walktest/pkg/calibration"
	"github.com/teslashibe/go-walktest/pkg/gait"
)

func report(method calibration.Method, walkTime float64, lowConfidence bool, fallbacks ...string) *gait.Report {
	return &gait.Report{
		Result: gait.TimingResult{Method: method, WalkTime: walkTime},
		Diagnostics: gait.Diagnostics{
			LowConfidence: lowConfidence,
			Fallbacks:     fallbacks,
		},
	}
}

func TestRecorder_Observe(t *testing.T) {
	m := NewRecorder()

	m.Observe(report(calibration.MethodAruco, 8.1, false), time.Second)
	m.Observe(report(calibration.MethodProportional, 9.4, true, "a", "b"), 2*time.Second)
	m.Observe(report(calibration.MethodProportional, 11.0, false, "c"), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("ARUCO")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("PROPORTIONAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lowConfidence))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.fallbacks))
	assert.Equal(t, 1, testutil.CollectAndCount(m.walkTime))
}

func TestRecorder_ObserveFailure(t *testing.T) {
	m := NewRecorder()

	m.ObserveFailure(&gait.InsufficientFramesError{Usable: 3, Required: 10}, time.Second)
	m.ObserveFailure(fmt.Errorf("open video: missing"), time.Second)
	m.ObserveFailure(fmt.Errorf("%w: 0", gait.ErrInvalidFrameRate), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("insufficient_frames")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("invalid_frame_rate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("other")))
}

func TestRecorder_NilSafe(t *testing.T) {
	var m *Recorder
	assert.NotPanics(t, func() {
		m.Observe(report(calibration.MethodAruco, 8, false), time.Second)
		m.ObserveFailure(gait.ErrInsufficientFrames, time.Second)
	})
}

func TestRecorder_WriteTextfile(t *testing.T) {
	m := NewRecorder()
	m.Observe(report(calibration.MethodAruco, 8.0, false), time.Second)

	path := filepath.Join(t.TempDir(), "walktest.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `walktest_analyses_total{method="ARUCO"} 1`)
	assert.Contains(t, string(data), "walktest_walk_time_seconds_count 1")
}
