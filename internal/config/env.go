// Package config provides environment helpers for go-walktest commands.
// Command-line flags take precedence; these supply their defaults.
package config

import "os"

// Defaults used when the environment is silent.
const (
	DefaultPoseModel        = "models/yolov8n-pose.onnx"
	DefaultMarkerDictionary = "4x4_50"
	DefaultLogLevel         = "info"
)

// PoseModelPath returns the pose model from WALKTEST_POSE_MODEL.
// Falls back to the provided default if not set.
func PoseModelPath(defaultPath string) string {
	return getenv("WALKTEST_POSE_MODEL", defaultPath)
}

// ProfilesPath returns the profile file from WALKTEST_PROFILES, or "" when
// no profiles are configured.
func ProfilesPath() string {
	return os.Getenv("WALKTEST_PROFILES")
}

// LogLevel returns the level from LOG_LEVEL or DefaultLogLevel.
func LogLevel() string {
	return getenv("LOG_LEVEL", DefaultLogLevel)
}

// MarkerDictionary returns the ArUco dictionary from WALKTEST_ARUCO_DICT or
// DefaultMarkerDictionary.
func MarkerDictionary() string {
	return getenv("WALKTEST_ARUCO_DICT", DefaultMarkerDictionary)
}

// MetricsFile returns the Prometheus textfile path from WALKTEST_METRICS_FILE,
// or "" when metrics are not exported.
func MetricsFile() string {
	return os.Getenv("WALKTEST_METRICS_FILE")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
