package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-walktest/pkg/gait"
)

func TestParseFlags(t *testing.T) {
	t.Setenv("WALKTEST_ARUCO_DICT", "")

	o, err := parseFlags([]string{"-video", "walk.mp4", "-height", "1.64", "-profile", "stroke"})
	require.NoError(t, err)
	assert.Equal(t, "walk.mp4", o.Video)
	assert.Equal(t, 1.64, o.Height)
	assert.Equal(t, "stroke", o.Profile)
	assert.Equal(t, "4x4_50", o.ArucoDict)

	_, err = parseFlags(nil)
	assert.Error(t, err)

	_, err = parseFlags([]string{"-video", "walk.mp4", "-height", "-1"})
	assert.Error(t, err)
}

func TestBuildConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stroke:\n  vel_end_factor: 1.5\n  patient_height_m: 1.62\n"), 0o644))

	cfg, err := buildConfig(options{})
	require.NoError(t, err)
	assert.Equal(t, gait.DefaultConfig(), cfg)

	cfg, err = buildConfig(options{Profile: "stroke", Profiles: path})
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.VelEndFactor)
	assert.Equal(t, 1.62, cfg.PatientHeight)

	// The flag wins over the profile.
	cfg, err = buildConfig(options{Profile: "stroke", Profiles: path, Height: 1.80})
	require.NoError(t, err)
	assert.Equal(t, 1.80, cfg.PatientHeight)

	_, err = buildConfig(options{Profile: "stroke"})
	assert.Error(t, err)

	_, err = buildConfig(options{Profile: "gout", Profiles: path})
	assert.ErrorIs(t, err, gait.ErrUnknownProfile)
}
