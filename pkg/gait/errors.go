package gait

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrInsufficientFrames is returned when too few frames carry a usable
	// height to analyze. It is the only fatal analysis outcome.
	ErrInsufficientFrames = errors.New("gait: insufficient usable frames")

	// ErrUnsupportedDirection is returned for walking directions the engine
	// has no calibrated path for.
	ErrUnsupportedDirection = errors.New("gait: unsupported walking direction")

	// ErrInvalidFrameRate is returned for a source whose nominal frame rate
	// is zero or negative; no timestamp can be derived from it.
	ErrInvalidFrameRate = errors.New("gait: source frame rate is not positive")

	// ErrUnknownProfile is returned when a named profile does not exist.
	ErrUnknownProfile = errors.New("gait: unknown profile")
)

// InsufficientFramesError reports how many usable frames were found.
type InsufficientFramesError struct {
	Usable   int
	Required int
}

// Error implements the error interface.
func (e *InsufficientFramesError) Error() string {
	return fmt.Sprintf("gait: %d usable frames, need at least %d", e.Usable, e.Required)
}

// Is matches ErrInsufficientFrames.
func (e *InsufficientFramesError) Is(target error) bool {
	return target == ErrInsufficientFrames
}
