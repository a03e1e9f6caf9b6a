// Package calibration recovers the camera geometry of a walk-test recording.
//
// Under the pinhole model a marker of real size S at distance d from the
// zero point appears with pixel size
//
//	size = f · S / (d + dCam)
//
// where dCam is the unknown distance from the camera to the zero point and f
// the focal length in pixels. Two markers at known distances fix both.
package calibration

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-walktest/pkg/marker"
)

// Course geometry, in meters from the zero point.
const (
	NearDistance         = 2.0
	FarDistance          = 12.0
	MeasuredDistance     = FarDistance - NearDistance
	DefaultMarkerSize    = 0.25
	DefaultPatientHeight = 1.70
)

// Sentinel errors. Both are recoverable: the caller falls back to
// proportional calibration.
var (
	// ErrCalibrationUnavailable is returned when fewer than two valid marker
	// observations exist.
	ErrCalibrationUnavailable = errors.New("calibration: markers unavailable")

	// ErrInvalidGeometry is returned when the marker sizes cannot come from a
	// camera behind the zero point.
	ErrInvalidGeometry = errors.New("calibration: invalid geometry")
)

// Method names the calibration strategy that produced a result.
type Method int

const (
	MethodProportional Method = iota
	MethodAruco
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodAruco:
		return "ARUCO"
	case MethodProportional:
		return "PROPORTIONAL"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// MarshalText encodes the method name.
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a method name.
func (m *Method) UnmarshalText(b []byte) error {
	switch string(b) {
	case "ARUCO":
		*m = MethodAruco
	case "PROPORTIONAL":
		*m = MethodProportional
	default:
		return fmt.Errorf("calibration: unknown method %q", b)
	}
	return nil
}

// Model is the active calibration for one run: *Aruco or *Proportional.
type Model interface {
	Method() Method
	CorrectionFactor() float64
}

// Aruco is the geometric model fitted from the two markers.
type Aruco struct {
	DCam          float64 `json:"d_cam"`
	FocalLength   float64 `json:"focal_length"`
	PatientHeight float64 `json:"patient_height_m"`
	Valid         bool    `json:"valid"`
}

// Method returns MethodAruco.
func (a *Aruco) Method() Method { return MethodAruco }

// CorrectionFactor is 1: the geometric model is exact up to measurement noise.
func (a *Aruco) CorrectionFactor() float64 { return 1.0 }

// ExpectedInverseHeightAt predicts 1/apparent-height for a subject standing
// distance meters past the zero point.
func (a *Aruco) ExpectedInverseHeightAt(distance float64) float64 {
	return (distance + a.DCam) / (a.FocalLength * a.PatientHeight)
}

// Proportional is the empirical fallback used without a valid Aruco model.
type Proportional struct {
	StartFraction float64 `json:"start_fraction"`
	Correction    float64 `json:"correction_factor"`
}

// Method returns MethodProportional.
func (p *Proportional) Method() Method { return MethodProportional }

// CorrectionFactor returns the tuned empirical factor.
func (p *Proportional) CorrectionFactor() float64 { return p.Correction }

// FitGeometry solves the pinhole relation for dCam and the focal length from
// the pixel sizes of markers at distNear and distFar.
//
// The returned model is always populated as far as the inputs allow;
// Valid is false, and the error wraps ErrInvalidGeometry, when
// sizeNear <= sizeFar, either size is not positive, or dCam <= 0.
func FitGeometry(sizeNear, sizeFar, distNear, distFar, markerSize, patientHeight float64) (*Aruco, error) {
	a := &Aruco{PatientHeight: patientHeight}

	if sizeNear <= 0 || sizeFar <= 0 {
		return a, fmt.Errorf("%w: non-positive marker size (near %.2f px, far %.2f px)",
			ErrInvalidGeometry, sizeNear, sizeFar)
	}
	if sizeNear <= sizeFar {
		return a, fmt.Errorf("%w: near marker %.2f px not larger than far marker %.2f px",
			ErrInvalidGeometry, sizeNear, sizeFar)
	}
	if markerSize <= 0 || patientHeight <= 0 {
		return a, fmt.Errorf("%w: marker size %.3f m, patient height %.3f m",
			ErrInvalidGeometry, markerSize, patientHeight)
	}

	a.DCam = (distFar*sizeFar - distNear*sizeNear) / (sizeNear - sizeFar)
	a.FocalLength = sizeNear * (distNear + a.DCam) / markerSize

	if a.DCam <= 0 {
		return a, fmt.Errorf("%w: camera offset %.3f m is not positive", ErrInvalidGeometry, a.DCam)
	}

	a.Valid = true
	return a, nil
}

// FromObservations fits the course geometry from aggregated marker
// observations, with Start at NearDistance and Finish at FarDistance.
func FromObservations(obs map[marker.ID]marker.Observation, markerSize, patientHeight float64) (*Aruco, error) {
	near, okNear := obs[marker.Start]
	far, okFar := obs[marker.Finish]
	if !okNear || !okFar {
		return &Aruco{PatientHeight: patientHeight}, fmt.Errorf("%w: have %d of 2 markers",
			ErrCalibrationUnavailable, len(obs))
	}
	return FitGeometry(near.MedianSize, far.MedianSize, NearDistance, FarDistance, markerSize, patientHeight)
}
