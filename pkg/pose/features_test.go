package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pt(x, y float64) Point {
	return Point{X: x, Y: y, Visibility: 0.9}
}

// standing builds a full landmark set for a person whose nose is at headY
// and ankles at footY.
func standing(headY, footY float64) *Landmarks {
	lm := &Landmarks{Score: 0.9}
	mid := (headY + footY) / 2
	lm.Points[Nose] = pt(100, headY)
	lm.Points[LeftShoulder] = pt(90, headY+20)
	lm.Points[RightShoulder] = pt(110, headY+20)
	lm.Points[LeftHip] = pt(95, mid)
	lm.Points[RightHip] = pt(105, mid)
	lm.Points[LeftAnkle] = pt(95, footY)
	lm.Points[RightAnkle] = pt(105, footY)
	return lm
}

func TestExtract_NoseToAnkles(t *testing.T) {
	e := NewExtractor(0, 0)
	f := e.Extract(standing(100, 300))

	assert.True(t, f.HasHeight)
	assert.Equal(t, 200.0, f.Height)
	assert.Equal(t, SourceNose, f.HeadSource)
	assert.Equal(t, SourceAnkle, f.FootSource)
	assert.InDelta(t, 0, f.ShoulderTilt, 1e-9)
}

func TestExtract_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Landmarks)
		wantHeight float64
		wantHead   string
		wantFoot   string
	}{
		{
			name:       "shoulder midpoint replaces nose",
			mutate:     func(l *Landmarks) { l.Points[Nose] = Point{} },
			wantHeight: 180,
			wantHead:   SourceShoulder,
			wantFoot:   SourceAnkle,
		},
		{
			name:       "hip midpoint replaces one missing ankle",
			mutate:     func(l *Landmarks) { l.Points[LeftAnkle].Visibility = 0.1 },
			wantHeight: 100,
			wantHead:   SourceNose,
			wantFoot:   SourceHip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lm := standing(100, 300)
			tt.mutate(lm)
			f := NewExtractor(0, 0).Extract(lm)
			assert.True(t, f.HasHeight)
			assert.InDelta(t, tt.wantHeight, f.Height, 1e-9)
			assert.Equal(t, tt.wantHead, f.HeadSource)
			assert.Equal(t, tt.wantFoot, f.FootSource)
		})
	}
}

func TestExtract_Absent(t *testing.T) {
	e := NewExtractor(DefaultHeightNoiseFloor, DefaultMinLandmarks)

	t.Run("nil landmarks", func(t *testing.T) {
		assert.False(t, e.Extract(nil).HasHeight)
	})

	t.Run("below noise floor", func(t *testing.T) {
		assert.False(t, e.Extract(standing(100, 125)).HasHeight)
	})

	t.Run("too few landmarks", func(t *testing.T) {
		lm := &Landmarks{}
		lm.Points[Nose] = pt(100, 100)
		lm.Points[LeftAnkle] = pt(95, 300)
		lm.Points[RightAnkle] = pt(105, 300)
		assert.False(t, e.Extract(lm).HasHeight)
	})

	t.Run("no head proxy", func(t *testing.T) {
		lm := standing(100, 300)
		lm.Points[Nose] = Point{}
		lm.Points[RightShoulder] = Point{}
		f := e.Extract(lm)
		assert.False(t, f.HasHeight)
		assert.Equal(t, SourceNone, f.HeadSource)
	})
}

func TestExtract_Tilt(t *testing.T) {
	lm := standing(100, 300)
	lm.Points[RightShoulder] = pt(110, 130)
	lm.Points[LeftShoulder] = pt(90, 110)

	f := NewExtractor(0, 0).Extract(lm)
	assert.InDelta(t, 45.0, f.ShoulderTilt, 1e-9)
	assert.InDelta(t, 0.0, f.HipTilt, 1e-9)
}

func TestPointPresent(t *testing.T) {
	assert.False(t, Point{}.Present())
	assert.False(t, Point{X: 10, Y: 10, Visibility: 0.1}.Present())
	assert.True(t, Point{X: 10, Y: 10, Visibility: 0.5}.Present())
}
