package pulse

import (
	"bytes"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constRand float64

func (c constRand) Float64() float64 { return float64(c) }

type stroke struct {
	x0, y0, x1, y1, width float64
	c                     Color
}

type radial struct {
	cx, cy, r, sx, sy float64
	stops             []Stop
}

// recorder captures draw calls.
type recorder struct {
	w, h    int
	clears  int
	strokes []stroke
	radials []radial
	circles int
}

func (r *recorder) Size() (int, int) { return r.w, r.h }
func (r *recorder) Clear()           { r.clears++; r.strokes = nil; r.radials = nil; r.circles = 0 }
func (r *recorder) StrokeLine(x0, y0, x1, y1, width float64, c Color) {
	r.strokes = append(r.strokes, stroke{x0, y0, x1, y1, width, c})
}
func (r *recorder) FillRadial(cx, cy, radius, sx, sy float64, stops []Stop) {
	r.radials = append(r.radials, radial{cx, cy, radius, sx, sy, stops})
}
func (r *recorder) FillCircle(cx, cy, radius float64, c Color) { r.circles++ }

func (r *recorder) trail() []stroke {
	var out []stroke
	for _, s := range r.strokes {
		if s.c.R == Brand.R && s.c.G == Brand.G && s.c.B == Brand.B {
			out = append(out, s)
		}
	}
	return out
}

func TestSessionUpdateRegeneratesOnlyOnChange(t *testing.T) {
	s := NewSession(3, 1, constRand(0.5))
	buf := s.Buffer()
	assert.Equal(t, 74, s.BPM())

	assert.False(t, s.Update(3, 1))
	assert.Same(t, buf, s.Buffer())

	assert.True(t, s.Update(4, 1))
	assert.Equal(t, 78, s.BPM())
	assert.NotSame(t, buf, s.Buffer())

	buf = s.Buffer()
	assert.True(t, s.Update(4, 2))
	assert.NotSame(t, buf, s.Buffer())
	assert.Equal(t, 2.0, s.Buffer().Intensity())
}

func TestSessionUpdateKeepsBufferWhenRateUnchanged(t *testing.T) {
	s := NewSession(200, 1, constRand(0.5))
	buf := s.Buffer()
	assert.False(t, s.Update(300, 1), "both counts cap at 120 BPM")
	assert.Same(t, buf, s.Buffer())
	assert.Equal(t, 300, s.Commits())
}

func TestStepNilSurfaceDoesNothing(t *testing.T) {
	s := NewSession(1, 1, constRand(0.5))
	assert.NotPanics(t, func() {
		f := s.Step(nil, time.Now())
		assert.False(t, f.Drawn)
	})
	assert.Equal(t, State{}, s.State())
}

func TestStepSweepsAcrossCanvas(t *testing.T) {
	s := NewSession(0, 1, constRand(0.5)) // 60 BPM, one sweep per second
	rec := &recorder{w: Width, h: Height}
	start := time.Unix(1000, 0)

	f := s.Step(rec, start)
	assert.Equal(t, 0.0, f.X)

	f = s.Step(rec, start.Add(500*time.Millisecond))
	assert.InDelta(t, Width/2, f.X, 1e-6)

	f = s.Step(rec, start.Add(1250*time.Millisecond))
	assert.InDelta(t, Width/4, f.X, 1e-6)

	assert.InDelta(t, 3*0.3, s.State().BaselineOffset, 1e-9)
	assert.Equal(t, 3, rec.clears)
}

func TestStepDrawsGridTrailAndGlow(t *testing.T) {
	s := NewSession(0, 1, constRand(0.5))
	rec := &recorder{w: Width, h: Height}
	start := time.Unix(1000, 0)

	s.Step(rec, start)
	f := s.Step(rec, start.Add(750*time.Millisecond))

	// 4 rows (0,30,60,90) and 7 columns (0..360)
	grid := len(rec.strokes) - len(rec.trail())
	assert.Equal(t, 4+7, grid)

	require.NotEmpty(t, rec.trail())
	assert.Equal(t, f.Segments, len(rec.trail()))
	for _, seg := range rec.trail() {
		assert.GreaterOrEqual(t, seg.x0, f.X-trailLength-1e-9)
		assert.LessOrEqual(t, seg.x1, f.X+1e-9)
		assert.Greater(t, seg.c.A, minOpacity)
	}

	require.Len(t, rec.radials, 4)
	spread := 1 + math.Abs(f.Amplitude)*0.6
	assert.InDelta(t, 20*spread, rec.radials[0].r, 1e-9)
	assert.InDelta(t, 6*spread, rec.radials[3].r, 1e-9)
	assert.Equal(t, f.X, rec.radials[0].cx)
	assert.Equal(t, f.Y, rec.radials[0].cy)
}

func TestStepSamplesBufferWithModulo(t *testing.T) {
	s := NewSession(10, 1, constRand(0.5))
	rec := &recorder{w: Width, h: Height}
	start := time.Unix(0, 0)

	for i := 0; i < 5000; i++ {
		f := s.Step(rec, start.Add(time.Duration(i)*16*time.Millisecond))
		require.GreaterOrEqual(t, f.Index, 0)
		require.Less(t, f.Index, s.Buffer().Len())
		want := float64(Height)/2 - s.Buffer().At(f.Index)*float64(Height)*amplitudeScale
		require.InDelta(t, want, f.Y, 1e-9)
	}
}

func TestSparklesOnlyOnHighAmplitude(t *testing.T) {
	s := NewSession(0, 1, constRand(0.5))
	rec := &recorder{w: Width, h: Height}
	start := time.Unix(0, 0)

	sawSparkles := false
	for i := 0; i < 2000; i++ {
		f := s.Step(rec, start.Add(time.Duration(i)*7*time.Millisecond))
		if math.Abs(f.Amplitude) <= sparkleThreshold {
			require.Zero(t, f.Sparkles)
			require.Zero(t, rec.circles)
		} else if f.Sparkles > 0 {
			sawSparkles = true
			require.Equal(t, f.Sparkles, rec.circles)
		}
	}
	assert.True(t, sawSparkles)
}

func TestTrailOpacity(t *testing.T) {
	alpha, fade := TrailOpacity(200, 200, Width)
	assert.InDelta(t, 1.0, fade, 1e-9)
	assert.InDelta(t, baseOpacity+maxOpacity, alpha, 1e-9)

	_, fade = TrailOpacity(110, 200, Width)
	assert.InDelta(t, 0.5, fade, 1e-9)

	alpha, _ = TrailOpacity(20, 20, Width)
	assert.InDelta(t, (baseOpacity+maxOpacity)*0.5, alpha, 1e-9)

	alpha, _ = TrailOpacity(Width, Width, Width)
	assert.Zero(t, alpha)

	alpha, fade = TrailOpacity(100, 300, Width)
	assert.Zero(t, fade)
	assert.InDelta(t, baseOpacity, alpha, 1e-9)
}

func TestRasterRendersPNG(t *testing.T) {
	s := NewSession(5, 1, nil)
	r := NewRaster(Width, Height)
	start := time.Now()
	s.Step(r, start)
	s.Step(r, start.Add(400*time.Millisecond))

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Width, img.Bounds().Dx())
	assert.Equal(t, Height, img.Bounds().Dy())
}
