// Package pulse renders the heartbeat overlay: a glowing point tracing an
// ECG trail across a small canvas.
package pulse

import (
	"math"
	"math/rand"
	"time"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/waveform"
)

const (
	gridRowSpacing = 30.0
	gridColSpacing = 60.0

	amplitudeScale = 0.3 // of canvas height
	baselineSpeed  = 0.3 // samples per frame at 60 BPM

	trailLength = 180.0
	trailStep   = 1.5
	edgeFade    = 40.0

	baseOpacity  = 0.04
	maxOpacity   = 0.85
	minOpacity   = 0.01
	lineWidth    = 2.0
	lineWidthAdd = 0.8

	sparkleThreshold = 0.6
	sparkleCount     = 4
)

// Brand is the crimson of the site logo.
var Brand = Color{R: 230, G: 31, B: 72, A: 1}

var gridColor = RGBA(128, 128, 128, 0.015)

type glowLayer struct {
	radius  float64
	opacity float64
}

var glowLayers = []glowLayer{
	{radius: 20, opacity: 0.3},
	{radius: 14, opacity: 0.5},
	{radius: 10, opacity: 0.7},
	{radius: 6, opacity: 0.9},
}

// State is the per-frame mutable state of one session.
type State struct {
	CycleStart     time.Time
	BaselineOffset float64
	PulseX         float64
}

// Frame describes what one Step drew.
type Frame struct {
	X, Y      float64
	Index     int
	Amplitude float64
	Segments  int
	Sparkles  int
	Drawn     bool
}

// Session is one overlay's render loop state. A session is owned by a single
// goroutine; separate overlays use separate sessions.
type Session struct {
	buf       *waveform.Buffer
	commits   int
	bpm       int
	intensity float64
	rng       waveform.Rand
	state     State
}

// NewSession creates a session for a project with commits per week. A nil
// rng uses the global source.
func NewSession(commits int, intensity float64, rng waveform.Rand) *Session {
	if rng == nil {
		rng = globalRand{}
	}
	s := &Session{rng: rng, commits: -1}
	s.Update(commits, intensity)
	return s
}

// Update sets the activity driving the session. The waveform is regenerated
// only when the resulting rate or the intensity differs.
func (s *Session) Update(commits int, intensity float64) bool {
	if intensity <= 0 {
		intensity = 1
	}
	if commits == s.commits && intensity == s.intensity {
		return false
	}
	s.commits = commits
	bpm := activity.HeartRate(commits)
	if s.buf != nil && bpm == s.bpm && intensity == s.intensity {
		return false
	}
	s.bpm = bpm
	s.intensity = intensity
	s.buf = waveform.Generate(bpm, intensity, s.rng)
	return true
}

// BPM returns the session's heart rate.
func (s *Session) BPM() int { return s.bpm }

// Commits returns the commit count last passed to Update.
func (s *Session) Commits() int { return s.commits }

// Buffer returns the current waveform.
func (s *Session) Buffer() *waveform.Buffer { return s.buf }

// State returns a copy of the render state.
func (s *Session) State() State { return s.state }

// BeatInterval is the duration of one sweep across the canvas.
func (s *Session) BeatInterval() time.Duration {
	return time.Duration(60.0 / float64(s.bpm) * float64(time.Second))
}

// Step advances the session to now and draws one frame onto sf. With a nil
// surface nothing is drawn and the state is left untouched.
func (s *Session) Step(sf Surface, now time.Time) Frame {
	if sf == nil {
		return Frame{}
	}
	w, h := sf.Size()
	width, height := float64(w), float64(h)
	if width <= 0 || height <= 0 {
		return Frame{}
	}

	if s.state.CycleStart.IsZero() {
		s.state.CycleStart = now
	}
	elapsed := now.Sub(s.state.CycleStart)
	progress := math.Mod(float64(elapsed)/float64(s.BeatInterval()), 1)
	if progress < 0 {
		progress += 1
	}
	x := progress * width
	s.state.PulseX = x
	s.state.BaselineOffset += float64(s.bpm) / 60 * baselineSpeed

	sf.Clear()
	drawGrid(sf, width, height)

	centerY := height / 2
	scale := height * amplitudeScale
	offset := s.state.BaselineOffset

	idx := s.buf.Index(x, offset)
	amp := s.buf.At(idx)
	y := centerY - amp*scale

	f := Frame{X: x, Y: y, Index: idx, Amplitude: amp, Drawn: true}
	trailStart := math.Max(0, x-trailLength)
	f.Segments = s.drawTrail(sf, trailStart, x, width, centerY, scale)
	s.drawGlow(sf, x, y, idx)
	if math.Abs(amp) > sparkleThreshold {
		f.Sparkles = s.drawSparkles(sf, x, y, trailStart)
	}
	return f
}

func drawGrid(sf Surface, width, height float64) {
	for y := 0.0; y <= height; y += gridRowSpacing {
		sf.StrokeLine(0, y, width, y, 0.15, gridColor)
	}
	for x := 0.0; x <= width; x += gridColSpacing {
		sf.StrokeLine(x, 0, x, height, 0.15, gridColor)
	}
}

// TrailOpacity is the alpha of the trail at px for a leading point at
// headX on a canvas width pixels wide. The second result is the distance
// falloff alone.
func TrailOpacity(px, headX, width float64) (alpha, fade float64) {
	fade = math.Max(0, 1-(headX-px)/trailLength)

	edge := 1.0
	if px < edgeFade {
		edge = px / edgeFade
	}
	if px > width-edgeFade {
		edge = (width - px) / edgeFade
	}
	return (baseOpacity + fade*maxOpacity) * edge, fade
}

func (s *Session) drawTrail(sf Surface, from, to, width, centerY, scale float64) int {
	if to <= 0 {
		return 0
	}
	offset := s.state.BaselineOffset
	yAt := func(px float64) float64 { return centerY - s.buf.Sample(px, offset)*scale }

	drawn := 0
	prevX, prevY := from, yAt(from)
	for px := from + trailStep; px <= to; px += trailStep {
		py := yAt(px)
		alpha, fade := TrailOpacity(px, to, width)
		if alpha > minOpacity {
			c := Brand
			c.A = clamp01(alpha)
			sf.StrokeLine(prevX, prevY, px, py, lineWidth+fade*lineWidthAdd, c)
			drawn++
		}
		prevX, prevY = px, py
	}
	return drawn
}

func (s *Session) drawGlow(sf Surface, x, y float64, idx int) {
	amp := math.Abs(s.buf.At(idx))
	spread := 1 + amp*0.6

	// stretch along the path where the trace is steep
	next := s.buf.Sample(x+3, s.state.BaselineOffset)
	slope := math.Abs(next - s.buf.At(idx))
	sx := 1 + slope*0.2
	sy := 1 - slope*0.1

	for _, l := range glowLayers {
		sf.FillRadial(x, y, l.radius*spread, sx, sy, glowStops(l))
	}
}

func glowStops(l glowLayer) []Stop {
	r, g, b := Brand.R, Brand.G, Brand.B
	o := l.opacity
	if l.radius <= 10 {
		return []Stop{
			{0, RGBA(255, 120, 140, o)},
			{0.3, RGBA(r, g+20, b+20, o)},
			{0.6, RGBA(r, g, b, o*0.8)},
			{1, RGBA(r, g, b, o*0.3)},
		}
	}
	return []Stop{
		{0, RGBA(r, g+15, b+15, o*0.6)},
		{0.4, RGBA(r, g, b, o*0.4)},
		{0.7, RGBA(r, g, b, o*0.2)},
		{1, RGBA(r, g, b, 0)},
	}
}

func (s *Session) drawSparkles(sf Surface, x, y, trailStart float64) int {
	n := 0
	for i := 0; i < sparkleCount; i++ {
		fi := float64(i)
		sparkX := x - fi*6 - s.rng.Float64()*3
		sparkY := y + (s.rng.Float64()-0.5)*8
		size := (1 - fi*0.2) * (0.6 + s.rng.Float64()*0.3)
		alpha := (1 - fi*0.25) * (0.3 + s.rng.Float64()*0.3)
		if sparkX > trailStart {
			sf.FillCircle(sparkX, sparkY, size, RGBA(255, 255, 255, alpha))
			n++
		}
	}
	return n
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
