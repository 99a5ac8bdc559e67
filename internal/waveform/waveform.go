// Package waveform synthesizes the cyclic pulse buffer that drives the
// heartbeat overlay.
package waveform

import (
	"math"
	"math/rand"
)

const (
	// Length is the number of samples in every buffer.
	Length = 450

	baseSamplesPerBeat = 120.0 // at 60 BPM
	minSamplesPerBeat  = 80.0
	noiseAmplitude     = 0.05
)

// Rand is the random source used for per-sample noise.
type Rand interface {
	Float64() float64
}

// Buffer is an immutable, cyclic sequence of amplitudes.
type Buffer struct {
	samples   []float64
	bpm       int
	intensity float64
}

// Generate synthesizes a buffer for bpm scaled by intensity. A nil rng uses
// the global math/rand source.
func Generate(bpm int, intensity float64, rng Rand) *Buffer {
	if bpm <= 0 {
		bpm = 60
	}
	if intensity <= 0 {
		intensity = 1
	}
	if rng == nil {
		rng = globalRand{}
	}

	perBeat := max(minSamplesPerBeat, baseSamplesPerBeat*60/float64(bpm))

	samples := make([]float64, Length)
	for i := range samples {
		phase := math.Mod(float64(i), perBeat) / perBeat
		amp := shape(phase) + (rng.Float64()-0.5)*noiseAmplitude
		samples[i] = amp * intensity
	}

	return &Buffer{samples: samples, bpm: bpm, intensity: intensity}
}

// shape is the noiseless pulse at a cycle phase in [0,1).
func shape(p float64) float64 {
	switch {
	case p >= 0.1 && p <= 0.2:
		return 0.2 * math.Sin((p-0.1)*math.Pi/0.1)
	case p >= 0.3 && p <= 0.4:
		q := (p - 0.3) / 0.1
		switch {
		case q < 0.3:
			return -0.3 * math.Sin(q*math.Pi/0.3)
		case q < 0.6:
			return 1.0 * math.Sin((q-0.3)*math.Pi/0.3)
		default:
			return -0.4 * math.Sin((q-0.6)*math.Pi/0.4)
		}
	case p >= 0.6 && p <= 0.8:
		return 0.3 * math.Sin((p-0.6)*math.Pi/0.2)
	}
	return 0
}

// Len returns the number of samples.
func (b *Buffer) Len() int { return len(b.samples) }

// BPM returns the heart rate the buffer was generated for.
func (b *Buffer) BPM() int { return b.bpm }

// Intensity returns the scale the buffer was generated with.
func (b *Buffer) Intensity() float64 { return b.intensity }

// At returns the sample at i, wrapping in both directions.
func (b *Buffer) At(i int) float64 {
	n := len(b.samples)
	i %= n
	if i < 0 {
		i += n
	}
	return b.samples[i]
}

// Index maps a canvas position plus scroll offset onto a sample index.
func (b *Buffer) Index(x, offset float64) int {
	n := float64(len(b.samples))
	i := int(math.Floor(math.Mod(x+offset, n)))
	if i < 0 {
		i += len(b.samples)
	}
	return i
}

// Sample is At(Index(x, offset)).
func (b *Buffer) Sample(x, offset float64) float64 {
	return b.samples[b.Index(x, offset)]
}

// Samples returns a copy of the amplitudes.
func (b *Buffer) Samples() []float64 {
	out := make([]float64, len(b.samples))
	copy(out, b.samples)
	return out
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
