package frame

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerStopsAfterCancel(t *testing.T) {
	var calls atomic.Int64
	h := Ticker{Interval: time.Millisecond}.Start(func(time.Time) {
		calls.Add(1)
	})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)

	h.Cancel()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, after, calls.Load())
}

func TestTickerCancelIsIdempotent(t *testing.T) {
	h := FPS(120).Start(func(time.Time) {})
	h.Cancel()
	h.Cancel()
}

func TestFPS(t *testing.T) {
	assert.Equal(t, time.Second/30, FPS(0).Interval)
	assert.Equal(t, time.Second/60, FPS(60).Interval)
}

func TestManual(t *testing.T) {
	m := NewManual()
	var a, b int
	ha := m.Start(func(time.Time) { a++ })
	m.Start(func(time.Time) { b++ })

	m.Tick(time.Now())
	assert.Equal(t, 2, m.Active())

	ha.Cancel()
	m.Tick(time.Now())

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
	assert.Equal(t, 1, m.Active())
}

func TestManualCancelWaitsForRunningTick(t *testing.T) {
	m := NewManual()
	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	h := m.Start(func(time.Time) {
		close(entered)
		<-release
		finished.Store(true)
	})

	go m.Tick(time.Now())
	<-entered

	cancelled := make(chan struct{})
	go func() {
		h.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while the callback was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-cancelled
	assert.True(t, finished.Load())
	assert.Zero(t, m.Active())
}
