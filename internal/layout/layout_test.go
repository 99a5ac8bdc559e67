package layout

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var overlay = Size{Width: 400, Height: 112}

func TestAnchorBesideCard(t *testing.T) {
	card := Rect{Top: 100, Left: 50, Width: 300, Height: 200}
	pos := Anchor(card, Size{Width: 1600, Height: 900}, overlay)

	assert.Equal(t, Position{Top: 100 + 100 - 56, Left: 370}, pos)
}

func TestAnchorClampsToRightEdge(t *testing.T) {
	vp := Size{Width: 1024, Height: 768}
	for left := 0.0; left <= 1024; left += 16 {
		card := Rect{Top: 10, Left: left, Width: 320, Height: 80}
		pos := Anchor(card, vp, overlay)
		assert.LessOrEqual(t, pos.Left+overlay.Width, vp.Width-Margin, "card left %v", left)
	}

	pos := Anchor(Rect{Left: 700, Width: 300}, vp, overlay)
	assert.Equal(t, 1024-400-Margin, pos.Left)
}

type recorder struct {
	mu  sync.Mutex
	got []Position
}

func (r *recorder) add(p Position) {
	r.mu.Lock()
	r.got = append(r.got, p)
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func (r *recorder) last() Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

func TestTrackerMountIsImmediate(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(overlay, DefaultDelay, rec.add)
	defer tr.Close()

	tr.Mount(Rect{Top: 0, Left: 0, Width: 100, Height: 112}, Size{Width: 2000, Height: 1000})

	require.Equal(t, 1, rec.len())
	assert.Equal(t, Position{Top: 0, Left: 120}, tr.Position())
}

func TestTrackerDebouncesScrollStorm(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(overlay, 15*time.Millisecond, rec.add)
	defer tr.Close()

	vp := Size{Width: 2000, Height: 1000}
	tr.Mount(Rect{Width: 100, Height: 112}, vp)

	for i := 1; i <= 20; i++ {
		tr.Scroll(Rect{Top: float64(-i * 10), Width: 100, Height: 112})
	}

	require.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, 2*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, rec.len())
	assert.Equal(t, Position{Top: -200, Left: 120}, rec.last())
}

func TestTrackerResize(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(overlay, time.Millisecond, rec.add)
	defer tr.Close()

	card := Rect{Left: 500, Width: 300, Height: 112}
	tr.Mount(card, Size{Width: 2000})
	tr.Resize(card, Size{Width: 1000})

	require.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 1000-400-Margin, tr.Position().Left)
}

func TestTrackerCloseDropsPending(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(overlay, 10*time.Millisecond, rec.add)

	tr.Mount(Rect{Width: 100}, Size{Width: 2000})
	tr.Scroll(Rect{Top: 50, Width: 100})
	tr.Close()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 1, rec.len())
}

func TestTrackerIgnoresEventsBeforeMount(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(overlay, time.Millisecond, rec.add)
	defer tr.Close()

	tr.Scroll(Rect{Top: 50})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.len())
}
