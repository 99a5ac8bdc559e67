// Package layout places the pulse overlay beside a project card.
package layout

import (
	"sync"
	"time"

	"github.com/Zachkp/pulse-folio/internal/debounce"
)

const (
	// Margin separates the overlay from the card and from the viewport edge.
	Margin = 20.0
	// DefaultDelay is the quiet period before a resize or scroll recomputes.
	DefaultDelay = 10 * time.Millisecond
)

// Rect is an element's bounding box in viewport pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right is the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Position is the overlay's anchor.
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Anchor centers an overlay vertically on card and places it to its right,
// pulled back so it never crosses the viewport's right margin.
func Anchor(card Rect, viewport Size, overlay Size) Position {
	return Position{
		Top:  card.Top + card.Height/2 - overlay.Height/2,
		Left: min(card.Right()+Margin, viewport.Width-overlay.Width-Margin),
	}
}

// Tracker keeps an anchor current as the card and viewport move. Mount
// computes at once; Resize and Scroll are debounced.
type Tracker struct {
	overlay  Size
	onChange func(Position)
	deb      *debounce.Debouncer

	mu       sync.Mutex
	card     Rect
	viewport Size
	pos      Position
	mounted  bool
}

// NewTracker returns a tracker for an overlay of the given size. onChange is
// called with every recomputed position, possibly from a timer goroutine.
func NewTracker(overlay Size, delay time.Duration, onChange func(Position)) *Tracker {
	t := &Tracker{overlay: overlay, onChange: onChange}
	t.deb = debounce.New(delay, t.recompute)
	return t
}

// Mount records the initial geometry and recomputes immediately.
func (t *Tracker) Mount(card Rect, viewport Size) {
	t.mu.Lock()
	t.card, t.viewport, t.mounted = card, viewport, true
	t.mu.Unlock()
	t.recompute()
}

// Resize records a new viewport size.
func (t *Tracker) Resize(card Rect, viewport Size) {
	t.mu.Lock()
	t.card, t.viewport = card, viewport
	t.mu.Unlock()
	t.deb.Trigger()
}

// Scroll records the card's new box after scrolling.
func (t *Tracker) Scroll(card Rect) {
	t.mu.Lock()
	t.card = card
	t.mu.Unlock()
	t.deb.Trigger()
}

// Position returns the last computed anchor.
func (t *Tracker) Position() Position {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pos
}

// Close drops any pending recompute.
func (t *Tracker) Close() {
	t.deb.Stop()
}

func (t *Tracker) recompute() {
	t.mu.Lock()
	if !t.mounted {
		t.mu.Unlock()
		return
	}
	t.pos = Anchor(t.card, t.viewport, t.overlay)
	pos := t.pos
	t.mu.Unlock()

	if t.onChange != nil {
		t.onChange(pos)
	}
}
