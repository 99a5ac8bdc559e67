// Package frame schedules per-frame callbacks for render loops.
package frame

import (
	"sync"
	"time"
)

// Callback runs once per frame with the frame timestamp.
type Callback func(now time.Time)

// Scheduler starts a frame loop. Every Start must be paired with a call to
// Cancel on the returned handle.
type Scheduler interface {
	Start(cb Callback) Handle
}

// Handle cancels a running loop. After Cancel returns the callback is never
// invoked again. Cancel is idempotent and must not be called from inside the
// callback.
type Handle interface {
	Cancel()
}

// Ticker drives callbacks from a time.Ticker on its own goroutine.
type Ticker struct {
	Interval time.Duration
}

// FPS returns a ticker running at fps frames per second.
func FPS(fps int) Ticker {
	if fps <= 0 {
		fps = 30
	}
	return Ticker{Interval: time.Second / time.Duration(fps)}
}

// Start implements Scheduler.
func (t Ticker) Start(cb Callback) Handle {
	l := &loop{stop: make(chan struct{}), done: make(chan struct{})}
	interval := t.Interval
	if interval <= 0 {
		interval = time.Second / 60
	}

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-l.stop:
				return
			case now := <-ticker.C:
				// stop may have been closed while waiting on the ticker
				select {
				case <-l.stop:
					return
				default:
				}
				cb(now)
			}
		}
	}()

	return l
}

type loop struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (l *loop) Cancel() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// Manual is a Scheduler advanced explicitly by Tick, for tests and for hosts
// that own their own frame clock.
type Manual struct {
	run sync.Mutex // held while callbacks run

	mu    sync.Mutex
	next  int
	loops map[int]Callback
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{loops: make(map[int]Callback)}
}

// Start implements Scheduler.
func (m *Manual) Start(cb Callback) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.loops[id] = cb
	return manualHandle{m: m, id: id}
}

// Tick runs every active callback once with now.
func (m *Manual) Tick(now time.Time) {
	m.run.Lock()
	defer m.run.Unlock()

	m.mu.Lock()
	ids := make([]int, 0, len(m.loops))
	for id := range m.loops {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.mu.Lock()
		cb, ok := m.loops[id]
		m.mu.Unlock()
		if ok {
			cb(now)
		}
	}
}

// Active reports how many loops have not been cancelled.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loops)
}

type manualHandle struct {
	m  *Manual
	id int
}

func (h manualHandle) Cancel() {
	h.m.mu.Lock()
	delete(h.m.loops, h.id)
	h.m.mu.Unlock()

	// wait out a Tick that may already be running the callback
	h.m.run.Lock()
	h.m.run.Unlock()
}
