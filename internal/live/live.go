// Package live streams rendered pulse frames to browsers over websockets.
// Each connection owns its own render session, frame loop and position
// tracker; all three are torn down when the connection closes.
package live

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/frame"
	"github.com/Zachkp/pulse-folio/internal/layout"
	"github.com/Zachkp/pulse-folio/internal/pulse"
)

const (
	writeWait   = 200 * time.Millisecond
	outboxDepth = 4
)

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts browsers on this site and clients that send no Origin.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Event is a layout notification sent by the page.
type Event struct {
	Type     string      `json:"type"` // mount, resize or scroll
	Card     layout.Rect `json:"card"`
	Viewport layout.Size `json:"viewport"`
}

// Anchor tells the page where to place the overlay.
type Anchor struct {
	Type string `json:"type"`
	layout.Position
}

// Status describes the heartbeat shown in the overlay labels.
type Status struct {
	Type    string `json:"type"`
	Project string `json:"project"`
	BPM     int    `json:"bpm"`
	Commits int    `json:"commits"`
	Zone    string `json:"zone"`
	Color   string `json:"color"`
}

// Handler serves pulse streams.
type Handler struct {
	Board     *activity.Board
	Scheduler frame.Scheduler
	Intensity float64
	Logger    *slog.Logger

	active atomic.Int64
}

// NewHandler creates a handler rendering at fps.
func NewHandler(board *activity.Board, fps int, intensity float64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Board: board, Scheduler: frame.FPS(fps), Intensity: intensity, Logger: logger}
}

// Active returns the number of open streams.
func (h *Handler) Active() int64 { return h.active.Load() }

// Serve upgrades the request and streams project until the client leaves.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, project string) {
	rec, ok := h.Board.Current().Lookup(project)
	if !ok {
		http.Error(w, "unknown project", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "project", project, "error", err)
		return
	}

	s := &stream{
		id:      uuid.NewString(),
		project: project,
		conn:    conn,
		out:     make(chan outMsg, outboxDepth),
		done:    make(chan struct{}),
		logger:  h.Logger,
	}
	h.active.Add(1)
	defer h.active.Add(-1)

	s.run(h, rec)
}

type outMsg struct {
	kind int
	data []byte
}

type stream struct {
	id      string
	project string
	conn    *websocket.Conn
	out     chan outMsg
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger

	lastBPM int
}

func (s *stream) run(h *Handler, rec activity.Record) {
	log := s.logger.With("stream", s.id, "project", s.project)
	log.Info("pulse stream opened")

	session := pulse.NewSession(rec.CommitsPerWeek, h.Intensity, nil)
	raster := pulse.NewRaster(pulse.Width, pulse.Height)

	tracker := layout.NewTracker(
		layout.Size{Width: pulse.Width, Height: pulse.Height},
		layout.DefaultDelay,
		func(pos layout.Position) { s.sendJSON(Anchor{Type: "anchor", Position: pos}) },
	)

	s.sendStatus(session)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	var png bytes.Buffer
	loop := h.Scheduler.Start(func(now time.Time) {
		if r, ok := h.Board.Current().Lookup(s.project); ok {
			session.Update(r.CommitsPerWeek, h.Intensity)
		}
		if session.BPM() != s.lastBPM {
			s.sendStatus(session)
		}
		session.Step(raster, now)

		png.Reset()
		if err := raster.EncodePNG(&png); err != nil {
			log.Error("encoding frame", "error", err)
			return
		}
		data := make([]byte, png.Len())
		copy(data, png.Bytes())
		s.trySend(outMsg{kind: websocket.BinaryMessage, data: data})
	})

	s.readLoop(tracker, log)

	// teardown: no frame or tracker callback may run after this point
	loop.Cancel()
	tracker.Close()
	s.close()
	<-writerDone
	s.conn.Close()

	log.Info("pulse stream closed")
}

func (s *stream) readLoop(tracker *layout.Tracker, log *slog.Logger) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Debug("ignoring malformed event", "error", err)
			continue
		}
		switch ev.Type {
		case "mount":
			tracker.Mount(ev.Card, ev.Viewport)
		case "resize":
			tracker.Resize(ev.Card, ev.Viewport)
		case "scroll":
			tracker.Scroll(ev.Card)
		default:
			log.Debug("ignoring unknown event", "type", ev.Type)
		}
	}
}

func (s *stream) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case m := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(m.kind, m.data); err != nil {
				// unblocks the reader so teardown can run
				s.close()
				s.conn.Close()
				return
			}
		}
	}
}

func (s *stream) sendStatus(session *pulse.Session) {
	s.lastBPM = session.BPM()
	zone := activity.ZoneFor(session.BPM())
	s.sendJSON(Status{
		Type:    "status",
		Project: s.project,
		BPM:     session.BPM(),
		Commits: session.Commits(),
		Zone:    string(zone),
		Color:   zone.Color(),
	})
}

// sendJSON queues a control message; these are never dropped while the
// stream is open.
func (s *stream) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- outMsg{kind: websocket.TextMessage, data: b}:
	case <-s.done:
	}
}

// trySend queues a frame, dropping it when the client is behind.
func (s *stream) trySend(m outMsg) {
	select {
	case s.out <- m:
	case <-s.done:
	default:
	}
}

func (s *stream) close() {
	s.once.Do(func() { close(s.done) })
}
