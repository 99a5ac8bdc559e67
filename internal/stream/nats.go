// Package stream shares activity snapshots between server instances over NATS.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Zachkp/pulse-folio/internal/activity"
)

// DefaultSubject carries activity snapshots.
const DefaultSubject = "pulse.activity"

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("pulse-folio"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// Message is the wire form of a snapshot.
type Message struct {
	Origin  string            `json:"origin"`
	Ts      int64             `json:"ts"`
	Records []activity.Record `json:"records"`
}

// Encode marshals records sent by origin.
func Encode(origin string, records []activity.Record, now time.Time) ([]byte, error) {
	return json.Marshal(Message{Origin: origin, Ts: now.UnixMilli(), Records: records})
}

// Decode parses a snapshot message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode activity message: %w", err)
	}
	return m, nil
}

// Relay publishes local snapshots and applies snapshots from other
// instances to a board.
type Relay struct {
	nc      *nats.Conn
	subject string
	origin  string
	board   *activity.Board
	logger  *slog.Logger
	sub     *nats.Subscription
}

// NewRelay creates a relay for board identified as origin.
func NewRelay(nc *nats.Conn, subject, origin string, board *activity.Board, logger *slog.Logger) *Relay {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{nc: nc, subject: subject, origin: origin, board: board, logger: logger}
}

// Publish sends records to other instances.
func (r *Relay) Publish(records []activity.Record) error {
	b, err := Encode(r.origin, records, time.Now())
	if err != nil {
		return err
	}
	if err := r.nc.Publish(r.subject, b); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// Start subscribes to snapshots from other instances.
func (r *Relay) Start() error {
	sub, err := r.nc.Subscribe(r.subject, r.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	r.sub = sub
	return nil
}

// handle applies a peer snapshot to the board.
func (r *Relay) handle(msg *nats.Msg) {
	m, err := Decode(msg.Data)
	if err != nil {
		r.logger.Warn("dropping activity message", "error", err)
		return
	}
	if !r.Accept(m) {
		return
	}
	r.board.Publish(m.Records)
	r.logger.Info("activity received from peer", "origin", m.Origin, "records", len(m.Records))
}

// Accept reports whether a message from a peer should replace the board.
func (r *Relay) Accept(m Message) bool {
	return m.Origin != r.origin && len(m.Records) > 0
}

// Stop unsubscribes.
func (r *Relay) Stop() {
	if r.sub != nil {
		_ = r.sub.Unsubscribe()
	}
}
