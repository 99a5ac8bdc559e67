package stream

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/pulse-folio/internal/activity"
)

func TestEncodeDecode(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	records := []activity.Record{{ProjectID: "cornea", CommitsPerWeek: 7, Fallback: true}}

	b, err := Encode("node-a", records, now)
	require.NoError(t, err)

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "node-a", m.Origin)
	assert.Equal(t, now.UnixMilli(), m.Ts)
	require.Len(t, m.Records, 1)
	assert.Equal(t, "cornea", m.Records[0].ProjectID)
	assert.Equal(t, 7, m.Records[0].CommitsPerWeek)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.Error(t, err)
}

func TestRelayAccept(t *testing.T) {
	r := NewRelay(nil, "", "self", activity.NewBoard(nil), nil)
	assert.Equal(t, DefaultSubject, r.subject)

	recs := []activity.Record{{ProjectID: "x"}}
	assert.False(t, r.Accept(Message{Origin: "self", Records: recs}))
	assert.False(t, r.Accept(Message{Origin: "peer"}))
	assert.True(t, r.Accept(Message{Origin: "peer", Records: recs}))
}

func TestRelayAppliesPeerSnapshots(t *testing.T) {
	board := activity.NewBoard(activity.DefaultProjects(""))
	r := NewRelay(nil, "", "self", board, nil)
	before := board.Current()

	own, err := Encode("self", []activity.Record{{ProjectID: "cornea", CommitsPerWeek: 40}}, time.Now())
	require.NoError(t, err)
	r.handle(&nats.Msg{Subject: DefaultSubject, Data: own})
	assert.Same(t, before, board.Current())

	r.handle(&nats.Msg{Subject: DefaultSubject, Data: []byte("not json")})
	assert.Same(t, before, board.Current())

	peer, err := Encode("peer", []activity.Record{
		{ProjectID: "fulcrum", CommitsPerWeek: 12},
		{ProjectID: "cornea", CommitsPerWeek: 0},
	}, time.Now())
	require.NoError(t, err)
	r.handle(&nats.Msg{Subject: DefaultSubject, Data: peer})

	snap := board.Current()
	require.NotSame(t, before, snap)
	rec, ok := snap.Lookup("fulcrum")
	require.True(t, ok)
	assert.Equal(t, 12, rec.CommitsPerWeek)
	assert.Equal(t, 105, rec.BPM())
	_, ok = snap.Lookup("auditor_helper")
	assert.False(t, ok)
}

func TestRelayStopWithoutStart(t *testing.T) {
	r := NewRelay(nil, "", "self", activity.NewBoard(nil), nil)
	assert.NotPanics(t, r.Stop)
}
