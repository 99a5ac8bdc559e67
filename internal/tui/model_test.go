package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/pulse"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	s := activity.NewSampler("http://127.0.0.1:0", activity.DefaultProjects(""),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := New(s, 1)
	t.Cleanup(m.Close)
	return m
}

func TestCellsRunes(t *testing.T) {
	c := NewCells(pulse.Width, pulse.Height)
	assert.Equal(t, 50, c.Cols())
	assert.Equal(t, 7, c.Rows())

	c.StrokeLine(0, 8, 80, 8, 2, pulse.RGBA(230, 31, 72, 0.9))
	c.StrokeLine(0, 40, 80, 40, 0.15, pulse.RGBA(128, 128, 128, 0.015))
	c.FillCircle(100, 8, 1, pulse.RGBA(255, 255, 255, 0.5))
	c.FillRadial(200, 50, 6, 1, 1, []pulse.Stop{{Offset: 0, Color: pulse.RGBA(255, 120, 140, 0.9)}})

	assert.Equal(t, '█', c.Rune(0, 0))
	assert.Equal(t, '·', c.Rune(0, 2))
	assert.Equal(t, '*', c.Rune(12, 0))
	assert.Equal(t, '●', c.Rune(25, 3))
	assert.Equal(t, ' ', c.Rune(40, 6))

	// out of range marks are ignored
	c.FillCircle(-5, 500, 1, pulse.RGBA(255, 255, 255, 1))

	c.Clear()
	assert.Equal(t, ' ', c.Rune(0, 0))
}

func TestCellsKeepStrongestMark(t *testing.T) {
	c := NewCells(pulse.Width, pulse.Height)
	c.StrokeLine(0, 0, 4, 0, 2, pulse.RGBA(230, 31, 72, 0.05))
	assert.Equal(t, '░', c.Rune(0, 0))
	c.StrokeLine(0, 0, 4, 0, 2, pulse.RGBA(230, 31, 72, 0.4))
	assert.Equal(t, '▓', c.Rune(0, 0))
	c.StrokeLine(0, 0, 4, 0, 2, pulse.RGBA(230, 31, 72, 0.2))
	assert.Equal(t, '▓', c.Rune(0, 0))
	c.StrokeLine(0, 0, 4, 0, 0.15, pulse.RGBA(128, 128, 128, 0.015))
	assert.Equal(t, '▓', c.Rune(0, 0), "grid never covers the trail")
}

func TestModelAppliesSample(t *testing.T) {
	m := newTestModel(t)
	require.Len(t, m.cards, 3)
	assert.Equal(t, 74, m.cards[0].session.BPM())

	m.Update(sampledMsg{
		{ProjectID: "fulcrum", CommitsPerWeek: 10},
		{ProjectID: "cornea", CommitsPerWeek: 0},
	})

	assert.False(t, m.sampling)
	assert.Equal(t, 99, m.cards[0].session.BPM())
	assert.Equal(t, 60, m.cards[1].session.BPM())
	assert.Equal(t, 65, m.cards[2].session.BPM(), "unsampled card keeps its fallback")
}

func TestModelFramesAndView(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	for _, c := range m.cards {
		assert.True(t, c.mounted)
		assert.Greater(t, c.anchor.Left, 0.0)
	}

	now := time.Now()
	_, cmd := m.Update(frameMsg(now))
	assert.NotNil(t, cmd)
	m.Update(frameMsg(now.Add(300 * time.Millisecond)))

	view := m.View()
	for _, id := range []string{"fulcrum", "cornea", "auditor_helper"} {
		assert.Contains(t, view, id)
	}
	assert.Contains(t, view, "74 BPM")
	assert.Contains(t, view, "commits/week")
	assert.Len(t, strings.Split(view, "\n"), 30)
}

func TestModelAnchorsFromTracker(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 200, Height: 40})

	// mount publishes synchronously onto the channel
	msg := <-m.anchors
	m.Update(msg)
	assert.Equal(t, msg.pos, m.cards[msg.card].anchor)

	r := cardRect(0)
	assert.Equal(t, r.Right()+20, m.cards[0].anchor.Left)
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewBeforeSize(t *testing.T) {
	assert.Equal(t, "starting…", newTestModel(t).View())
}
