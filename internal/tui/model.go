// Package tui is a terminal viewer for the project heartbeats.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zachkp/pulse-folio/internal/activity"
	"github.com/Zachkp/pulse-folio/internal/layout"
	"github.com/Zachkp/pulse-folio/internal/pulse"
)

const (
	cardCols = 34
	cardRows = 8
	fps      = 30
)

var (
	brand     = lipgloss.Color("#e61f48")
	titleSt   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f4f1de"))
	labelSt   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e07a5f"))
	borderSt  = lipgloss.NewStyle().Foreground(lipgloss.Color("#3d405b"))
	trailSt   = lipgloss.NewStyle().Foreground(brand)
	glowSt    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff788c")).Bold(true)
	sparkleSt = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	gridSt    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))
	helpSt    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

type frameMsg time.Time

type sampledMsg []activity.Record

type anchorMsg struct {
	card int
	pos  layout.Position
}

type card struct {
	project activity.Project
	record  activity.Record
	session *pulse.Session
	cells   *Cells
	tracker *layout.Tracker
	anchor  layout.Position
	mounted bool
}

// Model renders one overlay beside each project card.
type Model struct {
	sampler   *activity.Sampler
	intensity float64
	cards     []*card
	anchors   chan anchorMsg
	width     int
	height    int
	sampling  bool
}

// New builds a viewer for the sampler's projects.
func New(sampler *activity.Sampler, intensity float64) *Model {
	m := &Model{
		sampler:   sampler,
		intensity: intensity,
		anchors:   make(chan anchorMsg, 16),
		sampling:  true,
	}
	overlay := layout.Size{Width: pulse.Width, Height: pulse.Height}
	for i, p := range sampler.Projects {
		rec := activity.Record{ProjectID: p.ID, CommitsPerWeek: p.Fallback, Fallback: true}
		m.cards = append(m.cards, &card{
			project: p,
			record:  rec,
			session: pulse.NewSession(rec.CommitsPerWeek, intensity, nil),
			cells:   NewCells(pulse.Width, pulse.Height),
			tracker: layout.NewTracker(overlay, layout.DefaultDelay, func(pos layout.Position) {
				select {
				case m.anchors <- anchorMsg{card: i, pos: pos}:
				default:
				}
			}),
		})
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.sample(), tick(), m.waitAnchor())
}

func (m *Model) sample() tea.Cmd {
	s := m.sampler
	return func() tea.Msg {
		return sampledMsg(s.Sample(context.Background()))
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *Model) waitAnchor() tea.Cmd {
	ch := m.anchors
	return func() tea.Msg { return <-ch }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Close()
			return m, tea.Quit
		case "r":
			if !m.sampling {
				m.sampling = true
				return m, m.sample()
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		vp := layout.Size{Width: float64(msg.Width) * cellWidth, Height: float64(msg.Height) * cellHeight}
		for i, c := range m.cards {
			rect := cardRect(i)
			if !c.mounted {
				c.mounted = true
				c.tracker.Mount(rect, vp)
				c.anchor = c.tracker.Position()
			} else {
				c.tracker.Resize(rect, vp)
			}
		}

	case anchorMsg:
		if msg.card >= 0 && msg.card < len(m.cards) {
			m.cards[msg.card].anchor = msg.pos
		}
		return m, m.waitAnchor()

	case sampledMsg:
		m.sampling = false
		for _, c := range m.cards {
			for _, r := range msg {
				if r.ProjectID == c.project.ID {
					c.record = r
					c.session.Update(r.CommitsPerWeek, m.intensity)
				}
			}
		}

	case frameMsg:
		now := time.Time(msg)
		for _, c := range m.cards {
			c.session.Step(c.cells, now)
		}
		return m, tick()
	}
	return m, nil
}

// Close stops the position trackers.
func (m *Model) Close() {
	for _, c := range m.cards {
		c.tracker.Close()
	}
}

// cardRect is the pixel box of the i-th card in the left column.
func cardRect(i int) layout.Rect {
	return layout.Rect{
		Top:    float64(1+i*(cardRows+1)) * cellHeight,
		Left:   cellWidth,
		Width:  cardCols * cellWidth,
		Height: cardRows * cellHeight,
	}
}

func (m *Model) View() string {
	if m.width == 0 {
		return "starting…"
	}
	scr := newScreen(m.width, m.height)

	for i, c := range m.cards {
		r := cardRect(i)
		col, row := int(r.Left/cellWidth), int(r.Top/cellHeight)
		bpm := c.session.BPM()
		zone := activity.ZoneFor(bpm)

		scr.box(col, row, cardCols, cardRows, borderSt)
		scr.text(col+2, row+1, c.project.ID, titleSt)
		scr.text(col+2, row+3, fmt.Sprintf("%d BPM", bpm), labelSt)
		scr.text(col+2, row+4, fmt.Sprintf("%d commits/week", c.record.CommitsPerWeek), labelSt)
		status := string(zone)
		if c.record.Fallback {
			status += " (est.)"
		}
		scr.text(col+2, row+5, "● "+status, lipgloss.NewStyle().Foreground(lipgloss.Color(zone.Color())))

		if c.mounted {
			scr.overlay(int(c.anchor.Left/cellWidth), int(c.anchor.Top/cellHeight), c.cells)
		}
	}

	help := "q quit · r resample"
	if m.sampling {
		help = "sampling commit activity… · " + help
	}
	scr.text(1, m.height-1, help, helpSt)
	return scr.String()
}

type glyph struct {
	r  rune
	st *lipgloss.Style
}

type screen struct {
	cols, rows int
	g          [][]glyph
}

func newScreen(cols, rows int) *screen {
	g := make([][]glyph, rows)
	for i := range g {
		g[i] = make([]glyph, cols)
		for j := range g[i] {
			g[i][j] = glyph{r: ' '}
		}
	}
	return &screen{cols: cols, rows: rows, g: g}
}

func (s *screen) set(col, row int, r rune, st *lipgloss.Style) {
	if col < 0 || col >= s.cols || row < 0 || row >= s.rows {
		return
	}
	s.g[row][col] = glyph{r: r, st: st}
}

func (s *screen) text(col, row int, str string, st lipgloss.Style) {
	for _, r := range str {
		s.set(col, row, r, &st)
		col++
	}
}

func (s *screen) box(col, row, w, h int, st lipgloss.Style) {
	for x := 1; x < w-1; x++ {
		s.set(col+x, row, '─', &st)
		s.set(col+x, row+h-1, '─', &st)
	}
	for y := 1; y < h-1; y++ {
		s.set(col, row+y, '│', &st)
		s.set(col+w-1, row+y, '│', &st)
	}
	s.set(col, row, '╭', &st)
	s.set(col+w-1, row, '╮', &st)
	s.set(col, row+h-1, '╰', &st)
	s.set(col+w-1, row+h-1, '╯', &st)
}

func (s *screen) overlay(col, row int, c *Cells) {
	for y := 0; y < c.Rows(); y++ {
		for x := 0; x < c.Cols(); x++ {
			r := c.Rune(x, y)
			if r == ' ' {
				continue
			}
			var st *lipgloss.Style
			switch c.at(x, y).kind {
			case kindGlow:
				st = &glowSt
			case kindSparkle:
				st = &sparkleSt
			case kindGrid:
				st = &gridSt
			default:
				st = &trailSt
			}
			s.set(col+x, row+y, r, st)
		}
	}
}

func (s *screen) String() string {
	var b strings.Builder
	for y, line := range s.g {
		var run strings.Builder
		var cur *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur != nil {
				b.WriteString(cur.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for _, g := range line {
			if g.st != cur {
				flush()
				cur = g.st
			}
			run.WriteRune(g.r)
		}
		flush()
		if y < len(s.g)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
