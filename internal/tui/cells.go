package tui

import (
	"math"

	"github.com/Zachkp/pulse-folio/internal/pulse"
)

// Pixel size of one terminal cell, used to map canvas and layout
// coordinates onto the character grid.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

type cellKind uint8

const (
	kindEmpty cellKind = iota
	kindGrid
	kindTrail
	kindGlow
	kindSparkle
)

type cell struct {
	kind  cellKind
	alpha float64
}

// Cells is a pulse.Surface that rasterizes onto terminal cells. Each cell
// keeps the strongest mark drawn over it.
type Cells struct {
	w, h       int // canvas pixels
	cols, rows int
	grid       []cell
}

// NewCells maps a width x height pixel canvas onto cells.
func NewCells(width, height int) *Cells {
	cols := int(math.Ceil(float64(width) / cellWidth))
	rows := int(math.Ceil(float64(height) / cellHeight))
	return &Cells{w: width, h: height, cols: cols, rows: rows, grid: make([]cell, cols*rows)}
}

func (c *Cells) Size() (int, int) { return c.w, c.h }

func (c *Cells) Clear() {
	for i := range c.grid {
		c.grid[i] = cell{}
	}
}

func (c *Cells) StrokeLine(x0, y0, x1, y1, width float64, col pulse.Color) {
	kind := kindTrail
	if col.R == col.G && col.G == col.B {
		kind = kindGrid
	}
	steps := int(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))/2) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.mark(x0+(x1-x0)*t, y0+(y1-y0)*t, kind, col.A)
	}
}

func (c *Cells) FillRadial(cx, cy, radius, sx, sy float64, stops []pulse.Stop) {
	if len(stops) == 0 {
		return
	}
	// only the bright core reads at cell resolution
	c.mark(cx, cy, kindGlow, stops[0].Color.A)
	if radius*sx > cellWidth {
		c.mark(cx-cellWidth, cy, kindGlow, stops[len(stops)-1].Color.A)
		c.mark(cx+cellWidth, cy, kindGlow, stops[len(stops)-1].Color.A)
	}
}

func (c *Cells) FillCircle(cx, cy, radius float64, col pulse.Color) {
	c.mark(cx, cy, kindSparkle, col.A)
}

func (c *Cells) mark(x, y float64, kind cellKind, alpha float64) {
	col := int(x / cellWidth)
	row := int(y / cellHeight)
	if col < 0 || col >= c.cols || row < 0 || row >= c.rows {
		return
	}
	cur := &c.grid[row*c.cols+col]
	if kind > cur.kind || (kind == cur.kind && alpha > cur.alpha) {
		*cur = cell{kind: kind, alpha: alpha}
	}
}

// Cols returns the grid width.
func (c *Cells) Cols() int { return c.cols }

// Rows returns the grid height.
func (c *Cells) Rows() int { return c.rows }

func (c *Cells) at(col, row int) cell { return c.grid[row*c.cols+col] }

// Rune picks the glyph shown for the cell at col,row.
func (c *Cells) Rune(col, row int) rune {
	cl := c.at(col, row)
	switch cl.kind {
	case kindGlow:
		return '●'
	case kindSparkle:
		return '*'
	case kindTrail:
		switch {
		case cl.alpha > 0.6:
			return '█'
		case cl.alpha > 0.3:
			return '▓'
		case cl.alpha > 0.1:
			return '▒'
		default:
			return '░'
		}
	case kindGrid:
		return '·'
	}
	return ' '
}
