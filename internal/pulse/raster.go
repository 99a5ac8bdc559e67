package pulse

import (
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

// Raster is a Surface backed by an in-memory RGBA image.
type Raster struct {
	dc *gg.Context
}

// NewRaster returns a transparent raster of the given size.
func NewRaster(width, height int) *Raster {
	dc := gg.NewContext(width, height)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	return &Raster{dc: dc}
}

func (r *Raster) Size() (int, int) { return r.dc.Width(), r.dc.Height() }

func (r *Raster) Clear() {
	r.dc.SetRGBA(0, 0, 0, 0)
	r.dc.Clear()
}

func (r *Raster) StrokeLine(x0, y0, x1, y1, width float64, c Color) {
	r.dc.SetColor(nrgba(c))
	r.dc.SetLineWidth(width)
	r.dc.DrawLine(x0, y0, x1, y1)
	r.dc.Stroke()
}

func (r *Raster) FillRadial(cx, cy, radius, sx, sy float64, stops []Stop) {
	if radius <= 0 {
		return
	}
	grad := gg.NewRadialGradient(cx, cy, 0, cx, cy, radius)
	for _, s := range stops {
		grad.AddColorStop(s.Offset, nrgba(s.Color))
	}
	r.dc.SetFillStyle(grad)
	r.dc.DrawEllipse(cx, cy, radius*sx, radius*sy)
	r.dc.Fill()
}

func (r *Raster) FillCircle(cx, cy, radius float64, c Color) {
	r.dc.SetColor(nrgba(c))
	r.dc.DrawCircle(cx, cy, radius)
	r.dc.Fill()
}

// EncodePNG writes the current pixels as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

func nrgba(c Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(clamp01(c.A)*255 + 0.5)}
}
