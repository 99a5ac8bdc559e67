package pulse

// Canvas dimensions of the overlay in pixels.
const (
	Width  = 400
	Height = 112
)

// Color is an RGB color with alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// RGBA builds a Color.
func RGBA(r, g, b uint8, a float64) Color {
	return Color{R: r, G: g, B: b, A: clamp01(a)}
}

// Stop is one color stop of a radial gradient.
type Stop struct {
	Offset float64
	Color  Color
}

// Surface is the 2D drawing target a Session renders onto.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)
	// Clear erases the surface to transparent.
	Clear()
	// StrokeLine draws a round-capped segment.
	StrokeLine(x0, y0, x1, y1, width float64, c Color)
	// FillRadial fills an ellipse of the given radius, stretched by sx and
	// sy, with a gradient running from the center outwards.
	FillRadial(cx, cy, radius, sx, sy float64, stops []Stop)
	// FillCircle fills a solid circle.
	FillCircle(cx, cy, radius float64, c Color)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
