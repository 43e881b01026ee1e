package pdf

import (
	"math"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// Letter is used when a page carries no usable media box
var Letter = PageBox{X1: 612, Y1: 792}

// PageBox is a page's media box in PDF user space plus its display rotation
type PageBox struct {
	X0, Y0, X1, Y1 float64
	Rotation       int
}

// Width of the unrotated page
func (b PageBox) Width() float64 { return b.X1 - b.X0 }

// Height of the unrotated page
func (b PageBox) Height() float64 { return b.Y1 - b.Y0 }

func (b PageBox) valid() bool {
	return b.Width() > 0 && b.Height() > 0
}

// Place converts a point given with a top-left origin in the unrotated page
// into a token position on the displayed page.
func (b PageBox) Place(x, y float64, text string) layout.Token {
	rx, ry := Rotate(x, y, b.Rotation, b.Width(), b.Height())
	return layout.Token{X: rx, Y: ry, Text: text}
}

// PlaceSpan positions a native text span. Spans are anchored at their
// baseline in PDF user space, so the top edge is one font size above it.
func (b PageBox) PlaceSpan(s Span) layout.Token {
	x := math.Max(0, s.X-b.X0)
	y := math.Max(0, b.Y1-(s.Y+s.FontSize))
	return b.Place(x, y, s.Text)
}

// Rotate applies a page's display rotation to a top-left origin point of an
// unrotated page of size w by h. Rotations other than multiples of 90 leave
// the point unchanged.
func Rotate(x, y float64, rotation int, w, h float64) (float64, float64) {
	switch normalizeRotation(rotation) {
	case 90:
		return h - y, x
	case 180:
		return w - x, h - y
	case 270:
		return y, w - x
	default:
		return x, y
	}
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}
