package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyphs(y, size float64, font string, x0 float64, chars string) []Glyph {
	out := make([]Glyph, 0, len(chars))
	for i, r := range chars {
		out = append(out, Glyph{X: x0 + float64(i)*5, Y: y, W: 5, FontSize: size, Font: font, Text: string(r)})
	}
	return out
}

func TestGroupSpans(t *testing.T) {
	var in []Glyph
	in = append(in, glyphs(100, 10, "F1", 10, "P01")...)
	in = append(in, glyphs(700, 10, "F1", 10, "DWG")...)
	// 2pt gap: same span, missing space restored
	in = append(in, glyphs(700, 10, "F1", 27, "NO")...)
	// far right: new span
	in = append(in, glyphs(700, 10, "F1", 60, "A")...)

	spans := GroupSpans(in, DefaultSpanOptions())
	require.Len(t, spans, 3)

	assert.Equal(t, "DWG NO", spans[0].Text)
	assert.Equal(t, 10.0, spans[0].X)
	assert.Equal(t, 27.0, spans[0].W)
	assert.Equal(t, "A", spans[1].Text)
	assert.Equal(t, "P01", spans[2].Text)
	assert.Equal(t, 100.0, spans[2].Y)
}

func TestGroupSpansSplitsOnFontChange(t *testing.T) {
	in := glyphs(500, 10, "Regular", 10, "REV")
	in = append(in, glyphs(500, 10, "Bold", 25, "A")...)
	in = append(in, glyphs(500, 14, "Regular", 30, "B")...)

	spans := GroupSpans(in, DefaultSpanOptions())
	require.Len(t, spans, 3)
	assert.Equal(t, []string{"REV", "A", "B"}, []string{spans[0].Text, spans[1].Text, spans[2].Text})
}

func TestGroupSpansToleratesBaselineJitter(t *testing.T) {
	in := []Glyph{
		{X: 15, Y: 401, W: 5, FontSize: 10, Font: "F", Text: "B"},
		{X: 10, Y: 400, W: 5, FontSize: 10, Font: "F", Text: "A"},
	}

	spans := GroupSpans(in, DefaultSpanOptions())
	require.Len(t, spans, 1)
	assert.Equal(t, "AB", spans[0].Text)
}

func TestGroupSpansDropsBlank(t *testing.T) {
	in := []Glyph{
		{X: 10, Y: 400, W: 5, FontSize: 10, Font: "F", Text: " "},
		{X: 200, Y: 400, W: 5, FontSize: 10, Font: "F", Text: "X"},
	}

	spans := GroupSpans(in, DefaultSpanOptions())
	require.Len(t, spans, 1)
	assert.Equal(t, "X", spans[0].Text)

	assert.Empty(t, GroupSpans(nil, DefaultSpanOptions()))
}

func TestCharCount(t *testing.T) {
	assert.Equal(t, 0, CharCount(nil))
	assert.Equal(t, 9, CharCount([]Span{{Text: "DWG NO"}, {Text: "Ü12"}}))
}
