package pdf

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Glyph is a run of text as drawn by the content stream, anchored at its
// baseline in PDF user space.
type Glyph struct {
	X, Y, W  float64
	FontSize float64
	Font     string
	Text     string
}

// Span is a run of glyphs on one baseline in one font, merged into a phrase
type Span struct {
	X, Y, W  float64
	FontSize float64
	Font     string
	Text     string
}

// SpanOptions tunes how glyphs are merged into spans
type SpanOptions struct {
	// RowTolerance is the baseline difference, in points, still treated as
	// the same row.
	RowTolerance float64
	// GapFactor times the font size is the widest gap kept inside a span.
	GapFactor float64
	// SpaceFactor times the font size is the gap that implies a missing space.
	SpaceFactor float64
}

// DefaultSpanOptions returns the grouping used for drawings
func DefaultSpanOptions() SpanOptions {
	return SpanOptions{RowTolerance: 2.0, GapFactor: 1.0, SpaceFactor: 0.15}
}

// GroupSpans merges glyphs into spans. Rows are returned top to bottom and
// spans left to right within a row. Blank spans are dropped.
func GroupSpans(glyphs []Glyph, opt SpanOptions) []Span {
	var spans []Span
	for _, row := range groupRows(glyphs, opt.RowTolerance) {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var cur *Span
		flush := func() {
			if cur == nil {
				return
			}
			cur.Text = strings.TrimSpace(cur.Text)
			if cur.Text != "" {
				spans = append(spans, *cur)
			}
			cur = nil
		}

		for _, g := range row {
			if cur != nil {
				gap := g.X - (cur.X + cur.W)
				size := cur.FontSize
				if size <= 0 {
					size = 3.0
				}
				if g.Font != cur.Font || math.Abs(g.FontSize-cur.FontSize) > 0.01 || gap > opt.GapFactor*size {
					flush()
				} else {
					if gap > opt.SpaceFactor*size && !strings.HasSuffix(cur.Text, " ") && !strings.HasPrefix(g.Text, " ") {
						cur.Text += " "
					}
					cur.Text += g.Text
					cur.W = math.Max(cur.W, g.X+g.W-cur.X)
					continue
				}
			}
			cur = &Span{X: g.X, Y: g.Y, W: g.W, FontSize: g.FontSize, Font: g.Font, Text: g.Text}
		}
		flush()
	}
	return spans
}

// CharCount is the number of characters in spans
func CharCount(spans []Span) int {
	n := 0
	for _, s := range spans {
		n += utf8.RuneCountInString(s.Text)
	}
	return n
}

// groupRows buckets glyphs by baseline and orders the rows top to bottom
func groupRows(glyphs []Glyph, tolerance float64) [][]Glyph {
	type bucket struct {
		yMin, yMax float64
		glyphs     []Glyph
	}

	var buckets []bucket
	for _, g := range glyphs {
		placed := false
		for i := range buckets {
			b := &buckets[i]
			if g.Y >= b.yMin-tolerance && g.Y <= b.yMax+tolerance {
				b.glyphs = append(b.glyphs, g)
				b.yMin = math.Min(b.yMin, g.Y)
				b.yMax = math.Max(b.yMax, g.Y)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{yMin: g.Y, yMax: g.Y, glyphs: []Glyph{g}})
		}
	}

	// PDF user space grows upwards
	sort.SliceStable(buckets, func(i, j int) bool { return buckets[i].yMax > buckets[j].yMax })

	rows := make([][]Glyph, len(buckets))
	for i, b := range buckets {
		rows[i] = b.glyphs
	}
	return rows
}
