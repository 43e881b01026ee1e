package pdf

import (
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"
)

// maxInheritDepth bounds the walk up the page tree for inherited attributes
const maxInheritDepth = 32

// PageText is the native text layer of one page
type PageText struct {
	Number int
	Box    PageBox
	Spans  []Span
	// Err is set when the page's content stream could not be decoded
	Err error
}

// TextReader reads positioned text from the native text layer of PDFs
type TextReader struct {
	spans SpanOptions
}

// NewTextReader creates a reader that merges glyphs with opts
func NewTextReader(opts SpanOptions) *TextReader {
	return &TextReader{spans: opts}
}

// ReadPages returns the spans of every page. A page whose content cannot be
// decoded is returned with Err set and no spans, so the caller can fall back
// to OCR for it.
func (r *TextReader) ReadPages(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages := make([]PageText, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		page := reader.Page(n)
		pt := PageText{Number: n, Box: Letter}
		if page.V.IsNull() {
			pages = append(pages, pt)
			continue
		}

		pt.Box = mediaBox(page)
		glyphs, err := pageGlyphs(page)
		if err != nil {
			pt.Err = err
		}
		pt.Spans = GroupSpans(glyphs, r.spans)
		pages = append(pages, pt)
	}
	return pages, nil
}

// pageGlyphs decodes the text drawn on a page. The decoder panics on some
// malformed content streams.
func pageGlyphs(page pdf.Page) (glyphs []Glyph, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			glyphs = nil
			err = fmt.Errorf("malformed content stream: %v", rec)
		}
	}()

	for _, t := range page.Content().Text {
		glyphs = append(glyphs, Glyph{
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
			Font:     t.Font,
			Text:     t.S,
		})
	}
	return glyphs, nil
}

// mediaBox reads the page's MediaBox and Rotate entries, following the page
// tree for inherited values.
func mediaBox(page pdf.Page) PageBox {
	box := Letter
	mb := inherited(page.V, "MediaBox")
	if mb.Kind() == pdf.Array && mb.Len() == 4 {
		x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
		x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
		candidate := PageBox{
			X0: math.Min(x0, x1), Y0: math.Min(y0, y1),
			X1: math.Max(x0, x1), Y1: math.Max(y0, y1),
		}
		if candidate.valid() {
			box = candidate
		}
	}
	box.Rotation = int(inherited(page.V, "Rotate").Int64())
	return box
}

func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < maxInheritDepth && !v.IsNull(); i++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
