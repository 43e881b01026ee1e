// Package ocr turns raster drawings into positioned text tokens.
//
// Recognition is done by Tesseract through gosseract and is only compiled in
// with the "ocr" build tag, since it needs the Tesseract libraries at build
// time. Without the tag New returns ErrOCRNotEnabled and callers fall back to
// the native PDF text layer.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// ErrOCRNotEnabled is returned when OCR support was not compiled in
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// DefaultLanguage is the Tesseract language used when none is configured
const DefaultLanguage = "eng"

// Word is one recognized word and its pixel bounding box
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Recognizer finds words in an encoded image
type Recognizer interface {
	Recognize(ctx context.Context, img []byte) ([]Word, error)
	Close() error
}

// Options configures the Tesseract client
type Options struct {
	Language string
	// MinConfidence drops words Tesseract is less sure of (0-100).
	MinConfidence float64
}

func (o Options) language() string {
	if o.Language == "" {
		return DefaultLanguage
	}
	return o.Language
}

// Scale maps pixel coordinates into the caller's coordinate space
type Scale struct {
	X, Y float64
}

// Identity keeps pixel coordinates unchanged
var Identity = Scale{X: 1, Y: 1}

// Tokens converts words into tokens positioned at the top-left corner of
// each box, scaled by s and then shifted by (dx, dy). Blank words are skipped.
func Tokens(words []Word, s Scale, dx, dy float64) []layout.Token {
	out := make([]layout.Token, 0, len(words))
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		out = append(out, layout.Token{
			X:    dx + float64(w.Box.Min.X)*s.X,
			Y:    dy + float64(w.Box.Min.Y)*s.Y,
			Text: text,
		})
	}
	return out
}

// filterWords drops blank and low confidence words
func filterWords(words []Word, minConfidence float64) []Word {
	out := words[:0]
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minConfidence {
			continue
		}
		out = append(out, w)
	}
	return out
}
