package pdf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
	"github.com/a3tai/mcp-drawing-fields/internal/ocr"
)

// SourceKind names where a drawing's tokens come from
type SourceKind string

const (
	SourcePDF   SourceKind = "pdf"
	SourceImage SourceKind = "image"
	SourceJSON  SourceKind = "json"
)

// DefaultMinText is the number of native characters below which a PDF page
// is treated as scanned and OCR'd instead
const DefaultMinText = 30

var extensionKinds = map[string]SourceKind{
	".pdf":  SourcePDF,
	".png":  SourceImage,
	".jpg":  SourceImage,
	".jpeg": SourceImage,
	".tif":  SourceImage,
	".tiff": SourceImage,
	".bmp":  SourceImage,
	".gif":  SourceImage,
	".json": SourceJSON,
}

// SupportedExtensions lists the file extensions a Loader accepts
func SupportedExtensions() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".json"}
}

// KindOf returns the source kind for path based on its extension
func KindOf(path string) (SourceKind, error) {
	kind, ok := extensionKinds[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return kind, nil
}

// Page holds the tokens of one page in top-left page coordinates
type Page struct {
	Number   int            `json:"number"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Rotation int            `json:"rotation"`
	OCR      bool           `json:"ocr"`
	Tokens   []layout.Token `json:"tokens"`
}

// Document is every token found in one drawing file
type Document struct {
	Path  string     `json:"path"`
	Kind  SourceKind `json:"source"`
	Pages []Page     `json:"pages"`
}

// Tokens flattens the pages in page order
func (d *Document) Tokens() []layout.Token {
	var out []layout.Token
	for _, p := range d.Pages {
		out = append(out, p.Tokens...)
	}
	return out
}

// Corpus builds the search corpus for the document
func (d *Document) Corpus() *layout.Corpus {
	return layout.NewCorpus(d.Tokens())
}

// OCRPages lists the pages whose tokens came from OCR
func (d *Document) OCRPages() []int {
	var out []int
	for _, p := range d.Pages {
		if p.OCR {
			out = append(out, p.Number)
		}
	}
	return out
}

// TokenCount is the number of tokens over all pages
func (d *Document) TokenCount() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Tokens)
	}
	return n
}

// Source loads the tokens of a drawing file
type Source interface {
	Load(ctx context.Context, path string) (*Document, error)
}

// PDFSource reads the native text layer and OCRs pages that have too little
// text. Recognizer may be nil, in which case scanned pages stay empty.
type PDFSource struct {
	Reader     *TextReader
	Recognizer ocr.Recognizer
	MinText    int
	MinWidth   int
	Logger     *zap.Logger
}

// Load implements Source
func (s *PDFSource) Load(ctx context.Context, path string) (*Document, error) {
	logger := s.logger().With(zap.String("path", path), zap.String("source", string(SourcePDF)))

	pages, err := s.Reader.ReadPages(path)
	if err != nil {
		return nil, &SourceError{Source: SourcePDF, Op: "read_text", Path: path, Err: err}
	}

	// pdfcpu gives inherited page attributes and page images. The text layer
	// is still usable when it cannot parse the file.
	st, err := openStructure(path)
	if err != nil {
		logger.Warn("PDF structure unavailable, using text layer only", zap.Error(err))
		st = nil
	}

	doc := &Document{Path: path, Kind: SourcePDF}
	needOCR := false
	for _, pt := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		box := pt.Box
		if st != nil && pt.Number <= st.PageCount() {
			if b, err := st.Box(pt.Number); err == nil {
				box = b
			} else {
				logger.Debug("page box unavailable", zap.Int("page", pt.Number), zap.Error(err))
			}
		}
		if pt.Err != nil {
			logger.Warn("page text unreadable", zap.Int("page", pt.Number), zap.Error(pt.Err))
		}

		page := Page{Number: pt.Number, Width: box.Width(), Height: box.Height(), Rotation: normalizeRotation(box.Rotation)}
		chars := CharCount(pt.Spans)
		if chars < s.minText() {
			needOCR = true
			tokens, err := s.ocrPage(ctx, st, pt.Number, box)
			switch {
			case err == nil:
				page.OCR = true
				page.Tokens = tokens
				logger.Debug("page recognized", zap.Int("page", pt.Number), zap.Int("chars", chars), zap.Int("tokens", len(tokens)))
				doc.Pages = append(doc.Pages, page)
				continue
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, err
			default:
				logger.Debug("OCR fallback skipped", zap.Int("page", pt.Number), zap.Int("chars", chars), zap.Error(err))
			}
		}

		page.Tokens = make([]layout.Token, 0, len(pt.Spans))
		for _, span := range pt.Spans {
			page.Tokens = append(page.Tokens, box.PlaceSpan(span))
		}
		doc.Pages = append(doc.Pages, page)
	}

	if doc.TokenCount() == 0 && needOCR && s.Recognizer == nil {
		return nil, &SourceError{Source: SourcePDF, Op: "load", Path: path, Err: ErrNoText}
	}
	return doc, nil
}

// ocrPage recognizes the largest image on a page, assuming it covers the
// page the way a scanned sheet does.
func (s *PDFSource) ocrPage(ctx context.Context, st *structure, pageNr int, box PageBox) ([]layout.Token, error) {
	if s.Recognizer == nil {
		return nil, ocr.ErrOCRNotEnabled
	}
	if st == nil {
		return nil, errors.New("page images unavailable")
	}

	images, err := st.Images(pageNr)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no images on page %d", pageNr)
	}

	img := images[0]
	words, bounds, err := ocr.Recognize(ctx, s.Recognizer, img.Data, s.MinWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to recognize image %d: %w", img.ObjNr, err)
	}
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	scale := ocr.Scale{X: box.Width() / float64(bounds.Dx()), Y: box.Height() / float64(bounds.Dy())}
	unrotated := ocr.Tokens(words, scale, 0, 0)
	tokens := make([]layout.Token, len(unrotated))
	for i, t := range unrotated {
		tokens[i] = box.Place(t.X, t.Y, t.Text)
	}
	return tokens, nil
}

func (s *PDFSource) minText() int {
	if s.MinText <= 0 {
		return DefaultMinText
	}
	return s.MinText
}

func (s *PDFSource) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ImageSource OCRs raster drawings. Tokens are in pixel coordinates.
type ImageSource struct {
	Recognizer ocr.Recognizer
	MinWidth   int
}

// Load implements Source
func (s *ImageSource) Load(ctx context.Context, path string) (*Document, error) {
	if s.Recognizer == nil {
		return nil, &SourceError{Source: SourceImage, Op: "load", Path: path, Err: ocr.ErrOCRNotEnabled}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Source: SourceImage, Op: "read", Path: path, Err: err}
	}
	words, bounds, err := ocr.Recognize(ctx, s.Recognizer, data, s.MinWidth)
	if err != nil {
		return nil, &SourceError{Source: SourceImage, Op: "recognize", Path: path, Err: err}
	}

	return &Document{
		Path: path,
		Kind: SourceImage,
		Pages: []Page{{
			Number: 1,
			Width:  float64(bounds.Dx()),
			Height: float64(bounds.Dy()),
			OCR:    true,
			Tokens: ocr.Tokens(words, ocr.Identity, 0, 0),
		}},
	}, nil
}

// JSONSource reads tokens produced elsewhere, as an array of
// {"x": .., "y": .., "text": ..} objects.
type JSONSource struct{}

// Load implements Source
func (JSONSource) Load(_ context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Source: SourceJSON, Op: "read", Path: path, Err: err}
	}

	var tokens []layout.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, &SourceError{Source: SourceJSON, Op: "decode", Path: path, Err: err}
	}
	for i, t := range tokens {
		if t.X < 0 || t.Y < 0 {
			return nil, &SourceError{
				Source: SourceJSON,
				Op:     "decode",
				Path:   path,
				Err:    fmt.Errorf("token %d has negative coordinates (%v, %v)", i, t.X, t.Y),
			}
		}
	}

	return &Document{Path: path, Kind: SourceJSON, Pages: []Page{{Number: 1, Tokens: tokens}}}, nil
}

// Loader picks a Source by file extension
type Loader struct {
	sources map[SourceKind]Source
}

// LoaderOptions configures the sources a Loader builds
type LoaderOptions struct {
	Recognizer ocr.Recognizer
	MinText    int
	MinWidth   int
	Logger     *zap.Logger
}

// NewLoader creates a Loader for PDF, image and JSON drawings
func NewLoader(opts LoaderOptions) *Loader {
	return &Loader{sources: map[SourceKind]Source{
		SourcePDF: &PDFSource{
			Reader:     NewTextReader(DefaultSpanOptions()),
			Recognizer: opts.Recognizer,
			MinText:    opts.MinText,
			MinWidth:   opts.MinWidth,
			Logger:     opts.Logger,
		},
		SourceImage: &ImageSource{Recognizer: opts.Recognizer, MinWidth: opts.MinWidth},
		SourceJSON:  JSONSource{},
	}}
}

// Load reads path with the source matching its extension
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	kind, err := KindOf(path)
	if err != nil {
		return nil, err
	}
	src, ok := l.sources[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no %s source configured", ErrUnsupportedFormat, kind)
	}
	return src.Load(ctx, path)
}
