package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/a3tai/mcp-drawing-fields/internal/fields"
	"github.com/a3tai/mcp-drawing-fields/internal/ocr"
	"github.com/a3tai/mcp-drawing-fields/internal/pdf/security"
)

// DocumentObserver is notified after every drawing load
type DocumentObserver interface {
	ObserveDocument(source string, tokens, ocrPages int, elapsed time.Duration, err error)
}

// ServiceOptions configures a Service
type ServiceOptions struct {
	MaxFileSize int64
	Directory   string
	Extractor   *fields.Extractor
	// Recognizer enables OCR of scanned pages and raster drawings
	Recognizer ocr.Recognizer
	MinText    int
	MinWidth   int
	Observer   DocumentObserver
	Logger     *zap.Logger
}

// Service handles drawing operations by orchestrating the token sources,
// field extraction and file discovery
type Service struct {
	maxFileSize   int64
	loader        *Loader
	extractor     *fields.Extractor
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	info          *DrawingServerInfo
	observer      DocumentObserver
	logger        *zap.Logger
	ocrEnabled    bool
}

// NewService creates a new drawing service with all components
func NewService(opts ServiceOptions) (*Service, error) {
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	extractor := opts.Extractor
	if extractor == nil {
		extractor, err = fields.NewExtractor(fields.DefaultSpecs(), fields.WithLogger(opts.Logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create field extractor: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		maxFileSize: opts.MaxFileSize,
		loader: NewLoader(LoaderOptions{
			Recognizer: opts.Recognizer,
			MinText:    opts.MinText,
			MinWidth:   opts.MinWidth,
			Logger:     logger,
		}),
		extractor:     extractor,
		validator:     NewValidator(opts.MaxFileSize),
		search:        NewSearch(opts.MaxFileSize),
		pathValidator: pathValidator,
		observer:      opts.Observer,
		logger:        logger,
		ocrEnabled:    opts.Recognizer != nil,
	}
	if err := s.ValidateConfiguration(); err != nil {
		return nil, err
	}
	s.info = NewDrawingServerInfo(s)
	return s, nil
}

// Load validates path and reads its tokens. Relative paths are taken from
// the configured directory.
func (s *Service) Load(ctx context.Context, path string) (*Document, error) {
	path, err := s.pathValidator.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}
	if err := s.validator.ValidateFileInfo(path, info); err != nil {
		return nil, err
	}

	kind, _ := KindOf(path)
	start := time.Now()
	doc, err := s.loader.Load(ctx, path)
	elapsed := time.Since(start)

	if s.observer != nil {
		tokens, ocrPages := 0, 0
		if doc != nil {
			tokens, ocrPages = doc.TokenCount(), len(doc.OCRPages())
		}
		s.observer.ObserveDocument(string(kind), tokens, ocrPages, elapsed, err)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("drawing loaded",
		zap.String("path", path),
		zap.String("source", string(doc.Kind)),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("tokens", doc.TokenCount()),
		zap.Ints("ocr_pages", doc.OCRPages()),
		zap.Duration("elapsed", elapsed),
	)
	return doc, nil
}

// ExtractFields locates the configured title block fields in a drawing
func (s *Service) ExtractFields(ctx context.Context, req DrawingExtractFieldsRequest) (*DrawingExtractFieldsResult, error) {
	doc, err := s.Load(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	corpus := doc.Corpus()

	result := &DrawingExtractFieldsResult{
		Path:     doc.Path,
		Source:   doc.Kind,
		Pages:    len(doc.Pages),
		Tokens:   corpus.Len(),
		OCRPages: doc.OCRPages(),
	}

	if len(req.Fields) == 0 {
		rep, err := s.extractor.Extract(ctx, corpus)
		if err != nil {
			return nil, err
		}
		result.Fields = rep.Results
	} else {
		for _, name := range req.Fields {
			res, err := s.extractor.ExtractField(ctx, corpus, fields.Field(strings.TrimSpace(name)))
			if err != nil {
				return nil, err
			}
			result.Fields = append(result.Fields, res)
		}
	}

	for _, r := range result.Fields {
		if r.Found() {
			result.Found++
		}
	}
	return result, nil
}

// ExtractTokens lists the positioned tokens of a drawing
func (s *Service) ExtractTokens(ctx context.Context, req DrawingExtractTokensRequest) (*DrawingExtractTokensResult, error) {
	if req.Page < 0 {
		return nil, fmt.Errorf("page must not be negative: %d", req.Page)
	}

	doc, err := s.Load(ctx, req.Path)
	if err != nil {
		return nil, err
	}
	if req.Page > len(doc.Pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", req.Page, len(doc.Pages))
	}

	lower := cases.Lower(language.Und)
	query := lower.String(strings.TrimSpace(req.Query))

	result := &DrawingExtractTokensResult{
		Path:     doc.Path,
		Source:   doc.Kind,
		Pages:    len(doc.Pages),
		OCRPages: doc.OCRPages(),
		Tokens:   []PageToken{},
	}
	for _, p := range doc.Pages {
		if req.Page != 0 && p.Number != req.Page {
			continue
		}
		for _, t := range p.Tokens {
			if query != "" && !strings.Contains(lower.String(t.Text), query) {
				continue
			}
			result.Tokens = append(result.Tokens, PageToken{Page: p.Number, Token: t})
		}
	}
	result.Count = len(result.Tokens)
	return result, nil
}

// ValidateFile performs validation on a drawing file
func (s *Service) ValidateFile(req DrawingValidateFileRequest) (*DrawingValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// SearchDirectory searches for drawings in a directory
func (s *Service) SearchDirectory(req DrawingSearchDirectoryRequest) (*DrawingSearchDirectoryResult, error) {
	// If no directory specified, use configured directory
	if req.Directory == "" {
		req.Directory = s.pathValidator.Root()
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// ServerInfo reports server capabilities and the drawings in the configured directory
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*DrawingServerInfoResult, error) {
	return s.info.GetServerInfo(ctx, serverName, version)
}

// Specs returns the field configuration in use
func (s *Service) Specs() []fields.Spec {
	return s.extractor.Specs()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// OCREnabled reports whether scanned pages can be recognized
func (s *Service) OCREnabled() bool {
	return s.ocrEnabled
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
