package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/a3tai/mcp-drawing-fields/internal/pdf/security"
)

// Search finds drawings in a directory tree
type Search struct {
	validator *Validator
}

// NewSearch creates a search that skips files the validator would reject
// for their size
func NewSearch(maxFileSize int64) *Search {
	return &Search{validator: NewValidator(maxFileSize)}
}

// SearchDirectory lists the drawings under req.Directory that match the
// query and kind, in natural drawing-number order
func (s *Search) SearchDirectory(req DrawingSearchDirectoryRequest) (*DrawingSearchDirectoryResult, error) {
	if req.Directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}
	switch req.Kind {
	case "", SourcePDF, SourceImage, SourceJSON:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, req.Kind)
	}

	root, err := filepath.Abs(req.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("directory does not exist: %s", req.Directory)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", req.Directory)
	}

	files, err := s.walk(root, strings.ToLower(strings.TrimSpace(req.Query)), req.Kind)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(files, func(a, b FileInfo) int {
		return naturalCompare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	return &DrawingSearchDirectoryResult{
		Files:       files,
		TotalCount:  len(files),
		Directory:   root,
		SearchQuery: req.Query,
		Kind:        req.Kind,
	}, nil
}

func (s *Search) walk(root, query string, kind SourceKind) ([]FileInfo, error) {
	// Symlinked entries may point outside root
	sandbox, err := security.NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	drawings := []FileInfo{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if ok, err := sandbox.IsPathWithinDirectory(path); err != nil || !ok {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		fileKind, err := KindOf(d.Name())
		if err != nil || (kind != "" && fileKind != kind) {
			return nil //nolint:nilerr // not a drawing, or not the requested kind
		}
		if !s.matchesQuery(d.Name(), query) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // file vanished during the walk
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil //nolint:nilerr // empty or oversized
		}

		drawings = append(drawings, FileInfo{
			Path:         path,
			Name:         d.Name(),
			Kind:         fileKind,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return drawings, nil
}

// matchesQuery reports whether a file name matches a lower-cased query.
// The query matches as a substring, as a drawing number written with other
// separators ("a101" finds "A-101.pdf"), or word by word in any order.
func (s *Search) matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}

	name := strings.ToLower(filename)
	if strings.Contains(name, query) {
		return true
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if c := compact(query); c != "" && strings.Contains(compact(stem), c) {
		return true
	}

	words := s.splitIntoWords(stem)
	for _, q := range s.splitIntoWords(query) {
		if !slices.ContainsFunc(words, func(w string) bool { return strings.Contains(w, q) }) {
			return false
		}
	}
	return true
}

// splitIntoWords splits a file name on the separators drawing registers use
func (s *Search) splitIntoWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), isSeparator)
}

func isSeparator(r rune) bool {
	switch r {
	case ' ', '_', '-', '.', '(', ')', '[', ']':
		return true
	}
	return false
}

// compact drops separators so differently punctuated numbers compare equal
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}
		return r
	}, s)
}

// naturalCompare orders strings with embedded numbers by value, so sheet
// A-2 sorts before A-10
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		ca, cb := a[0], b[0]
		if isDigit(ca) && isDigit(cb) {
			na, restA := leadingDigits(a)
			nb, restB := leadingDigits(b)
			if c := compareNumbers(na, nb); c != 0 {
				return c
			}
			a, b = restA, restB
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		a, b = a[1:], b[1:]
	}
	return len(a) - len(b)
}

func leadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareNumbers compares decimal digit strings of any length
func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
