package pdf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by token sources
var (
	ErrUnsupportedFormat = errors.New("unsupported drawing format")
	ErrNoText            = errors.New("no text found and OCR is not available")
)

// SourceError records which token source and operation failed
type SourceError struct {
	Source SourceKind `json:"source"`
	Op     string     `json:"operation"`
	Path   string     `json:"path,omitempty"`
	Err    error      `json:"error"`
}

func (e *SourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s source error in %s: %v", e.Source, e.Op, e.Err)
	}
	return fmt.Sprintf("%s source error in %s for %s: %v", e.Source, e.Op, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
