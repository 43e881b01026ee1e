package pdf

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// Validator checks that drawing files exist, fit the size limit and can be
// decoded by the source that would load them
type Validator struct {
	maxFileSize int64
	checks      map[SourceKind]func(path string) error
}

// NewValidator creates a validator that rejects files above maxFileSize bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		checks: map[SourceKind]func(string) error{
			SourcePDF:   checkPDF,
			SourceImage: checkImage,
			SourceJSON:  checkTokenFile,
		},
	}
}

// ValidateFile reports whether the drawing at req.Path can be loaded.
// Problems with the file are reported in the result, not as an error.
func (v *Validator) ValidateFile(req DrawingValidateFileRequest) (*DrawingValidateFileResult, error) {
	result := &DrawingValidateFileResult{Path: req.Path}

	kind, err := v.check(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // an unloadable drawing is a result
	}

	result.Kind = kind
	result.Valid = true
	return result, nil
}

// IsValidDrawing is ValidateFile without the report
func (v *Validator) IsValidDrawing(filePath string) bool {
	_, err := v.check(filePath)
	return err == nil
}

func (v *Validator) check(filePath string) (SourceKind, error) {
	if filePath == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(filePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("file does not exist: %s", filePath)
	case err != nil:
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if err := v.ValidateFileInfo(filePath, info); err != nil {
		return "", err
	}

	kind, err := KindOf(filePath)
	if err != nil {
		return "", err
	}
	if err := v.checks[kind](filePath); err != nil {
		return "", err
	}
	return kind, nil
}

// ValidateFileInfo checks type, emptiness and size from stat data alone
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if _, err := KindOf(filePath); err != nil {
		return fmt.Errorf("file is not a supported drawing: %s", filePath)
	}

	switch size := fileInfo.Size(); {
	case size == 0:
		return fmt.Errorf("file is empty: %s", filePath)
	case size > v.maxFileSize:
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)", size, v.maxFileSize)
	}
	return nil
}

// checkPDF needs both readers to accept the file: ledongthuc for the text
// layer and pdfcpu for page boxes and images.
func checkPDF(path string) error {
	f, _, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("invalid PDF file: %w", err)
	}
	f.Close()
	return ValidateStructure(path)
}

func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("invalid image file: %w", err)
	}
	return nil
}

func checkTokenFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read file: %w", err)
	}

	var tokens []layout.Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return fmt.Errorf("invalid JSON token file: %w", err)
	}
	for i, t := range tokens {
		if t.X < 0 || t.Y < 0 {
			return fmt.Errorf("invalid JSON token file: token %d has negative coordinates", i)
		}
	}
	return nil
}
