package pdf

import (
	"github.com/a3tai/mcp-drawing-fields/internal/fields"
	"github.com/a3tai/mcp-drawing-fields/internal/layout"
)

// FileInfo represents information about a drawing file
type FileInfo struct {
	Path         string     `json:"path" yaml:"path"`
	Name         string     `json:"name" yaml:"name"`
	Kind         SourceKind `json:"kind" yaml:"kind"`
	Size         int64      `json:"size" yaml:"size"`
	ModifiedTime string     `json:"modified_time" yaml:"modified_time"`
}

// Request Types

// DrawingExtractFieldsRequest represents a request to locate title block fields
type DrawingExtractFieldsRequest struct {
	Path string `json:"path"`
	// Fields restricts extraction to the named fields; empty means all
	Fields []string `json:"fields,omitempty"`
}

// DrawingExtractTokensRequest represents a request to list positioned tokens
type DrawingExtractTokensRequest struct {
	Path string `json:"path"`
	// Page limits the listing to one page; 0 lists every page
	Page int `json:"page,omitempty"`
	// Query keeps only tokens containing the text, ignoring case
	Query string `json:"query,omitempty"`
}

// DrawingValidateFileRequest represents a request to validate a drawing file
type DrawingValidateFileRequest struct {
	Path string `json:"path"`
}

// DrawingSearchDirectoryRequest represents a request to search for drawings in a directory
type DrawingSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
	// Kind keeps only drawings read by one token source
	Kind SourceKind `json:"kind,omitempty"`
}

// DrawingServerInfoRequest represents a request to get server information and capabilities
type DrawingServerInfoRequest struct{}

// Response Types

// DrawingExtractFieldsResult holds the resolved fields of one drawing
type DrawingExtractFieldsResult struct {
	Path     string          `json:"path" yaml:"path"`
	Source   SourceKind      `json:"source" yaml:"source"`
	Pages    int             `json:"pages" yaml:"pages"`
	Tokens   int             `json:"tokens" yaml:"tokens"`
	OCRPages []int           `json:"ocr_pages,omitempty" yaml:"ocr_pages,omitempty"`
	Found    int             `json:"found" yaml:"found"`
	Fields   []fields.Result `json:"fields" yaml:"fields"`
}

// PageToken is a token tagged with the page it was found on
type PageToken struct {
	Page         int `json:"page" yaml:"page"`
	layout.Token `yaml:",inline"`
}

// DrawingExtractTokensResult lists the positioned tokens of a drawing
type DrawingExtractTokensResult struct {
	Path     string      `json:"path" yaml:"path"`
	Source   SourceKind  `json:"source" yaml:"source"`
	Pages    int         `json:"pages" yaml:"pages"`
	OCRPages []int       `json:"ocr_pages,omitempty" yaml:"ocr_pages,omitempty"`
	Count    int         `json:"count" yaml:"count"`
	Tokens   []PageToken `json:"tokens" yaml:"tokens"`
}

// DrawingValidateFileResult represents the result of a validation operation
type DrawingValidateFileResult struct {
	Valid   bool       `json:"valid"`
	Path    string     `json:"path"`
	Kind    SourceKind `json:"kind,omitempty"`
	Message string     `json:"message,omitempty"`
}

// DrawingSearchDirectoryResult represents the result of a directory search
type DrawingSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
	Kind        SourceKind `json:"kind,omitempty"`
}

// ToolInfo describes an available MCP tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// DrawingServerInfoResult represents server information and usage guidance
type DrawingServerInfoResult struct {
	ServerName        string        `json:"server_name"`
	Version           string        `json:"version"`
	DefaultDirectory  string        `json:"default_directory"`
	MaxFileSize       int64         `json:"max_file_size"`
	OCREnabled        bool          `json:"ocr_enabled"`
	AvailableTools    []ToolInfo    `json:"available_tools"`
	Fields            []fields.Spec `json:"fields"`
	DirectoryContents []FileInfo    `json:"directory_contents"`
	UsageGuidance     string        `json:"usage_guidance"`
	SupportedFormats  []string      `json:"supported_formats"`
}
