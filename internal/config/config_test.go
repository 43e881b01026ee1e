package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a3tai/mcp-drawing-fields/internal/fields"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}
	if cfg.ServerName != "mcp-drawing-fields" {
		t.Errorf("Expected default server name to be 'mcp-drawing-fields', got '%s'", cfg.ServerName)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}
	if cfg.OCR {
		t.Error("Expected OCR to be disabled by default")
	}
	if cfg.MinText != 30 {
		t.Errorf("Expected default mintext to be 30, got %d", cfg.MinText)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format to be 'text', got '%s'", cfg.Format)
	}
	if len(cfg.Fields) != len(fields.DefaultSpecs()) {
		t.Errorf("Expected %d default fields, got %d", len(fields.DefaultSpecs()), len(cfg.Fields))
	}

	currentDir, _ := os.Getwd()
	if cfg.DrawingDirectory != currentDir {
		t.Errorf("Expected default drawing directory to be '%s', got '%s'", currentDir, cfg.DrawingDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	valid := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		cfg.DrawingDirectory = tempDir
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{"valid stdio", valid(func(*Config) {}), ""},
		{"valid server", valid(func(c *Config) { c.Mode = ModeServer; c.Port = 9000 }), ""},
		{"missing directory allowed", valid(func(c *Config) { c.DrawingDirectory = filepath.Join(tempDir, "later") }), ""},
		{"invalid mode", valid(func(c *Config) { c.Mode = "grpc" }), "mode must be"},
		{"invalid port", valid(func(c *Config) { c.Mode = ModeServer; c.Port = 70000 }), "port must be"},
		{"port ignored in stdio", valid(func(c *Config) { c.Port = 0 }), ""},
		{"empty directory", valid(func(c *Config) { c.DrawingDirectory = "" }), "directory cannot be empty"},
		{"directory is a file", valid(func(c *Config) { c.DrawingDirectory = file }), "not a directory"},
		{"zero max size", valid(func(c *Config) { c.MaxFileSize = 0 }), "must be positive"},
		{"bad format", valid(func(c *Config) { c.Format = "xml" }), "invalid format"},
		{"negative mintext", valid(func(c *Config) { c.MinText = -1 }), "must not be negative"},
		{"ocr without language", valid(func(c *Config) { c.OCR = true; c.OCRLanguage = "" }), "OCR language"},
		{"no fields", valid(func(c *Config) { c.Fields = nil }), "at least one field"},
		{"duplicate fields", valid(func(c *Config) { c.Fields = append(c.Fields, c.Fields[0]) }), "duplicate field"},
		{"bad pattern", valid(func(c *Config) { c.Fields[0].Pattern = "([" }), "invalid field configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Config.Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDoesNotCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "non-existent", "drawings")
	cfg := DefaultConfig()
	cfg.DrawingDirectory = dir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Config.Validate() unexpected error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("Directory should not have been created: %s", dir)
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := DefaultConfig()
		cfg.DrawingDirectory = t.TempDir()
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("log level %q: unexpected error %v", level, err)
		}
	}
	for _, level := range []string{"DEBUG", "trace", "fatal", ""} {
		cfg := DefaultConfig()
		cfg.DrawingDirectory = t.TempDir()
		cfg.LogLevel = level
		if err := cfg.Validate(); err == nil {
			t.Errorf("log level %q: expected error", level)
		}
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}
	if got := cfg.Address(); got != "192.168.1.1:9090" {
		t.Errorf("Config.Address() = %v, want %v", got, "192.168.1.1:9090")
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		name                  string
		mode                  string
		files                 []string
		wantStdio, wantServer bool
		wantCLI               bool
	}{
		{"stdio", ModeStdio, nil, true, false, false},
		{"server", ModeServer, nil, false, true, false},
		{"files win over stdio", ModeStdio, []string{"a.pdf"}, false, false, true},
		{"files win over server", ModeServer, []string{"a.pdf"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode, Files: tt.files}
			if cfg.IsStdioMode() != tt.wantStdio {
				t.Errorf("IsStdioMode() = %v, want %v", cfg.IsStdioMode(), tt.wantStdio)
			}
			if cfg.IsServerMode() != tt.wantServer {
				t.Errorf("IsServerMode() = %v, want %v", cfg.IsServerMode(), tt.wantServer)
			}
			if cfg.IsCLIMode() != tt.wantCLI {
				t.Errorf("IsCLIMode() = %v, want %v", cfg.IsCLIMode(), tt.wantCLI)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	if !(&Config{LogLevel: "debug"}).IsDebug() {
		t.Error("IsDebug() = false for debug level")
	}
	if (&Config{LogLevel: "info"}).IsDebug() {
		t.Error("IsDebug() = true for info level")
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:             "server",
		Host:             "localhost",
		Port:             8080,
		DrawingDirectory: "/srv/drawings",
		LogLevel:         "debug",
		MaxFileSize:      1024,
		OCR:              true,
		Fields:           fields.DefaultSpecs(),
	}

	result := cfg.String()
	for _, substr := range []string{
		"Mode: server",
		"Host: localhost",
		"Port: 8080",
		"DrawingDirectory: /srv/drawings",
		"LogLevel: debug",
		"MaxFileSize: 1024",
		"OCR: true",
		"Fields: 5",
	} {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func ptr[T any](v T) *T { return &v }

func TestMergeFields(t *testing.T) {
	merged := MergeFields(fields.DefaultSpecs(), []FieldOverride{
		{Field: fields.Revision, Synonyms: []string{"REV"}, MaxLength: ptr(2)},
		{Field: "sheet", Synonyms: []string{"Sheet"}, DX: ptr(1.0), DY: ptr(1.0), RequiredResults: ptr(1)},
	})

	if len(merged) != 6 {
		t.Fatalf("MergeFields() returned %d specs, want 6", len(merged))
	}

	rev := merged[2]
	if rev.Field != fields.Revision || len(rev.Synonyms) != 1 || rev.Synonyms[0] != "REV" {
		t.Errorf("revision synonyms not overridden: %+v", rev)
	}
	if rev.MaxLength != 2 || rev.Pattern != fields.RevisionPattern || rev.DY != 1 {
		t.Errorf("revision merge lost defaults: %+v", rev)
	}

	sheet := merged[5]
	if sheet.Strategy != fields.StrategyFirst {
		t.Errorf("new field strategy = %q, want %q", sheet.Strategy, fields.StrategyFirst)
	}
	if sheet.DX != 1 || sheet.RequiredResults != 1 {
		t.Errorf("new field settings not applied: %+v", sheet)
	}

	if def := fields.DefaultSpecs()[2]; len(def.Synonyms) != 4 {
		t.Errorf("defaults were modified: %+v", def)
	}
}

func TestMergeFields_ZeroValues(t *testing.T) {
	merged := MergeFields(fields.DefaultSpecs(), []FieldOverride{
		{Field: fields.Revision, MaxLength: ptr(0), Pattern: ptr("")},
		{Field: fields.ProjectName, RequiredResults: ptr(0)},
		{Field: fields.DrawingTitle, FallbackSynonyms: []string{}},
	})

	rev := merged[2]
	if rev.MaxLength != 0 || rev.Pattern != "" {
		t.Errorf("revision max_length and pattern not cleared: %+v", rev)
	}
	if rev.DX != 1 || rev.DY != 1 || rev.RequiredResults != 3 {
		t.Errorf("revision keys left out of the override changed: %+v", rev)
	}
	if merged[3].RequiredResults != 0 {
		t.Errorf("project required = %d, want 0", merged[3].RequiredResults)
	}
	if len(merged[4].FallbackSynonyms) != 0 || merged[4].FallbackPrefix != fields.DefaultTitlePrefix {
		t.Errorf("title fallback not cleared: %+v", merged[4])
	}
}
