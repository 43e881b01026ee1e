package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/a3tai/mcp-drawing-fields/internal/config"
	"github.com/a3tai/mcp-drawing-fields/internal/metrics"
)

const testVersion = "1.2.3"

const titleBlockJSON = `[
  {"x": 0, "y": 0, "text": "Job Number"},
  {"x": 0, "y": 1, "text": "A123456"},
  {"x": 300, "y": 0, "text": "Drawing Number"},
  {"x": 300, "y": 1, "text": "ABC-123"},
  {"x": 600, "y": 0, "text": "Revision"},
  {"x": 600, "y": 1, "text": "P01"}
]`

func init() {
	color.NoColor = true
}

func testConfig(t *testing.T, files ...string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A-101.json"), []byte(titleBlockJSON), 0o600))

	cfg := config.DefaultConfig()
	cfg.DrawingDirectory = dir
	cfg.Files = files
	return cfg
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = testVersion, "2025-06-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)

	output := buf.String()
	for _, expected := range []string{
		"Drawing Fields",
		"Version: " + testVersion,
		"Build Time: 2025-06-01_10:30:00",
		"Git Commit: abc123",
		"Built with: go",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("printVersion() output missing expected string: %s\nActual output:\n%s", expected, output)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		level     string
		files     []string
		wantLevel zapcore.Level
		wantNop   bool
	}{
		{"stdio is silent", config.ModeStdio, "info", nil, zapcore.InfoLevel, true},
		{"stdio debug logs", config.ModeStdio, "debug", nil, zapcore.DebugLevel, false},
		{"server logs at level", config.ModeServer, "warn", nil, zapcore.WarnLevel, false},
		{"cli logs at level", config.ModeStdio, "error", []string{"a.pdf"}, zapcore.ErrorLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.level, Files: tt.files}
			logger, err := newLogger(cfg)
			require.NoError(t, err)

			if tt.wantNop {
				assert.Nil(t, logger.Check(zapcore.ErrorLevel, "x"))
				return
			}
			assert.True(t, logger.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.wantLevel-1))
			}
		})
	}

	_, err := newLogger(&config.Config{Mode: config.ModeServer, LogLevel: "loud"})
	assert.Error(t, err)
}

func TestNewService(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR = true

	svc, release, err := newService(cfg, metrics.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer release()
	assert.Len(t, svc.Specs(), len(cfg.Fields))

	cfg.Fields[0].Pattern = "(["
	_, _, err = newService(cfg, metrics.New(), zap.NewNop())
	assert.ErrorContains(t, err, "invalid field configuration")
}

func TestRun_CLIFields(t *testing.T) {
	cfg := testConfig(t, "A-101.json")
	cfg.Format = config.FormatJSON

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t), &out))

	var decoded struct {
		Source string `json:"source"`
		Found  int    `json:"found"`
		Fields []struct {
			Field string `json:"field"`
			Text  string `json:"text"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "json", decoded.Source)
	assert.Equal(t, 3, decoded.Found)
	require.Len(t, decoded.Fields, len(cfg.Fields))
	assert.Equal(t, "drawing_number", decoded.Fields[1].Field)
	assert.Equal(t, "ABC-123", decoded.Fields[1].Text)
}

func TestRun_CLIText(t *testing.T) {
	cfg := testConfig(t, "A-101.json")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t), &out))

	text := out.String()
	assert.Contains(t, text, "A-101.json (json, 1 page)")
	assert.Contains(t, text, "P01")
	assert.Contains(t, text, "not found")
	assert.Contains(t, text, "3 of 5 fields found in 6 tokens")
}

func TestRun_CLITokens(t *testing.T) {
	cfg := testConfig(t, "A-101.json")
	cfg.Tokens = true
	cfg.Format = config.FormatYAML

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t), &out))
	assert.Contains(t, out.String(), "count: 6")
	assert.Contains(t, out.String(), "text: Revision")
}

func TestRun_CLIFailures(t *testing.T) {
	cfg := testConfig(t, "A-101.json", "missing.json", "../outside.json")
	cfg.Format = config.FormatJSON

	var out bytes.Buffer
	err := run(context.Background(), cfg, zaptest.NewLogger(t), &out)
	assert.EqualError(t, err, "2 of 3 drawings failed")
	assert.Contains(t, out.String(), `"ABC-123"`)
}

func TestRun_ServerMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = config.ModeServer
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, run(ctx, cfg, zaptest.NewLogger(t), &bytes.Buffer{}))
}
