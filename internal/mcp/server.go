package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-drawing-fields/internal/config"
	"github.com/a3tai/mcp-drawing-fields/internal/descriptions"
	"github.com/a3tai/mcp-drawing-fields/internal/pdf"
)

const (
	endpointPath    = "/mcp"
	metricsPath     = "/metrics"
	shutdownTimeout = 5 * time.Second
)

// ToolObserver is notified after every tool call
type ToolObserver interface {
	ObserveTool(tool string, failed bool)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *pdf.Service
	mcpServer *server.MCPServer
	metrics   http.Handler
	observer  ToolObserver
	logger    *zap.Logger
	stdin     io.Reader
	stdout    io.Writer
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger used for transport and tool call logging
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics serves h on /metrics next to the MCP endpoint in server mode
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithToolObserver reports every tool call to o
func WithToolObserver(o ToolObserver) Option {
	return func(s *Server) { s.observer = o }
}

// WithStdio replaces os.Stdin and os.Stdout in stdio mode
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.stdin = in
		s.stdout = out
	}
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, service *pdf.Service, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("drawing service cannot be nil")
	}

	s := &Server{
		config:  cfg,
		service: service,
		logger:  zap.NewNop(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	hooks := &server.Hooks{}
	hooks.AddAfterCallTool(s.afterCallTool)

	s.mcpServer = server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	pathOption := mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Drawing file: absolute, or relative to the configured directory"),
	)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractFields)),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
		mcp.WithString("fields",
			mcp.Description("Comma separated field names to extract; all configured fields if empty"),
		),
	), s.handleExtractFields)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolExtractTokens,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractTokens)),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
		mcp.WithNumber("page",
			mcp.Description("Page number starting at 1; every page if 0 or omitted"),
		),
		mcp.WithString("query",
			mcp.Description("Keep only tokens containing this text, ignoring case"),
		),
	), s.handleExtractTokens)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithReadOnlyHintAnnotation(true),
		pathOption,
	), s.handleValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolSearchDirectory,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolSearchDirectory)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses default if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query; drawing numbers match regardless of separators"),
		),
		mcp.WithString("kind",
			mcp.Description("Optional token source filter"),
			mcp.Enum(string(pdf.SourcePDF), string(pdf.SourceImage), string(pdf.SourceJSON)),
		),
	), s.handleSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleServerInfo)
}

func (s *Server) afterCallTool(_ context.Context, _ any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
	failed := res == nil || res.IsError
	s.logger.Debug("tool call",
		zap.String("tool", req.Params.Name),
		zap.Bool("failed", failed),
	)
	if s.observer != nil {
		s.observer.ObserveTool(req.Params.Name, failed)
	}
}

// Handler functions

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.DrawingExtractFieldsRequest{
		Path:   path,
		Fields: splitList(request.GetString("fields", "")),
	}
	result, err := s.service.ExtractFields(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

func (s *Server) handleExtractTokens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := pdf.DrawingExtractTokensRequest{
		Path:  path,
		Page:  request.GetInt("page", 0),
		Query: request.GetString("query", ""),
	}
	result, err := s.service.ExtractTokens(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

func (s *Server) handleValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ValidateFile(pdf.DrawingValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Drawing %s is valid (%s)", result.Path, result.Kind)
	} else {
		responseText = fmt.Sprintf("Drawing validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleSearchDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := pdf.DrawingSearchDirectoryRequest{
		Directory: request.GetString("directory", ""),
		Query:     request.GetString("query", ""),
		Kind:      pdf.SourceKind(request.GetString("kind", "")),
	}

	result, err := s.service.SearchDirectory(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.TotalCount == 0 {
		responseText := fmt.Sprintf("No drawings found in directory: %s", result.Directory)
		if result.SearchQuery != "" {
			responseText += fmt.Sprintf(" (searched for: %s)", result.SearchQuery)
		}
		return mcp.NewToolResultText(responseText), nil
	}

	return mcp.NewToolResultText(formatSearchDirectoryResult(result)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.service.ServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatServerInfoResult(result)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Formatting

func formatSearchDirectoryResult(result *pdf.DrawingSearchDirectoryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d drawing(s) in directory: %s\n", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		fmt.Fprintf(&b, "Search query: %s\n", result.SearchQuery)
	}
	b.WriteString("\nFiles:\n")

	for i, file := range result.Files {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, file.Name, file.Kind)
		fmt.Fprintf(&b, "   Path: %s\n", file.Path)
		fmt.Fprintf(&b, "   Size: %d bytes\n", file.Size)
		fmt.Fprintf(&b, "   Modified: %s\n", file.ModifiedTime)
		if i < len(result.Files)-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatServerInfoResult(result *pdf.DrawingServerInfoResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	fmt.Fprintf(&b, "OCR Enabled: %t\n\n", result.OCREnabled)

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d drawings found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 {
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Directory Contents: No drawings found in default directory\n\n")
	}

	b.WriteString("Fields:\n")
	for _, spec := range result.Fields {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", spec.Field, strings.Join(spec.Synonyms, ", "), spec.Strategy)
	}

	b.WriteString("\nAvailable Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n- %s\n", tool.Name)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	if len(result.SupportedFormats) > 0 {
		fmt.Fprintf(&b, "\nSupported File Types: %s\n", strings.Join(result.SupportedFormats, ", "))
	}

	b.WriteString("\n" + result.UsageGuidance)
	return b.String()
}

// Handler returns the HTTP handler serving the MCP endpoint and, when
// configured, Prometheus metrics
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(endpointPath, server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath(endpointPath),
	))
	if s.metrics != nil {
		mux.Handle(metricsPath, s.metrics)
	}
	return mux
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// done or the transport fails
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting stdio transport",
		zap.String("directory", s.config.DrawingDirectory),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP transport",
			zap.String("address", httpServer.Addr),
			zap.String("endpoint", endpointPath),
			zap.Bool("metrics", s.metrics != nil),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	s.logger.Info("HTTP transport stopped")
	return nil
}
