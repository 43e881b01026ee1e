package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-drawing-fields/internal/config"
	"github.com/a3tai/mcp-drawing-fields/internal/fields"
	"github.com/a3tai/mcp-drawing-fields/internal/mcp"
	"github.com/a3tai/mcp-drawing-fields/internal/metrics"
	"github.com/a3tai/mcp-drawing-fields/internal/ocr"
	"github.com/a3tai/mcp-drawing-fields/internal/pdf"
	"github.com/a3tai/mcp-drawing-fields/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. Stdout carries the MCP protocol in
// stdio mode, so logging stays off there unless debugging, and always goes
// to stderr.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		return zap.NewNop(), nil
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if cfg.IsCLIMode() {
		zc.Encoding = "console"
		zc.DisableStacktrace = true
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// newService wires field extraction, OCR and metrics into a drawing
// service. The returned func releases the OCR engine.
func newService(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*pdf.Service, func(), error) {
	extractor, err := fields.NewExtractor(cfg.Fields,
		fields.WithLogger(logger),
		fields.WithObserver(m),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid field configuration: %w", err)
	}

	var recognizer ocr.Recognizer
	release := func() {}
	if cfg.OCR {
		client, err := ocr.New(ocr.Options{Language: cfg.OCRLanguage})
		switch {
		case errors.Is(err, ocr.ErrOCRNotEnabled):
			logger.Warn("OCR requested but not compiled in; scanned drawings will yield no tokens",
				zap.Error(err))
		case err != nil:
			return nil, nil, fmt.Errorf("failed to start OCR: %w", err)
		default:
			recognizer = client
			release = func() {
				if err := client.Close(); err != nil {
					logger.Warn("failed to close OCR engine", zap.Error(err))
				}
			}
		}
	}

	svc, err := pdf.NewService(pdf.ServiceOptions{
		MaxFileSize: cfg.MaxFileSize,
		Directory:   cfg.DrawingDirectory,
		Extractor:   extractor,
		Recognizer:  recognizer,
		MinText:     cfg.MinText,
		MinWidth:    cfg.MinWidth,
		Observer:    m,
		Logger:      logger,
	})
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to create drawing service: %w", err)
	}
	return svc, release, nil
}

// extractFiles reports fields, or tokens, for every file named on the
// command line. A failing file is logged and does not stop the others.
func extractFiles(ctx context.Context, cfg *config.Config, svc *pdf.Service, logger *zap.Logger, w io.Writer) error {
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range cfg.Files {
		var result any
		if cfg.Tokens {
			result, err = svc.ExtractTokens(ctx, pdf.DrawingExtractTokensRequest{Path: path})
		} else {
			result, err = svc.ExtractFields(ctx, pdf.DrawingExtractFieldsRequest{Path: path})
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("extraction failed", zap.String("path", path), zap.Error(err))
			failed++
			continue
		}
		if err := report.Write(w, format, result); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d drawings failed", failed, len(cfg.Files))
	}
	return nil
}

// run executes the configured mode until it finishes or ctx is done
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, stdout io.Writer) error {
	m := metrics.New()

	svc, release, err := newService(cfg, m, logger)
	if err != nil {
		return err
	}
	defer release()

	if cfg.IsCLIMode() {
		return extractFiles(ctx, cfg, svc, logger, stdout)
	}

	server, err := mcp.NewServer(cfg, svc,
		mcp.WithLogger(logger),
		mcp.WithMetrics(m.Handler()),
		mcp.WithToolObserver(m),
	)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.IsServerMode() {
		logger.Info("starting drawing fields server",
			zap.String("version", cfg.Version),
			zap.String("config", cfg.String()),
		)
	}
	err = server.Run(ctx)
	if cfg.IsServerMode() && err == nil {
		logger.Info("server stopped successfully")
	}
	return err
}

func main() {
	cfg, err := config.LoadFromFlags()
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(os.Stdout)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	err = run(ctx, cfg, logger, os.Stdout)
	stop()
	_ = logger.Sync()

	if err != nil && !errors.Is(err, context.Canceled) {
		if !cfg.IsStdioMode() {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Drawing Fields\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
