package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/farm-analyzer/internal/api"
	"github.com/a3tai/farm-analyzer/internal/config"
	"github.com/a3tai/farm-analyzer/internal/crop"
	"github.com/a3tai/farm-analyzer/internal/logging"
	"github.com/a3tai/farm-analyzer/internal/mcp"
	"github.com/a3tai/farm-analyzer/internal/ocr"
	"github.com/a3tai/farm-analyzer/internal/pdf"
	"github.com/a3tai/farm-analyzer/internal/soil"
	"github.com/a3tai/farm-analyzer/internal/vision"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsStdioMode())
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.IsDebug() {
		logger.Debug("starting with configuration", zap.String("config", cfg.String()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("farm-analyzer stopped with error", zap.Error(err))
		_ = logger.Sync()
		if cfg.IsServerMode() {
			fmt.Fprintf(os.Stderr, "farm-analyzer: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, extractor, analyzer := newPipeline(cfg, logger)
	defer client.Close()

	if cfg.IsServerMode() {
		return runServerMode(ctx, cfg, extractor, analyzer, logger)
	}
	return runStdioMode(ctx, cfg, extractor, analyzer, logger)
}

// newPipeline wires the extraction components. Nothing here touches the
// network; the vision client connects on its first call.
func newPipeline(cfg *config.Config, logger *zap.Logger) (*vision.Client, *soil.Extractor, *crop.Analyzer) {
	client := vision.NewClient(cfg.CredentialsFile, cfg.VisionConcurrency, logger.Named("vision"))
	extractor := soil.NewExtractor(pdf.NewReader(0), newOCREngine(cfg, client), logger.Named("soil"))
	analyzer := crop.NewAnalyzer(client, logger.Named("crop"))
	return client, extractor, analyzer
}

func newOCREngine(cfg *config.Config, annotator vision.Annotator) ocr.Engine {
	if cfg.OCRBackend == config.OCRBackendTesseract {
		return ocr.NewTesseractEngine(cfg.OCRLanguage)
	}
	return ocr.NewVisionEngine(annotator)
}

// runServerMode serves HTTP until ctx is cancelled, then drains in-flight
// requests for at most the configured shutdown timeout.
func runServerMode(ctx context.Context, cfg *config.Config, extractor *soil.Extractor, analyzer *crop.Analyzer, logger *zap.Logger) error {
	server, err := api.NewServer(cfg, extractor, analyzer, logger.Named("http"))
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Start()
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
		logger.Info("initiating graceful shutdown", zap.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if err := <-serverErrCh; err != nil {
			return err
		}
	}

	logger.Info("server stopped successfully")
	return nil
}

// runStdioMode serves MCP tools until the parent closes stdin
func runStdioMode(ctx context.Context, cfg *config.Config, extractor *soil.Extractor, analyzer *crop.Analyzer, logger *zap.Logger) error {
	server, err := mcp.NewServer(cfg, extractor, analyzer, logger.Named("mcp"))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return server.ServeStdio(ctx)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Farm Analyzer\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
