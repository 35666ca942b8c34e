package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/farm-analyzer/internal/config"
	"github.com/a3tai/farm-analyzer/internal/crop"
	"github.com/a3tai/farm-analyzer/internal/descriptions"
	"github.com/a3tai/farm-analyzer/internal/logging"
	"github.com/a3tai/farm-analyzer/internal/pdf"
	"github.com/a3tai/farm-analyzer/internal/security"
	"github.com/a3tai/farm-analyzer/internal/soil"
)

const (
	msgInvalidSoilReport = "Invalid soil report file type. Please upload a PDF, JPEG, PNG, or JPG image."
	msgInvalidCropImage  = "Invalid crop image file type. Please upload an image."
)

// SoilExtractor reads soil parameters from a report
type SoilExtractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) soil.Outcome
}

// CropAnalyzer describes a crop photo
type CropAnalyzer interface {
	Analyze(ctx context.Context, content []byte) crop.Outcome
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor SoilExtractor
	analyzer  CropAnalyzer
	validator *pdf.Validator
	paths     *security.PathValidator
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, extractor SoilExtractor, analyzer CropAnalyzer, logger *zap.Logger) (*Server, error) {
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer cannot be nil")
	}
	logger = logging.OrNop(logger)

	paths, err := security.NewPathValidator(cfg.ReportDirectory)
	if err != nil {
		return nil, err
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		extractor: extractor,
		analyzer:  analyzer,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	analyzeSoilReportTool := mcp.NewTool(
		"analyze_soil_report",
		mcp.WithDescription(descriptions.AnalyzeSoilReportDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the soil report, absolute or relative to the report directory"),
		),
		mcp.WithString("mime_type",
			mcp.Description("MIME type of the report (application/pdf, image/jpeg, image/png); inferred from the file when empty"),
		),
	)
	s.mcpServer.AddTool(analyzeSoilReportTool, s.handleAnalyzeSoilReport)

	analyzeCropImageTool := mcp.NewTool(
		"analyze_crop_image",
		mcp.WithDescription(descriptions.AnalyzeCropImageDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the crop photo, absolute or relative to the report directory"),
		),
	)
	s.mcpServer.AddTool(analyzeCropImageTool, s.handleAnalyzeCropImage)

	validateSoilReportTool := mcp.NewTool(
		"validate_soil_report",
		mcp.WithDescription(descriptions.ValidateSoilReportDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the soil report, absolute or relative to the report directory"),
		),
	)
	s.mcpServer.AddTool(validateSoilReportTool, s.handleValidateSoilReport)
}

type soilReportResult struct {
	Path           string          `json:"path"`
	MimeType       string          `json:"mime_type"`
	Method         string          `json:"method"`
	Status         string          `json:"status"`
	Error          string          `json:"error,omitempty"`
	DurationMillis int64           `json:"duration_ms"`
	SoilReportData soil.Parameters `json:"soil_report_data"`
}

func (s *Server) handleAnalyzeSoilReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, content, err := s.readFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mimeType := strings.TrimSpace(request.GetString("mime_type", ""))
	if mimeType == "" {
		mimeType = detectMimeType(resolved, content)
	}
	if !soil.IsSupportedReportType(mimeType) {
		return mcp.NewToolResultError(msgInvalidSoilReport), nil
	}

	outcome := s.extractor.Extract(ctx, content, mimeType)

	result := soilReportResult{
		Path:           resolved,
		MimeType:       mimeType,
		Method:         outcome.Method,
		Status:         "ok",
		DurationMillis: outcome.Duration.Milliseconds(),
		SoilReportData: outcome.Parameters,
	}
	if !outcome.OK() {
		result.Status = "failed"
		result.Error = outcome.Err.Error()
	}

	return jsonResult(result)
}

func (s *Server) handleAnalyzeCropImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, content, err := s.readFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !strings.HasPrefix(detectMimeType(resolved, content), "image/") {
		return mcp.NewToolResultError(msgInvalidCropImage), nil
	}

	return jsonResult(s.analyzer.Analyze(ctx, content).Result())
}

func (s *Server) handleValidateSoilReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, content, err := s.readFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if pdf.HasPDFHeader(content) || detectMimeType(resolved, content) == soil.MimePDF {
		result := s.validator.Validate(content)
		if !result.Valid {
			return mcp.NewToolResultText(fmt.Sprintf("PDF validation failed for %s: %s", resolved, result.Message)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"Soil report %s is a valid PDF (version %s, %d pages, %d bytes)",
			resolved, result.Version, result.Pages, result.Size,
		)), nil
	}

	sniffed := sniffContentType(content)
	if soil.IsSupportedReportType(sniffed) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Soil report %s is an image (%s, %d bytes) and will be read with OCR", resolved, sniffed, len(content),
		)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Unsupported soil report type for %s: %s", resolved, sniffed)), nil
}

// readFile resolves path inside the report directory and loads it
func (s *Server) readFile(path string) (string, []byte, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("cannot access file: %w", err)
	}
	if info.Size() > s.config.MaxFileSize {
		return "", nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), s.config.MaxFileSize)
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return "", nil, errors.New("file is empty")
	}

	return resolved, content, nil
}

// detectMimeType prefers the file extension and falls back to sniffing
func detectMimeType(path string, content []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		if mediaType, _, err := mime.ParseMediaType(byExt); err == nil {
			return mediaType
		}
	}
	return sniffContentType(content)
}

func sniffContentType(content []byte) string {
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(content))
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// ServeStdio serves MCP over stdin/stdout until ctx is cancelled or the
// client closes the stream.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode",
		zap.String("report_directory", s.paths.Root()),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger))

	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
