// Package soil reads numeric soil test parameters out of uploaded reports.
package soil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/farm-analyzer/internal/logging"
	"github.com/a3tai/farm-analyzer/internal/ocr"
	"github.com/a3tai/farm-analyzer/internal/pdf"
)

const (
	MimePDF = "application/pdf"

	MethodPDFText  = "pdf-text"
	MethodImageOCR = "image-ocr"
)

var (
	// ErrUnsupportedType is returned for content that is neither a PDF nor an image
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmptyText is returned when a document produced no text to search
	ErrEmptyText = errors.New("no text extracted from report")
)

var supportedReportTypes = map[string]bool{
	MimePDF:      true,
	"image/jpeg": true,
	"image/png":  true,
	"image/jpg":  true,
}

// IsSupportedReportType reports whether mimeType is accepted for soil report
// uploads. Extract itself handles any image type.
func IsSupportedReportType(mimeType string) bool {
	return supportedReportTypes[mimeType]
}

// TextReader extracts the text layer of a PDF
type TextReader interface {
	ExtractText(content []byte) (*pdf.TextResult, error)
}

// Outcome is the result of one extraction. When Err is set every parameter
// is nil.
type Outcome struct {
	Parameters Parameters
	Method     string
	Duration   time.Duration
	Err        error
}

// OK reports whether text was extracted and searched
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Extractor routes a report to PDF text extraction or OCR by MIME type
type Extractor struct {
	pdf    TextReader
	ocr    ocr.Engine
	logger *zap.Logger
}

// NewExtractor creates an extractor; a nil logger discards output
func NewExtractor(reader TextReader, engine ocr.Engine, logger *zap.Logger) *Extractor {
	logger = logging.OrNop(logger)
	return &Extractor{
		pdf:    reader,
		ocr:    engine,
		logger: logger,
	}
}

// Extract never fails: problems are recorded in the returned Outcome and logged.
func (e *Extractor) Extract(ctx context.Context, content []byte, mimeType string) (outcome Outcome) {
	start := time.Now()
	outcome.Method = methodFor(mimeType)

	defer func() {
		if rec := recover(); rec != nil {
			outcome.Err = fmt.Errorf("panic during extraction: %v", rec)
		}
		if outcome.Err != nil {
			outcome.Parameters = Parameters{}
			e.logger.Warn("soil report extraction failed",
				zap.String("mime_type", mimeType),
				zap.String("method", outcome.Method),
				zap.Error(outcome.Err),
			)
		}
		outcome.Duration = time.Since(start)
		e.logger.Debug("soil report extraction finished",
			zap.String("method", outcome.Method),
			zap.Int("found", outcome.Parameters.Found()),
			zap.Duration("elapsed", outcome.Duration),
		)
	}()

	text, err := e.text(ctx, content, mimeType)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if strings.TrimSpace(text) == "" {
		outcome.Err = ErrEmptyText
		return outcome
	}

	outcome.Parameters = ParseParameters(text)
	return outcome
}

func (e *Extractor) text(ctx context.Context, content []byte, mimeType string) (string, error) {
	switch methodFor(mimeType) {
	case MethodPDFText:
		result, err := e.pdf.ExtractText(content)
		if err != nil {
			return "", fmt.Errorf("pdf text extraction: %w", err)
		}
		return result.Text, nil
	case MethodImageOCR:
		text, err := e.ocr.DocumentText(ctx, content)
		if err != nil {
			return "", fmt.Errorf("ocr: %w", err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
}

func methodFor(mimeType string) string {
	switch {
	case mimeType == MimePDF:
		return MethodPDFText
	case strings.HasPrefix(mimeType, "image/"):
		return MethodImageOCR
	default:
		return ""
	}
}
