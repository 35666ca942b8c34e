// Package ocr turns images of soil reports into plain text.
package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/farm-analyzer/internal/vision"
)

var (
	// ErrNoText is returned when the engine recognized no text at all
	ErrNoText = errors.New("no text found in image")

	// ErrOCRNotEnabled is returned by the Tesseract engine when the binary
	// was built without the ocr build tag
	ErrOCRNotEnabled = errors.New("tesseract OCR support not enabled (build with -tags ocr)")
)

// Engine extracts the document text from an encoded image
type Engine interface {
	DocumentText(ctx context.Context, content []byte) (string, error)
}

// VisionEngine runs dense document OCR through Cloud Vision
type VisionEngine struct {
	annotator vision.Annotator
}

// NewVisionEngine creates an engine backed by annotator
func NewVisionEngine(annotator vision.Annotator) *VisionEngine {
	return &VisionEngine{annotator: annotator}
}

// DocumentText implements Engine
func (e *VisionEngine) DocumentText(ctx context.Context, content []byte) (string, error) {
	annotation, err := e.annotator.Annotate(ctx, content, vision.FeatureDocumentText)
	if err != nil {
		return "", err
	}

	if !annotation.HasFullText {
		return "", ErrNoText
	}

	if annotation.ErrorMessage != "" {
		return "", fmt.Errorf("vision API error: %s", annotation.ErrorMessage)
	}

	if annotation.FullText == "" {
		return "", ErrNoText
	}

	return annotation.FullText, nil
}
