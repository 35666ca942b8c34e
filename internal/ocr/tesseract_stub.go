//go:build !ocr

package ocr

import "context"

// TesseractEngine is unavailable without the ocr build tag
type TesseractEngine struct{}

// NewTesseractEngine returns an engine that always fails with ErrOCRNotEnabled
func NewTesseractEngine(string) *TesseractEngine {
	return &TesseractEngine{}
}

// DocumentText implements Engine
func (e *TesseractEngine) DocumentText(context.Context, []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
