package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validator checks uploaded PDF documents for structural validity
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// Validate reports whether content is a readable PDF. Problems with the
// document are described in the result, not returned as errors.
func (v *Validator) Validate(content []byte) *ValidationResult {
	result := &ValidationResult{
		Size:  int64(len(content)),
		Valid: false,
	}

	pages, version, err := v.validate(content)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	result.Valid = true
	result.Pages = pages
	result.Version = version
	return result
}

// IsValidPDF performs a quick validation check on content
func (v *Validator) IsValidPDF(content []byte) bool {
	return v.Validate(content).Valid
}

func (v *Validator) validate(content []byte) (pages int, version string, err error) {
	if len(content) == 0 {
		return 0, "", ErrEmptyDocument
	}

	if int64(len(content)) > v.maxFileSize {
		return 0, "", fmt.Errorf("file too large: %d bytes (max: %d bytes)", len(content), v.maxFileSize)
	}

	if !HasPDFHeader(content) {
		return 0, "", fmt.Errorf("missing %%PDF- header")
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("invalid PDF file: %v", rec)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return 0, "", fmt.Errorf("invalid PDF file: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return 0, "", fmt.Errorf("PDF validation failed: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return 0, "", fmt.Errorf("failed to determine page count: %w", err)
	}

	return ctx.PageCount, ctx.XRefTable.VersionString(), nil
}

// HasPDFHeader checks the magic bytes at the start of content
func HasPDFHeader(content []byte) bool {
	return bytes.HasPrefix(content, []byte("%PDF-"))
}
