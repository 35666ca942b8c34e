package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// DefaultMaxTextSize caps the text kept from a single document
const DefaultMaxTextSize = 10 * 1024 * 1024 // 10MB

// ErrEmptyDocument is returned when there are no bytes to parse
var ErrEmptyDocument = errors.New("empty PDF document")

// Reader extracts plain text from in-memory PDF documents
type Reader struct {
	maxTextSize int
}

// NewReader creates a new PDF reader. A non-positive maxTextSize selects
// DefaultMaxTextSize.
func NewReader(maxTextSize int) *Reader {
	if maxTextSize <= 0 {
		maxTextSize = DefaultMaxTextSize
	}
	return &Reader{maxTextSize: maxTextSize}
}

// ExtractText concatenates the plain text of every page in document order.
//
// The underlying parser panics on some malformed inputs; those panics are
// returned as errors so a bad upload can never take the process down.
func (r *Reader) ExtractText(content []byte) (result *TextResult, err error) {
	if len(content) == 0 {
		return nil, ErrEmptyDocument
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("failed to parse PDF: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	text, truncated, err := r.extractTextContent(pdfReader)
	if err != nil {
		return nil, err
	}

	return &TextResult{
		Text:      text,
		Pages:     pdfReader.NumPage(),
		Truncated: truncated,
	}, nil
}

// extractTextContent walks the pages in order. Unlike a best-effort reader it
// fails on the first unreadable page, so callers never act on partial text.
func (r *Reader) extractTextContent(pdfReader *pdf.Reader) (string, bool, error) {
	var builder strings.Builder

	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", false, fmt.Errorf("failed to extract text from page %d: %w", pageNum, err)
		}

		if builder.Len()+len(content) > r.maxTextSize {
			if remaining := r.maxTextSize - builder.Len(); remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			return builder.String(), true, nil
		}

		builder.WriteString(content)
	}

	return builder.String(), false, nil
}
