package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor converts an uploaded document into plain text.
type Extractor interface {
	ExtractText(r io.ReaderAt, size int64) (string, error)
}

// PDFExtractor pulls per-page plain text out of a PDF, pages joined with a
// newline separator.
type PDFExtractor struct{}

// NewPDFExtractor returns a stateless PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText reads every page in order and concatenates the page texts.
func (e *PDFExtractor) ExtractText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("document analysis failed: %w", err)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("document analysis failed: page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return strings.Join(pages, "\n"), nil
}

// ExtractFromBytes is a convenience wrapper for in-memory uploads.
func (e *PDFExtractor) ExtractFromBytes(data []byte) (string, error) {
	return e.ExtractText(bytes.NewReader(data), int64(len(data)))
}

var _ Extractor = (*PDFExtractor)(nil)
