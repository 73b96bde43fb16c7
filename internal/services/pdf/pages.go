// Package pdf counts pages in uploaded PDFs using pdfcpu. The count feeds
// OCR usage accounting and search-result page metadata.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfMagic is the required header of a PDF file.
const pdfMagic = "%PDF-"

// IsPDF reports whether the bytes look like a PDF document.
func IsPDF(data []byte) bool {
	return len(data) >= len(pdfMagic) && string(data[:len(pdfMagic)]) == pdfMagic
}

// PageCount returns the number of pages in a PDF. Non-PDF input returns an
// error; callers treat unknown counts as a single page for accounting.
func PageCount(data []byte) (int, error) {
	if !IsPDF(data) {
		return 0, fmt.Errorf("not a PDF document")
	}

	conf := model.NewDefaultConfiguration()
	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to count PDF pages: %w", err)
	}
	return count, nil
}

// LooksLikePDF matches by extension or MIME type, for routing before the
// bytes are inspected.
func LooksLikePDF(fileName, mimeType string) bool {
	return strings.EqualFold(mimeType, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(fileName), ".pdf")
}
