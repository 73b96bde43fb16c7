package extract

import (
	"path/filepath"
	"strings"
)

// Kind classifies an uploaded file into its extraction route. Detection runs
// once per document; the result picks the extractor.
type Kind int

const (
	// KindPlainText is read directly as UTF-8 text.
	KindPlainText Kind = iota
	// KindOfficeDocument is unpacked locally (docx).
	KindOfficeDocument
	// KindScannedDocument goes through the remote OCR service. This is the
	// catch-all for images, PDFs, and anything unrecognised.
	KindScannedDocument
)

func (k Kind) String() string {
	switch k {
	case KindPlainText:
		return "plain_text"
	case KindOfficeDocument:
		return "office_document"
	default:
		return "scanned_document"
	}
}

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Detect resolves the extraction route from MIME type with a file-extension
// fallback. Unknown inputs route to OCR rather than failing.
func Detect(fileName, mimeType string) Kind {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	// Strip any parameters like "; charset=utf-8"
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	ext := strings.ToLower(filepath.Ext(fileName))

	switch {
	case mime == "text/plain" || ext == ".txt":
		return KindPlainText
	case mime == docxMimeType || ext == ".docx":
		return KindOfficeDocument
	default:
		return KindScannedDocument
	}
}
