package extract

import (
	"context"

	"github.com/ternarybob/reperio/internal/interfaces"
)

// PlainTextExtractor reads the file bytes directly as UTF-8 text. No network,
// no parsing, completes immediately.
type PlainTextExtractor struct{}

// NewPlainTextExtractor creates a new plain text extractor
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) Extract(ctx context.Context, req *Request, progress interfaces.ProgressFunc) (string, error) {
	text := string(req.Data)
	progress.Report(100)
	return text, nil
}
