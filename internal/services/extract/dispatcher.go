package extract

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// Request carries one file through extraction. PageCount is the locally
// counted page total for PDFs (zero when unknown) and feeds OCR usage
// accounting. OnSubmit, when set, receives the remote job identifier as soon
// as an OCR submission is accepted; local extractors never call it.
type Request struct {
	FileName  string
	MimeType  string
	Data      []byte
	PageCount int
	OnSubmit  func(externalJobID string)
}

// Extractor converts one file variant into text.
type Extractor interface {
	Extract(ctx context.Context, req *Request, progress interfaces.ProgressFunc) (string, error)
}

// Dispatcher routes a file to its extractor based on detected kind.
type Dispatcher struct {
	plain  Extractor
	office Extractor
	ocr    Extractor
	logger arbor.ILogger
}

// NewDispatcher creates a dispatcher with the standard extractor set
func NewDispatcher(ocrClient interfaces.OCRService, gate interfaces.UsageGate, config *common.OCRConfig, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		plain:  NewPlainTextExtractor(),
		office: NewDocxExtractor(logger),
		ocr:    NewOCRExtractor(ocrClient, gate, config, logger),
		logger: logger,
	}
}

// Extract detects the file kind once and runs the matching extractor.
func (d *Dispatcher) Extract(ctx context.Context, req *Request, progress interfaces.ProgressFunc) (string, error) {
	kind := Detect(req.FileName, req.MimeType)

	d.logger.Debug().
		Str("file_name", req.FileName).
		Str("mime_type", req.MimeType).
		Str("kind", kind.String()).
		Msg("Dispatching extraction")

	switch kind {
	case KindPlainText:
		return d.plain.Extract(ctx, req, progress)
	case KindOfficeDocument:
		return d.office.Extract(ctx, req, progress)
	default:
		return d.ocr.Extract(ctx, req, progress)
	}
}
