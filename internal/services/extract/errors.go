package extract

import (
	"errors"
	"fmt"
	"time"
)

// ExtractionError tags the family of terminal extraction failures. A document
// whose extraction fails with one of these is moved to the error status and
// never retried automatically.
type ExtractionError interface {
	error
	extractionError()
}

// IsExtractionError reports whether err (or anything it wraps) belongs to the
// extraction error family.
func IsExtractionError(err error) bool {
	var target ExtractionError
	return errors.As(err, &target)
}

// DocxExtractionError is a local office-document parse failure.
type DocxExtractionError struct {
	FileName string
	Err      error
}

func (e *DocxExtractionError) Error() string {
	return fmt.Sprintf("docx extraction failed for %s: %v", e.FileName, e.Err)
}
func (e *DocxExtractionError) Unwrap() error    { return e.Err }
func (e *DocxExtractionError) extractionError() {}

// OCRSubmitError is a failure to hand the file to the remote OCR service.
type OCRSubmitError struct {
	FileName string
	Err      error
}

func (e *OCRSubmitError) Error() string {
	return fmt.Sprintf("OCR submission failed for %s: %v", e.FileName, e.Err)
}
func (e *OCRSubmitError) Unwrap() error    { return e.Err }
func (e *OCRSubmitError) extractionError() {}

// OCRStatusError carries the remote service's own failure message for a job
// it reported as failed.
type OCRStatusError struct {
	JobID   string
	Message string
}

func (e *OCRStatusError) Error() string {
	return fmt.Sprintf("OCR job %s failed: %s", e.JobID, e.Message)
}
func (e *OCRStatusError) extractionError() {}

// StuckJobError means the remote job stopped making progress: its status and
// page counters were unchanged for the configured number of consecutive polls.
type StuckJobError struct {
	JobID string
	Polls int
}

func (e *StuckJobError) Error() string {
	return fmt.Sprintf("OCR job %s stuck: no progress across %d polls", e.JobID, e.Polls)
}
func (e *StuckJobError) extractionError() {}

// OCRTimeoutError means the job did not finish inside the hard polling ceiling.
type OCRTimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *OCRTimeoutError) Error() string {
	return fmt.Sprintf("OCR job %s timed out after %s", e.JobID, e.Elapsed)
}
func (e *OCRTimeoutError) extractionError() {}
