package interfaces

import "context"

// OCRSubmission is the remote service's answer to a job submission.
type OCRSubmission struct {
	JobID     string
	StatusURL string
	ResultURL string
}

// OCRJobStatus is one status poll of a remote OCR job. PagesDone/PagesTotal
// are the job-progress indicators; a job whose State and page counters stop
// moving is considered stuck by the caller.
type OCRJobStatus struct {
	State        string // "queued", "processing", "completed", "failed"
	PagesDone    int
	PagesTotal   int
	ErrorMessage string
}

// OCRService is the remote OCR collaborator. Implementations are opaque
// network services; the pipeline only depends on these three calls.
type OCRService interface {
	Submit(ctx context.Context, fileBytes []byte, fileName string) (*OCRSubmission, error)
	PollStatus(ctx context.Context, statusURL string) (*OCRJobStatus, error)
	// FetchResult returns the raw result body and its content type. The body
	// is either a JSON envelope or plain text.
	FetchResult(ctx context.Context, resultURL string) ([]byte, string, error)
}
