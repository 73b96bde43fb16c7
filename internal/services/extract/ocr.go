package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/usage"
)

// pollState is the OCR polling state machine. Every transition is explicit;
// terminal states are Completed, Failed, Stuck, and TimedOut.
type pollState int

const (
	stateSubmitted pollState = iota
	statePolling
	stateCompleted
	stateFailed
	stateStuck
	stateTimedOut
)

// OCRExtractor drives a remote OCR job: submit, poll until a terminal state,
// fetch and parse the result. The clock and sleep are injectable so tests can
// run the state machine without real time passing.
type OCRExtractor struct {
	client interfaces.OCRService
	gate   interfaces.UsageGate
	config *common.OCRConfig
	logger arbor.ILogger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOCRExtractor creates a new OCR extractor
func NewOCRExtractor(client interfaces.OCRService, gate interfaces.UsageGate, config *common.OCRConfig, logger arbor.ILogger) *OCRExtractor {
	return &OCRExtractor{
		client: client,
		gate:   gate,
		config: config,
		logger: logger,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// statusSignature folds the fields used for stall detection into one
// comparable value.
func statusSignature(s *interfaces.OCRJobStatus) string {
	return fmt.Sprintf("%s/%d/%d", s.State, s.PagesDone, s.PagesTotal)
}

func (e *OCRExtractor) Extract(ctx context.Context, req *Request, progress interfaces.ProgressFunc) (string, error) {
	if e.client == nil {
		return "", &OCRSubmitError{FileName: req.FileName, Err: fmt.Errorf("OCR service is not configured")}
	}

	decision, err := e.gate.CheckAllowed(ctx)
	if err != nil {
		return "", fmt.Errorf("usage check failed: %w", err)
	}
	if !decision.Allowed {
		return "", &usage.QuotaExceededError{Reason: decision.Reason}
	}

	submission, err := e.client.Submit(ctx, req.Data, req.FileName)
	if err != nil {
		return "", &OCRSubmitError{FileName: req.FileName, Err: err}
	}
	if req.OnSubmit != nil {
		req.OnSubmit(submission.JobID)
	}
	progress.Report(5)

	e.logger.Info().
		Str("file_name", req.FileName).
		Str("job_id", submission.JobID).
		Msg("Submitted OCR job")

	status, err := e.poll(ctx, submission, progress)
	if err != nil {
		return "", err
	}

	body, contentType, err := e.client.FetchResult(ctx, submission.ResultURL)
	if err != nil {
		return "", &OCRStatusError{JobID: submission.JobID, Message: fmt.Sprintf("result fetch failed: %v", err)}
	}

	text := parseOCRResult(body, contentType)

	pages := req.PageCount
	if pages <= 0 {
		pages = status.PagesTotal
	}
	if pages <= 0 {
		pages = 1
	}
	if err := e.gate.Record(ctx, interfaces.Usage{OCRPages: pages}); err != nil {
		e.logger.Warn().Err(err).Str("job_id", submission.JobID).Msg("Failed to record OCR page usage")
	}

	progress.Report(100)
	e.logger.Info().
		Str("job_id", submission.JobID).
		Int("pages", pages).
		Int("text_length", len(text)).
		Msg("OCR job completed")

	return text, nil
}

// poll runs the status loop until the job reaches a terminal state. Returns
// the final status for completed jobs, a typed error otherwise.
func (e *OCRExtractor) poll(ctx context.Context, submission *interfaces.OCRSubmission, progress interfaces.ProgressFunc) (*interfaces.OCRJobStatus, error) {
	start := e.now()
	state := stateSubmitted
	stallCount := 0
	lastSignature := ""
	var status *interfaces.OCRJobStatus

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case stateSubmitted, statePolling:
			if e.now().Sub(start) > e.config.PollTimeout {
				state = stateTimedOut
				continue
			}

			var err error
			status, err = e.client.PollStatus(ctx, submission.StatusURL)
			if err != nil {
				return nil, &OCRStatusError{JobID: submission.JobID, Message: fmt.Sprintf("status poll failed: %v", err)}
			}

			signature := statusSignature(status)
			if state == statePolling && signature == lastSignature {
				stallCount++
				if stallCount >= e.config.StallPolls {
					state = stateStuck
					continue
				}
			} else {
				stallCount = 0
			}
			lastSignature = signature
			state = statePolling

			switch status.State {
			case "completed":
				state = stateCompleted
				continue
			case "failed":
				state = stateFailed
				continue
			}

			if status.PagesTotal > 0 {
				// Map page progress into the 10-90 band; the tails belong to
				// submission and result handling.
				pct := 10 + (status.PagesDone*80)/status.PagesTotal
				progress.Report(pct)
			}

			if err := e.sleep(ctx, e.config.PollInterval); err != nil {
				return nil, err
			}

		case stateCompleted:
			return status, nil

		case stateFailed:
			message := status.ErrorMessage
			if message == "" {
				message = "remote service reported failure without detail"
			}
			return nil, &OCRStatusError{JobID: submission.JobID, Message: message}

		case stateStuck:
			return nil, &StuckJobError{JobID: submission.JobID, Polls: stallCount}

		case stateTimedOut:
			return nil, &OCRTimeoutError{JobID: submission.JobID, Elapsed: e.now().Sub(start)}
		}
	}
}

// ocrEnvelope is the JSON result shape the remote service may return. Only
// one of the text fields is expected to be populated.
type ocrEnvelope struct {
	Text          string `json:"text"`
	ExtractedText string `json:"extracted_text"`
	Content       string `json:"content"`
	Pages         []struct {
		Text string `json:"text"`
	} `json:"pages"`
}

// parseOCRResult accepts either a JSON envelope or a plain-text body.
func parseOCRResult(body []byte, contentType string) string {
	trimmed := strings.TrimSpace(string(body))
	isJSON := strings.Contains(strings.ToLower(contentType), "json") || strings.HasPrefix(trimmed, "{")
	if !isJSON {
		return trimmed
	}

	var envelope ocrEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		// Malformed JSON degrades to the raw body rather than losing text.
		return trimmed
	}

	switch {
	case envelope.Text != "":
		return envelope.Text
	case envelope.ExtractedText != "":
		return envelope.ExtractedText
	case envelope.Content != "":
		return envelope.Content
	case len(envelope.Pages) > 0:
		// The form feed marks page boundaries so chunking downstream can
		// attribute each chunk to a page.
		parts := make([]string, 0, len(envelope.Pages))
		for _, page := range envelope.Pages {
			if page.Text != "" {
				parts = append(parts, page.Text)
			}
		}
		return strings.Join(parts, "\n\f")
	default:
		return ""
	}
}
