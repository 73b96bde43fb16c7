package extract

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/usage"
)

// fakeOCRClient replays a scripted status sequence. The last status repeats
// once the script is exhausted.
type fakeOCRClient struct {
	submitErr  error
	statuses   []*interfaces.OCRJobStatus
	statusErr  error
	polls      int
	resultBody []byte
	resultType string
	resultErr  error
}

func (f *fakeOCRClient) Submit(ctx context.Context, fileBytes []byte, fileName string) (*interfaces.OCRSubmission, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &interfaces.OCRSubmission{
		JobID:     "job-1",
		StatusURL: "http://ocr/jobs/job-1/status",
		ResultURL: "http://ocr/jobs/job-1/result",
	}, nil
}

func (f *fakeOCRClient) PollStatus(ctx context.Context, statusURL string) (*interfaces.OCRJobStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	idx := f.polls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.polls++
	return f.statuses[idx], nil
}

func (f *fakeOCRClient) FetchResult(ctx context.Context, resultURL string) ([]byte, string, error) {
	if f.resultErr != nil {
		return nil, "", f.resultErr
	}
	return f.resultBody, f.resultType, nil
}

type allowAllGate struct {
	recorded []interfaces.Usage
}

func (g *allowAllGate) CheckAllowed(ctx context.Context) (*interfaces.UsageDecision, error) {
	return &interfaces.UsageDecision{Allowed: true}, nil
}

func (g *allowAllGate) Record(ctx context.Context, u interfaces.Usage) error {
	g.recorded = append(g.recorded, u)
	return nil
}

type denyGate struct{}

func (g *denyGate) CheckAllowed(ctx context.Context) (*interfaces.UsageDecision, error) {
	return &interfaces.UsageDecision{Allowed: false, Reason: "monthly page limit reached"}, nil
}

func (g *denyGate) Record(ctx context.Context, u interfaces.Usage) error { return nil }

// newTestExtractor wires a fake clock into the extractor: sleep advances the
// clock instead of waiting, so polling loops run instantly.
func newTestExtractor(client interfaces.OCRService, gate interfaces.UsageGate, config *common.OCRConfig) *OCRExtractor {
	e := NewOCRExtractor(client, gate, config, common.GetLogger())
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return clock }
	e.sleep = func(ctx context.Context, d time.Duration) error {
		clock = clock.Add(d)
		return nil
	}
	return e
}

func testOCRConfig() *common.OCRConfig {
	return &common.OCRConfig{
		BaseURL:      "http://ocr",
		PollInterval: 2 * time.Second,
		PollTimeout:  5 * time.Minute,
		StallPolls:   30,
	}
}

func TestOCRExtract_CompletedJob(t *testing.T) {
	client := &fakeOCRClient{
		statuses: []*interfaces.OCRJobStatus{
			{State: "queued"},
			{State: "processing", PagesDone: 1, PagesTotal: 3},
			{State: "processing", PagesDone: 2, PagesTotal: 3},
			{State: "completed", PagesDone: 3, PagesTotal: 3},
		},
		resultBody: []byte(`{"text":"Recognized text."}`),
		resultType: "application/json",
	}
	gate := &allowAllGate{}
	e := newTestExtractor(client, gate, testOCRConfig())

	text, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf", Data: []byte("%PDF-")}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Recognized text.", text)
	require.Len(t, gate.recorded, 1)
	assert.Equal(t, 3, gate.recorded[0].OCRPages)
}

func TestOCRExtract_OnSubmitReceivesJobID(t *testing.T) {
	client := &fakeOCRClient{
		statuses:   []*interfaces.OCRJobStatus{{State: "completed"}},
		resultBody: []byte("plain text"),
		resultType: "text/plain",
	}
	e := newTestExtractor(client, &allowAllGate{}, testOCRConfig())

	var submitted string
	_, err := e.Extract(context.Background(), &Request{
		FileName: "scan.pdf",
		Data:     []byte("%PDF-"),
		OnSubmit: func(id string) { submitted = id },
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "job-1", submitted)
}

func TestOCRExtract_LocalPageCountWins(t *testing.T) {
	client := &fakeOCRClient{
		statuses: []*interfaces.OCRJobStatus{
			{State: "completed", PagesDone: 3, PagesTotal: 3},
		},
		resultBody: []byte("plain result"),
		resultType: "text/plain",
	}
	gate := &allowAllGate{}
	e := newTestExtractor(client, gate, testOCRConfig())

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf", PageCount: 7}, nil)

	require.NoError(t, err)
	require.Len(t, gate.recorded, 1)
	assert.Equal(t, 7, gate.recorded[0].OCRPages)
}

func TestOCRExtract_QuotaDenied(t *testing.T) {
	client := &fakeOCRClient{}
	e := newTestExtractor(client, &denyGate{}, testOCRConfig())

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var quotaErr *usage.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, "monthly page limit reached", quotaErr.Reason)
	assert.Equal(t, 0, client.polls)
}

func TestOCRExtract_SubmitFailure(t *testing.T) {
	client := &fakeOCRClient{submitErr: fmt.Errorf("connection refused")}
	e := newTestExtractor(client, &allowAllGate{}, testOCRConfig())

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var submitErr *OCRSubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.True(t, IsExtractionError(err))
}

func TestOCRExtract_FailedStatus(t *testing.T) {
	client := &fakeOCRClient{
		statuses: []*interfaces.OCRJobStatus{
			{State: "processing", PagesDone: 1, PagesTotal: 2},
			{State: "failed", ErrorMessage: "unreadable scan"},
		},
	}
	gate := &allowAllGate{}
	e := newTestExtractor(client, gate, testOCRConfig())

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var statusErr *OCRStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "job-1", statusErr.JobID)
	assert.Contains(t, statusErr.Message, "unreadable scan")
	assert.Empty(t, gate.recorded)
}

func TestOCRExtract_StuckJob(t *testing.T) {
	// The status never changes: after the configured number of identical
	// polls the job is declared stuck.
	client := &fakeOCRClient{
		statuses: []*interfaces.OCRJobStatus{
			{State: "processing", PagesDone: 1, PagesTotal: 10},
		},
	}
	config := testOCRConfig()
	config.StallPolls = 5
	e := newTestExtractor(client, &allowAllGate{}, config)

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var stuckErr *StuckJobError
	require.ErrorAs(t, err, &stuckErr)
	assert.Equal(t, 5, stuckErr.Polls)
}

func TestOCRExtract_ProgressResetsStallCount(t *testing.T) {
	// Page progress between polls resets the stall counter, so a slow but
	// moving job is never declared stuck.
	var statuses []*interfaces.OCRJobStatus
	for page := 1; page <= 8; page++ {
		statuses = append(statuses, &interfaces.OCRJobStatus{State: "processing", PagesDone: page, PagesTotal: 8})
	}
	statuses = append(statuses, &interfaces.OCRJobStatus{State: "completed", PagesDone: 8, PagesTotal: 8})
	client := &fakeOCRClient{statuses: statuses, resultBody: []byte("done"), resultType: "text/plain"}
	config := testOCRConfig()
	config.StallPolls = 3
	e := newTestExtractor(client, &allowAllGate{}, config)

	text, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "done", text)
}

func TestOCRExtract_Timeout(t *testing.T) {
	client := &fakeOCRClient{
		statuses: []*interfaces.OCRJobStatus{
			{State: "queued"},
		},
	}
	config := testOCRConfig()
	config.PollTimeout = 10 * time.Second
	config.StallPolls = 1000
	e := newTestExtractor(client, &allowAllGate{}, config)

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var timeoutErr *OCRTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.True(t, IsExtractionError(err))
}

func TestOCRExtract_NoClientConfigured(t *testing.T) {
	e := newTestExtractor(nil, &allowAllGate{}, testOCRConfig())

	_, err := e.Extract(context.Background(), &Request{FileName: "scan.pdf"}, nil)

	var submitErr *OCRSubmitError
	require.ErrorAs(t, err, &submitErr)
}

func TestParseOCRResult(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		expected    string
	}{
		{
			name:        "text field",
			body:        `{"text":"hello"}`,
			contentType: "application/json",
			expected:    "hello",
		},
		{
			name:        "extracted_text field",
			body:        `{"extracted_text":"hello"}`,
			contentType: "application/json",
			expected:    "hello",
		},
		{
			name:        "content field",
			body:        `{"content":"hello"}`,
			contentType: "application/json",
			expected:    "hello",
		},
		{
			name:        "pages joined with page breaks",
			body:        `{"pages":[{"text":"page one"},{"text":"page two"}]}`,
			contentType: "application/json",
			expected:    "page one\n\fpage two",
		},
		{
			name:        "plain text body",
			body:        "  raw text  ",
			contentType: "text/plain",
			expected:    "raw text",
		},
		{
			name:        "malformed json degrades to raw",
			body:        `{"text": broken`,
			contentType: "application/json",
			expected:    `{"text": broken`,
		},
		{
			name:        "json detected from body shape",
			body:        `{"text":"no header"}`,
			contentType: "",
			expected:    "no header",
		},
		{
			name:        "empty envelope",
			body:        `{}`,
			contentType: "application/json",
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseOCRResult([]byte(tt.body), tt.contentType))
		})
	}
}
