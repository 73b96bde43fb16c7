package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"golang.org/x/time/rate"
)

// Client is the HTTP client for the remote OCR service. All calls are
// rate-limited client-side to stay inside the service's request budget.
type Client struct {
	config     *common.OCRConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new OCR service client
func NewClient(config *common.OCRConfig, logger arbor.ILogger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("OCR base URL is required")
	}

	rps := config.RateLimit
	if rps <= 0 {
		rps = 2
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// submitResponse is the service's answer to a job submission.
type submitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
	ResultURL string `json:"result_url"`
}

// statusResponse is one poll of a job's status endpoint.
type statusResponse struct {
	Status     string `json:"status"`
	PagesDone  int    `json:"pages_done"`
	PagesTotal int    `json:"pages_total"`
	Error      string `json:"error"`
}

// Submit uploads the file as multipart form data and returns the job handle.
func (c *Client) Submit(ctx context.Context, fileBytes []byte, fileName string) (*interfaces.OCRSubmission, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(fileBytes); err != nil {
		return nil, fmt.Errorf("failed to write file to multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/jobs"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("submit returned status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	if parsed.JobID == "" {
		return nil, fmt.Errorf("submit response missing job_id")
	}

	// Relative URLs resolve against the base.
	submission := &interfaces.OCRSubmission{
		JobID:     parsed.JobID,
		StatusURL: c.resolveURL(parsed.StatusURL, "/jobs/"+parsed.JobID+"/status"),
		ResultURL: c.resolveURL(parsed.ResultURL, "/jobs/"+parsed.JobID+"/result"),
	}

	c.logger.Debug().
		Str("file_name", fileName).
		Str("job_id", submission.JobID).
		Int("size_bytes", len(fileBytes)).
		Msg("Submitted file to OCR service")

	return submission, nil
}

// PollStatus fetches the job's current state and page progress.
func (c *Client) PollStatus(ctx context.Context, statusURL string) (*interfaces.OCRJobStatus, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	return &interfaces.OCRJobStatus{
		State:        parsed.Status,
		PagesDone:    parsed.PagesDone,
		PagesTotal:   parsed.PagesTotal,
		ErrorMessage: parsed.Error,
	}, nil
}

// FetchResult downloads the finished job's result body.
func (c *Client) FetchResult(ctx context.Context, resultURL string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create result request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("result request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("result returned %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read result body: %w", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
}

func (c *Client) resolveURL(u, fallbackPath string) string {
	if u == "" {
		return strings.TrimRight(c.config.BaseURL, "/") + fallbackPath
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(u, "/")
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return "unreadable body"
	}
	return strings.TrimSpace(string(body))
}
