package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// Backoff constants for provider rate limiting. Quota windows on both
// providers reset on the order of a minute.
const (
	defaultInitialBackoff    = 5 * time.Second
	defaultMaxBackoff        = 90 * time.Second
	defaultBackoffMultiplier = 2.0
)

// RetryService wraps an LLMService and retries rate-limited calls with
// exponential backoff. Non-rate-limit errors are returned immediately.
type RetryService struct {
	inner      interfaces.LLMService
	maxRetries int
	logger     arbor.ILogger
}

// NewRetryService wraps the given service with retry handling
func NewRetryService(inner interfaces.LLMService, maxRetries int, logger arbor.ILogger) *RetryService {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryService{
		inner:      inner,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (s *RetryService) Complete(ctx context.Context, messages []interfaces.Message, opts interfaces.CompletionOptions) (*interfaces.Completion, error) {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		completion, err := s.inner.Complete(ctx, messages, opts)
		if err == nil {
			return completion, nil
		}
		lastErr = err

		if !IsRateLimitError(err) {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}

		backoff := calculateBackoff(attempt, ExtractRetryDelay(err))
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Int("max_retries", s.maxRetries).
			Dur("backoff", backoff).
			Msg("Rate limited, backing off before retry")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("completion failed after %d retries: %w", s.maxRetries, lastErr)
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a rate limit
// error. Returns 0 if no delay is found in the error message.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// calculateBackoff computes the wait for a given attempt. An API-provided
// delay takes precedence over the exponential schedule.
func calculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	if apiDelay > 0 {
		return apiDelay + 1*time.Second
	}

	backoff := defaultInitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * defaultBackoffMultiplier)
	}
	if backoff > defaultMaxBackoff {
		backoff = defaultMaxBackoff
	}
	return backoff
}
