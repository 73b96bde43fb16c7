package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

type scriptedLLM struct {
	errs  []error
	calls int
}

func (s *scriptedLLM) Complete(ctx context.Context, messages []interfaces.Message, opts interfaces.CompletionOptions) (*interfaces.Completion, error) {
	call := s.calls
	s.calls++
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	return &interfaces.Completion{Text: "ok", Model: "test-model"}, nil
}

func TestRetryService_SuccessPassesThrough(t *testing.T) {
	inner := &scriptedLLM{}
	service := NewRetryService(inner, 3, common.GetLogger())

	completion, err := service.Complete(context.Background(), []interfaces.Message{{Role: "user", Content: "hi"}}, interfaces.CompletionOptions{})

	require.NoError(t, err)
	assert.Equal(t, "ok", completion.Text)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryService_NonRateLimitErrorNotRetried(t *testing.T) {
	inner := &scriptedLLM{errs: []error{errors.New("invalid request: empty prompt")}}
	service := NewRetryService(inner, 3, common.GetLogger())

	_, err := service.Complete(context.Background(), nil, interfaces.CompletionOptions{})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryService_ExhaustedRetries(t *testing.T) {
	inner := &scriptedLLM{errs: []error{errors.New("429 Too Many Requests")}}
	service := NewRetryService(inner, 0, common.GetLogger())

	_, err := service.Complete(context.Background(), nil, interfaces.CompletionOptions{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 0 retries")
	assert.Equal(t, 1, inner.calls)
}

func TestRetryService_CancelledContextStopsRetryLoop(t *testing.T) {
	inner := &scriptedLLM{errs: []error{
		errors.New("429 Too Many Requests"),
		errors.New("429 Too Many Requests"),
	}}
	service := NewRetryService(inner, 3, common.GetLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.Complete(ctx, nil, interfaces.CompletionOptions{})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryService_NegativeMaxRetriesClamped(t *testing.T) {
	inner := &scriptedLLM{errs: []error{errors.New("quota exceeded for today")}}
	service := NewRetryService(inner, -5, common.GetLogger())

	_, err := service.Complete(context.Background(), nil, interfaces.CompletionOptions{})

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"http 429", errors.New("googleapi: Error 429: Quota exceeded"), true},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), true},
		{"anthropic rate_limit", errors.New("api error: type rate_limit_error"), true},
		{"quota wording", errors.New("monthly quota reached"), true},
		{"server error", errors.New("500 internal server error"), false},
		{"network error", errors.New("dial tcp: connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimitError(tt.err))
		})
	}
}

func TestExtractRetryDelay(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want time.Duration
	}{
		{"nil", nil, 0},
		{"gemini phrasing", errors.New("429: Please retry in 22s"), 22 * time.Second},
		{"fractional seconds", errors.New("Please retry in 7.5s."), 7500 * time.Millisecond},
		{"retryDelay field", errors.New(`RESOURCE_EXHAUSTED: retryDelay: 14s`), 14 * time.Second},
		{"case insensitive", errors.New("please RETRY IN 3s"), 3 * time.Second},
		{"no delay present", errors.New("429 Too Many Requests"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRetryDelay(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int
		apiDelay time.Duration
		want     time.Duration
	}{
		{"first attempt", 0, 0, 5 * time.Second},
		{"second attempt doubles", 1, 0, 10 * time.Second},
		{"third attempt doubles again", 2, 0, 20 * time.Second},
		{"capped at max", 10, 0, 90 * time.Second},
		{"api delay wins with padding", 3, 22 * time.Second, 23 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateBackoff(tt.attempt, tt.apiDelay))
		})
	}
}
