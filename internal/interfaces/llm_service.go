package interfaces

import "context"

// Message is a provider-agnostic chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// CompletionOptions tunes a single completion call. Zero values fall back to
// the provider's configured defaults.
type CompletionOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// Completion is a provider-agnostic completion response.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
}

// LLMService generates chat completions via the configured provider.
type LLMService interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (*Completion, error)
}
