package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// configuration and wraps it with rate-limit retry handling.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", cfg.LLM.DefaultProvider).Msg("Initializing LLM service")

	var service interfaces.LLMService
	var err error

	switch cfg.LLM.DefaultProvider {
	case "claude":
		service, err = NewClaudeService(&cfg.Claude, logger)
	case "gemini":
		service, err = NewGeminiService(&cfg.Gemini, logger)
	default:
		return nil, fmt.Errorf("unsupported LLM provider '%s': must be 'claude' or 'gemini'", cfg.LLM.DefaultProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s LLM service: %w", cfg.LLM.DefaultProvider, err)
	}

	return NewRetryService(service, cfg.LLM.MaxRetries, logger), nil
}
