package embeddings

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// NewEmbedder creates the configured embedding strategy
func NewEmbedder(cfg *common.Config, logger arbor.ILogger) (interfaces.Embedder, error) {
	logger.Info().Str("strategy", cfg.Embedding.Strategy).Msg("Initializing embedding strategy")

	switch cfg.Embedding.Strategy {
	case "gemini":
		return NewGeminiEmbedder(&cfg.Embedding, cfg.Gemini.APIKey, logger)
	case "local":
		return NewLocalEmbedder(cfg.Embedding.Dimension, logger), nil
	default:
		return nil, fmt.Errorf("unsupported embedding strategy '%s': must be 'gemini' or 'local'", cfg.Embedding.Strategy)
	}
}
