package embeddings

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiDefaultThreshold is the similarity cutoff tuned for dense neural
// vectors.
const geminiDefaultThreshold = 0.6

// GeminiEmbedder produces dense neural embeddings via the Gemini embedding
// API. Calls are rate-limited client-side.
type GeminiEmbedder struct {
	config  *common.EmbeddingConfig
	logger  arbor.ILogger
	client  *genai.Client
	limiter *rate.Limiter
}

// NewGeminiEmbedder creates a new Gemini embedder
func NewGeminiEmbedder(config *common.EmbeddingConfig, apiKey string, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required for the gemini embedding strategy")
	}
	if config.Model == "" {
		config.Model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}

	embedder := &GeminiEmbedder{
		config:  config,
		logger:  logger,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}

	logger.Debug().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Float64("rate_limit", rps).
		Msg("Gemini embedder initialized")

	return embedder, nil
}

func (e *GeminiEmbedder) Name() string { return "gemini" }

func (e *GeminiEmbedder) Dimension() int { return e.config.Dimension }

func (e *GeminiEmbedder) DefaultThreshold() float64 { return geminiDefaultThreshold }

// Embed generates one vector per input text, preserving input order.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) (*interfaces.EmbedResult, error) {
	if len(texts) == 0 {
		return &interfaces.EmbedResult{}, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	totalChars := 0
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
		totalChars += len(text)
	}

	outputDim := int32(e.config.Dimension)
	result, err := e.client.Models.EmbedContent(ctx, e.config.Model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return nil, fmt.Errorf("embedding count mismatch: requested %d, got %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != e.config.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.config.Dimension, len(emb.Values))
		}
		vectors[i] = emb.Values
	}

	// The API does not report token usage for embeddings; approximate from
	// input size so the usage gate still sees consumption.
	tokens := totalChars / 4

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("dimension", e.config.Dimension).
		Msg("Generated embeddings")

	return &interfaces.EmbedResult{Vectors: vectors, TokensUsed: tokens}, nil
}
