package interfaces

import "context"

// EmbedResult carries the vectors for one embedding request, in the same
// order as the input texts, plus the token usage the service reported.
type EmbedResult struct {
	Vectors    [][]float32
	TokensUsed int
}

// Embedder is a swappable embedding strategy. The production implementation
// calls a neural embedding model; the fallback is a local hash bag-of-words
// vectorizer. The orchestrator and search engine never depend on which one
// is in use.
type Embedder interface {
	// Name identifies the strategy, stored with each embedding.
	Name() string
	// Dimension is the fixed length of produced vectors.
	Dimension() int
	// DefaultThreshold is the similarity cutoff tuned for this strategy:
	// low (~0.1) for lexical fallback vectors, 0.5-0.7 for dense neural ones.
	DefaultThreshold() float64
	// Embed returns one vector per input text, preserving order.
	Embed(ctx context.Context, texts []string) (*EmbedResult, error)
}
