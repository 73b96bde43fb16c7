package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// localDefaultThreshold is deliberately low: hashed bag-of-words vectors
// carry far less signal than dense neural ones, so meaningful matches score
// well under neural-range cutoffs.
const localDefaultThreshold = 0.1

// LocalEmbedder is the offline fallback strategy: a hashed bag-of-words
// vectorizer. Tokens are folded into a fixed-width vector by hash bucket and
// the result is L2-normalized. No network, deterministic, zero cost.
type LocalEmbedder struct {
	dimension int
	logger    arbor.ILogger
}

// NewLocalEmbedder creates a new local hash bag-of-words embedder
func NewLocalEmbedder(dimension int, logger arbor.ILogger) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalEmbedder{
		dimension: dimension,
		logger:    logger,
	}
}

func (e *LocalEmbedder) Name() string { return "local" }

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) DefaultThreshold() float64 { return localDefaultThreshold }

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) (*interfaces.EmbedResult, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.vectorize(text)
	}
	return &interfaces.EmbedResult{Vectors: vectors}, nil
}

// vectorize folds token counts into hash buckets and L2-normalizes.
func (e *LocalEmbedder) vectorize(text string) []float32 {
	vector := make([]float32, e.dimension)

	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[int(h.Sum32())%e.dimension]++
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

// tokenize lowercases and splits on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
