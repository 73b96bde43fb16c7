package embeddings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/usage"
)

// EmbeddingError wraps a failed embedding batch. A single failure aborts the
// whole document's embedding run; nothing is persisted.
type EmbeddingError struct {
	Batch int
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding batch %d failed: %v", e.Batch, e.Err)
}
func (e *EmbeddingError) Unwrap() error { return e.Err }

// Orchestrator generates embeddings for a document's chunks in fixed-size
// batches with bounded parallelism, then persists them in one bulk write.
type Orchestrator struct {
	embedder interfaces.Embedder
	gate     interfaces.UsageGate
	storage  interfaces.EmbeddingStorage
	config   *common.PipelineConfig
	logger   arbor.ILogger
}

// NewOrchestrator creates a new embedding orchestrator
func NewOrchestrator(embedder interfaces.Embedder, gate interfaces.UsageGate, storage interfaces.EmbeddingStorage, config *common.PipelineConfig, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		embedder: embedder,
		gate:     gate,
		storage:  storage,
		config:   config,
		logger:   logger,
	}
}

// EmbedChunks embeds every chunk in order and persists the result. The i-th
// stored embedding always belongs to chunks[i]. Batches run in fixed-width
// groups: the whole group completes before the next starts, no work
// stealing. Progress maps batch completion onto 0-80 and reserves the final
// 20 for persistence.
func (o *Orchestrator) EmbedChunks(ctx context.Context, chunks []*models.DocumentChunk, progress interfaces.ProgressFunc) error {
	if len(chunks) == 0 {
		progress.Report(100)
		return nil
	}

	batchSize := o.config.EmbeddingBatch
	if batchSize <= 0 {
		batchSize = 50
	}
	parallel := o.config.ParallelRequests
	if parallel <= 0 {
		parallel = 1
	}

	batches := make([][]*models.DocumentChunk, 0, (len(chunks)+batchSize-1)/batchSize)
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}

	vectorsByBatch := make([][][]float32, len(batches))
	completed := 0

	for groupStart := 0; groupStart < len(batches); groupStart += parallel {
		if err := ctx.Err(); err != nil {
			return err
		}

		groupEnd := groupStart + parallel
		if groupEnd > len(batches) {
			groupEnd = len(batches)
		}

		var wg sync.WaitGroup
		groupErrs := make([]error, groupEnd-groupStart)

		for i := groupStart; i < groupEnd; i++ {
			wg.Add(1)
			go func(batchIdx int) {
				defer wg.Done()
				vectors, err := o.embedBatch(ctx, batchIdx, batches[batchIdx])
				if err != nil {
					groupErrs[batchIdx-groupStart] = err
					return
				}
				vectorsByBatch[batchIdx] = vectors
			}(i)
		}
		wg.Wait()

		// Quota denials surface ahead of transport failures so the caller
		// can tell a capped account from a broken one.
		var firstErr error
		for _, err := range groupErrs {
			if err == nil {
				continue
			}
			var quota *usage.QuotaExceededError
			if errors.As(err, &quota) {
				return err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		if firstErr != nil {
			return firstErr
		}

		completed = groupEnd
		progress.Report(completed * 80 / len(batches))
	}

	embeddings := make([]*models.ChunkEmbedding, 0, len(chunks))
	for batchIdx, batch := range batches {
		for i, chunk := range batch {
			embeddings = append(embeddings, &models.ChunkEmbedding{
				ID:         common.NewEmbeddingID(),
				ChunkID:    chunk.ID,
				DocumentID: chunk.DocumentID,
				CaseID:     chunk.CaseID,
				ChunkIndex: chunk.ChunkIndex,
				Vector:     vectorsByBatch[batchIdx][i],
				Strategy:   o.embedder.Name(),
			})
		}
	}

	if err := o.storage.SaveEmbeddings(embeddings); err != nil {
		return fmt.Errorf("failed to persist embeddings: %w", err)
	}
	progress.Report(100)

	o.logger.Info().
		Int("chunks", len(chunks)).
		Int("batches", len(batches)).
		Str("strategy", o.embedder.Name()).
		Msg("Embedded document chunks")
	return nil
}

// embedBatch runs the usage gate and one embedding request.
func (o *Orchestrator) embedBatch(ctx context.Context, batchIdx int, batch []*models.DocumentChunk) ([][]float32, error) {
	decision, err := o.gate.CheckAllowed(ctx)
	if err != nil {
		return nil, &EmbeddingError{Batch: batchIdx, Err: fmt.Errorf("usage check failed: %w", err)}
	}
	if !decision.Allowed {
		return nil, &usage.QuotaExceededError{Reason: decision.Reason}
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	result, err := o.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, &EmbeddingError{Batch: batchIdx, Err: err}
	}
	if len(result.Vectors) != len(batch) {
		return nil, &EmbeddingError{Batch: batchIdx, Err: fmt.Errorf("vector count mismatch: requested %d, got %d", len(batch), len(result.Vectors))}
	}

	if result.TokensUsed > 0 {
		if err := o.gate.Record(ctx, interfaces.Usage{InputTokens: result.TokensUsed}); err != nil {
			o.logger.Warn().Err(err).Int("batch", batchIdx).Msg("Failed to record embedding token usage")
		}
	}

	return result.Vectors, nil
}
