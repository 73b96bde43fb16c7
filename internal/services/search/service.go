package search

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/usage"
)

// Options narrows one search. Zero values mean "no restriction" (and the
// configured defaults for limit/threshold).
type Options struct {
	Limit          int
	Threshold      float64 // 0 = strategy default
	DocumentIDs    []string
	UploadedAfter  time.Time
	UploadedBefore time.Time
	FileTypes      []string // Extensions without dot, e.g. "pdf", "docx"
}

// Service is the vector similarity search engine over a case's embeddings.
type Service struct {
	embedder interfaces.Embedder
	gate     interfaces.UsageGate
	storage  interfaces.StorageManager
	config   *common.SearchConfig
	logger   arbor.ILogger
}

// NewService creates a new search service
func NewService(embedder interfaces.Embedder, gate interfaces.UsageGate, storage interfaces.StorageManager, config *common.SearchConfig, logger arbor.ILogger) *Service {
	return &Service{
		embedder: embedder,
		gate:     gate,
		storage:  storage,
		config:   config,
		logger:   logger,
	}
}

// Search embeds the query, scores it against the case's chunk embeddings,
// and returns the top matches with contextual snippets. Ties in score keep
// storage order; every executed query is recorded in search history.
func (s *Service) Search(ctx context.Context, caseID, query string, opts *Options) ([]*models.SearchMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if opts == nil {
		opts = &Options{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if s.config.MaxLimit > 0 && limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = s.embedder.DefaultThreshold()
	}
	if s.config.ScoreThreshold > 0 && opts.Threshold == 0 {
		threshold = s.config.ScoreThreshold
	}

	// The query embedding is a metered call under remote strategies.
	decision, err := s.gate.CheckAllowed(ctx)
	if err != nil {
		return nil, fmt.Errorf("usage check failed: %w", err)
	}
	if !decision.Allowed {
		return nil, &usage.QuotaExceededError{Reason: decision.Reason}
	}

	result, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if result.TokensUsed > 0 {
		if err := s.gate.Record(ctx, interfaces.Usage{InputTokens: result.TokensUsed}); err != nil {
			s.logger.Warn().Err(err).Str("case_id", caseID).Msg("Failed to record query token usage")
		}
	}
	if len(result.Vectors) != 1 {
		return nil, fmt.Errorf("query embedding returned %d vectors", len(result.Vectors))
	}
	queryVector := result.Vectors[0]

	documents, err := s.filterDocuments(caseID, opts)
	if err != nil {
		return nil, err
	}

	embeddings, err := s.loadEmbeddings(caseID, documents, opts)
	if err != nil {
		return nil, err
	}

	type scored struct {
		embedding *models.ChunkEmbedding
		score     float64
	}
	var candidates []scored
	for _, emb := range embeddings {
		score := CosineSimilarity(queryVector, emb.Vector)
		if score < threshold {
			continue
		}
		candidates = append(candidates, scored{embedding: emb, score: score})
	}

	// Stable: equal scores keep the storage order the load preserved.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	docsByID := make(map[string]*models.Document, len(documents))
	for _, doc := range documents {
		docsByID[doc.ID] = doc
	}

	matches := make([]*models.SearchMatch, 0, len(candidates))
	for _, candidate := range candidates {
		chunk, err := s.storage.Chunks().GetChunk(candidate.embedding.ChunkID)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("chunk_id", candidate.embedding.ChunkID).
				Msg("Skipping match with missing chunk")
			continue
		}

		match := &models.SearchMatch{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			ChunkIndex: chunk.ChunkIndex,
			Score:      candidate.score,
			Snippets:   buildSnippets(chunk.Content, query, s.config.SnippetLength, s.config.MaxSnippets),
			PageNumber: chunk.PageNumber,
		}
		if doc, ok := docsByID[chunk.DocumentID]; ok {
			match.DocumentName = doc.FileName
		}
		matches = append(matches, match)
	}

	if err := s.recordHistory(caseID, query, matches); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record search history")
	}

	s.logger.Info().
		Str("case_id", caseID).
		Int("candidates", len(embeddings)).
		Int("matches", len(matches)).
		Float64("threshold", threshold).
		Msg("Search completed")

	return matches, nil
}

// filterDocuments applies the option filters to the case's document list.
func (s *Service) filterDocuments(caseID string, opts *Options) ([]*models.Document, error) {
	documents, err := s.storage.Documents().ListDocumentsByCase(caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list case documents: %w", err)
	}

	var allowIDs map[string]bool
	if len(opts.DocumentIDs) > 0 {
		allowIDs = make(map[string]bool, len(opts.DocumentIDs))
		for _, id := range opts.DocumentIDs {
			allowIDs[id] = true
		}
	}
	var allowTypes map[string]bool
	if len(opts.FileTypes) > 0 {
		allowTypes = make(map[string]bool, len(opts.FileTypes))
		for _, t := range opts.FileTypes {
			allowTypes[strings.ToLower(strings.TrimPrefix(t, "."))] = true
		}
	}

	filtered := make([]*models.Document, 0, len(documents))
	for _, doc := range documents {
		if allowIDs != nil && !allowIDs[doc.ID] {
			continue
		}
		if !opts.UploadedAfter.IsZero() && doc.UploadedAt.Before(opts.UploadedAfter) {
			continue
		}
		if !opts.UploadedBefore.IsZero() && doc.UploadedAt.After(opts.UploadedBefore) {
			continue
		}
		if allowTypes != nil {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.FileName), "."))
			if !allowTypes[ext] {
				continue
			}
		}
		filtered = append(filtered, doc)
	}
	return filtered, nil
}

// loadEmbeddings loads the case's embeddings, restricted to the filtered
// document subset when any filter is active.
func (s *Service) loadEmbeddings(caseID string, documents []*models.Document, opts *Options) ([]*models.ChunkEmbedding, error) {
	filtered := len(opts.DocumentIDs) > 0 || !opts.UploadedAfter.IsZero() || !opts.UploadedBefore.IsZero() || len(opts.FileTypes) > 0
	if !filtered {
		embeddings, err := s.storage.Embeddings().GetEmbeddingsByCase(caseID)
		if err != nil {
			return nil, fmt.Errorf("failed to load case embeddings: %w", err)
		}
		return embeddings, nil
	}

	ids := make([]string, len(documents))
	for i, doc := range documents {
		ids[i] = doc.ID
	}
	embeddings, err := s.storage.Embeddings().GetEmbeddingsByDocuments(caseID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load filtered embeddings: %w", err)
	}
	return embeddings, nil
}

func (s *Service) recordHistory(caseID, query string, matches []*models.SearchMatch) error {
	record := &models.SearchHistory{
		ID:          common.NewSearchID(),
		CaseID:      caseID,
		Query:       query,
		ResultCount: len(matches),
	}
	if s.config.HistorySnapshot {
		record.Results = make([]models.SearchMatch, len(matches))
		for i, match := range matches {
			record.Results[i] = *match
		}
	}
	return s.storage.Searches().SaveSearch(record)
}
