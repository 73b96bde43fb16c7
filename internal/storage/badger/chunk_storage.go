package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ChunkStorage implements the ChunkStorage interface for Badger
type ChunkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChunkStorage creates a new ChunkStorage instance
func NewChunkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChunkStorage {
	return &ChunkStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChunkStorage) SaveChunks(chunks []*models.DocumentChunk) error {
	now := time.Now()
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("chunk ID is required")
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		if err := s.db.Store().Upsert(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to save chunk %d of document %s: %w", chunk.ChunkIndex, chunk.DocumentID, err)
		}
	}
	return nil
}

func (s *ChunkStorage) GetChunk(id string) (*models.DocumentChunk, error) {
	var chunk models.DocumentChunk
	if err := s.db.Store().Get(id, &chunk); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("chunk not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get chunk: %w", err)
	}
	return &chunk, nil
}

func (s *ChunkStorage) GetChunksByDocument(documentID string) ([]*models.DocumentChunk, error) {
	var chunks []models.DocumentChunk
	err := s.db.Store().Find(&chunks, badgerhold.Where("DocumentID").Eq(documentID).SortBy("ChunkIndex"))
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks by document: %w", err)
	}

	result := make([]*models.DocumentChunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *ChunkStorage) GetChunksByCase(caseID string) ([]*models.DocumentChunk, error) {
	var chunks []models.DocumentChunk
	err := s.db.Store().Find(&chunks, badgerhold.Where("CaseID").Eq(caseID).SortBy("DocumentID", "ChunkIndex"))
	if err != nil {
		return nil, fmt.Errorf("failed to get chunks by case: %w", err)
	}

	result := make([]*models.DocumentChunk, len(chunks))
	for i := range chunks {
		result[i] = &chunks[i]
	}
	return result, nil
}

func (s *ChunkStorage) DeleteChunksByDocument(documentID string) error {
	err := s.db.Store().DeleteMatching(&models.DocumentChunk{}, badgerhold.Where("DocumentID").Eq(documentID))
	if err != nil {
		return fmt.Errorf("failed to delete chunks by document: %w", err)
	}
	return nil
}

func (s *ChunkStorage) CountChunksByCase(caseID string) (int, error) {
	count, err := s.db.Store().Count(&models.DocumentChunk{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return int(count), nil
}
