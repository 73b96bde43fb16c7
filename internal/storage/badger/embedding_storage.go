package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// EmbeddingStorage implements the EmbeddingStorage interface for Badger
type EmbeddingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEmbeddingStorage creates a new EmbeddingStorage instance
func NewEmbeddingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EmbeddingStorage {
	return &EmbeddingStorage{
		db:     db,
		logger: logger,
	}
}

func (s *EmbeddingStorage) SaveEmbeddings(embeddings []*models.ChunkEmbedding) error {
	now := time.Now()
	for _, emb := range embeddings {
		if emb.ID == "" {
			return fmt.Errorf("embedding ID is required")
		}
		if emb.CreatedAt.IsZero() {
			emb.CreatedAt = now
		}
		if err := s.db.Store().Upsert(emb.ID, emb); err != nil {
			return fmt.Errorf("failed to save embedding for chunk %s: %w", emb.ChunkID, err)
		}
	}
	return nil
}

func (s *EmbeddingStorage) GetEmbeddingsByCase(caseID string) ([]*models.ChunkEmbedding, error) {
	var embeddings []models.ChunkEmbedding
	err := s.db.Store().Find(&embeddings, badgerhold.Where("CaseID").Eq(caseID).SortBy("DocumentID", "ChunkIndex"))
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings by case: %w", err)
	}

	result := make([]*models.ChunkEmbedding, len(embeddings))
	for i := range embeddings {
		result[i] = &embeddings[i]
	}
	return result, nil
}

func (s *EmbeddingStorage) GetEmbeddingsByDocuments(caseID string, documentIDs []string) ([]*models.ChunkEmbedding, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}

	ids := make([]interface{}, len(documentIDs))
	for i, id := range documentIDs {
		ids[i] = id
	}

	var embeddings []models.ChunkEmbedding
	err := s.db.Store().Find(&embeddings,
		badgerhold.Where("CaseID").Eq(caseID).And("DocumentID").In(ids...).SortBy("DocumentID", "ChunkIndex"))
	if err != nil {
		return nil, fmt.Errorf("failed to get embeddings by documents: %w", err)
	}

	result := make([]*models.ChunkEmbedding, len(embeddings))
	for i := range embeddings {
		result[i] = &embeddings[i]
	}
	return result, nil
}

func (s *EmbeddingStorage) DeleteEmbeddingsByDocument(documentID string) error {
	err := s.db.Store().DeleteMatching(&models.ChunkEmbedding{}, badgerhold.Where("DocumentID").Eq(documentID))
	if err != nil {
		return fmt.Errorf("failed to delete embeddings by document: %w", err)
	}
	return nil
}

func (s *EmbeddingStorage) CountEmbeddingsByCase(caseID string) (int, error) {
	count, err := s.db.Store().Count(&models.ChunkEmbedding{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return int(count), nil
}
