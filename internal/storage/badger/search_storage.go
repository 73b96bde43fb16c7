package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SearchHistoryStorage implements the SearchHistoryStorage interface for Badger
type SearchHistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSearchHistoryStorage creates a new SearchHistoryStorage instance
func NewSearchHistoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SearchHistoryStorage {
	return &SearchHistoryStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SearchHistoryStorage) SaveSearch(record *models.SearchHistory) error {
	if record.ID == "" {
		return fmt.Errorf("search ID is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save search record: %w", err)
	}
	return nil
}

func (s *SearchHistoryStorage) GetSearch(id string) (*models.SearchHistory, error) {
	var record models.SearchHistory
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("search record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get search record: %w", err)
	}
	return &record, nil
}

func (s *SearchHistoryStorage) ListSearchesByCase(caseID string, limit int) ([]*models.SearchHistory, error) {
	query := badgerhold.Where("CaseID").Eq(caseID).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.SearchHistory
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list search records: %w", err)
	}

	result := make([]*models.SearchHistory, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *SearchHistoryStorage) DeleteSearchesByCase(caseID string) error {
	err := s.db.Store().DeleteMatching(&models.SearchHistory{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil {
		return fmt.Errorf("failed to delete search records by case: %w", err)
	}
	return nil
}
