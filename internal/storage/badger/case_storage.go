package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// CaseStorage implements the CaseStorage interface for Badger
type CaseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCaseStorage creates a new CaseStorage instance
func NewCaseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CaseStorage {
	return &CaseStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CaseStorage) SaveCase(c *models.Case) error {
	if c.ID == "" {
		return fmt.Errorf("case ID is required")
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := s.db.Store().Upsert(c.ID, c); err != nil {
		return fmt.Errorf("failed to save case: %w", err)
	}
	return nil
}

func (s *CaseStorage) GetCase(id string) (*models.Case, error) {
	var c models.Case
	if err := s.db.Store().Get(id, &c); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("case not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return &c, nil
}

func (s *CaseStorage) ListCases() ([]*models.Case, error) {
	var cases []models.Case
	if err := s.db.Store().Find(&cases, badgerhold.Where("ID").Ne("").SortBy("CreatedAt")); err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	result := make([]*models.Case, len(cases))
	for i := range cases {
		result[i] = &cases[i]
	}
	return result, nil
}

func (s *CaseStorage) DeleteCase(id string) error {
	if err := s.db.Store().Delete(id, &models.Case{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete case: %w", err)
	}
	return nil
}

func (s *CaseStorage) CountCases() (int, error) {
	count, err := s.db.Store().Count(&models.Case{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cases: %w", err)
	}
	return int(count), nil
}
