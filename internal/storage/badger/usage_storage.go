package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// UsageStorage implements the UsageStorage interface for Badger
type UsageStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewUsageStorage creates a new UsageStorage instance
func NewUsageStorage(db *BadgerDB, logger arbor.ILogger) interfaces.UsageStorage {
	return &UsageStorage{
		db:     db,
		logger: logger,
	}
}

// GetMonth returns the counters for a month, or a zeroed record when the
// month has no consumption yet.
func (s *UsageStorage) GetMonth(month string) (*models.UsageMonth, error) {
	var record models.UsageMonth
	if err := s.db.Store().Get(month, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return &models.UsageMonth{Month: month}, nil
		}
		return nil, fmt.Errorf("failed to get usage for month %s: %w", month, err)
	}
	return &record, nil
}

func (s *UsageStorage) SaveMonth(record *models.UsageMonth) error {
	if record.Month == "" {
		return fmt.Errorf("usage month is required")
	}
	record.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(record.Month, record); err != nil {
		return fmt.Errorf("failed to save usage for month %s: %w", record.Month, err)
	}
	return nil
}
