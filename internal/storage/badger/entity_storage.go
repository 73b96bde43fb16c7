package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// EntityStorage implements the EntityStorage interface for Badger
type EntityStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEntityStorage creates a new EntityStorage instance
func NewEntityStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EntityStorage {
	return &EntityStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertEntities merges mention counts into existing records matched by
// case, type, and value, and inserts the rest as new records.
func (s *EntityStorage) UpsertEntities(entities []*models.ExtractedEntity) error {
	now := time.Now()
	for _, entity := range entities {
		var existing []models.ExtractedEntity
		err := s.db.Store().Find(&existing,
			badgerhold.Where("CaseID").Eq(entity.CaseID).
				And("Type").Eq(entity.Type).
				And("Value").Eq(entity.Value).
				Limit(1))
		if err != nil {
			return fmt.Errorf("failed to look up entity %q: %w", entity.Value, err)
		}

		if len(existing) > 0 {
			merged := existing[0]
			merged.Mentions += entity.Mentions
			if err := s.db.Store().Upsert(merged.ID, &merged); err != nil {
				return fmt.Errorf("failed to update entity %q: %w", entity.Value, err)
			}
			continue
		}

		if entity.ID == "" {
			return fmt.Errorf("entity ID is required")
		}
		if entity.CreatedAt.IsZero() {
			entity.CreatedAt = now
		}
		if err := s.db.Store().Upsert(entity.ID, entity); err != nil {
			return fmt.Errorf("failed to save entity %q: %w", entity.Value, err)
		}
	}
	return nil
}

func (s *EntityStorage) GetEntitiesByCase(caseID string) ([]*models.ExtractedEntity, error) {
	var entities []models.ExtractedEntity
	err := s.db.Store().Find(&entities, badgerhold.Where("CaseID").Eq(caseID).SortBy("Mentions").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to get entities by case: %w", err)
	}

	result := make([]*models.ExtractedEntity, len(entities))
	for i := range entities {
		result[i] = &entities[i]
	}
	return result, nil
}

func (s *EntityStorage) DeleteEntitiesByCase(caseID string) error {
	err := s.db.Store().DeleteMatching(&models.ExtractedEntity{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil {
		return fmt.Errorf("failed to delete entities by case: %w", err)
	}
	return nil
}
