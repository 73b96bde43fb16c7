package cases

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
)

// Service manages case lifecycle. Deleting a case removes every derived
// record through the storage cascade.
type Service struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

// NewService creates a new case service
func NewService(storage interfaces.StorageManager, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// CreateCase creates a new case with a generated ID
func (s *Service) CreateCase(name, description string) (*models.Case, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("case name is required")
	}

	c := &models.Case{
		ID:          common.NewCaseID(),
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.storage.Cases().SaveCase(c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	s.logger.Info().Str("case_id", c.ID).Str("name", c.Name).Msg("Created case")
	return c, nil
}

// GetCase returns one case by ID
func (s *Service) GetCase(id string) (*models.Case, error) {
	return s.storage.Cases().GetCase(id)
}

// ListCases returns all cases
func (s *Service) ListCases() ([]*models.Case, error) {
	return s.storage.Cases().ListCases()
}

// UpdateCase updates name and description
func (s *Service) UpdateCase(id, name, description string) (*models.Case, error) {
	c, err := s.storage.Cases().GetCase(id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		c.Name = name
	}
	c.Description = strings.TrimSpace(description)

	if err := s.storage.Cases().SaveCase(c); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}
	return c, nil
}

// DeleteCase removes the case and all records derived from it
func (s *Service) DeleteCase(id string) error {
	if _, err := s.storage.Cases().GetCase(id); err != nil {
		return err
	}
	return s.storage.DeleteCaseCascade(id)
}
