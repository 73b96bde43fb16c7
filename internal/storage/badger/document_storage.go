package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SaveDocument(doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if doc.CaseID == "" {
		return fmt.Errorf("document case ID is required")
	}

	now := time.Now()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) GetDocument(id string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("document not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *DocumentStorage) UpdateDocument(doc *models.Document) error {
	return s.SaveDocument(doc)
}

// UpdateStatus advances a document's status in a single upsert so a
// concurrent reader never observes a torn write.
func (s *DocumentStorage) UpdateStatus(id string, status models.DocumentStatus, errorMessage string) error {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("document not found: %s", id)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	doc.Status = status
	doc.ErrorMessage = errorMessage
	doc.UpdatedAt = time.Now()

	if err := s.db.Store().Upsert(doc.ID, &doc); err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

func (s *DocumentStorage) DeleteDocument(id string) error {
	if err := s.db.Store().Delete(id, &models.Document{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *DocumentStorage) ListDocumentsByCase(caseID string) ([]*models.Document, error) {
	var docs []models.Document
	err := s.db.Store().Find(&docs, badgerhold.Where("CaseID").Eq(caseID).SortBy("UploadedAt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

func (s *DocumentStorage) CountDocumentsByCase(caseID string) (int, error) {
	count, err := s.db.Store().Count(&models.Document{}, badgerhold.Where("CaseID").Eq(caseID))
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}

func (s *DocumentStorage) CountCompletedByCase(caseID string) (int, error) {
	count, err := s.db.Store().Count(&models.Document{},
		badgerhold.Where("CaseID").Eq(caseID).And("Status").Eq(models.StatusCompleted))
	if err != nil {
		return 0, fmt.Errorf("failed to count completed documents: %w", err)
	}
	return int(count), nil
}
