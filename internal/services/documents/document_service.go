package documents

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/pdf"
	"github.com/ternarybob/reperio/internal/services/pipeline"
	"github.com/ternarybob/reperio/internal/services/workers"
)

// Service handles document upload and lifecycle. Uploads are validated,
// recorded as pending, and handed to the worker pool; the pipeline owns all
// later status transitions.
type Service struct {
	storage  interfaces.StorageManager
	pipeline *pipeline.Service
	pool     *workers.Pool
	config   *common.PipelineConfig
	logger   arbor.ILogger
}

// NewService creates a new document service
func NewService(
	storage interfaces.StorageManager,
	pipelineSvc *pipeline.Service,
	pool *workers.Pool,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:  storage,
		pipeline: pipelineSvc,
		pool:     pool,
		config:   config,
		logger:   logger,
	}
}

// Upload validates and records a new document, then queues it for
// processing. The returned document is in the pending state.
func (s *Service) Upload(ctx context.Context, caseID, fileName, mimeType string, data []byte) (*models.Document, error) {
	if _, err := s.storage.Cases().GetCase(caseID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file %s is empty", fileName)
	}
	if s.config.MaxDocumentBytes > 0 && len(data) > s.config.MaxDocumentBytes {
		return nil, fmt.Errorf("file %s exceeds size limit (%d > %d bytes)", fileName, len(data), s.config.MaxDocumentBytes)
	}
	if err := s.checkExtension(fileName); err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:        common.NewDocumentID(),
		CaseID:    caseID,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: int64(len(data)),
		Status:    models.StatusPending,
	}

	// Count PDF pages locally up front; the count feeds OCR usage accounting.
	if pdf.LooksLikePDF(fileName, mimeType) {
		count, err := pdf.PageCount(data)
		if err != nil {
			s.logger.Warn().Err(err).Str("file_name", fileName).Msg("Could not count PDF pages")
		} else {
			doc.PageCount = count
		}
	}

	if err := s.storage.Documents().SaveDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	if err := s.pool.Submit(func(jobCtx context.Context) error {
		return s.pipeline.ProcessDocument(jobCtx, doc.ID, data)
	}); err != nil {
		// Queue refusal leaves the document visible in the error state
		// rather than silently stuck in pending.
		if updateErr := s.storage.Documents().UpdateStatus(doc.ID, models.StatusError, "processing queue unavailable"); updateErr != nil {
			s.logger.Warn().Err(updateErr).Str("document_id", doc.ID).Msg("Failed to mark unqueued document")
		}
		return nil, fmt.Errorf("failed to queue document for processing: %w", err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("case_id", caseID).
		Str("file_name", fileName).
		Int64("size_bytes", doc.SizeBytes).
		Int("page_count", doc.PageCount).
		Msg("Document uploaded and queued")

	return doc, nil
}

// GetDocument returns one document by ID
func (s *Service) GetDocument(id string) (*models.Document, error) {
	return s.storage.Documents().GetDocument(id)
}

// ListDocuments returns all documents in a case
func (s *Service) ListDocuments(caseID string) ([]*models.Document, error) {
	return s.storage.Documents().ListDocumentsByCase(caseID)
}

// GetJobs returns the processing job history for a document
func (s *Service) GetJobs(documentID string) ([]*models.ProcessingJob, error) {
	return s.storage.Jobs().GetJobsByDocument(documentID)
}

// DeleteDocument removes the document and its derived chunks, embeddings,
// and jobs
func (s *Service) DeleteDocument(id string) error {
	if _, err := s.storage.Documents().GetDocument(id); err != nil {
		return err
	}
	return s.storage.DeleteDocumentCascade(id)
}

func (s *Service) checkExtension(fileName string) error {
	if len(s.config.AllowedExtensions) == 0 {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	for _, allowed := range s.config.AllowedExtensions {
		if strings.EqualFold(strings.TrimPrefix(allowed, "."), ext) {
			return nil
		}
	}
	return fmt.Errorf("file type .%s is not allowed", ext)
}
