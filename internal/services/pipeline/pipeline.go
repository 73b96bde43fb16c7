package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/chunker"
	"github.com/ternarybob/reperio/internal/services/embeddings"
	"github.com/ternarybob/reperio/internal/services/entities"
	"github.com/ternarybob/reperio/internal/services/extract"
)

// Service drives one document through extract, chunk, and embed. Each stage
// writes a ProcessingJob audit record and advances the document status;
// failures persist state before propagating.
type Service struct {
	storage      interfaces.StorageManager
	dispatcher   *extract.Dispatcher
	chunker      *chunker.Chunker
	orchestrator *embeddings.Orchestrator
	scanner      *entities.Scanner
	logger       arbor.ILogger
}

// NewService creates a new pipeline service
func NewService(
	storage interfaces.StorageManager,
	dispatcher *extract.Dispatcher,
	chunkSvc *chunker.Chunker,
	orchestrator *embeddings.Orchestrator,
	scanner *entities.Scanner,
	logger arbor.ILogger,
) *Service {
	return &Service{
		storage:      storage,
		dispatcher:   dispatcher,
		chunker:      chunkSvc,
		orchestrator: orchestrator,
		scanner:      scanner,
		logger:       logger,
	}
}

// ProcessDocument runs the full pipeline for one uploaded document. Stages
// are strictly sequential; the first failure marks the document errored and
// stops.
func (s *Service) ProcessDocument(ctx context.Context, documentID string, fileBytes []byte) error {
	doc, err := s.storage.Documents().GetDocument(documentID)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("case_id", doc.CaseID).
		Str("file_name", doc.FileName).
		Msg("Processing document")

	// Stage 1: extraction (local or remote OCR).
	var text string
	err = s.runStage(ctx, doc, models.StageOCR, models.StatusOCR, func(ctx context.Context, progress interfaces.ProgressFunc, job *models.ProcessingJob) error {
		var stageErr error
		text, stageErr = s.dispatcher.Extract(ctx, &extract.Request{
			FileName:  doc.FileName,
			MimeType:  doc.MimeType,
			Data:      fileBytes,
			PageCount: doc.PageCount,
			OnSubmit: func(externalJobID string) {
				job.ExternalJobID = externalJobID
				if err := s.storage.Jobs().UpdateJob(job); err != nil {
					s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to record external job id")
				}
			},
		}, progress)
		return stageErr
	})
	if err != nil {
		return err
	}

	doc.ExtractedText = text
	if err := s.storage.Documents().UpdateDocument(doc); err != nil {
		return s.failDocument(doc.ID, fmt.Errorf("failed to persist extracted text: %w", err))
	}

	// Stage 2: chunking plus the entity scan over the extracted text.
	var chunks []*models.DocumentChunk
	err = s.runStage(ctx, doc, models.StageChunking, models.StatusChunking, func(ctx context.Context, progress interfaces.ProgressFunc, _ *models.ProcessingJob) error {
		chunks = s.chunker.Split(text)
		chunker.AssignPages(text, chunks)
		for _, chunk := range chunks {
			chunk.ID = common.NewChunkID()
			chunk.DocumentID = doc.ID
			chunk.CaseID = doc.CaseID
		}
		if err := s.storage.Chunks().SaveChunks(chunks); err != nil {
			return fmt.Errorf("failed to save chunks: %w", err)
		}
		progress.Report(80)

		found := s.scanner.Scan(doc.CaseID, text)
		if len(found) > 0 {
			if err := s.storage.Entities().UpsertEntities(found); err != nil {
				return fmt.Errorf("failed to save entities: %w", err)
			}
		}
		progress.Report(100)
		return nil
	})
	if err != nil {
		return err
	}

	// Stage 3: embedding.
	err = s.runStage(ctx, doc, models.StageEmbedding, models.StatusEmbedding, func(ctx context.Context, progress interfaces.ProgressFunc, _ *models.ProcessingJob) error {
		return s.orchestrator.EmbedChunks(ctx, chunks, progress)
	})
	if err != nil {
		return err
	}

	if err := s.storage.Documents().UpdateStatus(doc.ID, models.StatusCompleted, ""); err != nil {
		return s.failDocument(doc.ID, fmt.Errorf("failed to mark document completed: %w", err))
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Int("chunks", len(chunks)).
		Msg("Document processing completed")
	return nil
}

// failDocument marks the document errored so a persist failure between
// stages never strands it in an in-progress status.
func (s *Service) failDocument(documentID string, failure error) error {
	if err := s.storage.Documents().UpdateStatus(documentID, models.StatusError, failure.Error()); err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to persist document error")
	}
	return failure
}

// runStage wraps one pipeline stage with its job record and document status
// transition. The stage error is persisted to both records before it is
// returned; the stage function receives the job so it can attach stage
// metadata such as the remote OCR job identifier.
func (s *Service) runStage(ctx context.Context, doc *models.Document, stage models.JobStage, status models.DocumentStatus, fn func(ctx context.Context, progress interfaces.ProgressFunc, job *models.ProcessingJob) error) error {
	job := &models.ProcessingJob{
		ID:         common.NewJobID(),
		DocumentID: doc.ID,
		CaseID:     doc.CaseID,
		Stage:      stage,
		Status:     models.JobQueued,
	}
	if err := s.storage.Jobs().SaveJob(job); err != nil {
		return fmt.Errorf("failed to create %s job: %w", stage, err)
	}

	if err := s.storage.Documents().UpdateStatus(doc.ID, status, ""); err != nil {
		return fmt.Errorf("failed to set document status %s: %w", status, err)
	}
	doc.Status = status

	started := time.Now()
	job.Status = models.JobProcessing
	job.StartedAt = &started
	if err := s.storage.Jobs().UpdateJob(job); err != nil {
		return fmt.Errorf("failed to start %s job: %w", stage, err)
	}

	progress := interfaces.ProgressFunc(func(percent int) {
		job.Progress = percent
		if err := s.storage.Jobs().UpdateJob(job); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to update job progress")
		}
	})

	stageErr := fn(ctx, progress, job)
	finished := time.Now()
	job.CompletedAt = &finished

	if stageErr != nil {
		job.Status = models.JobFailed
		job.ErrorMessage = stageErr.Error()
		if err := s.storage.Jobs().UpdateJob(job); err != nil {
			s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job failure")
		}
		if err := s.storage.Documents().UpdateStatus(doc.ID, models.StatusError, stageErr.Error()); err != nil {
			s.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("Failed to persist document error")
		}

		s.logger.Error().
			Err(stageErr).
			Str("document_id", doc.ID).
			Str("stage", string(stage)).
			Msg("Pipeline stage failed")
		return fmt.Errorf("%s stage failed: %w", stage, stageErr)
	}

	job.Status = models.JobCompleted
	job.Progress = 100
	if err := s.storage.Jobs().UpdateJob(job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job completion")
	}
	return nil
}
