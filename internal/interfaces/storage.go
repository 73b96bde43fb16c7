package interfaces

import (
	"github.com/ternarybob/reperio/internal/models"
)

// CaseStorage - interface for case persistence
type CaseStorage interface {
	SaveCase(c *models.Case) error
	GetCase(id string) (*models.Case, error)
	ListCases() ([]*models.Case, error)
	DeleteCase(id string) error
	CountCases() (int, error)
}

// DocumentStorage - interface for document persistence
type DocumentStorage interface {
	SaveDocument(doc *models.Document) error
	GetDocument(id string) (*models.Document, error)
	UpdateDocument(doc *models.Document) error
	DeleteDocument(id string) error

	// UpdateStatus atomically advances a document's status. A concurrent
	// reader observes either the old or the new record, never a torn write.
	UpdateStatus(id string, status models.DocumentStatus, errorMessage string) error

	ListDocumentsByCase(caseID string) ([]*models.Document, error)
	CountDocumentsByCase(caseID string) (int, error)
	CountCompletedByCase(caseID string) (int, error)
}

// ChunkStorage - interface for document chunk persistence
type ChunkStorage interface {
	// SaveChunks bulk-inserts the chunks of one document in a single pass.
	SaveChunks(chunks []*models.DocumentChunk) error
	GetChunk(id string) (*models.DocumentChunk, error)
	// GetChunksByDocument returns chunks ordered by ChunkIndex.
	GetChunksByDocument(documentID string) ([]*models.DocumentChunk, error)
	GetChunksByCase(caseID string) ([]*models.DocumentChunk, error)
	DeleteChunksByDocument(documentID string) error
	CountChunksByCase(caseID string) (int, error)
}

// EmbeddingStorage - interface for chunk embedding persistence
type EmbeddingStorage interface {
	// SaveEmbeddings bulk-inserts embeddings, preserving slice order.
	SaveEmbeddings(embeddings []*models.ChunkEmbedding) error
	// GetEmbeddingsByCase returns embeddings in storage (insertion) order.
	GetEmbeddingsByCase(caseID string) ([]*models.ChunkEmbedding, error)
	// GetEmbeddingsByDocuments restricts the scan to the given document IDs.
	GetEmbeddingsByDocuments(caseID string, documentIDs []string) ([]*models.ChunkEmbedding, error)
	DeleteEmbeddingsByDocument(documentID string) error
	CountEmbeddingsByCase(caseID string) (int, error)
}

// JobStorage - interface for processing job audit records
type JobStorage interface {
	SaveJob(job *models.ProcessingJob) error
	UpdateJob(job *models.ProcessingJob) error
	GetJob(id string) (*models.ProcessingJob, error)
	GetJobsByDocument(documentID string) ([]*models.ProcessingJob, error)
	DeleteJobsByDocument(documentID string) error
}

// SearchHistoryStorage - interface for executed-query records
type SearchHistoryStorage interface {
	SaveSearch(record *models.SearchHistory) error
	GetSearch(id string) (*models.SearchHistory, error)
	ListSearchesByCase(caseID string, limit int) ([]*models.SearchHistory, error)
	DeleteSearchesByCase(caseID string) error
}

// ThemeStorage - interface for derived theme artifacts
type ThemeStorage interface {
	// ReplaceThemes wholesale replaces a case's themes and questions
	// (delete-then-insert); themes are never incrementally patched.
	ReplaceThemes(caseID string, themes []*models.CaseTheme, questions []*models.SuggestedQuestion) error
	GetThemesByCase(caseID string) ([]*models.CaseTheme, error)
	GetQuestionsByCase(caseID string) ([]*models.SuggestedQuestion, error)

	GetAnalysis(caseID string) (*models.ThemeAnalysis, error)
	SaveAnalysis(analysis *models.ThemeAnalysis) error

	DeleteThemesByCase(caseID string) error
}

// EntityStorage - interface for extracted entities
type EntityStorage interface {
	// UpsertEntities merges mention counts for entities that already exist
	// (matched by case, type, and value) and inserts the rest.
	UpsertEntities(entities []*models.ExtractedEntity) error
	GetEntitiesByCase(caseID string) ([]*models.ExtractedEntity, error)
	DeleteEntitiesByCase(caseID string) error
}

// UsageStorage - interface for metered-consumption counters
type UsageStorage interface {
	GetMonth(month string) (*models.UsageMonth, error)
	SaveMonth(record *models.UsageMonth) error
}

// StorageManager aggregates all storages over one database connection and
// owns the cascading delete paths.
type StorageManager interface {
	Cases() CaseStorage
	Documents() DocumentStorage
	Chunks() ChunkStorage
	Embeddings() EmbeddingStorage
	Jobs() JobStorage
	Searches() SearchHistoryStorage
	Themes() ThemeStorage
	Entities() EntityStorage
	Usage() UsageStorage

	// DeleteDocumentCascade removes a document plus its chunks, embeddings,
	// and jobs.
	DeleteDocumentCascade(documentID string) error
	// DeleteCaseCascade removes a case plus all documents (cascaded), search
	// history, entities, and theme artifacts.
	DeleteCaseCascade(caseID string) error

	Close() error
}
