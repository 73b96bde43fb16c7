package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// Manager aggregates all Badger-backed storages over one connection.
type Manager struct {
	db     *BadgerDB
	logger arbor.ILogger

	cases      interfaces.CaseStorage
	documents  interfaces.DocumentStorage
	chunks     interfaces.ChunkStorage
	embeddings interfaces.EmbeddingStorage
	jobs       interfaces.JobStorage
	searches   interfaces.SearchHistoryStorage
	themes     interfaces.ThemeStorage
	entities   interfaces.EntityStorage
	usage      interfaces.UsageStorage
}

// NewManager opens the database and wires up all storage implementations
func NewManager(config *common.Config, logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	return &Manager{
		db:         db,
		logger:     logger,
		cases:      NewCaseStorage(db, logger),
		documents:  NewDocumentStorage(db, logger),
		chunks:     NewChunkStorage(db, logger),
		embeddings: NewEmbeddingStorage(db, logger),
		jobs:       NewJobStorage(db, logger),
		searches:   NewSearchHistoryStorage(db, logger),
		themes:     NewThemeStorage(db, logger),
		entities:   NewEntityStorage(db, logger),
		usage:      NewUsageStorage(db, logger),
	}, nil
}

func (m *Manager) Cases() interfaces.CaseStorage             { return m.cases }
func (m *Manager) Documents() interfaces.DocumentStorage     { return m.documents }
func (m *Manager) Chunks() interfaces.ChunkStorage           { return m.chunks }
func (m *Manager) Embeddings() interfaces.EmbeddingStorage   { return m.embeddings }
func (m *Manager) Jobs() interfaces.JobStorage               { return m.jobs }
func (m *Manager) Searches() interfaces.SearchHistoryStorage { return m.searches }
func (m *Manager) Themes() interfaces.ThemeStorage           { return m.themes }
func (m *Manager) Entities() interfaces.EntityStorage        { return m.entities }
func (m *Manager) Usage() interfaces.UsageStorage            { return m.usage }

// DeleteDocumentCascade removes a document together with its chunks,
// embeddings, and job records.
func (m *Manager) DeleteDocumentCascade(documentID string) error {
	if err := m.chunks.DeleteChunksByDocument(documentID); err != nil {
		return fmt.Errorf("cascade delete chunks: %w", err)
	}
	if err := m.embeddings.DeleteEmbeddingsByDocument(documentID); err != nil {
		return fmt.Errorf("cascade delete embeddings: %w", err)
	}
	if err := m.jobs.DeleteJobsByDocument(documentID); err != nil {
		return fmt.Errorf("cascade delete jobs: %w", err)
	}
	if err := m.documents.DeleteDocument(documentID); err != nil {
		return fmt.Errorf("cascade delete document: %w", err)
	}

	m.logger.Info().Str("document_id", documentID).Msg("Deleted document and derived records")
	return nil
}

// DeleteCaseCascade removes a case together with every document (and its
// derived records), search history, entities, and theme artifacts.
func (m *Manager) DeleteCaseCascade(caseID string) error {
	docs, err := m.documents.ListDocumentsByCase(caseID)
	if err != nil {
		return fmt.Errorf("cascade list documents: %w", err)
	}
	for _, doc := range docs {
		if err := m.DeleteDocumentCascade(doc.ID); err != nil {
			return err
		}
	}

	if err := m.searches.DeleteSearchesByCase(caseID); err != nil {
		return fmt.Errorf("cascade delete search history: %w", err)
	}
	if err := m.entities.DeleteEntitiesByCase(caseID); err != nil {
		return fmt.Errorf("cascade delete entities: %w", err)
	}
	if err := m.themes.DeleteThemesByCase(caseID); err != nil {
		return fmt.Errorf("cascade delete themes: %w", err)
	}
	if err := m.cases.DeleteCase(caseID); err != nil {
		return fmt.Errorf("cascade delete case: %w", err)
	}

	m.logger.Info().Str("case_id", caseID).Int("documents", len(docs)).Msg("Deleted case and all derived records")
	return nil
}

// Close closes the underlying database connection
func (m *Manager) Close() error {
	return m.db.Close()
}
