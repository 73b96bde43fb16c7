package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/storage/badger"
)

// openStorage opens a real Badger database in a per-test temp directory.
func openStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Storage.Badger.Path = t.TempDir()

	manager, err := badger.NewManager(config, common.GetLogger())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func seedCase(t *testing.T, storage interfaces.StorageManager, name string) *models.Case {
	t.Helper()
	c := &models.Case{
		ID:        common.NewCaseID(),
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, storage.Cases().SaveCase(c))
	return c
}

func seedDocument(t *testing.T, storage interfaces.StorageManager, caseID, fileName string) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:         common.NewDocumentID(),
		CaseID:     caseID,
		FileName:   fileName,
		MimeType:   "text/plain",
		SizeBytes:  128,
		Status:     models.StatusPending,
		UploadedAt: time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, storage.Documents().SaveDocument(doc))
	return doc
}

func seedChunks(t *testing.T, storage interfaces.StorageManager, doc *models.Document, contents []string) []*models.DocumentChunk {
	t.Helper()
	chunks := make([]*models.DocumentChunk, len(contents))
	for i, content := range contents {
		chunks[i] = &models.DocumentChunk{
			ID:          common.NewChunkID(),
			DocumentID:  doc.ID,
			CaseID:      doc.CaseID,
			ChunkIndex:  i,
			Content:     content,
			ContentHash: common.ContentHash(content),
			CreatedAt:   time.Now(),
		}
	}
	require.NoError(t, storage.Chunks().SaveChunks(chunks))
	return chunks
}

func TestCaseRoundTrip(t *testing.T) {
	storage := openStorage(t)

	created := seedCase(t, storage, "Smith v. Jones")

	loaded, err := storage.Cases().GetCase(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "Smith v. Jones", loaded.Name)

	cases, err := storage.Cases().ListCases()
	require.NoError(t, err)
	require.Len(t, cases, 1)

	count, err := storage.Cases().CountCases()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDocumentStatusUpdate(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "status case")
	doc := seedDocument(t, storage, c.ID, "contract.txt")

	require.NoError(t, storage.Documents().UpdateStatus(doc.ID, models.StatusChunking, ""))
	loaded, err := storage.Documents().GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusChunking, loaded.Status)

	require.NoError(t, storage.Documents().UpdateStatus(doc.ID, models.StatusError, "embedding failed"))
	loaded, err = storage.Documents().GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, loaded.Status)
	assert.Equal(t, "embedding failed", loaded.ErrorMessage)
}

func TestCompletedDocumentCount(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "count case")

	first := seedDocument(t, storage, c.ID, "a.txt")
	seedDocument(t, storage, c.ID, "b.txt")
	require.NoError(t, storage.Documents().UpdateStatus(first.ID, models.StatusCompleted, ""))

	total, err := storage.Documents().CountDocumentsByCase(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	completed, err := storage.Documents().CountCompletedByCase(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, completed)
}

func TestChunksOrderedByIndex(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "chunk case")
	doc := seedDocument(t, storage, c.ID, "long.txt")
	seedChunks(t, storage, doc, []string{"first window", "second window", "third window"})

	chunks, err := storage.Chunks().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
	assert.Equal(t, "first window", chunks[0].Content)
}

func TestEmbeddingsByDocuments(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "embedding case")
	docA := seedDocument(t, storage, c.ID, "a.txt")
	docB := seedDocument(t, storage, c.ID, "b.txt")
	chunksA := seedChunks(t, storage, docA, []string{"alpha"})
	chunksB := seedChunks(t, storage, docB, []string{"beta"})

	embeddings := []*models.ChunkEmbedding{
		{ID: common.NewEmbeddingID(), ChunkID: chunksA[0].ID, DocumentID: docA.ID, CaseID: c.ID, Vector: []float32{1, 0}, Strategy: "local", CreatedAt: time.Now()},
		{ID: common.NewEmbeddingID(), ChunkID: chunksB[0].ID, DocumentID: docB.ID, CaseID: c.ID, Vector: []float32{0, 1}, Strategy: "local", CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Embeddings().SaveEmbeddings(embeddings))

	all, err := storage.Embeddings().GetEmbeddingsByCase(c.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := storage.Embeddings().GetEmbeddingsByDocuments(c.ID, []string{docB.ID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, docB.ID, scoped[0].DocumentID)
	assert.Equal(t, []float32{0, 1}, scoped[0].Vector)
}

func TestEntityUpsertMergesMentions(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "entity case")

	first := []*models.ExtractedEntity{
		{ID: common.NewEntityID(), CaseID: c.ID, Type: models.EntityPerson, Value: "Smith", Mentions: 2, CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Entities().UpsertEntities(first))

	second := []*models.ExtractedEntity{
		{ID: common.NewEntityID(), CaseID: c.ID, Type: models.EntityPerson, Value: "Smith", Mentions: 3, CreatedAt: time.Now()},
		{ID: common.NewEntityID(), CaseID: c.ID, Type: models.EntityConcept, Value: "negligence", Mentions: 1, CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Entities().UpsertEntities(second))

	entities, err := storage.Entities().GetEntitiesByCase(c.ID)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	byValue := make(map[string]*models.ExtractedEntity)
	for _, e := range entities {
		byValue[e.Value] = e
	}
	require.Contains(t, byValue, "Smith")
	assert.Equal(t, 5, byValue["Smith"].Mentions)
	assert.Equal(t, 1, byValue["negligence"].Mentions)
}

func TestThemeReplaceIsWholesale(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "theme case")

	firstThemes := []*models.CaseTheme{
		{ID: common.NewThemeID(), CaseID: c.ID, Title: "Old theme", RelevanceScore: 0.5, CreatedAt: time.Now()},
	}
	firstQuestions := []*models.SuggestedQuestion{
		{ID: common.NewQuestionID(), CaseID: c.ID, ThemeID: firstThemes[0].ID, Question: "Old question?", Priority: 3, CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Themes().ReplaceThemes(c.ID, firstThemes, firstQuestions))

	secondThemes := []*models.CaseTheme{
		{ID: common.NewThemeID(), CaseID: c.ID, Title: "New theme A", RelevanceScore: 0.9, CreatedAt: time.Now()},
		{ID: common.NewThemeID(), CaseID: c.ID, Title: "New theme B", RelevanceScore: 0.7, CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Themes().ReplaceThemes(c.ID, secondThemes, nil))

	themes, err := storage.Themes().GetThemesByCase(c.ID)
	require.NoError(t, err)
	require.Len(t, themes, 2)
	for _, theme := range themes {
		assert.NotEqual(t, "Old theme", theme.Title)
	}

	questions, err := storage.Themes().GetQuestionsByCase(c.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestUsageMonthRoundTrip(t *testing.T) {
	storage := openStorage(t)

	month, err := storage.Usage().GetMonth("2026-08")
	require.NoError(t, err)
	require.NotNil(t, month)
	assert.Equal(t, 0, month.Tokens)

	month.Tokens = 1500
	month.OCRPages = 12
	month.UpdatedAt = time.Now()
	require.NoError(t, storage.Usage().SaveMonth(month))

	loaded, err := storage.Usage().GetMonth("2026-08")
	require.NoError(t, err)
	assert.Equal(t, 1500, loaded.Tokens)
	assert.Equal(t, 12, loaded.OCRPages)
}

func TestDocumentCascadeDelete(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "cascade case")
	doc := seedDocument(t, storage, c.ID, "doomed.txt")
	chunks := seedChunks(t, storage, doc, []string{"one", "two"})

	embeddings := []*models.ChunkEmbedding{
		{ID: common.NewEmbeddingID(), ChunkID: chunks[0].ID, DocumentID: doc.ID, CaseID: c.ID, Vector: []float32{1}, Strategy: "local", CreatedAt: time.Now()},
	}
	require.NoError(t, storage.Embeddings().SaveEmbeddings(embeddings))

	require.NoError(t, storage.DeleteDocumentCascade(doc.ID))

	_, err := storage.Documents().GetDocument(doc.ID)
	assert.Error(t, err)

	remaining, err := storage.Chunks().GetChunksByDocument(doc.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	count, err := storage.Embeddings().CountEmbeddingsByCase(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCaseCascadeDelete(t *testing.T) {
	storage := openStorage(t)
	c := seedCase(t, storage, "doomed case")
	doc := seedDocument(t, storage, c.ID, "a.txt")
	seedChunks(t, storage, doc, []string{"content"})

	require.NoError(t, storage.Searches().SaveSearch(&models.SearchHistory{
		ID:        common.NewSearchID(),
		CaseID:    c.ID,
		Query:     "breach of contract",
		CreatedAt: time.Now(),
	}))
	require.NoError(t, storage.Entities().UpsertEntities([]*models.ExtractedEntity{
		{ID: common.NewEntityID(), CaseID: c.ID, Type: models.EntityPerson, Value: "Smith", Mentions: 1, CreatedAt: time.Now()},
	}))

	other := seedCase(t, storage, "surviving case")
	survivor := seedDocument(t, storage, other.ID, "keep.txt")

	require.NoError(t, storage.DeleteCaseCascade(c.ID))

	_, err := storage.Cases().GetCase(c.ID)
	assert.Error(t, err)

	searches, err := storage.Searches().ListSearchesByCase(c.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, searches)

	entities, err := storage.Entities().GetEntitiesByCase(c.ID)
	require.NoError(t, err)
	assert.Empty(t, entities)

	kept, err := storage.Documents().GetDocument(survivor.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep.txt", kept.FileName)
}
