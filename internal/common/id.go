package common

import (
	"github.com/google/uuid"
)

// NewCaseID generates a unique case ID with the "case_" prefix
func NewCaseID() string {
	return "case_" + uuid.New().String()
}

// NewDocumentID generates a unique document ID with the "doc_" prefix
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewChunkID generates a unique chunk ID with the "chunk_" prefix
func NewChunkID() string {
	return "chunk_" + uuid.New().String()
}

// NewEmbeddingID generates a unique embedding ID with the "emb_" prefix
func NewEmbeddingID() string {
	return "emb_" + uuid.New().String()
}

// NewJobID generates a unique processing job ID with the "job_" prefix
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewSearchID generates a unique search history ID with the "search_" prefix
func NewSearchID() string {
	return "search_" + uuid.New().String()
}

// NewThemeID generates a unique theme ID with the "theme_" prefix
func NewThemeID() string {
	return "theme_" + uuid.New().String()
}

// NewQuestionID generates a unique suggested question ID with the "question_" prefix
func NewQuestionID() string {
	return "question_" + uuid.New().String()
}

// NewEntityID generates a unique extracted entity ID with the "entity_" prefix
func NewEntityID() string {
	return "entity_" + uuid.New().String()
}
