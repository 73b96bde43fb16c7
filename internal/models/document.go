package models

import "time"

// DocumentStatus tracks a document's progress through the processing pipeline.
// Transitions are strictly forward; StatusError is terminal and reachable from
// any active stage.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusOCR       DocumentStatus = "ocr"
	StatusChunking  DocumentStatus = "chunking"
	StatusEmbedding DocumentStatus = "embedding"
	StatusCompleted DocumentStatus = "completed"
	StatusError     DocumentStatus = "error"
)

// Active reports whether the document is still moving through the pipeline.
func (s DocumentStatus) Active() bool {
	switch s {
	case StatusPending, StatusOCR, StatusChunking, StatusEmbedding:
		return true
	}
	return false
}

// Document represents an uploaded file within a case. Only the pipeline
// mutates it as processing advances through stages.
type Document struct {
	// Identity
	ID     string `json:"id"` // doc_{uuid}
	CaseID string `json:"case_id"`

	// Raw file metadata
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	PageCount int    `json:"page_count,omitempty"` // PDFs only, counted locally

	// Pipeline state
	Status        DocumentStatus `json:"status"`
	ExtractedText string         `json:"extracted_text,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`

	// Timestamps
	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentChunk is a contiguous slice of a document's extracted text, the
// unit of embedding and retrieval. Chunks are created once in bulk after
// extraction and are immutable thereafter.
type DocumentChunk struct {
	ID         string `json:"id"` // chunk_{uuid}
	DocumentID string `json:"document_id"`
	CaseID     string `json:"case_id"`

	ChunkIndex  int    `json:"chunk_index"` // Contiguous from 0 within the document
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"` // FNV-1a hex, dedup signal only
	StartOffset int    `json:"start_offset"` // Character offsets into the source text
	EndOffset   int    `json:"end_offset"`
	PageNumber  int    `json:"page_number,omitempty"` // 0 = unknown

	CreatedAt time.Time `json:"created_at"`
}

// ChunkEmbedding holds the fixed-dimension vector for exactly one chunk.
// DocumentID and CaseID are denormalized for query convenience. Created once
// per chunk after successful embedding, never updated.
type ChunkEmbedding struct {
	ID         string `json:"id"` // emb_{uuid}
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	CaseID     string `json:"case_id"`
	ChunkIndex int    `json:"chunk_index"` // Denormalized for stable ordering

	Vector   []float32 `json:"vector"`
	Strategy string    `json:"strategy"` // Name of the embedder that produced the vector

	CreatedAt time.Time `json:"created_at"`
}
