package models

import "time"

// JobStage identifies the pipeline stage a processing job tracks.
type JobStage string

const (
	StageOCR       JobStage = "ocr"
	StageChunking  JobStage = "chunking"
	StageEmbedding JobStage = "embedding"
)

// JobStatus is the lifecycle of a processing job record.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// ProcessingJob is an audit/status record for one pipeline stage of one
// document. Jobs are never reused across runs; each stage run produces a
// fresh record.
type ProcessingJob struct {
	ID         string `json:"id"` // job_{uuid}
	DocumentID string `json:"document_id"`
	CaseID     string `json:"case_id"`

	Stage         JobStage  `json:"stage"`
	Status        JobStatus `json:"status"`
	ExternalJobID string    `json:"external_job_id,omitempty"` // Remote OCR job identifier
	Progress      int       `json:"progress"`                  // 0-100
	ErrorMessage  string    `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
