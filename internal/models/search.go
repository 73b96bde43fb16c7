package models

import "time"

// SearchMatch is one ranked result from the vector similarity engine.
// ChunkID values are distinct across a result set even when several chunks of
// the same document qualify; grouping by document is a presentation concern.
type SearchMatch struct {
	ChunkID      string   `json:"chunk_id"`
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ChunkIndex   int      `json:"chunk_index"`
	Score        float64  `json:"score"`
	Snippets     []string `json:"snippets"`
	PageNumber   int      `json:"page_number,omitempty"`
}

// SearchHistory records one executed query within a case. Results is an
// optional snapshot of the matches returned, for exact replay without
// recomputation.
type SearchHistory struct {
	ID          string        `json:"id"` // search_{uuid}
	CaseID      string        `json:"case_id"`
	Query       string        `json:"query"`
	ResultCount int           `json:"result_count"`
	Results     []SearchMatch `json:"results,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
