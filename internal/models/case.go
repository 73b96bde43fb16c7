package models

import "time"

// Case is the top-level container scoping documents, searches, and derived
// analysis. Deleting a case cascades to everything it owns.
type Case struct {
	ID          string    `json:"id"` // case_{uuid}
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
