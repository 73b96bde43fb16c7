package models

import "time"

// CaseTheme is an LLM-derived summary topic spanning multiple documents in a
// case. Themes are wholesale replaced on every re-analysis.
type CaseTheme struct {
	ID             string   `json:"id"` // theme_{uuid}
	CaseID         string   `json:"case_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RelevanceScore float64  `json:"relevance_score"` // Clamped to [0,1]
	KeyTerms       []string `json:"key_terms"`

	CreatedAt time.Time `json:"created_at"`
}

// SuggestedQuestion is a candidate investigation question linked to exactly
// one theme. ThemeID may be empty when no theme could be resolved.
type SuggestedQuestion struct {
	ID        string `json:"id"` // question_{uuid}
	CaseID    string `json:"case_id"`
	ThemeID   string `json:"theme_id"`
	Question  string `json:"question"`
	Rationale string `json:"rationale,omitempty"`
	Priority  int    `json:"priority"` // Clamped to [1,5]

	CreatedAt time.Time `json:"created_at"`
}

// ThemeAnalysis tracks the document count at the time of the last successful
// analysis so the staleness check can decide when to refresh.
type ThemeAnalysis struct {
	CaseID        string    `json:"case_id"`
	DocumentCount int       `json:"document_count"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

// EntityType classifies extracted entities. The ordering of EntityTypes is
// the fixed presentation order used when assembling LLM context.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityCase         EntityType = "case"
	EntityConcept      EntityType = "concept"
	EntityDate         EntityType = "date"
	EntityMoney        EntityType = "money"
	EntityLocation     EntityType = "location"
)

// EntityTypes lists all entity types in presentation order.
var EntityTypes = []EntityType{
	EntityPerson,
	EntityOrganization,
	EntityCase,
	EntityConcept,
	EntityDate,
	EntityMoney,
	EntityLocation,
}

// ExtractedEntity is a named entity found in a case's documents, used to
// ground theme extraction context.
type ExtractedEntity struct {
	ID       string     `json:"id"`
	CaseID   string     `json:"case_id"`
	Type     EntityType `json:"type"`
	Value    string     `json:"value"`
	Mentions int        `json:"mentions"`

	CreatedAt time.Time `json:"created_at"`
}
