package models

import "time"

// UsageMonth accumulates metered remote consumption for one calendar month.
// Keyed by Month in "2006-01" form.
type UsageMonth struct {
	Month     string    `json:"month" badgerhold:"key"`
	Tokens    int       `json:"tokens"`
	OCRPages  int       `json:"ocr_pages"`
	UpdatedAt time.Time `json:"updated_at"`
}
