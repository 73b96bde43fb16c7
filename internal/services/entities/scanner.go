// -----------------------------------------------------------------------
// Package entities provides a regex-based scanner for named entities
// (people, organizations, citations, dates, amounts) in extracted text.
// -----------------------------------------------------------------------

package entities

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/models"
)

// Scanner extracts named entities from document text with predefined
// patterns. Results feed theme-context assembly; precision is preferred over
// recall, so every pattern is anchored on strong surface cues.
type Scanner struct {
	patterns map[models.EntityType]*regexp.Regexp
	concepts []string
}

// NewScanner creates a new entity scanner with predefined patterns
func NewScanner() *Scanner {
	return &Scanner{
		patterns: map[models.EntityType]*regexp.Regexp{
			// Honorific followed by one or two capitalized names: Dr. Jane Doe
			models.EntityPerson: regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof|Judge|Justice)\.?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),

			// Capitalized phrase ending in a corporate suffix: Acme Widgets Inc.
			models.EntityOrganization: regexp.MustCompile(`\b((?:[A-Z][A-Za-z&]+\s+){0,3}[A-Z][A-Za-z&]+\s+(?:Inc|LLC|LLP|Ltd|Corp|Corporation|Company|Group|Partners|Associates|Bank))\.?\b`),

			// Case citations: Smith v. Jones
			models.EntityCase: regexp.MustCompile(`\b([A-Z][A-Za-z]+\s+v\.?\s+[A-Z][A-Za-z]+)\b`),

			// Dates: 2024-01-15, 01/15/2024, January 15, 2024
			models.EntityDate: regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{2,4}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`),

			// Money: $1,500.00, $2 million
			models.EntityMoney: regexp.MustCompile(`([$€£]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:thousand|million|billion))?)`),

			// City, ST pairs: Springfield, IL
			models.EntityLocation: regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?,\s+[A-Z]{2})\b`),
		},
		// Domain concepts matched case-insensitively as whole phrases.
		concepts: []string{
			"breach of contract",
			"negligence",
			"liability",
			"damages",
			"indemnification",
			"settlement",
			"arbitration",
			"injunction",
			"intellectual property",
			"confidentiality",
			"warranty",
			"force majeure",
		},
	}
}

// Scan finds all entities in the text and aggregates mention counts per
// (type, value). Output order is deterministic: type order, then value.
func (s *Scanner) Scan(caseID, text string) []*models.ExtractedEntity {
	counts := make(map[models.EntityType]map[string]int)

	for entityType, pattern := range s.patterns {
		matches := pattern.FindAllStringSubmatch(text, -1)
		for _, match := range matches {
			if len(match) < 2 {
				continue
			}
			value := strings.TrimSpace(match[1])
			if value == "" {
				continue
			}
			if counts[entityType] == nil {
				counts[entityType] = make(map[string]int)
			}
			counts[entityType][value]++
		}
	}

	lower := strings.ToLower(text)
	for _, concept := range s.concepts {
		n := strings.Count(lower, concept)
		if n == 0 {
			continue
		}
		if counts[models.EntityConcept] == nil {
			counts[models.EntityConcept] = make(map[string]int)
		}
		counts[models.EntityConcept][concept] += n
	}

	var entities []*models.ExtractedEntity
	for _, entityType := range models.EntityTypes {
		values := make([]string, 0, len(counts[entityType]))
		for value := range counts[entityType] {
			values = append(values, value)
		}
		sort.Strings(values)
		for _, value := range values {
			entities = append(entities, &models.ExtractedEntity{
				ID:       common.NewEntityID(),
				CaseID:   caseID,
				Type:     entityType,
				Value:    value,
				Mentions: counts[entityType][value],
			})
		}
	}

	return entities
}
