package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/reperio/internal/models"
)

func findEntity(entities []*models.ExtractedEntity, entityType models.EntityType, value string) *models.ExtractedEntity {
	for _, e := range entities {
		if e.Type == entityType && e.Value == value {
			return e
		}
	}
	return nil
}

func TestScan_Patterns(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name       string
		text       string
		entityType models.EntityType
		value      string
	}{
		{"person with honorific", "The deposition of Dr. Jane Doe was taken.", models.EntityPerson, "Jane Doe"},
		{"person single name", "Counsel addressed Mr. Smith directly.", models.EntityPerson, "Smith"},
		{"organization suffix", "Acme Widgets Inc. filed a counterclaim.", models.EntityOrganization, "Acme Widgets Inc"},
		{"case citation", "As held in Smith v. Jones, the duty attaches.", models.EntityCase, "Smith v. Jones"},
		{"iso date", "The contract was signed on 2024-01-15.", models.EntityDate, "2024-01-15"},
		{"slash date", "Payment was due 01/15/2024 at the latest.", models.EntityDate, "01/15/2024"},
		{"written date", "The hearing was held on January 15, 2024.", models.EntityDate, "January 15, 2024"},
		{"money amount", "The invoice totals $1,500.00 plus interest.", models.EntityMoney, "$1,500.00"},
		{"money magnitude", "Exposure is estimated at $2 million overall.", models.EntityMoney, "$2 million"},
		{"location pair", "The warehouse is in Springfield, IL near the river.", models.EntityLocation, "Springfield, IL"},
		{"concept phrase", "Plaintiff alleges breach of contract and seeks relief.", models.EntityConcept, "breach of contract"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := scanner.Scan("case_1", tt.text)
			found := findEntity(entities, tt.entityType, tt.value)
			require.NotNil(t, found, "expected %s entity %q", tt.entityType, tt.value)
			assert.Equal(t, "case_1", found.CaseID)
			assert.Equal(t, 1, found.Mentions)
		})
	}
}

func TestScan_AggregatesMentions(t *testing.T) {
	scanner := NewScanner()
	text := "Mr. Smith denied the claim. Later, Mr. Smith reversed his position. Mr. Smith signed."

	entities := scanner.Scan("case_1", text)

	smith := findEntity(entities, models.EntityPerson, "Smith")
	require.NotNil(t, smith)
	assert.Equal(t, 3, smith.Mentions)
}

func TestScan_ConceptsMatchCaseInsensitively(t *testing.T) {
	scanner := NewScanner()
	text := "NEGLIGENCE is alleged. The negligence claim rests on two acts of Negligence."

	entities := scanner.Scan("case_1", text)

	concept := findEntity(entities, models.EntityConcept, "negligence")
	require.NotNil(t, concept)
	assert.Equal(t, 3, concept.Mentions)
}

func TestScan_OrderedByTypeThenValue(t *testing.T) {
	scanner := NewScanner()
	text := "Dr. Zeta Young and Dr. Adam Brown reviewed the settlement. Acme Corp handled damages."

	entities := scanner.Scan("case_1", text)
	require.NotEmpty(t, entities)

	typeRank := make(map[models.EntityType]int, len(models.EntityTypes))
	for i, entityType := range models.EntityTypes {
		typeRank[entityType] = i
	}
	for i := 1; i < len(entities); i++ {
		prev, cur := entities[i-1], entities[i]
		if prev.Type == cur.Type {
			assert.Less(t, prev.Value, cur.Value)
			continue
		}
		assert.Less(t, typeRank[prev.Type], typeRank[cur.Type])
	}

	// Alphabetical within type: Adam Brown before Zeta Young.
	var people []string
	for _, e := range entities {
		if e.Type == models.EntityPerson {
			people = append(people, e.Value)
		}
	}
	assert.Equal(t, []string{"Adam Brown", "Zeta Young"}, people)
}

func TestScan_NoMatches(t *testing.T) {
	scanner := NewScanner()

	entities := scanner.Scan("case_1", "nothing of interest here, just lowercase prose")

	assert.Empty(t, entities)
}

func TestScan_Deterministic(t *testing.T) {
	scanner := NewScanner()
	text := "Smith v. Jones was settled for $50,000 on 2023-06-01 by Acme Holdings LLC in Austin, TX. Dr. Ruth Bell testified about liability and damages."

	first := scanner.Scan("case_1", text)
	second := scanner.Scan("case_1", text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Type, second[i].Type)
		assert.Equal(t, first[i].Value, second[i].Value)
		assert.Equal(t, first[i].Mentions, second[i].Mentions)
	}
}
