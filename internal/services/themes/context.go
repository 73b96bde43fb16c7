package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/reperio/internal/models"
)

// truncationMarker is appended whenever assembled context hits the hard cap.
const truncationMarker = "\n[truncated]"

// maxEntitiesPerType bounds the entity summary handed to the model.
const maxEntitiesPerType = 5

// assembleContext builds the LLM context for one case: name and description,
// a frequency-ranked entity summary in fixed type order, then excerpts of
// the sampled chunks. The whole thing is hard-capped at maxLength runes with
// a visible truncation marker.
func assembleContext(c *models.Case, entities []*models.ExtractedEntity, chunks []*models.DocumentChunk, excerptLength, maxLength int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Case: %s\n", c.Name))
	if c.Description != "" {
		b.WriteString(fmt.Sprintf("Description: %s\n", c.Description))
	}

	if summary := entitySummary(entities); summary != "" {
		b.WriteString("\nKey entities:\n")
		b.WriteString(summary)
	}

	b.WriteString("\nDocument excerpts:\n")
	for i, chunk := range chunks {
		excerpt := chunk.Content
		if r := []rune(excerpt); len(r) > excerptLength {
			excerpt = string(r[:excerptLength])
		}
		b.WriteString(fmt.Sprintf("\n--- Excerpt %d ---\n%s\n", i+1, excerpt))
	}

	context := b.String()
	if r := []rune(context); len(r) > maxLength {
		keep := maxLength - len([]rune(truncationMarker))
		context = string(r[:keep]) + truncationMarker
	}
	return context
}

// entitySummary lists up to maxEntitiesPerType values per type, most
// mentioned first, in the fixed presentation order of models.EntityTypes.
func entitySummary(entities []*models.ExtractedEntity) string {
	byType := make(map[models.EntityType][]*models.ExtractedEntity)
	for _, entity := range entities {
		byType[entity.Type] = append(byType[entity.Type], entity)
	}

	var b strings.Builder
	for _, entityType := range models.EntityTypes {
		group := byType[entityType]
		if len(group) == 0 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Mentions > group[j].Mentions
		})
		if len(group) > maxEntitiesPerType {
			group = group[:maxEntitiesPerType]
		}

		values := make([]string, len(group))
		for i, entity := range group {
			values[i] = fmt.Sprintf("%s (%d)", entity.Value, entity.Mentions)
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", entityType, strings.Join(values, ", ")))
	}
	return b.String()
}
