package themes

import "github.com/ternarybob/reperio/internal/models"

// sampleChunks reduces a case's chunks to at most maxChunks while keeping
// every document represented. When over the cap: each document contributes
// its first chunk, then the remaining budget is split evenly and filled by
// striding through each document's remaining chunks, so sampling spans whole
// documents instead of clustering at their starts.
func sampleChunks(chunks []*models.DocumentChunk, maxChunks int) []*models.DocumentChunk {
	if len(chunks) <= maxChunks {
		return chunks
	}

	// Group in encounter order; chunks arrive sorted by document then index.
	var docOrder []string
	byDoc := make(map[string][]*models.DocumentChunk)
	for _, chunk := range chunks {
		if _, seen := byDoc[chunk.DocumentID]; !seen {
			docOrder = append(docOrder, chunk.DocumentID)
		}
		byDoc[chunk.DocumentID] = append(byDoc[chunk.DocumentID], chunk)
	}

	sampled := make([]*models.DocumentChunk, 0, maxChunks)
	for _, docID := range docOrder {
		if len(sampled) >= maxChunks {
			break
		}
		sampled = append(sampled, byDoc[docID][0])
	}

	remaining := maxChunks - len(sampled)
	if remaining <= 0 {
		return sampled
	}
	quota := remaining / len(docOrder)
	if quota == 0 {
		quota = 1
	}

	for _, docID := range docOrder {
		rest := byDoc[docID][1:]
		if len(rest) == 0 {
			continue
		}

		take := quota
		if take > len(rest) {
			take = len(rest)
		}
		stride := len(rest) / take

		for i := 0; i < take && len(sampled) < maxChunks; i++ {
			sampled = append(sampled, rest[i*stride])
		}
		if len(sampled) >= maxChunks {
			break
		}
	}

	return sampled
}
