package chunker

import (
	"strings"

	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/models"
)

// Chunker splits extracted text into overlapping windows. It is pure and
// deterministic: the same text always yields the same chunks, offsets, and
// hashes.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker with the given window size and overlap.
// Overlap must be smaller than the window; config validation enforces that.
func NewChunker(chunkSize, overlap int) *Chunker {
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split produces the chunk sequence for one document's text. Returned chunks
// carry index, content, content hash, and the original rune offsets of the
// window; caller fills in identity fields. Whitespace-only windows are
// dropped, and indexes stay contiguous from zero after the drop.
func (c *Chunker) Split(text string) []*models.DocumentChunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var chunks []*models.DocumentChunk
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		rawEnd := end

		// Snap to the nearest sentence break before the boundary, but only
		// when that keeps at least half a window of content.
		if end < len(runes) {
			if snapped, ok := c.sentenceSnap(runes, start, end); ok {
				end = snapped
			}
		}

		content := strings.TrimSpace(string(runes[start:end]))
		if content != "" {
			chunks = append(chunks, &models.DocumentChunk{
				ChunkIndex:  len(chunks),
				Content:     content,
				ContentHash: common.ContentHash(content),
				StartOffset: start,
				EndOffset:   end,
			})
		}

		if end >= len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			// Degenerate text with no usable breaks; force the window
			// forward so the walk always terminates.
			next = rawEnd
		}
		start = next
	}

	return chunks
}

// AssignPages attributes each chunk to the 1-based page its window starts
// on, counting form feed page markers in the source text. Text without
// markers (local extractions, unpaged OCR results) leaves PageNumber at
// zero, meaning unknown.
func AssignPages(text string, chunks []*models.DocumentChunk) {
	if !strings.ContainsRune(text, '\f') {
		return
	}
	runes := []rune(text)
	page := 1
	cursor := 0
	for _, chunk := range chunks {
		for cursor < chunk.StartOffset && cursor < len(runes) {
			if runes[cursor] == '\f' {
				page++
			}
			cursor++
		}
		chunk.PageNumber = page
	}
}

// sentenceSnap searches backward from end for the nearest '.' or '\n' and
// returns the position just past it.
func (c *Chunker) sentenceSnap(runes []rune, start, end int) (int, bool) {
	for i := end - 1; i > start; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			if i-start >= c.chunkSize/2 {
				return i + 1, true
			}
			return 0, false
		}
	}
	return 0, false
}
