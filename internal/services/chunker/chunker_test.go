package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyText(t *testing.T) {
	c := NewChunker(1000, 200)

	assert.Nil(t, c.Split(""))
}

func TestSplit_ShortText(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.Split("A short document.")

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, "A short document.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 17, chunks[0].EndOffset)
	assert.NotEmpty(t, chunks[0].ContentHash)
}

func TestSplit_OverlappingWindows(t *testing.T) {
	// 2500 characters with no sentence breaks: windows fall at the raw
	// boundaries and each next window starts overlap runes earlier.
	text := strings.Repeat("a", 2500)
	c := NewChunker(1000, 200)

	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, 1000, chunks[0].EndOffset)
	assert.Equal(t, 800, chunks[1].StartOffset)
	assert.Equal(t, 1800, chunks[1].EndOffset)
	assert.Equal(t, 1600, chunks[2].StartOffset)
	assert.Equal(t, 2500, chunks[2].EndOffset)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestSplit_SentenceSnap(t *testing.T) {
	// A period at rune 700 is at least half a window from the start, so the
	// first window snaps to just past it.
	text := strings.Repeat("a", 700) + "." + strings.Repeat("b", 800)
	c := NewChunker(1000, 200)

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 701, chunks[0].EndOffset)
	assert.Equal(t, 501, chunks[1].StartOffset)
}

func TestSplit_SentenceSnapRejectedWhenTooEarly(t *testing.T) {
	// The only break is before the half-window mark; the window stays at the
	// raw boundary.
	text := strings.Repeat("a", 100) + "." + strings.Repeat("b", 1500)
	c := NewChunker(1000, 200)

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	assert.Equal(t, 1000, chunks[0].EndOffset)
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)
	c := NewChunker(1000, 200)

	first := c.Split(text)
	second := c.Split(text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].ContentHash, second[i].ContentHash)
		assert.Equal(t, first[i].StartOffset, second[i].StartOffset)
		assert.Equal(t, first[i].EndOffset, second[i].EndOffset)
	}
}

func TestSplit_WhitespaceWindowsDropped(t *testing.T) {
	// A window of pure whitespace produces no chunk, and the surviving
	// chunks keep contiguous indexes.
	text := strings.Repeat("a", 10) + strings.Repeat(" ", 40) + strings.Repeat("b", 10)
	c := NewChunker(20, 5)

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.NotEmpty(t, strings.TrimSpace(chunk.Content))
	}
}

func TestSplit_TerminatesOnDegenerateText(t *testing.T) {
	// Overlap nearly as large as the window with early sentence snaps could
	// stall the walk; the forced advance keeps it moving.
	text := strings.Repeat(".", 5000)
	c := NewChunker(100, 90)

	chunks := c.Split(text)

	assert.NotEmpty(t, chunks)
}

func TestAssignPages_FormFeedsMarkPages(t *testing.T) {
	// Pages separated the way paged OCR results come back.
	text := "Page one text here.\n\fPage two text here.\n\fPage three text here."
	c := NewChunker(25, 5)

	chunks := c.Split(text)
	AssignPages(text, chunks)

	require.NotEmpty(t, chunks)
	runes := []rune(text)
	for _, chunk := range chunks {
		breaks := 0
		for _, r := range runes[:chunk.StartOffset] {
			if r == '\f' {
				breaks++
			}
		}
		assert.Equal(t, breaks+1, chunk.PageNumber)
	}
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 3, chunks[len(chunks)-1].PageNumber)
}

func TestAssignPages_NoMarkersLeavesPagesUnknown(t *testing.T) {
	text := "A plain upload has no page markers at all."
	c := NewChunker(20, 5)

	chunks := c.Split(text)
	AssignPages(text, chunks)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, 0, chunk.PageNumber)
	}
}

func TestSplit_UnicodeOffsetsAreRunes(t *testing.T) {
	text := strings.Repeat("日本語の文書。", 300)
	c := NewChunker(1000, 200)

	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	runes := []rune(text)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.EndOffset, len(runes))
		window := strings.TrimSpace(string(runes[chunk.StartOffset:chunk.EndOffset]))
		assert.Equal(t, window, chunk.Content)
	}
}
