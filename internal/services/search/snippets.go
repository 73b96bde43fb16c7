package search

import (
	"sort"
	"strings"
	"unicode"
)

// buildSnippets extracts up to maxSnippets windows of snippetLength runes
// from content, centered on the strongest case-insensitive overlaps with the
// query terms. Falls back to the leading window when no term matches.
func buildSnippets(content, query string, snippetLength, maxSnippets int) []string {
	if content == "" {
		return nil
	}
	runes := []rune(content)
	if len(runes) <= snippetLength {
		return []string{strings.TrimSpace(content)}
	}

	terms := queryTerms(query)
	positions := termPositions(strings.ToLower(content), terms)
	if len(positions) == 0 {
		return []string{strings.TrimSpace(string(runes[:snippetLength])) + "..."}
	}

	var snippets []string
	var usedRanges [][2]int
	for _, pos := range positions {
		if len(snippets) >= maxSnippets {
			break
		}

		start := pos - snippetLength/2
		if start < 0 {
			start = 0
		}
		end := start + snippetLength
		if end > len(runes) {
			end = len(runes)
			start = end - snippetLength
			if start < 0 {
				start = 0
			}
		}

		if overlapsAny(start, end, usedRanges) {
			continue
		}
		usedRanges = append(usedRanges, [2]int{start, end})

		snippet := strings.TrimSpace(string(runes[start:end]))
		if start > 0 {
			snippet = "..." + snippet
		}
		if end < len(runes) {
			snippet = snippet + "..."
		}
		snippets = append(snippets, snippet)
	}

	return snippets
}

// queryTerms lowercases and tokenizes the query, dropping one-rune terms.
func queryTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}

// termPositions returns rune positions of term occurrences in the lowered
// content, ordered by how many terms cluster near each position.
func termPositions(loweredContent string, terms []string) []int {
	type hit struct {
		pos   int
		score int
	}

	loweredRunes := []rune(loweredContent)
	var hits []hit
	for _, term := range terms {
		offset := 0
		remaining := loweredContent
		for {
			idx := strings.Index(remaining, term)
			if idx < 0 {
				break
			}
			bytePos := offset + idx
			runePos := len([]rune(loweredContent[:bytePos]))

			// Score by how many terms appear within a small neighbourhood.
			score := 0
			windowStart := runePos - 60
			windowEnd := runePos + 60
			if windowStart < 0 {
				windowStart = 0
			}
			if windowEnd > len(loweredRunes) {
				windowEnd = len(loweredRunes)
			}
			window := string(loweredRunes[windowStart:windowEnd])
			for _, other := range terms {
				if strings.Contains(window, other) {
					score++
				}
			}

			hits = append(hits, hit{pos: runePos, score: score})
			offset = bytePos + len(term)
			remaining = loweredContent[offset:]
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})

	positions := make([]int, len(hits))
	for i, h := range hits {
		positions[i] = h.pos
	}
	return positions
}

func overlapsAny(start, end int, ranges [][2]int) bool {
	for _, r := range ranges {
		if start < r[1] && end > r[0] {
			return true
		}
	}
	return false
}
