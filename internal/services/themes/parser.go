package themes

import (
	"encoding/json"
	"strings"
)

// themePayload mirrors the JSON shape requested from the model.
type themePayload struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RelevanceScore float64  `json:"relevanceScore"`
	KeyTerms       []string `json:"keyTerms"`
}

// questionPayload carries the theme-title linking key; the key is resolved
// to a persisted theme ID and never stored itself.
type questionPayload struct {
	Question   string `json:"question"`
	ThemeTitle string `json:"themeTitle"`
	Rationale  string `json:"rationale"`
	Priority   int    `json:"priority"`
}

type analysisPayload struct {
	Themes             []themePayload    `json:"themes"`
	SuggestedQuestions []questionPayload `json:"suggestedQuestions"`
}

// parseAnalysis extracts the analysis payload from an LLM response. The
// model is asked for bare JSON but responses wrapped in fenced code blocks
// are tolerated. Any parse failure yields an empty payload and no error:
// a malformed response is treated as "no themes found", never as a pipeline
// failure.
func parseAnalysis(response string) *analysisPayload {
	text := stripCodeFence(strings.TrimSpace(response))

	var payload analysisPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return &analysisPayload{}
	}

	for i := range payload.Themes {
		payload.Themes[i].RelevanceScore = clampScore(payload.Themes[i].RelevanceScore)
	}
	for i := range payload.SuggestedQuestions {
		payload.SuggestedQuestions[i].Priority = clampPriority(payload.SuggestedQuestions[i].Priority)
	}
	return &payload
}

// stripCodeFence unwraps a fenced block, with or without a language tag.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.Index(text, "\n"); i >= 0 {
		// Drop the language tag line ("json", etc.)
		text = text[i+1:]
	}
	if i := strings.LastIndex(text, "```"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func clampPriority(priority int) int {
	if priority < 1 {
		return 1
	}
	if priority > 5 {
		return 5
	}
	return priority
}
