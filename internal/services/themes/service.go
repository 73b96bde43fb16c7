package themes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/ternarybob/reperio/internal/services/usage"
)

// ErrNoThemes signals an analysis run whose response yielded no usable
// themes. The previously stored theme set and analysis record are left
// untouched so one bad response cannot destroy good results.
var ErrNoThemes = errors.New("could not extract themes")

const analysisSystemPrompt = `You are a document analyst. You identify the major themes running through a collection of case documents and propose questions an investigator should ask next. Respond with JSON only, no prose before or after.`

const analysisPromptTemplate = `Analyze the following case material and respond with exactly this JSON structure:

{
  "themes": [
    {"title": "...", "description": "...", "relevanceScore": 0.0, "keyTerms": ["..."]}
  ],
  "suggestedQuestions": [
    {"question": "...", "themeTitle": "...", "rationale": "...", "priority": 1}
  ]
}

Rules:
- relevanceScore is a number between 0 and 1
- priority is an integer between 1 (most urgent) and 5
- themeTitle must match the title of one of your themes
- 3 to 7 themes, 3 to 10 questions

Case material:
%s`

// Service runs LLM-driven theme and question extraction over a case.
type Service struct {
	llm     interfaces.LLMService
	gate    interfaces.UsageGate
	storage interfaces.StorageManager
	config  *common.ThemesConfig
	logger  arbor.ILogger
}

// NewService creates a new theme extraction service
func NewService(llm interfaces.LLMService, gate interfaces.UsageGate, storage interfaces.StorageManager, config *common.ThemesConfig, logger arbor.ILogger) *Service {
	return &Service{
		llm:     llm,
		gate:    gate,
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// AnalyzeCase samples the case's chunks, asks the LLM for themes and
// suggested questions, and wholesale replaces the stored set. A response the
// parser cannot read returns ErrNoThemes without touching the stored set, so
// the last successful analysis survives a garbage response.
func (s *Service) AnalyzeCase(ctx context.Context, caseID string) error {
	decision, err := s.gate.CheckAllowed(ctx)
	if err != nil {
		return fmt.Errorf("usage check failed: %w", err)
	}
	if !decision.Allowed {
		return &usage.QuotaExceededError{Reason: decision.Reason}
	}

	c, err := s.storage.Cases().GetCase(caseID)
	if err != nil {
		return fmt.Errorf("failed to load case: %w", err)
	}

	chunks, err := s.storage.Chunks().GetChunksByCase(caseID)
	if err != nil {
		return fmt.Errorf("failed to load case chunks: %w", err)
	}
	if len(chunks) == 0 {
		s.logger.Info().Str("case_id", caseID).Msg("No chunks to analyze")
		return nil
	}

	entities, err := s.storage.Entities().GetEntitiesByCase(caseID)
	if err != nil {
		return fmt.Errorf("failed to load case entities: %w", err)
	}

	sampled := sampleChunks(chunks, s.config.MaxChunks)
	caseContext := assembleContext(c, entities, sampled, s.config.ExcerptLength, s.config.MaxContextLength)

	completion, err := s.llm.Complete(ctx, []interfaces.Message{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(analysisPromptTemplate, caseContext)},
	}, interfaces.CompletionOptions{})
	if err != nil {
		return fmt.Errorf("theme analysis completion failed: %w", err)
	}

	if completion.TokensUsed > 0 {
		if err := s.gate.Record(ctx, interfaces.Usage{InputTokens: completion.TokensUsed}); err != nil {
			s.logger.Warn().Err(err).Str("case_id", caseID).Msg("Failed to record analysis token usage")
		}
	}

	payload := parseAnalysis(completion.Text)
	if len(payload.Themes) == 0 {
		s.logger.Warn().
			Str("case_id", caseID).
			Int("response_length", len(completion.Text)).
			Msg("Analysis produced no parseable themes")
		return fmt.Errorf("case %s: %w", caseID, ErrNoThemes)
	}

	themes, questions := s.buildRecords(caseID, payload)
	if err := s.storage.Themes().ReplaceThemes(caseID, themes, questions); err != nil {
		return fmt.Errorf("failed to store themes: %w", err)
	}

	completedDocs, err := s.storage.Documents().CountCompletedByCase(caseID)
	if err != nil {
		return fmt.Errorf("failed to count completed documents: %w", err)
	}
	if err := s.storage.Themes().SaveAnalysis(&models.ThemeAnalysis{
		CaseID:        caseID,
		DocumentCount: completedDocs,
		AnalyzedAt:    time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to store analysis record: %w", err)
	}

	s.logger.Info().
		Str("case_id", caseID).
		Int("themes", len(themes)).
		Int("questions", len(questions)).
		Int("sampled_chunks", len(sampled)).
		Msg("Case analysis completed")
	return nil
}

// buildRecords converts the parsed payload into persistable models. Linking
// is two-phase: themes get IDs first, then each question resolves its
// theme-title key case-insensitively, falling back to the first theme, else
// staying unlinked. The title key itself is never persisted.
func (s *Service) buildRecords(caseID string, payload *analysisPayload) ([]*models.CaseTheme, []*models.SuggestedQuestion) {
	themes := make([]*models.CaseTheme, 0, len(payload.Themes))
	idByTitle := make(map[string]string, len(payload.Themes))
	for _, t := range payload.Themes {
		theme := &models.CaseTheme{
			ID:             common.NewThemeID(),
			CaseID:         caseID,
			Title:          t.Title,
			Description:    t.Description,
			RelevanceScore: t.RelevanceScore,
			KeyTerms:       t.KeyTerms,
		}
		themes = append(themes, theme)
		idByTitle[strings.ToLower(t.Title)] = theme.ID
	}

	questions := make([]*models.SuggestedQuestion, 0, len(payload.SuggestedQuestions))
	for _, q := range payload.SuggestedQuestions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		themeID := idByTitle[strings.ToLower(q.ThemeTitle)]
		if themeID == "" && len(themes) > 0 {
			themeID = themes[0].ID
		}
		questions = append(questions, &models.SuggestedQuestion{
			ID:        common.NewQuestionID(),
			CaseID:    caseID,
			ThemeID:   themeID,
			Question:  q.Question,
			Rationale: q.Rationale,
			Priority:  q.Priority,
		})
	}

	return themes, questions
}

// IsStale reports whether the case's analysis should be refreshed: no
// analysis exists and at least one completed document does, or the completed
// document count grew by at least the configured fraction since the last
// analysis.
func (s *Service) IsStale(caseID string) (bool, error) {
	completed, err := s.storage.Documents().CountCompletedByCase(caseID)
	if err != nil {
		return false, fmt.Errorf("failed to count completed documents: %w", err)
	}

	analysis, err := s.storage.Themes().GetAnalysis(caseID)
	if err != nil {
		return false, fmt.Errorf("failed to load analysis record: %w", err)
	}
	if analysis == nil {
		return completed > 0, nil
	}
	if analysis.DocumentCount == 0 {
		return completed > 0, nil
	}

	growth := float64(completed-analysis.DocumentCount) / float64(analysis.DocumentCount)
	return growth >= s.config.RefreshGrowth, nil
}

// RefreshIfStale re-analyzes the case only when the staleness check fires.
func (s *Service) RefreshIfStale(ctx context.Context, caseID string) error {
	stale, err := s.IsStale(caseID)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	s.logger.Info().Str("case_id", caseID).Msg("Case analysis stale, refreshing")
	return s.AnalyzeCase(ctx, caseID)
}
