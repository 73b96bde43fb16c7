package badger

import (
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ThemeStorage implements the ThemeStorage interface for Badger
type ThemeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewThemeStorage creates a new ThemeStorage instance
func NewThemeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ThemeStorage {
	return &ThemeStorage{
		db:     db,
		logger: logger,
	}
}

// ReplaceThemes deletes the previous theme set for the case and inserts the
// new one inside a single transaction, so readers never see a mixed set.
func (s *ThemeStorage) ReplaceThemes(caseID string, themes []*models.CaseTheme, questions []*models.SuggestedQuestion) error {
	now := time.Now()

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		store := s.db.Store()
		if err := store.TxDeleteMatching(tx, &models.CaseTheme{}, badgerhold.Where("CaseID").Eq(caseID)); err != nil {
			return fmt.Errorf("failed to delete previous themes: %w", err)
		}
		if err := store.TxDeleteMatching(tx, &models.SuggestedQuestion{}, badgerhold.Where("CaseID").Eq(caseID)); err != nil {
			return fmt.Errorf("failed to delete previous questions: %w", err)
		}

		for _, theme := range themes {
			if theme.ID == "" {
				return fmt.Errorf("theme ID is required")
			}
			if theme.CreatedAt.IsZero() {
				theme.CreatedAt = now
			}
			if err := store.TxUpsert(tx, theme.ID, theme); err != nil {
				return fmt.Errorf("failed to save theme: %w", err)
			}
		}
		for _, question := range questions {
			if question.ID == "" {
				return fmt.Errorf("question ID is required")
			}
			if question.CreatedAt.IsZero() {
				question.CreatedAt = now
			}
			if err := store.TxUpsert(tx, question.ID, question); err != nil {
				return fmt.Errorf("failed to save question: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace themes for case %s: %w", caseID, err)
	}

	s.logger.Debug().
		Str("case_id", caseID).
		Int("themes", len(themes)).
		Int("questions", len(questions)).
		Msg("Replaced case themes")
	return nil
}

func (s *ThemeStorage) GetThemesByCase(caseID string) ([]*models.CaseTheme, error) {
	var themes []models.CaseTheme
	err := s.db.Store().Find(&themes, badgerhold.Where("CaseID").Eq(caseID).SortBy("RelevanceScore").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to get themes by case: %w", err)
	}

	result := make([]*models.CaseTheme, len(themes))
	for i := range themes {
		result[i] = &themes[i]
	}
	return result, nil
}

func (s *ThemeStorage) GetQuestionsByCase(caseID string) ([]*models.SuggestedQuestion, error) {
	var questions []models.SuggestedQuestion
	err := s.db.Store().Find(&questions, badgerhold.Where("CaseID").Eq(caseID).SortBy("Priority"))
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by case: %w", err)
	}

	result := make([]*models.SuggestedQuestion, len(questions))
	for i := range questions {
		result[i] = &questions[i]
	}
	return result, nil
}

func (s *ThemeStorage) GetAnalysis(caseID string) (*models.ThemeAnalysis, error) {
	var analysis models.ThemeAnalysis
	if err := s.db.Store().Get(caseID, &analysis); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get theme analysis: %w", err)
	}
	return &analysis, nil
}

func (s *ThemeStorage) SaveAnalysis(analysis *models.ThemeAnalysis) error {
	if analysis.CaseID == "" {
		return fmt.Errorf("analysis case ID is required")
	}
	if err := s.db.Store().Upsert(analysis.CaseID, analysis); err != nil {
		return fmt.Errorf("failed to save theme analysis: %w", err)
	}
	return nil
}

func (s *ThemeStorage) DeleteThemesByCase(caseID string) error {
	if err := s.db.Store().DeleteMatching(&models.CaseTheme{}, badgerhold.Where("CaseID").Eq(caseID)); err != nil {
		return fmt.Errorf("failed to delete themes by case: %w", err)
	}
	if err := s.db.Store().DeleteMatching(&models.SuggestedQuestion{}, badgerhold.Where("CaseID").Eq(caseID)); err != nil {
		return fmt.Errorf("failed to delete questions by case: %w", err)
	}
	if err := s.db.Store().Delete(caseID, &models.ThemeAnalysis{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete theme analysis: %w", err)
	}
	return nil
}
