package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
)

// QuotaExceededError signals that a monthly consumption cap was hit. Callers
// distinguish it from transport failures via errors.As.
type QuotaExceededError struct {
	Reason string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.Reason)
}

// Service implements the UsageGate interface with Badger-backed monthly
// counters. Counters reset implicitly when the calendar month rolls over.
type Service struct {
	config  *common.UsageConfig
	storage interfaces.UsageStorage
	logger  arbor.ILogger
	mu      sync.Mutex
	now     func() time.Time
}

// NewService creates a new usage gate
func NewService(config *common.UsageConfig, storage interfaces.UsageStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:  config,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) currentMonth() string {
	return s.now().Format("2006-01")
}

// CheckAllowed reports whether another metered remote call may proceed.
// A limit of zero means unmetered.
func (s *Service) CheckAllowed(ctx context.Context) (*interfaces.UsageDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.storage.GetMonth(s.currentMonth())
	if err != nil {
		return nil, fmt.Errorf("failed to load usage counters: %w", err)
	}

	if s.config.MonthlyTokenLimit > 0 && record.Tokens >= s.config.MonthlyTokenLimit {
		return &interfaces.UsageDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("monthly token limit reached (%d of %d)", record.Tokens, s.config.MonthlyTokenLimit),
		}, nil
	}
	if s.config.MonthlyPageLimit > 0 && record.OCRPages >= s.config.MonthlyPageLimit {
		return &interfaces.UsageDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("monthly OCR page limit reached (%d of %d)", record.OCRPages, s.config.MonthlyPageLimit),
		}, nil
	}

	return &interfaces.UsageDecision{Allowed: true}, nil
}

// Record accumulates consumption from one completed remote call.
func (s *Service) Record(ctx context.Context, usage interfaces.Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month := s.currentMonth()
	record, err := s.storage.GetMonth(month)
	if err != nil {
		return fmt.Errorf("failed to load usage counters: %w", err)
	}

	record.Tokens += usage.InputTokens + usage.OutputTokens
	record.OCRPages += usage.OCRPages

	if err := s.storage.SaveMonth(record); err != nil {
		return fmt.Errorf("failed to save usage counters: %w", err)
	}

	s.logger.Debug().
		Str("month", month).
		Int("tokens", record.Tokens).
		Int("ocr_pages", record.OCRPages).
		Msg("Recorded usage")
	return nil
}
