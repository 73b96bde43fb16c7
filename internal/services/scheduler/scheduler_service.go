package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/themes"
)

// Service runs periodic theme refresh cycles over all cases.
type Service struct {
	caseStorage  interfaces.CaseStorage
	themeService *themes.Service
	cron         *cron.Cron
	logger       arbor.ILogger
	mu           sync.Mutex
	isProcessing bool
	running      bool
	entryID      cron.EntryID
}

// NewService creates a new scheduler service
func NewService(caseStorage interfaces.CaseStorage, themeService *themes.Service, logger arbor.ILogger) *Service {
	return &Service{
		caseStorage:  caseStorage,
		themeService: themeService,
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger,
	}
}

// Start begins the scheduler with the given cron expression.
// An empty expression disables scheduled refresh entirely.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if cronExpr == "" {
		s.logger.Info().Msg("Scheduled theme refresh disabled (no schedule configured)")
		return nil
	}

	entryID, err := s.cron.AddFunc(cronExpr, s.runRefreshCycle)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", cronExpr).
		Msg("Scheduler started")

	return nil
}

// Stop halts the scheduler and waits for an in-flight cycle to finish
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// NextRun returns the next scheduled refresh time, or nil when not running
func (s *Service) NextRun() *time.Time {
	if !s.running {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			next := entry.Next
			return &next
		}
	}
	return nil
}

// TriggerRefreshNow manually triggers a refresh cycle
func (s *Service) TriggerRefreshNow() error {
	s.logger.Info().Msg("Manual theme refresh requested")
	go s.runRefreshCycle()
	return nil
}

// runRefreshCycle checks every case for staleness and re-analyzes the stale ones.
// Overlapping cycles are skipped rather than queued.
func (s *Service) runRefreshCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in refresh cycle")
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.logger.Debug().Msg("Refresh cycle already in progress, skipping this cycle")
		s.mu.Unlock()
		return
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	start := time.Now()
	ctx := context.Background()

	caseList, err := s.caseStorage.ListCases()
	if err != nil {
		s.logger.Error().Err(err).Msg("Refresh cycle failed to list cases")
		return
	}

	if len(caseList) == 0 {
		s.logger.Debug().Msg("No cases to refresh")
		return
	}

	checked := 0
	failed := 0
	for _, c := range caseList {
		if err := s.themeService.RefreshIfStale(ctx, c.ID); err != nil {
			failed++
			s.logger.Warn().
				Err(err).
				Str("case_id", c.ID).
				Msg("Theme refresh failed for case")
			continue
		}
		checked++
	}

	s.logger.Info().
		Int("cases", len(caseList)).
		Int("checked", checked).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Theme refresh cycle completed")
}
