package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reperio/internal/common"
	"github.com/ternarybob/reperio/internal/interfaces"
	"github.com/ternarybob/reperio/internal/services/cases"
	"github.com/ternarybob/reperio/internal/services/chunker"
	"github.com/ternarybob/reperio/internal/services/documents"
	"github.com/ternarybob/reperio/internal/services/embeddings"
	"github.com/ternarybob/reperio/internal/services/entities"
	"github.com/ternarybob/reperio/internal/services/extract"
	"github.com/ternarybob/reperio/internal/services/llm"
	"github.com/ternarybob/reperio/internal/services/ocr"
	"github.com/ternarybob/reperio/internal/services/pipeline"
	"github.com/ternarybob/reperio/internal/services/scheduler"
	"github.com/ternarybob/reperio/internal/services/search"
	"github.com/ternarybob/reperio/internal/services/themes"
	"github.com/ternarybob/reperio/internal/services/usage"
	"github.com/ternarybob/reperio/internal/services/workers"
	"github.com/ternarybob/reperio/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Metered remote usage
	UsageGate *usage.Service

	// Pipeline components
	OCRClient    interfaces.OCRService
	Dispatcher   *extract.Dispatcher
	Embedder     interfaces.Embedder
	Orchestrator *embeddings.Orchestrator
	Pipeline     *pipeline.Service
	WorkerPool   *workers.Pool

	// Domain services
	CaseService     *cases.Service
	DocumentService *documents.Service
	SearchService   *search.Service

	// LLM-backed analysis (nil when no provider is configured)
	LLMService       interfaces.LLMService
	ThemeService     *themes.Service
	SchedulerService *scheduler.Service
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("embedding_strategy", cfg.Embedding.Strategy).
		Bool("ocr_enabled", app.OCRClient != nil).
		Bool("themes_enabled", app.ThemeService != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	var err error

	// Usage gate sits in front of every metered remote call.
	a.UsageGate = usage.NewService(&a.Config.Usage, a.StorageManager.Usage(), a.Logger)
	a.Logger.Debug().Msg("Usage gate initialized")

	// OCR is optional. Scanned documents fail extraction with a clear error
	// when no service is configured.
	ocrClient, err := ocr.NewClient(&a.Config.OCR, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("OCR client unavailable, scanned documents will not be processed")
	} else {
		a.OCRClient = ocrClient
	}

	a.Dispatcher = extract.NewDispatcher(a.OCRClient, a.UsageGate, &a.Config.OCR, a.Logger)
	a.Logger.Debug().Msg("Extraction dispatcher initialized")

	// Embedder per configured strategy.
	a.Embedder, err = embeddings.NewEmbedder(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}
	a.Logger.Debug().
		Str("strategy", a.Config.Embedding.Strategy).
		Int("dimension", a.Config.Embedding.Dimension).
		Msg("Embedder initialized")

	a.Orchestrator = embeddings.NewOrchestrator(
		a.Embedder,
		a.UsageGate,
		a.StorageManager.Embeddings(),
		&a.Config.Pipeline,
		a.Logger,
	)

	a.Pipeline = pipeline.NewService(
		a.StorageManager,
		a.Dispatcher,
		chunker.NewChunker(a.Config.Pipeline.ChunkSize, a.Config.Pipeline.ChunkOverlap),
		a.Orchestrator,
		entities.NewScanner(),
		a.Logger,
	)
	a.Logger.Debug().Msg("Processing pipeline initialized")

	a.WorkerPool = workers.NewPool(a.Config.Pipeline.DocumentWorkers, a.Logger)
	a.WorkerPool.Start()
	a.Logger.Debug().
		Int("workers", a.Config.Pipeline.DocumentWorkers).
		Msg("Document worker pool started")

	a.CaseService = cases.NewService(a.StorageManager, a.Logger)

	a.DocumentService = documents.NewService(
		a.StorageManager,
		a.Pipeline,
		a.WorkerPool,
		&a.Config.Pipeline,
		a.Logger,
	)

	a.SearchService = search.NewService(a.Embedder, a.UsageGate, a.StorageManager, &a.Config.Search, a.Logger)
	a.Logger.Debug().Msg("Search service initialized")

	// LLM provider is optional. Theme analysis and the refresh scheduler are
	// disabled when no API key is configured.
	a.LLMService, err = llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		a.LLMService = nil
		a.Logger.Warn().Err(err).Msg("LLM service unavailable, theme analysis disabled")
		a.Logger.Info().Msg("To enable theme analysis, set GEMINI_API_KEY or ANTHROPIC_API_KEY")
		return nil
	}

	a.ThemeService = themes.NewService(
		a.LLMService,
		a.UsageGate,
		a.StorageManager,
		&a.Config.Themes,
		a.Logger,
	)
	a.Logger.Debug().Msg("Theme service initialized")

	a.SchedulerService = scheduler.NewService(
		a.StorageManager.Cases(),
		a.ThemeService,
		a.Logger,
	)
	if err := a.SchedulerService.Start(a.Config.Themes.Schedule); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start theme refresh scheduler")
	}

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Stop accepting work and abandon in-flight documents. Interrupted
	// documents stay in their last persisted status and can be re-uploaded.
	if a.WorkerPool != nil {
		a.WorkerPool.Shutdown()
		a.Logger.Info().Msg("Worker pool stopped")
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
