package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/ykudinov/docrouter/internal/config"
	"github.com/ykudinov/docrouter/internal/core/ports"
	"github.com/ykudinov/docrouter/internal/core/usecase"
	"github.com/ykudinov/docrouter/internal/export"
	"github.com/ykudinov/docrouter/internal/infrastructure/archive"
	"github.com/ykudinov/docrouter/internal/infrastructure/extractor/pdf"
	"github.com/ykudinov/docrouter/internal/infrastructure/langdetect/lingua"
	"github.com/ykudinov/docrouter/internal/infrastructure/llm/ollama"
	"github.com/ykudinov/docrouter/internal/infrastructure/queue/nats"
	"github.com/ykudinov/docrouter/internal/infrastructure/repository/postgres"
	"github.com/ykudinov/docrouter/internal/infrastructure/resilience"
	"github.com/ykudinov/docrouter/internal/infrastructure/storage/inbox"
)

type App struct {
	Config config.Config

	Queue    *nats.Queue
	Repo     ports.DocumentRepository
	Index    ports.ArchiveIndex
	Exporter *export.Service

	IngestUC    *usecase.IngestDocumentUseCase
	RouteUC     *usecase.RouteDocumentUseCase
	Escalations *usecase.EscalationCoordinator

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	inboxStorage, err := inbox.New(cfg.InboxPath)
	if err != nil {
		return nil, fmt.Errorf("init inbox storage: %w", err)
	}

	// queue publishes are quick and safe to retry tightly; calls into
	// the model host get the wider-spaced backend profile
	queueExecutor := resilience.NewExecutor(resilience.DefaultConfig())
	backendExecutor := resilience.NewExecutor(resilience.BackendProfile())

	queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Subjects{
		Ingest:     cfg.NATSSubjectIngest,
		Escalation: cfg.NATSSubjectEscalation,
		Resolution: cfg.NATSSubjectResolution,
	}, nats.Options{ResilienceExecutor: queueExecutor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	index, err := archive.NewIndex(cfg.ArchiveRoot)
	if err != nil {
		return nil, fmt.Errorf("init archive index: %w", err)
	}
	mover, err := archive.NewMover(cfg.ArchiveRoot)
	if err != nil {
		return nil, fmt.Errorf("init archive mover: %w", err)
	}

	extractor := pdf.NewExtractor(pdf.Config{
		OCRBinary:      cfg.OCRBinary,
		OCRLanguages:   cfg.OCRLanguages,
		MinNativeChars: cfg.MinNativeChars,
		OCRTimeout:     cfg.OCRTimeout(),
	}, pdf.NewExecRunner())

	detector := lingua.New()

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel).WithExecutor(backendExecutor)
	advisor := ollama.NewAdvisor(ollamaClient)
	var summarizer ports.Summarizer
	if cfg.SummariesEnabled {
		summarizer = ollama.NewSummarizer(ollamaClient)
	}

	engine := usecase.NewRoutingEngine(advisor, cfg.AutoApplyEnabled, cfg.AutoApplyThreshold)
	escalations := usecase.NewEscalationCoordinator(queue, time.Duration(cfg.EscalationTimeoutSec)*time.Second)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, inboxStorage, queue)
	routeUC := usecase.NewRouteDocumentUseCase(repo, extractor, detector, index, engine, escalations, mover, summarizer)
	exporter := export.NewService(repo, nil)

	return &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		Index:    index,
		Exporter: exporter,

		IngestUC:    ingestUC,
		RouteUC:     routeUC,
		Escalations: escalations,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
