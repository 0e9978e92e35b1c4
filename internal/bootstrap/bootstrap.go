package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crelogic/lease-abstractor/internal/config"
	"github.com/crelogic/lease-abstractor/internal/core/ports"
	"github.com/crelogic/lease-abstractor/internal/core/usecase"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/export/excel"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/extractor/doctext"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/llm/gemini"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/queue/nats"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/repository/postgres"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/resilience"
	"github.com/crelogic/lease-abstractor/internal/infrastructure/storage/localfs"
)

// App holds every wired collaborator. The api and worker binaries share this
// wiring and use the parts they need.
type App struct {
	Config config.Config

	Tenants   ports.TenantStore
	Docs      ports.DocumentStore
	Abstracts ports.AbstractStore
	Queue     ports.WorkQueue

	IngestUC      *usecase.IngestLeaseUseCase
	ConsolidateUC *usecase.ConsolidateUseCase
	ViewUC        *usecase.AbstractViewUseCase
	Exporter      ports.AbstractExporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	tenants := postgres.NewTenantRepository(db)
	docs := postgres.NewDocumentRepository(db)
	abstracts := postgres.NewAbstractRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init work queue: %w", err)
	}

	termExtractor := gemini.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey, gemini.Options{
		Timeout:            time.Duration(cfg.GeminiTimeoutSeconds) * time.Second,
		RequestsPerMinute:  cfg.GeminiRequestsPerMinute,
		ResilienceExecutor: executor,
	})
	textExtractor := doctext.NewExtractor(storage)

	ingestUC := usecase.NewIngestLeaseUseCase(tenants, docs, storage, queue)
	consolidateUC := usecase.NewConsolidateUseCase(tenants, docs, abstracts, textExtractor, termExtractor, logger)
	viewUC := usecase.NewAbstractViewUseCase(abstracts)
	exporter := excel.NewExporter(tenants, abstracts)

	return &App{
		Config: cfg,

		Tenants:   tenants,
		Docs:      docs,
		Abstracts: abstracts,
		Queue:     queue,

		IngestUC:      ingestUC,
		ConsolidateUC: consolidateUC,
		ViewUC:        viewUC,
		Exporter:      exporter,

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
