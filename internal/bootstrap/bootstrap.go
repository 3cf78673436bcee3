package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tashrique/cl-rag/internal/config"
	"github.com/tashrique/cl-rag/internal/core/ports"
	"github.com/tashrique/cl-rag/internal/core/usecase"
	"github.com/tashrique/cl-rag/internal/infrastructure/chunking"
	"github.com/tashrique/cl-rag/internal/infrastructure/llm/gemini"
	"github.com/tashrique/cl-rag/internal/infrastructure/queue/nats"
	"github.com/tashrique/cl-rag/internal/infrastructure/repository/postgres"
	"github.com/tashrique/cl-rag/internal/infrastructure/resilience"
	"github.com/tashrique/cl-rag/internal/infrastructure/source/dirsource"
	"github.com/tashrique/cl-rag/internal/infrastructure/source/spreadsheet"
	"github.com/tashrique/cl-rag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Catalog  ports.IngestCatalog
	Sources  []ports.DocumentSource
	IngestUC ports.CorpusIngestor
	SearchUC ports.SemanticSearcher
	QueryUC  ports.QueryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	catalog := postgres.NewIngestCatalog(db)
	if err := catalog.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	geminiClient := gemini.New(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, executor)
	embedder := gemini.NewEmbedder(geminiClient)
	generator := gemini.NewGenerator(geminiClient)

	store := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.MaxChunkSize)

	sources := []ports.DocumentSource{spreadsheet.NewLoader(cfg.CorpusPath)}
	if cfg.CorpusDir != "" {
		sources = append(sources, dirsource.NewLoader(cfg.CorpusDir, logger))
	}

	ingestUC := usecase.NewIngestUseCase(embedder, store, chunker, catalog, usecase.IngestConfig{
		VectorSize: cfg.VectorSize,
		BatchSize:  cfg.IngestBatchSize,
	})
	searchUC := usecase.NewSearchUseCase(embedder, store, usecase.SearchConfig{
		OverfetchFactor:   cfg.OverfetchFactor,
		MaxChunksPerMerge: cfg.MaxChunksPerMerge,
	})
	queryUC := usecase.NewQueryUseCase(searchUC, generator)

	return &App{
		Config: cfg,

		Queue:    queue,
		Catalog:  catalog,
		Sources:  sources,
		IngestUC: ingestUC,
		SearchUC: searchUC,
		QueryUC:  queryUC,

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
