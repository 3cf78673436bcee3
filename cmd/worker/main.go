package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tashrique/cl-rag/internal/bootstrap"
	"github.com/tashrique/cl-rag/internal/config"
	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/observability/logging"
	"github.com/tashrique/cl-rag/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err.Error())
		os.Exit(1)
	}

	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go serveMetrics(cfg.WorkerMetricsPort, workerMetrics, logger)

	// Populate the collection on startup. A populated collection makes this
	// a cheap no-op, so restarts are safe.
	runIngestion(ctx, app, workerMetrics, logger, "startup")

	logger.Info("worker_subscribing", "subject", cfg.NATSSubject)

	// Blocks until shutdown; triggers are handled in a queue group so a
	// single worker runs each reingest.
	err = app.Queue.SubscribeReingestRequested(ctx, func(handlerCtx context.Context, reason string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Minute)
		defer cancel()
		runIngestion(runCtx, app, workerMetrics, logger, reason)
		return nil
	})
	if err != nil {
		logger.Error("worker_subscribe_failed", "error", err.Error())
		os.Exit(1)
	}
}

func runIngestion(ctx context.Context, app *bootstrap.App, m *metrics.WorkerMetrics, logger *slog.Logger, reason string) {
	start := time.Now()
	m.StartRun()

	var docs []domain.Document
	var loadErr error
	for _, source := range app.Sources {
		loaded, err := source.Load(ctx)
		if err != nil {
			logger.Error("corpus_load_failed", "reason", reason, "error", err.Error())
			loadErr = err
			continue
		}
		docs = append(docs, loaded...)
	}

	var ingestErr error
	if len(docs) > 0 {
		ingestErr = app.IngestUC.Ingest(ctx, docs)
	}
	if ingestErr != nil {
		logger.Error("ingestion_failed", "reason", reason, "error", ingestErr.Error())
	}

	runErr := ingestErr
	if runErr == nil {
		runErr = loadErr
	}
	m.FinishRun("worker", time.Since(start), runErr)

	if counts, err := app.Catalog.CountByOutcome(ctx); err == nil {
		m.SetDocumentCounts("worker", counts)
		logger.Info("ingestion_run_finished",
			"reason", reason,
			"documents", len(docs),
			"embedded", counts[domain.OutcomeEmbedded],
			"chunked", counts[domain.OutcomeChunked],
			"skipped", counts[domain.OutcomeSkipped],
			"duration_ms", time.Since(start).Milliseconds())
	}
}

func serveMetrics(port string, m *metrics.WorkerMetrics, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("worker_metrics_server_failed", "error", err.Error())
	}
}
