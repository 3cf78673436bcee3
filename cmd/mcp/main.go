package main

import (
	"log/slog"
	"os"

	mcpadapter "github.com/tashrique/cl-rag/internal/adapters/mcp"
	"github.com/tashrique/cl-rag/internal/config"
	"github.com/tashrique/cl-rag/internal/core/usecase"
	"github.com/tashrique/cl-rag/internal/infrastructure/llm/gemini"
	"github.com/tashrique/cl-rag/internal/infrastructure/resilience"
	"github.com/tashrique/cl-rag/internal/infrastructure/vector/qdrant"
	"github.com/tashrique/cl-rag/internal/observability/logging"
)

// The MCP server only needs the retrieval path, so it wires the embedder and
// vector store directly instead of going through the full bootstrap.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err.Error())
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs must stay on stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	geminiClient := gemini.New(cfg.GeminiURL, cfg.GeminiAPIKey, cfg.GeminiGenModel, cfg.GeminiEmbedModel, executor)
	embedder := gemini.NewEmbedder(geminiClient)
	store := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	searchUC := usecase.NewSearchUseCase(embedder, store, usecase.SearchConfig{
		OverfetchFactor:   cfg.OverfetchFactor,
		MaxChunksPerMerge: cfg.MaxChunksPerMerge,
	})

	srv := mcpadapter.NewServer(searchUC, cfg.RetrievalTopK)
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err.Error())
		os.Exit(1)
	}
}
