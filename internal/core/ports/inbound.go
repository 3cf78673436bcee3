package ports

import (
	"context"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

// CorpusIngestor is the inbound contract for populating the vector store.
// Ingestion is idempotent against a populated collection and best-effort per
// document: one bad document never aborts the batch.
type CorpusIngestor interface {
	Ingest(ctx context.Context, docs []domain.Document) error
}

// SemanticSearcher is the inbound retrieval contract. SemanticSearch never
// fails: backend errors are absorbed into an empty result list.
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, query string, topK int) []domain.ResultEntry
}

// QueryService answers a query from retrieved context.
type QueryService interface {
	Answer(ctx context.Context, query string, topK int) (*domain.Answer, error)
}
