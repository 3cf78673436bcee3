package ports

import (
	"context"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

// Embedder builds vectors for documents and queries. The two modes may be
// optimized differently by the backend, so they are separate methods.
// EmbedDocument must fail with domain.ErrPayloadTooLarge when the input
// exceeds the backend's size limit.
type Embedder interface {
	EmbedDocument(ctx context.Context, text, title string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists vector records and performs nearest-neighbor search.
type VectorStore interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	CountVectors(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, records []domain.VectorRecord) error
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.SearchHit, error)
}

// Chunker splits oversized text into size-bounded chunks.
type Chunker interface {
	Split(text string) []string
}

// DocumentSource loads the corpus to be ingested.
type DocumentSource interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// AnswerGenerator creates the final user-facing answer from retrieved entries.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, query string, entries []domain.ResultEntry) (string, error)
}

// IngestCatalog records per-document ingestion outcomes for auditing the
// best-effort batch.
type IngestCatalog interface {
	RecordOutcome(ctx context.Context, doc domain.Document, outcome domain.IngestOutcome, detail string) error
	CountByOutcome(ctx context.Context) (map[domain.IngestOutcome]int64, error)
}

// MessageQueue carries corpus reingest triggers from the API to the worker.
type MessageQueue interface {
	PublishReingestRequested(ctx context.Context, reason string) error
	SubscribeReingestRequested(ctx context.Context, handler func(context.Context, string) error) error
}
