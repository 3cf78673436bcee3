package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/core/ports"
)

type IngestConfig struct {
	VectorSize int
	BatchSize  int
}

func (c IngestConfig) normalize() IngestConfig {
	out := c
	if out.VectorSize <= 0 {
		out.VectorSize = 768
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 50
	}
	return out
}

// IngestUseCase populates the vector store from a document corpus. One record
// per document, or one per chunk when the embedding backend rejects the whole
// document as too large. Best-effort: a failing document is logged and
// skipped, never aborting the batch.
type IngestUseCase struct {
	embedder ports.Embedder
	store    ports.VectorStore
	chunker  ports.Chunker
	catalog  ports.IngestCatalog
	cfg      IngestConfig

	pending []domain.VectorRecord
}

func NewIngestUseCase(
	embedder ports.Embedder,
	store ports.VectorStore,
	chunker ports.Chunker,
	catalog ports.IngestCatalog,
	cfg IngestConfig,
) *IngestUseCase {
	return &IngestUseCase{
		embedder: embedder,
		store:    store,
		chunker:  chunker,
		catalog:  catalog,
		cfg:      cfg.normalize(),
	}
}

// Ingest is idempotent: when the collection already holds vectors the whole
// run is a logged no-op.
func (uc *IngestUseCase) Ingest(ctx context.Context, docs []domain.Document) error {
	if err := uc.store.EnsureCollection(ctx, uc.cfg.VectorSize); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	count, err := uc.store.CountVectors(ctx)
	if err != nil {
		slog.Warn("ingest_count_check_failed", "error", err)
	} else if count > 0 {
		slog.Info("ingest_skipped_existing_data", "vector_count", count)
		return nil
	}

	uc.pending = uc.pending[:0]
	processed := 0
	for _, doc := range docs {
		if strings.TrimSpace(doc.Text) == "" {
			slog.Warn("ingest_document_skipped", "filename", doc.Filename, "reason", "missing or invalid content")
			uc.recordOutcome(ctx, doc, domain.OutcomeSkipped, "missing or invalid content")
			continue
		}

		outcome := uc.ingestDocument(ctx, doc)
		if outcome != domain.OutcomeSkipped {
			processed++
		}
		if len(uc.pending) >= uc.cfg.BatchSize {
			uc.flush(ctx, false)
		}
	}

	uc.flush(ctx, true)
	slog.Info("ingest_completed", "documents_processed", processed, "documents_total", len(docs))
	return nil
}

func (uc *IngestUseCase) ingestDocument(ctx context.Context, doc domain.Document) domain.IngestOutcome {
	vector, err := uc.embedder.EmbedDocument(ctx, doc.Text, doc.Filename)
	switch {
	case err == nil:
		if !uc.validVector(vector) {
			slog.Warn("ingest_document_skipped", "filename", doc.Filename, "reason", "embedding shape anomaly", "dim", len(vector))
			uc.recordOutcome(ctx, doc, domain.OutcomeSkipped, "embedding shape anomaly")
			return domain.OutcomeSkipped
		}
		uc.pending = append(uc.pending, domain.VectorRecord{
			ID:     uuid.NewString(),
			Vector: vector,
			Payload: map[string]any{
				domain.PayloadFilename: doc.Filename,
				domain.PayloadMetadata: doc.MetadataMap(),
				domain.PayloadText:     doc.Text,
			},
		})
		uc.recordOutcome(ctx, doc, domain.OutcomeEmbedded, "")
		return domain.OutcomeEmbedded

	case domain.IsKind(err, domain.ErrPayloadTooLarge):
		slog.Info("ingest_document_chunking", "filename", doc.Filename, "text_length", len(doc.Text))
		return uc.ingestChunked(ctx, doc)

	default:
		slog.Error("ingest_document_embed_failed", "filename", doc.Filename, "error", err)
		uc.recordOutcome(ctx, doc, domain.OutcomeSkipped, err.Error())
		return domain.OutcomeSkipped
	}
}

// ingestChunked embeds each chunk independently. A failing chunk is skipped
// while its siblings are still attempted.
func (uc *IngestUseCase) ingestChunked(ctx context.Context, doc domain.Document) domain.IngestOutcome {
	chunks := uc.chunker.Split(doc.Text)
	total := len(chunks)
	stored := 0
	for i, chunk := range chunks {
		title := fmt.Sprintf("%s [Part %d/%d]", doc.Filename, i+1, total)
		vector, err := uc.embedder.EmbedDocument(ctx, chunk, title)
		if err != nil {
			slog.Error("ingest_chunk_embed_failed", "filename", title, "error", err)
			continue
		}
		if !uc.validVector(vector) {
			slog.Warn("ingest_chunk_skipped", "filename", title, "reason", "embedding shape anomaly", "dim", len(vector))
			continue
		}
		uc.pending = append(uc.pending, domain.VectorRecord{
			ID:     uuid.NewString(),
			Vector: vector,
			Payload: map[string]any{
				domain.PayloadFilename:       title,
				domain.PayloadMetadata:       doc.MetadataMap(),
				domain.PayloadText:           chunk,
				domain.PayloadIsChunk:        true,
				domain.PayloadChunkIndex:     i,
				domain.PayloadTotalChunks:    total,
				domain.PayloadParentDocument: doc.Filename,
			},
		})
		stored++
	}

	slog.Info("ingest_document_chunked", "filename", doc.Filename, "chunks_stored", stored, "chunks_total", total)
	if stored == 0 {
		uc.recordOutcome(ctx, doc, domain.OutcomeSkipped, "all chunk embeddings failed")
		return domain.OutcomeSkipped
	}
	uc.recordOutcome(ctx, doc, domain.OutcomeChunked, fmt.Sprintf("%d/%d chunks stored", stored, total))
	return domain.OutcomeChunked
}

// flush writes pending records. On failure the records are retained so a
// later flush (or the final one) can retry them; only the final failure is
// dropped, still without escalating to the caller.
func (uc *IngestUseCase) flush(ctx context.Context, final bool) {
	if len(uc.pending) == 0 {
		return
	}
	if err := uc.store.Upsert(ctx, uc.pending); err != nil {
		slog.Error("ingest_batch_upsert_failed", "num_points", len(uc.pending), "final", final, "error", err)
		if final {
			uc.pending = uc.pending[:0]
		}
		return
	}
	slog.Info("ingest_batch_upserted", "num_points", len(uc.pending), "final", final)
	uc.pending = uc.pending[:0]
}

func (uc *IngestUseCase) validVector(vector []float32) bool {
	return len(vector) == uc.cfg.VectorSize
}

func (uc *IngestUseCase) recordOutcome(ctx context.Context, doc domain.Document, outcome domain.IngestOutcome, detail string) {
	if uc.catalog == nil {
		return
	}
	if err := uc.catalog.RecordOutcome(ctx, doc, outcome, detail); err != nil {
		slog.Warn("ingest_catalog_record_failed", "filename", doc.Filename, "error", err)
	}
}
