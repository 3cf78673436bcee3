package domain

// Payload keys shared between the ingestor and the retriever. The bookkeeping
// keys never reach callers: the retriever strips or translates them before
// returning results.
const (
	PayloadFilename       = "filename"
	PayloadText           = "text"
	PayloadMetadata       = "metadata"
	PayloadIsChunk        = "is_chunk"
	PayloadChunkIndex     = "chunk_index"
	PayloadTotalChunks    = "total_chunks"
	PayloadParentDocument = "parent_document"
	PayloadIsCombined     = "is_combined_chunks"
	PayloadNumCombined    = "num_chunks_combined"
	PayloadNote           = "note"
)

// VectorRecord is the unit written to the vector backend: one per whole
// document, or one per chunk when the document had to be split.
type VectorRecord struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchHit is the single normalized shape for a raw nearest-neighbor hit,
// built at the vector-store boundary. All merge logic downstream operates on
// this type only.
type SearchHit struct {
	Score          float64
	Filename       string
	Text           string
	Metadata       map[string]string
	IsChunk        bool
	ParentDocument string
	ChunkIndex     int
	TotalChunks    int
}

// ResultEntry is the finalized, merged, metadata-clean unit returned to
// callers. Metadata holds the hit payload minus text and bookkeeping fields;
// merged entries carry a human-readable "note" instead.
type ResultEntry struct {
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Answer pairs generated text with the entries that informed it.
type Answer struct {
	Text    string        `json:"answer"`
	Sources []ResultEntry `json:"sources,omitempty"`
}
