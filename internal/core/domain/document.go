package domain

// Attribute is a single named metadata value. Documents carry attributes as a
// slice so the order they appeared in at the source survives ingestion.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Document is a named content unit loaded from the corpus source. Immutable
// after ingestion; re-ingestion against a populated collection is a no-op.
type Document struct {
	ID          string      `json:"id"`
	Filename    string      `json:"filename"`
	Text        string      `json:"text"`
	Metadata    []Attribute `json:"metadata,omitempty"`
	LastUpdated string      `json:"last_updated,omitempty"`
}

// MetadataMap flattens the ordered attributes into the payload shape stored in
// the vector backend. LastUpdated rides along as a regular attribute.
func (d Document) MetadataMap() map[string]string {
	out := make(map[string]string, len(d.Metadata)+1)
	for _, attr := range d.Metadata {
		out[attr.Key] = attr.Value
	}
	out["last_updated"] = d.LastUpdated
	return out
}

// Chunk is a contiguous slice of an oversized document's text. Index is
// 0-based and contiguous per parent; concatenating sibling chunks in index
// order reconstructs the document text up to whitespace normalization at the
// split points.
type Chunk struct {
	ParentDocument string `json:"parent_document"`
	Index          int    `json:"chunk_index"`
	Total          int    `json:"total_chunks"`
	Text           string `json:"text"`
}

// IngestOutcome records how ingestion handled one document.
type IngestOutcome string

const (
	OutcomeEmbedded IngestOutcome = "embedded"
	OutcomeChunked  IngestOutcome = "chunked"
	OutcomeSkipped  IngestOutcome = "skipped"
)
