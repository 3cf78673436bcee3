package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/core/ports"
)

type SearchConfig struct {
	// OverfetchFactor multiplies topK on the store query so that candidates
	// collapsing into one merged result do not starve the final list.
	OverfetchFactor   int
	MaxChunksPerMerge int
}

func (c SearchConfig) normalize() SearchConfig {
	out := c
	if out.OverfetchFactor <= 0 {
		out.OverfetchFactor = 5
	}
	if out.MaxChunksPerMerge <= 0 {
		out.MaxChunksPerMerge = 5
	}
	return out
}

// SearchUseCase retrieves nearest-neighbor candidates and recombines chunk
// hits into whole-document results: chunk groups are reassembled per parent
// document, deduplicated against whole-document hits, ranked and truncated.
type SearchUseCase struct {
	embedder ports.Embedder
	store    ports.VectorStore
	cfg      SearchConfig
}

func NewSearchUseCase(embedder ports.Embedder, store ports.VectorStore, cfg SearchConfig) *SearchUseCase {
	return &SearchUseCase{
		embedder: embedder,
		store:    store,
		cfg:      cfg.normalize(),
	}
}

// SemanticSearch returns at most topK entries ranked by descending score. It
// never fails: embedding or store errors are logged and yield an empty list.
func (uc *SearchUseCase) SemanticSearch(ctx context.Context, query string, topK int) []domain.ResultEntry {
	entries, err := uc.search(ctx, query, topK)
	if err != nil {
		slog.Error("semantic_search_failed", "query", truncateForLog(query, 120), "error", err)
		return []domain.ResultEntry{}
	}
	return entries
}

func (uc *SearchUseCase) search(ctx context.Context, query string, topK int) ([]domain.ResultEntry, error) {
	if topK <= 0 {
		topK = 5
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	sanitizeVector(queryVector)

	hits, err := uc.store.Search(ctx, queryVector, topK*uc.cfg.OverfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("search vector store: %w", err)
	}

	candidates := uc.mergeCandidates(hits)

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].filename < candidates[j].filename
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	entries := make([]domain.ResultEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, c.toResultEntry())
	}
	slog.Info("semantic_search_completed",
		"query", truncateForLog(query, 120),
		"results_found", len(entries),
		"requested", topK,
	)
	return entries, nil
}

// mergedCandidate is the post-merge, pre-ranking unit: either a surviving
// whole-document hit or a chunk group recombined into one entry.
type mergedCandidate struct {
	filename    string
	text        string
	score       float64
	metadata    map[string]string
	combined    bool
	numCombined int
}

func (c mergedCandidate) toResultEntry() domain.ResultEntry {
	metadata := map[string]any{
		domain.PayloadFilename: c.filename,
		domain.PayloadMetadata: c.metadata,
	}
	if c.combined {
		metadata[domain.PayloadNote] = fmt.Sprintf("Document combined from %d parts", c.numCombined)
	}
	return domain.ResultEntry{
		Text:     c.text,
		Score:    sanitizeScore(c.score),
		Metadata: sanitizeJSONMap(metadata),
	}
}

// mergeCandidates partitions raw hits into whole-document hits and chunk
// groups, then recombines each group whose parent has no whole-document hit.
// Whole documents always win over their own fragments.
func (uc *SearchUseCase) mergeCandidates(hits []domain.SearchHit) []mergedCandidate {
	accepted := make(map[string]bool)
	var whole []domain.SearchHit
	chunkGroups := make(map[string][]domain.SearchHit)
	var groupOrder []string

	for _, hit := range hits {
		if hit.IsChunk {
			if _, ok := chunkGroups[hit.ParentDocument]; !ok {
				groupOrder = append(groupOrder, hit.ParentDocument)
			}
			chunkGroups[hit.ParentDocument] = append(chunkGroups[hit.ParentDocument], hit)
			continue
		}
		// First-seen-wins for duplicate filenames.
		if accepted[hit.Filename] {
			continue
		}
		accepted[hit.Filename] = true
		whole = append(whole, hit)
	}

	candidates := make([]mergedCandidate, 0, len(whole)+len(groupOrder))
	for _, hit := range whole {
		candidates = append(candidates, mergedCandidate{
			filename: hit.Filename,
			text:     hit.Text,
			score:    hit.Score,
			metadata: hit.Metadata,
		})
	}

	for _, parent := range groupOrder {
		if accepted[parent] {
			continue
		}
		accepted[parent] = true
		candidates = append(candidates, uc.combineChunks(parent, chunkGroups[parent]))
	}
	return candidates
}

// combineChunks rebuilds one candidate from a group of sibling chunks. The
// first MaxChunksPerMerge chunks in index order are retained; the merged text
// keeps index order and the score is the best constituent score.
func (uc *SearchUseCase) combineChunks(parent string, group []domain.SearchHit) mergedCandidate {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].ChunkIndex < group[j].ChunkIndex
	})
	if len(group) > uc.cfg.MaxChunksPerMerge {
		group = group[:uc.cfg.MaxChunksPerMerge]
	}

	texts := make([]string, 0, len(group))
	best := group[0].Score
	for _, hit := range group {
		texts = append(texts, hit.Text)
		if hit.Score > best {
			best = hit.Score
		}
	}

	return mergedCandidate{
		filename:    parent,
		text:        strings.Join(texts, "\n\n"),
		score:       best,
		metadata:    group[0].Metadata,
		combined:    true,
		numCombined: len(group),
	}
}

// sanitizeVector replaces non-finite elements with 0 in place. The store is a
// separate call boundary and rejects malformed floats outright.
func sanitizeVector(vector []float32) {
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			vector[i] = 0
		}
	}
}

func sanitizeScore(score float64) float64 {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// sanitizeJSONMap recursively replaces values that would not survive JSON
// encoding (non-finite floats) in nested maps and slices.
func sanitizeJSONMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = sanitizeJSONValue(v)
	}
	return out
}

func sanitizeJSONValue(v any) any {
	switch val := v.(type) {
	case float64:
		return sanitizeScore(val)
	case float32:
		return float32(sanitizeScore(float64(val)))
	case map[string]any:
		return sanitizeJSONMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeJSONValue(item)
		}
		return out
	default:
		return v
	}
}

func truncateForLog(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
