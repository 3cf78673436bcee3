package mcpadapter

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

type searcherFake struct {
	results  []domain.ResultEntry
	gotQuery string
	gotTopK  int
}

func (f *searcherFake) SemanticSearch(_ context.Context, query string, topK int) []domain.ResultEntry {
	f.gotQuery = query
	f.gotTopK = topK
	return f.results
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "semantic_search"
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected single content item, got %d", len(result.Content))
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestHandleSemanticSearchReturnsResults(t *testing.T) {
	searcher := &searcherFake{results: []domain.ResultEntry{
		{
			Text:  "George Berkeley was an Anglo-Irish philosopher.",
			Score: 0.91,
			Metadata: map[string]any{
				domain.PayloadFilename: "Berkeley",
				domain.PayloadMetadata: map[string]any{},
			},
		},
	}}
	srv := NewServer(searcher, 5)

	result, err := srv.handleSemanticSearch(context.Background(), callRequest(map[string]any{
		"query": "irish philosophers",
		"top_k": float64(3),
	}))
	if err != nil {
		t.Fatalf("handleSemanticSearch() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if searcher.gotQuery != "irish philosophers" || searcher.gotTopK != 3 {
		t.Fatalf("searcher got query=%q topK=%d", searcher.gotQuery, searcher.gotTopK)
	}

	var payload struct {
		Results []domain.ResultEntry `json:"results"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &payload); err != nil {
		t.Fatalf("decode tool payload: %v", err)
	}
	if len(payload.Results) != 1 || payload.Results[0].Score != 0.91 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestHandleSemanticSearchDefaultsTopK(t *testing.T) {
	searcher := &searcherFake{}
	srv := NewServer(searcher, 7)

	result, err := srv.handleSemanticSearch(context.Background(), callRequest(map[string]any{
		"query": "anything",
	}))
	if err != nil {
		t.Fatalf("handleSemanticSearch() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error")
	}
	if searcher.gotTopK != 7 {
		t.Fatalf("expected default topK 7, got %d", searcher.gotTopK)
	}
}

func TestHandleSemanticSearchRequiresQuery(t *testing.T) {
	srv := NewServer(&searcherFake{}, 5)

	result, err := srv.handleSemanticSearch(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("missing argument should be a tool error, not a transport error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error for missing query")
	}
	if !strings.Contains(textContent(t, result), "query") {
		t.Fatalf("error should name the missing argument")
	}
}

func TestHandleSemanticSearchEmptyCorpus(t *testing.T) {
	srv := NewServer(&searcherFake{results: []domain.ResultEntry{}}, 5)

	result, err := srv.handleSemanticSearch(context.Background(), callRequest(map[string]any{
		"query": "nothing indexed",
	}))
	if err != nil {
		t.Fatalf("handleSemanticSearch() error = %v", err)
	}

	var payload struct {
		Results []domain.ResultEntry `json:"results"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &payload); err != nil {
		t.Fatalf("decode tool payload: %v", err)
	}
	if len(payload.Results) != 0 {
		t.Fatalf("expected empty results, got %+v", payload.Results)
	}
}
