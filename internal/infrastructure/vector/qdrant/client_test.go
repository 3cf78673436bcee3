package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

func TestEnsureCollectionTreatsConflictAsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	if err := client.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "docs")
	err := client.EnsureCollection(context.Background(), 768)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestCountVectorsMissingCollectionIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	count, err := New(server.URL, "docs").CountVectors(context.Background())
	if err != nil {
		t.Fatalf("CountVectors() error = %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestCountVectorsParsesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/count" {
			_, _ = w.Write([]byte(`{"result":{"count":137},"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	count, err := New(server.URL, "docs").CountVectors(context.Background())
	if err != nil {
		t.Fatalf("CountVectors() error = %v", err)
	}
	if count != 137 {
		t.Fatalf("count = %d, want 137", count)
	}
}

func TestUpsertSendsPointsWithPayload(t *testing.T) {
	var got struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points" {
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode upsert body: %v", err)
			}
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	records := []domain.VectorRecord{
		{
			ID:     "r-1",
			Vector: []float32{0.1, 0.2},
			Payload: map[string]any{
				domain.PayloadFilename: "a",
				domain.PayloadText:     "body",
			},
		},
	}
	if err := New(server.URL, "docs").Upsert(context.Background(), records); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if len(got.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(got.Points))
	}
	if got.Points[0].ID != "r-1" || got.Points[0].Payload[domain.PayloadFilename] != "a" {
		t.Fatalf("unexpected point: %+v", got.Points[0])
	}
}

func TestUpsertEmptyBatchIsNoop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected for empty batch")
	}))
	defer server.Close()

	if err := New(server.URL, "docs").Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestSearchBuildsNormalizedHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search" {
			_, _ = w.Write([]byte(`{"result":[
				{"score":0.91,"payload":{
					"filename":"Berkeley [Part 2/4]","text":"chunk text",
					"metadata":{"last_updated":"2026-02-01"},
					"is_chunk":true,"chunk_index":1,"total_chunks":4,
					"parent_document":"Berkeley"}},
				{"score":0.74,"payload":{"filename":"Stanford","text":"whole doc"}},
				{"score":0.50,"payload":null}
			]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	hits, err := New(server.URL, "docs").Search(context.Background(), []float32{0.1}, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected payload-less hit dropped, got %d hits", len(hits))
	}

	chunk := hits[0]
	if !chunk.IsChunk || chunk.ParentDocument != "Berkeley" || chunk.ChunkIndex != 1 || chunk.TotalChunks != 4 {
		t.Fatalf("chunk hit not normalized: %+v", chunk)
	}
	if chunk.Metadata["last_updated"] != "2026-02-01" {
		t.Fatalf("chunk metadata missing: %+v", chunk.Metadata)
	}

	whole := hits[1]
	if whole.IsChunk || whole.Filename != "Stanford" || whole.Score != 0.74 {
		t.Fatalf("whole hit not normalized: %+v", whole)
	}
}

func TestSearchPropagatesBackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL, "docs").Search(context.Background(), []float32{0.1}, 10)
	if err == nil {
		t.Fatalf("expected error")
	}
}
