package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tashrique/cl-rag/internal/core/domain"
	"github.com/tashrique/cl-rag/internal/core/ports"
	"github.com/tashrique/cl-rag/internal/observability/metrics"
)

const serviceName = "api"

// fallbackAnswer is served when answer generation fails. Retrieval itself
// cannot fail, so the endpoint never turns a backend outage into a 5xx.
const fallbackAnswer = "I could not generate an answer right now. Please try again in a moment."

type RouterConfig struct {
	DefaultTopK        int
	RateLimitPerSecond float64
	RateLimitBurst     int
	MaxInFlight        int
}

type Router struct {
	queryUC  ports.QueryService
	searcher ports.SemanticSearcher
	queue    ports.MessageQueue
	metrics  *metrics.HTTPServerMetrics
	cfg      RouterConfig
}

func NewRouter(
	queryUC ports.QueryService,
	searcher ports.SemanticSearcher,
	queue ports.MessageQueue,
	m *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	return &Router{
		queryUC:  queryUC,
		searcher: searcher,
		queue:    queue,
		metrics:  m,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/v1/query", rt.query)
	mux.HandleFunc("/api/v1/search", rt.search)
	mux.HandleFunc("/api/v1/reingest", rt.reingest)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitPerSecond, rt.cfg.RateLimitBurst, rt.onRateLimited)
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, 100*time.Millisecond)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) onRateLimited() {
	if rt.metrics != nil {
		rt.metrics.RecordRateLimited(serviceName)
	}
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type queryRequest struct {
	Query          string `json:"query"`
	TopK           int    `json:"top_k"`
	IncludeSources *bool  `json:"include_sources"`
}

type queryResponse struct {
	Answer  string               `json:"answer"`
	Sources []domain.ResultEntry `json:"sources"`
	Success bool                 `json:"success"`
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = rt.cfg.DefaultTopK
	}
	includeSources := req.IncludeSources == nil || *req.IncludeSources

	start := time.Now()
	answer, err := rt.queryUC.Answer(r.Context(), req.Query, topK)
	if err != nil {
		slog.Error("answer_generation_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err.Error())
		if rt.metrics != nil {
			rt.metrics.RecordAnswerFailure(serviceName)
		}
		sources := rt.searcher.SemanticSearch(r.Context(), req.Query, topK)
		rt.recordQuery(sources, start)
		writeJSON(w, http.StatusOK, rt.buildQueryResponse(fallbackAnswer, sources, false, includeSources))
		return
	}

	rt.recordQuery(answer.Sources, start)
	writeJSON(w, http.StatusOK, rt.buildQueryResponse(answer.Text, answer.Sources, true, includeSources))
}

func (rt *Router) buildQueryResponse(answer string, sources []domain.ResultEntry, success, includeSources bool) queryResponse {
	resp := queryResponse{
		Answer:  answer,
		Sources: []domain.ResultEntry{},
		Success: success,
	}
	if includeSources && sources != nil {
		resp.Sources = sources
	}
	return resp
}

func (rt *Router) recordQuery(sources []domain.ResultEntry, start time.Time) {
	if rt.metrics == nil {
		return
	}
	combined := 0
	for _, src := range sources {
		if _, ok := src.Metadata[domain.PayloadNote]; ok {
			combined++
		}
	}
	rt.metrics.RecordQuery(serviceName, len(sources), combined, time.Since(start))
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = rt.cfg.DefaultTopK
	}

	results := rt.searcher.SemanticSearch(r.Context(), req.Query, topK)
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (rt *Router) reingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reingest queue is not configured"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "manual"
	}

	if err := rt.queue.PublishReingestRequested(r.Context(), req.Reason); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reingest requested"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
