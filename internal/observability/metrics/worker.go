package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tashrique/cl-rag/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	documents      *prometheus.GaugeVec
	ingestDuration *prometheus.HistogramVec
	ingestInFlight prometheus.Gauge
	runsTotal      *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	documents := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "clrag",
			Subsystem: "ingest",
			Name:      "documents",
			Help:      "Cataloged documents by ingestion outcome.",
		},
		[]string{"service", "outcome"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clrag",
			Subsystem: "ingest",
			Name:      "run_duration_seconds",
			Help:      "Full corpus ingestion run duration in seconds by status.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"service", "status"},
	)
	ingestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clrag",
			Subsystem: "ingest",
			Name:      "runs_in_flight",
			Help:      "Number of ingestion runs currently executing.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clrag",
			Subsystem: "ingest",
			Name:      "runs_total",
			Help:      "Total completed ingestion runs by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(documents, ingestDuration, ingestInFlight, runsTotal)

	return &WorkerMetrics{
		registry:       registry,
		documents:      documents,
		ingestDuration: ingestDuration,
		ingestInFlight: ingestInFlight,
		runsTotal:      runsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartRun() {
	m.ingestInFlight.Inc()
}

func (m *WorkerMetrics) FinishRun(service string, duration time.Duration, err error) {
	m.ingestInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(service, status).Inc()
	m.ingestDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

// SetDocumentCounts publishes the catalog's per-outcome totals after a run.
func (m *WorkerMetrics) SetDocumentCounts(service string, counts map[domain.IngestOutcome]int64) {
	for outcome, count := range counts {
		m.documents.WithLabelValues(service, string(outcome)).Set(float64(count))
	}
}

