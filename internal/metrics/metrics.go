// Package metrics exposes Prometheus instrumentation for the ranking
// service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors. All record
// helpers are nil-receiver safe so callers without a registry (the
// CLI) can pass nil.
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	DocumentsProcessed   prometheus.Counter
	ExtractionFailures   prometheus.Counter
	SectionsRecognized   prometheus.Counter
	SectionsSelected     prometheus.Counter
	EmbeddingCacheHits   prometheus.Counter
	EmbeddingCacheMisses prometheus.Counter
	JobQueueDepth        prometheus.Gauge
	HTTPRequests         *prometheus.CounterVec
}

// New registers all collectors on the default registry. Call once per
// process.
func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docrank_runs_total",
			Help: "Ranking runs by final status.",
		}, []string{"status"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docrank_run_duration_seconds",
			Help:    "End-to-end duration of ranking runs.",
			Buckets: prometheus.DefBuckets,
		}),
		DocumentsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_documents_processed_total",
			Help: "Documents accepted for extraction.",
		}),
		ExtractionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_extraction_failures_total",
			Help: "Documents that produced no usable text runs.",
		}),
		SectionsRecognized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_sections_recognized_total",
			Help: "Sections produced by structure recognition.",
		}),
		SectionsSelected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_sections_selected_total",
			Help: "Sections selected by ranking.",
		}),
		EmbeddingCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_embedding_cache_hits_total",
			Help: "Embedding lookups served from the run cache.",
		}),
		EmbeddingCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docrank_embedding_cache_misses_total",
			Help: "Embedding lookups that reached the backend.",
		}),
		JobQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "docrank_job_queue_depth",
			Help: "Jobs waiting in the processing queue.",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docrank_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
}

// RecordRun tracks one completed run.
func (m *Metrics) RecordRun(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// RecordDocuments tracks documents entering extraction.
func (m *Metrics) RecordDocuments(n int) {
	if m == nil {
		return
	}
	m.DocumentsProcessed.Add(float64(n))
}

// RecordExtractionFailure tracks one document with no usable text.
func (m *Metrics) RecordExtractionFailure() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

// RecordSections tracks recognizer output and ranker selections.
func (m *Metrics) RecordSections(recognized, selected int) {
	if m == nil {
		return
	}
	m.SectionsRecognized.Add(float64(recognized))
	m.SectionsSelected.Add(float64(selected))
}

// RecordCache accumulates one run cache's counters.
func (m *Metrics) RecordCache(hits, misses int64) {
	if m == nil {
		return
	}
	m.EmbeddingCacheHits.Add(float64(hits))
	m.EmbeddingCacheMisses.Add(float64(misses))
}

// SetQueueDepth reports the current job queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.JobQueueDepth.Set(float64(n))
}

// RecordHTTPRequest tracks one handled request.
func (m *Metrics) RecordHTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
