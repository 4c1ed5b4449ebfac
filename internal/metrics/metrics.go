// Package metrics defines the prometheus collectors exported by urbanlex.
// A nil *Metrics is valid and records nothing, so components can be
// constructed without a registry in tests.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/urbanlex/internal/logger"
)

const namespace = "urbanlex"

// Outcome labels for namespace queries and ingested documents.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeEmpty   = "empty"
)

// Metrics groups every collector.
type Metrics struct {
	forceSplits      *prometheus.CounterVec
	chunksProduced   *prometheus.CounterVec
	strategies       *prometheus.CounterVec
	namespaceQueries *prometheus.CounterVec
	namespaceLatency *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	documentsIndexed *prometheus.CounterVec
	processorLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		forceSplits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunker",
			Name:      "force_splits_total",
			Help:      "Chunks cut at a hard character limit because no separator fit the token budget",
		}, []string{"document_type"}),

		chunksProduced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chunker",
			Name:      "chunks_total",
			Help:      "Chunks produced by type",
		}, []string{"chunk_type"}),

		strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "strategies_total",
			Help:      "Retrieval strategies chosen for queries",
		}, []string{"strategy"}),

		namespaceQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "namespace_queries_total",
			Help:      "Vector store queries per namespace by outcome",
		}, []string{"namespace", "outcome"}),

		namespaceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "namespace_query_duration_seconds",
			Help:      "Time spent querying one namespace",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace"}),

		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),

		documentsIndexed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Documents ingested per namespace by outcome",
		}, []string{"namespace", "outcome"}),

		processorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "processor_duration_seconds",
			Help:      "Time spent in one post-processor per document",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"processor"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.forceSplits,
			m.chunksProduced,
			m.strategies,
			m.namespaceQueries,
			m.namespaceLatency,
			m.cacheLookups,
			m.documentsIndexed,
			m.processorLatency,
		)
	}
	return m
}

// ForceSplit records one force-split chunk.
func (m *Metrics) ForceSplit(documentType string) {
	if m == nil {
		return
	}
	m.forceSplits.WithLabelValues(documentType).Inc()
}

// ForceSplits returns the counter for a document type, for tests and reports.
func (m *Metrics) ForceSplits(documentType string) prometheus.Counter {
	return m.forceSplits.WithLabelValues(documentType)
}

// ChunkProduced records one emitted chunk.
func (m *Metrics) ChunkProduced(chunkType string) {
	if m == nil {
		return
	}
	m.chunksProduced.WithLabelValues(chunkType).Inc()
}

// StrategyChosen records a classification decision.
func (m *Metrics) StrategyChosen(strategy string) {
	if m == nil {
		return
	}
	m.strategies.WithLabelValues(strategy).Inc()
}

// NamespaceQueried records one namespace query.
func (m *Metrics) NamespaceQueried(ns, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.namespaceQueries.WithLabelValues(ns, outcome).Inc()
	m.namespaceLatency.WithLabelValues(ns).Observe(elapsed.Seconds())
}

// NamespaceQueries returns the counter for a namespace and outcome.
func (m *Metrics) NamespaceQueries(ns, outcome string) prometheus.Counter {
	return m.namespaceQueries.WithLabelValues(ns, outcome)
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheLookups returns the counter for "hit" or "miss".
func (m *Metrics) CacheLookups(result string) prometheus.Counter {
	return m.cacheLookups.WithLabelValues(result)
}

// DocumentIndexed records one ingested document.
func (m *Metrics) DocumentIndexed(ns, outcome string) {
	if m == nil {
		return
	}
	m.documentsIndexed.WithLabelValues(ns, outcome).Inc()
}

// DocumentsIndexed returns the counter for a namespace and outcome.
func (m *Metrics) DocumentsIndexed(ns, outcome string) prometheus.Counter {
	return m.documentsIndexed.WithLabelValues(ns, outcome)
}

// ProcessorRan records the time one processor spent on a document.
func (m *Metrics) ProcessorRan(name string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.processorLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// Serve exposes the registry on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
