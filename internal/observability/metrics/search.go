package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchMetrics exposes the retrieval pipeline counters. It implements
// ports.RetrievalObserver so the core can report degradations without
// knowing about Prometheus.
type SearchMetrics struct {
	registry    *prometheus.Registry
	serviceName string

	searchesTotal      *prometheus.CounterVec
	sourceDegraded     *prometheus.CounterVec
	unresolvableChunks prometheus.Counter
	fusedCandidates    prometheus.Histogram
	emittedResults     prometheus.Histogram
	searchDuration     *prometheus.HistogramVec
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	searchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evs",
			Subsystem: "retrieval",
			Name:      "searches_total",
			Help:      "Total hybrid searches by outcome.",
		},
		[]string{"service", "outcome"},
	)
	sourceDegraded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "evs",
			Subsystem: "retrieval",
			Name:      "source_degraded_total",
			Help:      "Searches that proceeded without one retrieval source.",
		},
		[]string{"service", "source"},
	)
	unresolvableChunks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "evs",
			Subsystem: "retrieval",
			Name:      "unresolvable_chunks_total",
			Help:      "Ranked lexical-only ids dropped for lack of a chunk payload.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fusedCandidates := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "evs",
			Subsystem: "retrieval",
			Name:      "fused_candidates",
			Help:      "Fused candidate set size per search.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 60, 120},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	emittedResults := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "evs",
			Subsystem: "retrieval",
			Name:      "emitted_results",
			Help:      "Result list size per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "evs",
			Subsystem: "http",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search handler duration by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(searchesTotal, sourceDegraded, unresolvableChunks, fusedCandidates, emittedResults, searchDuration)

	return &SearchMetrics{
		registry:           registry,
		serviceName:        service,
		searchesTotal:      searchesTotal,
		sourceDegraded:     sourceDegraded,
		unresolvableChunks: unresolvableChunks,
		fusedCandidates:    fusedCandidates,
		emittedResults:     emittedResults,
		searchDuration:     searchDuration,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) SearchCompleted(outcome string, candidates, emitted int) {
	m.searchesTotal.WithLabelValues(m.serviceName, outcome).Inc()
	m.fusedCandidates.Observe(float64(candidates))
	m.emittedResults.Observe(float64(emitted))
}

func (m *SearchMetrics) SourceDegraded(source string) {
	m.sourceDegraded.WithLabelValues(m.serviceName, source).Inc()
}

func (m *SearchMetrics) UnresolvableChunks(count int) {
	m.unresolvableChunks.Add(float64(count))
}

func (m *SearchMetrics) ObserveHandlerDuration(status string, duration time.Duration) {
	m.searchDuration.WithLabelValues(m.serviceName, status).Observe(duration.Seconds())
}
