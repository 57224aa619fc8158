package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the literature retrieval service.
// Metrics are organized by subsystem: retrievals, records, transport and the
// HTTP API. All counters and histograms are registered via promauto with the
// default Prometheus registry.
//
// The "source" label means two things. On record counters it is the
// domain.SourceType of the records ("PubMed", "arXiv"). On transport
// metrics it is the outbound client name ("pubmed", "arxiv", "remote").
type Metrics struct {
	// RetrievalsStarted counts retrieval calls, labeled by strategy.
	RetrievalsStarted *prometheus.CounterVec

	// RetrievalsCompleted counts retrieval calls that returned records (or none), labeled by strategy.
	RetrievalsCompleted *prometheus.CounterVec

	// RetrievalsFailed counts failed retrieval calls, labeled by strategy and the stage that failed.
	RetrievalsFailed *prometheus.CounterVec

	// RetrievalDuration observes end-to-end retrieval duration in seconds, labeled by strategy.
	RetrievalDuration *prometheus.HistogramVec

	// RecordsPerRetrieval observes how many records each successful retrieval emitted.
	RecordsPerRetrieval *prometheus.HistogramVec

	// RecordsEmitted counts canonical records handed to callers, labeled by source.
	RecordsEmitted *prometheus.CounterVec

	// RecordsDropped counts records discarded before normalization, labeled by source and reason.
	RecordsDropped *prometheus.CounterVec

	// DuplicatesRemoved counts records removed by the deduplicator, labeled by source.
	DuplicatesRemoved *prometheus.CounterVec

	// ParseWarnings counts parse anomalies, labeled by field.
	ParseWarnings *prometheus.CounterVec

	// TransportRequests counts successful HTTP calls to external services, labeled by source and endpoint.
	TransportRequests *prometheus.CounterVec

	// TransportFailures counts failed HTTP calls, labeled by source, endpoint, and error type.
	TransportFailures *prometheus.CounterVec

	// TransportDuration observes HTTP call duration in seconds, labeled by source and endpoint.
	TransportDuration *prometheus.HistogramVec

	// RateLimitWait observes how long callers were held back by the rate limiter, labeled by source.
	RateLimitWait *prometheus.HistogramVec

	// HTTPRequests counts API requests served, labeled by method, route and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPRequestDuration observes API request duration in seconds, labeled by method and route.
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Retrievals
		RetrievalsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_started_total",
			Help:      "Total number of literature retrievals started by strategy",
		}, []string{"strategy"}),
		RetrievalsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_completed_total",
			Help:      "Total number of literature retrievals completed by strategy",
		}, []string{"strategy"}),
		RetrievalsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_failed_total",
			Help:      "Total number of literature retrievals that failed by strategy and stage",
		}, []string{"strategy", "stage"}),
		RetrievalDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Duration of literature retrievals in seconds by strategy",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"strategy"}),
		RecordsPerRetrieval: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "records_per_retrieval",
			Help:      "Number of records returned per retrieval by strategy",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		}, []string{"strategy"}),

		// Records
		RecordsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_emitted_total",
			Help:      "Total number of canonical records emitted by source",
		}, []string{"source"}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total number of records dropped before normalization by source and reason",
		}, []string{"source", "reason"}),
		DuplicatesRemoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of duplicate records removed by source",
		}, []string{"source"}),
		ParseWarnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_warnings_total",
			Help:      "Total number of record parse warnings by field",
		}, []string{"field"}),

		// Transport
		TransportRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_requests_total",
			Help:      "Total number of successful requests to external services",
		}, []string{"source", "endpoint"}),
		TransportFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_failures_total",
			Help:      "Total number of failed requests to external services",
		}, []string{"source", "endpoint", "error_type"}),
		TransportDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transport_request_duration_seconds",
			Help:      "Duration of requests to external services in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "endpoint"}),
		RateLimitWait: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the outbound rate limiter in seconds",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.35, 0.5, 1, 2.5, 5},
		}, []string{"source"}),

		// HTTP API
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

// RecordRetrievalStarted records that a retrieval has started.
func (m *Metrics) RecordRetrievalStarted(strategy string) {
	m.RetrievalsStarted.WithLabelValues(strategy).Inc()
}

// RecordRetrievalCompleted records a successful retrieval.
func (m *Metrics) RecordRetrievalCompleted(strategy string, recordCount int, durationSeconds float64) {
	m.RetrievalsCompleted.WithLabelValues(strategy).Inc()
	m.RetrievalDuration.WithLabelValues(strategy).Observe(durationSeconds)
	m.RecordsPerRetrieval.WithLabelValues(strategy).Observe(float64(recordCount))
}

// RecordRetrievalFailed records a retrieval that failed in the given stage.
func (m *Metrics) RecordRetrievalFailed(strategy, stage string, durationSeconds float64) {
	m.RetrievalsFailed.WithLabelValues(strategy, stage).Inc()
	m.RetrievalDuration.WithLabelValues(strategy).Observe(durationSeconds)
}

// RecordRecordsEmitted records canonical records handed to a caller.
func (m *Metrics) RecordRecordsEmitted(source string, count int) {
	m.RecordsEmitted.WithLabelValues(source).Add(float64(count))
}

// RecordRecordsDropped records records discarded for the given reason.
func (m *Metrics) RecordRecordsDropped(source, reason string, count int) {
	m.RecordsDropped.WithLabelValues(source, reason).Add(float64(count))
}

// RecordDuplicates records multiple duplicate records in a single call.
func (m *Metrics) RecordDuplicates(source string, count int) {
	m.DuplicatesRemoved.WithLabelValues(source).Add(float64(count))
}

// RecordParseWarning records a parse anomaly on the given field.
func (m *Metrics) RecordParseWarning(field string) {
	m.ParseWarnings.WithLabelValues(field).Inc()
}

// RecordTransportRequest records a successful request to an external service.
func (m *Metrics) RecordTransportRequest(source, endpoint string, durationSeconds float64) {
	m.TransportRequests.WithLabelValues(source, endpoint).Inc()
	m.TransportDuration.WithLabelValues(source, endpoint).Observe(durationSeconds)
}

// RecordTransportFailure records a failed request to an external service.
func (m *Metrics) RecordTransportFailure(source, endpoint, errorType string) {
	m.TransportFailures.WithLabelValues(source, endpoint, errorType).Inc()
}

// RecordRateLimitWait records how long a request waited for the rate limiter.
func (m *Metrics) RecordRateLimitWait(source string, waitSeconds float64) {
	m.RateLimitWait.WithLabelValues(source).Observe(waitSeconds)
}

// RecordHTTPRequest records an API request served by this process.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
