// Package observability provides logging and metrics support for the
// literature retrieval service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithSearchContext(logger, query, "direct")
//	logger.Info().Int("count", len(papers)).Msg("retrieval completed")
//
// # Metrics
//
//	metrics := observability.NewMetrics("litsearch")
//	metrics.RecordRetrievalStarted("direct")
//	metrics.RecordTransportRequest("pubmed", "esearch.fcgi", 0.21)
//
// Metrics are registered with the default Prometheus registry, so each
// namespace may be created only once per process.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - correlation_id: caller-supplied or generated correlation identifier
//   - query: research query text
//   - strategy: retrieval strategy (direct, remote)
//   - stage: pipeline stage
//   - record_id: external record identifier (PMID)
//   - field: record field a parse warning refers to
package observability
