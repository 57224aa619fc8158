package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_litsearch_new")

	assert.NotNil(t, m.RetrievalsStarted)
	assert.NotNil(t, m.RetrievalsCompleted)
	assert.NotNil(t, m.RetrievalsFailed)
	assert.NotNil(t, m.RetrievalDuration)
	assert.NotNil(t, m.RecordsPerRetrieval)
	assert.NotNil(t, m.RecordsEmitted)
	assert.NotNil(t, m.RecordsDropped)
	assert.NotNil(t, m.DuplicatesRemoved)
	assert.NotNil(t, m.ParseWarnings)
	assert.NotNil(t, m.TransportRequests)
	assert.NotNil(t, m.TransportFailures)
	assert.NotNil(t, m.TransportDuration)
	assert.NotNil(t, m.RateLimitWait)
	assert.NotNil(t, m.HTTPRequests)
	assert.NotNil(t, m.HTTPRequestDuration)
}

func TestRecordRetrievalStarted(t *testing.T) {
	m := NewMetrics("test_retrieval_started")

	m.RecordRetrievalStarted("direct")
	m.RecordRetrievalStarted("direct")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RetrievalsStarted.WithLabelValues("direct")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RetrievalsStarted.WithLabelValues("remote")))
}

func TestRecordRetrievalCompleted(t *testing.T) {
	m := NewMetrics("test_retrieval_completed")

	m.RecordRetrievalCompleted("direct", 7, 1.5)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RetrievalsCompleted.WithLabelValues("direct")))

	count, sum, err := getHistogram(m.RecordsPerRetrieval.WithLabelValues("direct").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, float64(7), sum)
}

func TestRecordRetrievalFailed(t *testing.T) {
	m := NewMetrics("test_retrieval_failed")

	m.RecordRetrievalFailed("direct", "searching", 0.2)
	m.RecordRetrievalFailed("direct", "fetching_details", 0.4)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RetrievalsFailed.WithLabelValues("direct", "searching")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RetrievalsFailed.WithLabelValues("direct", "fetching_details")))

	count, _, err := getHistogram(m.RetrievalDuration.WithLabelValues("direct").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestRecordRecords(t *testing.T) {
	m := NewMetrics("test_records")

	m.RecordRecordsEmitted("PubMed", 10)
	m.RecordRecordsDropped("PubMed", "missing_id", 2)
	m.RecordDuplicates("PubMed", 3)
	m.RecordParseWarning("abstract")
	m.RecordParseWarning("abstract")

	assert.Equal(t, float64(10), testutil.ToFloat64(m.RecordsEmitted.WithLabelValues("PubMed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.RecordsDropped.WithLabelValues("PubMed", "missing_id")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DuplicatesRemoved.WithLabelValues("PubMed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ParseWarnings.WithLabelValues("abstract")))
}

func TestRecordTransport(t *testing.T) {
	m := NewMetrics("test_transport")

	m.RecordTransportRequest("pubmed", "esearch.fcgi", 0.3)
	m.RecordTransportFailure("pubmed", "efetch.fcgi", "status_503")
	m.RecordRateLimitWait("pubmed", 0.35)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransportRequests.WithLabelValues("pubmed", "esearch.fcgi")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransportFailures.WithLabelValues("pubmed", "efetch.fcgi", "status_503")))

	count, sum, err := getHistogram(m.RateLimitWait.WithLabelValues("pubmed").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
	assert.InDelta(t, 0.35, sum, 1e-9)
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics("test_http_request")

	m.RecordHTTPRequest("POST", "/api/v1/search", 200, 0.8)
	m.RecordHTTPRequest("POST", "/api/v1/search", 502, 0.1)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/search", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/search", "502")))
}

// Helper to read a histogram's sample count and sum.
func getHistogram(h prometheus.Histogram) (uint64, float64, error) {
	var metric = &dto.Metric{}
	if err := h.Write(metric); err != nil {
		return 0, 0, err
	}
	return metric.Histogram.GetSampleCount(), metric.Histogram.GetSampleSum(), nil
}
