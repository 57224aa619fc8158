package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
)

// ---------------------------------------------------------------------------
// Mock retriever
// ---------------------------------------------------------------------------

type mockRetriever struct {
	searchFn func(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)

	lastQuery      string
	lastMaxResults int
	calls          int
}

func (m *mockRetriever) SearchLiterature(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	m.calls++
	m.lastQuery = query
	m.lastMaxResults = maxResults
	if m.searchFn != nil {
		return m.searchFn(ctx, query, maxResults)
	}
	return []domain.Paper{}, nil
}

func (m *mockRetriever) Name() string                   { return papersources.StrategyDirect }
func (m *mockRetriever) SourceType() domain.SourceType { return domain.SourceTypePubMed }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestHTTPServer(retriever papersources.Retriever) *Server {
	return NewServer(Config{
		RequestTimeout:    time.Second,
		DefaultMaxResults: 10,
		MaxResultsLimit:   50,
	}, retriever, nil, zerolog.Nop())
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, r)
	return rr
}

func postSearch(s *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return serveHTTP(s, req)
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(target), "failed to decode response body")
}

func samplePapers() []domain.Paper {
	return []domain.Paper{
		{
			ID:       "111",
			Title:    "Aspirin after myocardial infarction",
			Abstract: "Aspirin reduces recurrent events.",
			Authors:  []string{"Smith JA"},
			Year:     "2023",
			Journal:  "The Lancet",
			Source:   domain.SourceTypePubMed,
			URL:      "https://pubmed.ncbi.nlm.nih.gov/111/",
		},
		{
			ID:       "222",
			Title:    "Antiplatelet therapy in practice",
			Abstract: domain.NoAbstract,
			Authors:  []string{},
			Year:     "2022 Jan-Feb",
			Journal:  "Heart",
			Source:   domain.SourceTypePubMed,
			URL:      "https://pubmed.ncbi.nlm.nih.gov/222/",
		},
	}
}

// ---------------------------------------------------------------------------
// Tests: search
// ---------------------------------------------------------------------------

func TestSearchLiterature_Success(t *testing.T) {
	retriever := &mockRetriever{
		searchFn: func(_ context.Context, _ string, _ int) ([]domain.Paper, error) {
			return samplePapers(), nil
		},
	}
	s := newTestHTTPServer(retriever)

	rr := postSearch(s, "/api/v1/search", `{"query":"aspirin heart attack","max_results":5}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "aspirin heart attack", retriever.lastQuery)
	assert.Equal(t, 5, retriever.lastMaxResults)

	var resp searchResponse
	decodeJSON(t, rr, &resp)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "111", resp.Results[0].ID)
	assert.Equal(t, domain.NoAbstract, resp.Results[1].Abstract)
	assert.False(t, resp.Results[1].Selected)
}

func TestSearchLiterature_DefaultMaxResults(t *testing.T) {
	retriever := &mockRetriever{}
	s := newTestHTTPServer(retriever)

	rr := postSearch(s, "/api/v1/search", `{"query":"aspirin"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, retriever.lastMaxResults)
}

func TestSearchLiterature_ZeroMatches(t *testing.T) {
	retriever := &mockRetriever{
		searchFn: func(_ context.Context, _ string, _ int) ([]domain.Paper, error) {
			return nil, nil
		},
	}
	s := newTestHTTPServer(retriever)

	rr := postSearch(s, "/api/v1/search", `{"query":"nonexistent_term_xyz"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"results":[],"count":0}`, rr.Body.String())
}

func TestSearchLiterature_Validation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectedMsg string
	}{
		{name: "invalid JSON", body: `{"query":`, expectedMsg: "invalid JSON request body"},
		{name: "missing query", body: `{"max_results":5}`, expectedMsg: "query is required"},
		{name: "blank query", body: `{"query":"   "}`, expectedMsg: "query is required"},
		{name: "query too long", body: `{"query":"` + strings.Repeat("a", 1001) + `"}`, expectedMsg: "query must be at most 1000"},
		{name: "zero max results", body: `{"query":"aspirin","max_results":0}`, expectedMsg: "max_results must be at least 1"},
		{name: "negative max results", body: `{"query":"aspirin","max_results":-2}`, expectedMsg: "max_results must be at least 1"},
		{name: "max results above limit", body: `{"query":"aspirin","max_results":51}`, expectedMsg: "max_results must be at most 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &mockRetriever{}
			s := newTestHTTPServer(retriever)

			rr := postSearch(s, "/api/v1/search", tt.body)

			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var resp errorResponse
			decodeJSON(t, rr, &resp)
			assert.Contains(t, resp.Error, tt.expectedMsg)
			assert.Equal(t, errorKindValidation, resp.Kind)
			assert.Equal(t, 0, retriever.calls)
		})
	}
}

func TestSearchLiterature_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedKind   string
	}{
		{
			name:           "validation from retriever",
			err:            domain.NewValidationError("query", "must not be empty"),
			expectedStatus: http.StatusBadRequest,
			expectedKind:   errorKindValidation,
		},
		{
			name:           "search failure",
			err:            domain.NewSearchError("aspirin", domain.NewTransportError("esearch.fcgi", 500, "secret upstream body", nil)),
			expectedStatus: http.StatusBadGateway,
			expectedKind:   errorKindSearch,
		},
		{
			name:           "fetch failure",
			err:            domain.NewFetchError([]string{"1"}, errors.New("payload is not a PubmedArticleSet")),
			expectedStatus: http.StatusBadGateway,
			expectedKind:   errorKindFetch,
		},
		{
			name:           "timeout",
			err:            domain.NewSearchError("aspirin", domain.NewTransportError("esearch.fcgi", 0, "", context.DeadlineExceeded)),
			expectedStatus: http.StatusGatewayTimeout,
			expectedKind:   errorKindTimeout,
		},
		{
			name:           "cancelled",
			err:            domain.NewFetchError([]string{"1"}, context.Canceled),
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   errorKindCancelled,
		},
		{
			name:           "unexpected",
			err:            errors.New("database exploded at 10.0.0.3"),
			expectedStatus: http.StatusInternalServerError,
			expectedKind:   errorKindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestHTTPServer(&mockRetriever{
				searchFn: func(_ context.Context, _ string, _ int) ([]domain.Paper, error) {
					return nil, tt.err
				},
			})

			rr := postSearch(s, "/api/v1/search", `{"query":"aspirin"}`)

			require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			var resp errorResponse
			decodeJSON(t, rr, &resp)
			assert.Equal(t, tt.expectedKind, resp.Kind)
			assert.NotContains(t, resp.Error, "secret upstream body")
			assert.NotContains(t, resp.Error, "10.0.0.3")
		})
	}
}

func TestSearchLiterature_RequestTimeout(t *testing.T) {
	s := NewServer(Config{RequestTimeout: 20 * time.Millisecond}, &mockRetriever{
		searchFn: func(ctx context.Context, query string, _ int) ([]domain.Paper, error) {
			<-ctx.Done()
			return nil, domain.NewSearchError(query, ctx.Err())
		},
	}, nil, zerolog.Nop())

	rr := postSearch(s, "/api/v1/search", `{"query":"aspirin"}`)

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
}

func TestSearchLiterature_Legacy(t *testing.T) {
	s := newTestHTTPServer(&mockRetriever{
		searchFn: func(_ context.Context, _ string, _ int) ([]domain.Paper, error) {
			return samplePapers(), nil
		},
	})

	rr := postSearch(s, "/api/search", `{"query":"aspirin","max_results":10}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]json.RawMessage
	decodeJSON(t, rr, &resp)
	assert.Contains(t, resp, "results")
	assert.NotContains(t, resp, "count")

	var papers []domain.Paper
	require.NoError(t, json.Unmarshal(resp["results"], &papers))
	assert.Len(t, papers, 2)
}

func TestSearchLiterature_MethodNotAllowed(t *testing.T) {
	s := newTestHTTPServer(&mockRetriever{})

	rr := serveHTTP(s, httptest.NewRequest(http.MethodGet, "/api/v1/search", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSearchLiterature_NoRetriever(t *testing.T) {
	s := newTestHTTPServer(nil)

	rr := postSearch(s, "/api/v1/search", `{"query":"aspirin"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

// ---------------------------------------------------------------------------
// Tests: health
// ---------------------------------------------------------------------------

func TestHealthHandler(t *testing.T) {
	s := newTestHTTPServer(&mockRetriever{})

	rr := serveHTTP(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("ready with strategy", func(t *testing.T) {
		s := newTestHTTPServer(&mockRetriever{})

		rr := serveHTTP(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"ready","strategy":"direct"}`, rr.Body.String())
	})

	t.Run("not ready without strategy", func(t *testing.T) {
		s := newTestHTTPServer(nil)

		rr := serveHTTP(s, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestWriteDomainError_Nil(t *testing.T) {
	rr := httptest.NewRecorder()
	writeDomainError(rr, nil)
	assert.Equal(t, 0, rr.Body.Len())
}
