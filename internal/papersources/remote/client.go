// Package remote implements the delegate retrieval strategy: the search is
// forwarded to another backend that exposes POST /api/search and already
// returns canonical records.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-retrieval-service/internal/dedup"
	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/observability"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
)

// SearchPath is the delegate endpoint, relative to the base URL.
const SearchPath = "/api/search"

// SourceName labels transport metrics for delegate calls. Record counts
// are labelled with the records' SourceType like every other strategy.
const SourceName = "remote"

// Config holds the configuration for the remote client.
type Config struct {
	// BaseURL is the delegate backend, e.g. "http://localhost:8000".
	BaseURL string
}

// searchRequest is the body sent to the delegate.
type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// searchResponse is the body the delegate answers with.
type searchResponse struct {
	Results []domain.Paper `json:"results"`
}

// Client forwards retrievals to a remote backend.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Compile-time check that Client implements Retriever.
var _ papersources.Retriever = (*Client)(nil)

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a remote client. The metrics parameter may be nil.
func New(cfg Config, httpClient *papersources.HTTPClient, metrics *observability.Metrics, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		metrics:    metrics,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the strategy name.
func (c *Client) Name() string {
	return papersources.StrategyRemote
}

// SourceType returns the source the delegate is expected to search.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// SearchLiterature posts the query to the delegate and returns its records,
// deduplicated by id, with Selected cleared and URLs derived. Records
// whose source is not a known SourceType are dropped.
// Every failure after validation is returned as a *domain.SearchError.
func (c *Client) SearchLiterature(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	query, err := papersources.ValidateRequest(query, maxResults)
	if err != nil {
		return nil, err
	}

	logger := observability.WithRequestContext(ctx,
		observability.WithSearchContext(c.logger, query, papersources.StrategyRemote))
	started := time.Now()
	if c.metrics != nil {
		c.metrics.RecordRetrievalStarted(papersources.StrategyRemote)
	}

	papers, err := c.search(ctx, logger, query, maxResults)
	elapsed := time.Since(started)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRetrievalFailed(papersources.StrategyRemote, "searching", elapsed.Seconds())
		}
		logger.Error().Err(err).Dur("duration", elapsed).Msg("remote retrieval failed")
		return nil, domain.NewSearchError(query, err)
	}

	if c.metrics != nil {
		for source, n := range countBySource(papers) {
			c.metrics.RecordRecordsEmitted(string(source), n)
		}
		c.metrics.RecordRetrievalCompleted(papersources.StrategyRemote, len(papers), elapsed.Seconds())
	}
	logger.Info().Int("count", len(papers)).Dur("duration", elapsed).Msg("remote retrieval completed")
	return papers, nil
}

func (c *Client) search(ctx context.Context, logger zerolog.Logger, query string, maxResults int) ([]domain.Paper, error) {
	body, err := json.Marshal(searchRequest{Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+SearchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	respBody, err := c.httpClient.Send(req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Records are screened before deduplication so a rejected record
	// never shadows a later valid one with the same id.
	accepted := make([]domain.Paper, 0, len(resp.Results))
	var blank, unknown int
	for _, p := range resp.Results {
		if strings.TrimSpace(p.ID) == "" {
			blank++
			continue
		}
		if p.Source == "" {
			p.Source = c.SourceType()
		}
		if !domain.IsValidSourceType(p.Source) {
			logger.Warn().
				Str("record_id", p.ID).
				Str("record_source", string(p.Source)).
				Msg("delegate record with unknown source dropped")
			unknown++
			continue
		}
		accepted = append(accepted, p)
	}

	papers := dedup.Papers(accepted)
	if c.metrics != nil {
		label := string(c.SourceType())
		if blank > 0 {
			c.metrics.RecordRecordsDropped(label, "missing_id", blank)
		}
		if unknown > 0 {
			c.metrics.RecordRecordsDropped(label, "unknown_source", unknown)
		}
		if removed := len(accepted) - len(papers); removed > 0 {
			c.metrics.RecordDuplicates(label, removed)
		}
	}
	if len(papers) > maxResults {
		papers = papers[:maxResults]
	}
	for i := range papers {
		papers[i] = canonical(papers[i])
	}
	return papers, nil
}

func countBySource(papers []domain.Paper) map[domain.SourceType]int {
	counts := make(map[domain.SourceType]int, 2)
	for _, p := range papers {
		counts[p.Source]++
	}
	return counts
}

// canonical fills what the delegate may have left out, derives the URL
// from the id and source, and clears the UI-owned selection flag.
// The source must already be a known one.
func canonical(p domain.Paper) domain.Paper {
	if p.Source == "" {
		p.Source = domain.SourceTypePubMed
	}
	if strings.TrimSpace(p.Title) == "" {
		p.Title = domain.NoTitle
	}
	if strings.TrimSpace(p.Abstract) == "" {
		p.Abstract = domain.NoAbstract
	}
	if strings.TrimSpace(p.Journal) == "" {
		p.Journal = domain.NoJournal
	}
	if p.Authors == nil {
		p.Authors = []string{}
	}
	if p.PublicationYear == 0 {
		p.PublicationYear = domain.ParseYear(p.Year)
	}
	p.URL = domain.PaperURL(p.ID, p.Source)
	p.Selected = false
	return p
}
