package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-retrieval-service/internal/dedup"
	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/observability"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the default arXiv API base URL.
	DefaultBaseURL = "https://export.arxiv.org/api"

	// DefaultSort orders results by relevance.
	DefaultSort = "relevance"

	// MaxResultsLimit is the largest page the query API serves.
	MaxResultsLimit = 2000

	// SourceName labels transport metrics for arXiv calls.
	SourceName = "arxiv"
)

// arxivIDRegex extracts the arXiv ID from the full URL.
// Matches patterns like "http://arxiv.org/abs/2301.12345v1" or "http://arxiv.org/abs/hep-th/9901001v1".
var arxivIDRegex = regexp.MustCompile(`arxiv\.org/abs/(.+?)(?:v\d+)?$`)

// errorEntryMarker identifies the entry arXiv returns in place of results
// when it rejects a query.
const errorEntryMarker = "arxiv.org/api/errors"

// ErrRejected is returned when arXiv answers with an error entry.
var ErrRejected = errors.New("arxiv rejected the query")

// Config holds configuration for the arXiv client.
type Config struct {
	// BaseURL is the arXiv API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Sort is the sortBy parameter (relevance, lastUpdatedDate,
	// submittedDate). Defaults to DefaultSort.
	Sort string

	// MaxResultsLimit caps the page size requested per call.
	MaxResultsLimit int
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Sort == "" {
		c.Sort = DefaultSort
	}
	if c.MaxResultsLimit <= 0 || c.MaxResultsLimit > MaxResultsLimit {
		c.MaxResultsLimit = MaxResultsLimit
	}
}

// Client is the arXiv retrieval strategy.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Ensure Client implements the Retriever interface.
var _ papersources.Retriever = (*Client)(nil)

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates an arXiv client. arXiv asks clients to space calls by three
// seconds; that spacing belongs to httpClient. The metrics parameter may be nil.
func New(cfg Config, httpClient *papersources.HTTPClient, metrics *observability.Metrics, opts ...Option) *Client {
	cfg.applyDefaults()
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
	return papersources.StrategyArXiv
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypeArXiv
}

// SearchLiterature queries arXiv and returns the entries in feed order,
// deduplicated by arXiv ID (version suffix removed).
// Every failure after validation is returned as a *domain.SearchError.
func (c *Client) SearchLiterature(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	query, err := papersources.ValidateRequest(query, maxResults)
	if err != nil {
		return nil, err
	}
	if maxResults > c.config.MaxResultsLimit {
		maxResults = c.config.MaxResultsLimit
	}

	logger := observability.WithRequestContext(ctx,
		observability.WithSearchContext(c.logger, query, papersources.StrategyArXiv))
	started := time.Now()
	if c.metrics != nil {
		c.metrics.RecordRetrievalStarted(papersources.StrategyArXiv)
	}

	papers, err := c.search(ctx, query, maxResults)
	elapsed := time.Since(started)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRetrievalFailed(papersources.StrategyArXiv, "searching", elapsed.Seconds())
		}
		logger.Error().Err(err).Dur("duration", elapsed).Msg("arxiv retrieval failed")
		return nil, domain.NewSearchError(query, err)
	}

	if c.metrics != nil {
		c.metrics.RecordRecordsEmitted(string(domain.SourceTypeArXiv), len(papers))
		c.metrics.RecordRetrievalCompleted(papersources.StrategyArXiv, len(papers), elapsed.Seconds())
	}
	logger.Info().Int("count", len(papers)).Dur("duration", elapsed).Msg("arxiv retrieval completed")
	return papers, nil
}

func (c *Client) search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	searchURL, err := c.buildSearchURL(query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("building search URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	body, err := c.httpClient.Send(req)
	if err != nil {
		return nil, err
	}

	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]domain.RecordFields, 0, len(feed.Entries))
	dropped := 0
	for i := range feed.Entries {
		entry := &feed.Entries[i]
		if strings.Contains(entry.ID, errorEntryMarker) {
			return nil, fmt.Errorf("%w: %s", ErrRejected, normalizeWhitespace(entry.Summary))
		}
		fields, ok := entryFields(entry)
		if !ok {
			dropped++
			continue
		}
		records = append(records, fields)
	}

	papers := dedup.Normalize(records, domain.SourceTypeArXiv)
	if c.metrics != nil {
		if dropped > 0 {
			c.metrics.RecordRecordsDropped(string(domain.SourceTypeArXiv), "missing_id", dropped)
		}
		if duplicates := len(records) - len(papers); duplicates > 0 {
			c.metrics.RecordDuplicates(string(domain.SourceTypeArXiv), duplicates)
		}
	}
	if len(papers) > maxResults {
		papers = papers[:maxResults]
	}
	return papers, nil
}

// buildSearchURL constructs the arXiv query API URL.
func (c *Client) buildSearchURL(query string, maxResults int) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/query"

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", c.config.Sort)
	params.Set("sortOrder", "descending")

	baseURL.RawQuery = params.Encode()
	return baseURL.String(), nil
}

// entryFields converts an Atom entry to record fields. Entries whose id
// does not contain an arXiv identifier are rejected.
func entryFields(entry *Entry) (domain.RecordFields, bool) {
	arxivID := extractArXivID(strings.TrimSpace(entry.ID))
	if arxivID == "" {
		return domain.RecordFields{}, false
	}

	authors := make([]string, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		if name := formatAuthor(a.Name); name != "" {
			authors = append(authors, name)
		}
	}

	var year string
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Published)); err == nil {
		year = strconv.Itoa(t.Year())
	}

	return domain.RecordFields{
		ID:       arxivID,
		Title:    normalizeWhitespace(entry.Title),
		Abstract: normalizeWhitespace(entry.Summary),
		Authors:  authors,
		Year:     year,
		Journal:  normalizeWhitespace(entry.JournalRef),
		DOI:      strings.TrimSpace(entry.DOI),
	}, true
}

// extractArXivID extracts the arXiv ID from the full entry URL.
// Input: "http://arxiv.org/abs/2301.12345v1" -> "2301.12345"
func extractArXivID(entryURL string) string {
	matches := arxivIDRegex.FindStringSubmatch(entryURL)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}

// normalizeWhitespace trims and collapses runs of whitespace, including the
// newlines arXiv wraps titles and abstracts with.
// surnameParticles stay with the family name ("Ludwig van Beethoven" is
// "van Beethoven L").
var surnameParticles = map[string]bool{
	"da": true, "de": true, "del": true, "della": true, "der": true, "di": true,
	"dos": true, "du": true, "la": true, "le": true, "van": true, "von": true,
}

// formatAuthor turns an Atom display name ("John A. Smith") into the
// "Surname Initials" form PubMed records use ("Smith JA"). Hyphenated given
// names give one initial per part. A single-word name is returned as is.
func formatAuthor(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return normalizeWhitespace(name)
	}

	split := len(fields) - 1
	for split > 1 && surnameParticles[strings.ToLower(fields[split-1])] {
		split--
	}

	var initials strings.Builder
	for _, given := range fields[:split] {
		for _, part := range strings.Split(given, "-") {
			for _, r := range part {
				if unicode.IsLetter(r) {
					initials.WriteRune(unicode.ToUpper(r))
					break
				}
			}
		}
	}

	surname := strings.Join(fields[split:], " ")
	if initials.Len() == 0 {
		return surname
	}
	return surname + " " + initials.String()
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
