package pubmed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/literature-retrieval-service/internal/dedup"
	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/observability"
	"github.com/helixir/literature-retrieval-service/internal/papersources"
)

const (
	// DefaultBaseURL is the base URL for NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// DefaultSort orders esearch results by relevance.
	DefaultSort = "relevance"

	// MaxResultsLimit is the largest retmax esearch accepts.
	MaxResultsLimit = 10000

	// SourceName labels transport metrics and errors for NCBI calls.
	SourceName = "pubmed"
)

// ErrNoRecords is the cause of a FetchError when esearch matched ids but
// the fetch payload yielded no usable record for any of them.
var ErrNoRecords = errors.New("fetch payload held none of the requested records")

// Stage is a step of one retrieval call.
type Stage string

// Retrieval stages, in the order a successful call visits them.
const (
	StageIdle            Stage = "idle"
	StageSearching       Stage = "searching"
	StageFetchingDetails Stage = "fetching_details"
	StageParsing         Stage = "parsing"
	StageNormalizing     Stage = "normalizing"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// StageObserver is notified of every stage a retrieval call enters.
// It is called synchronously on the caller's goroutine.
type StageObserver func(ctx context.Context, stage Stage)

// Config holds the configuration for the PubMed client.
type Config struct {
	// BaseURL is the base URL for the E-utilities API.
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// APIKey is the NCBI API key. Optional.
	APIKey string

	// Tool and Email identify this application to NCBI. Optional.
	Tool  string
	Email string

	// Sort is the esearch sort order. Defaults to DefaultSort.
	Sort string

	// MaxResultsLimit caps the number of identifiers requested per call.
	// Defaults to MaxResultsLimit if zero.
	MaxResultsLimit int
}

// applyDefaults applies default values to the config.
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

// Client is the direct retrieval strategy: it drives esearch and efetch
// against NCBI and normalizes the result.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	metrics    *observability.Metrics
	logger     zerolog.Logger
	observer   StageObserver
}

// Compile-time check that Client implements Retriever.
var _ papersources.Retriever = (*Client)(nil)

// Option configures optional Client dependencies.
type Option func(*Client)

// WithLogger sets the logger used for stage transitions and parse warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithStageObserver attaches an observer notified on every stage transition.
func WithStageObserver(observer StageObserver) Option {
	return func(c *Client) { c.observer = observer }
}

// New creates a PubMed client. All requests go through httpClient, which
// should be shared by every caller that targets NCBI so that one rate limit
// applies. The metrics parameter may be nil.
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
	return papersources.StrategyDirect
}

// SourceType returns the source type identifier.
func (c *Client) SourceType() domain.SourceType {
	return domain.SourceTypePubMed
}

// SearchLiterature runs one retrieval: esearch, then (only when there are
// matches) a single batched efetch, then parsing and normalization.
//
// A query with no matches returns an empty, non-nil slice and a nil error.
// Failures return a nil slice and a *domain.ValidationError,
// *domain.SearchError or *domain.FetchError. Nothing is retried here.
func (c *Client) SearchLiterature(ctx context.Context, query string, maxResults int) ([]domain.Paper, error) {
	query, err := papersources.ValidateRequest(query, maxResults)
	if err != nil {
		return nil, err
	}
	if maxResults > c.config.MaxResultsLimit {
		maxResults = c.config.MaxResultsLimit
	}

	logger := observability.WithRequestContext(ctx,
		observability.WithSearchContext(c.logger, query, papersources.StrategyDirect))
	started := time.Now()

	c.enter(ctx, logger, StageIdle)
	if c.metrics != nil {
		c.metrics.RecordRetrievalStarted(papersources.StrategyDirect)
	}

	c.enter(ctx, logger, StageSearching)
	ids, err := c.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, c.fail(ctx, logger, StageSearching, started, err)
	}
	if len(ids) == 0 {
		c.complete(ctx, logger, started, 0)
		return []domain.Paper{}, nil
	}

	c.enter(ctx, logger, StageFetchingDetails)
	payload, err := c.efetch(ctx, ids)
	if err != nil {
		return nil, c.fail(ctx, logger, StageFetchingDetails, started, err)
	}

	c.enter(ctx, logger, StageParsing)
	records, warnings, err := ParseArticleSet(payload)
	c.reportWarnings(logger, warnings)
	if err != nil {
		return nil, c.fail(ctx, logger, StageParsing, started, domain.NewFetchError(ids, err))
	}

	c.enter(ctx, logger, StageNormalizing)
	ordered := dedup.OrderBy(ids, records)
	papers := dedup.Normalize(ordered, domain.SourceTypePubMed)
	duplicates := len(ordered) - len(papers)
	if len(papers) == 0 {
		return nil, c.fail(ctx, logger, StageNormalizing, started, domain.NewFetchError(ids, ErrNoRecords))
	}
	if len(papers) > maxResults {
		papers = papers[:maxResults]
	}

	if missing := missingIDs(ids, papers); len(missing) > 0 {
		logger.Warn().Strs("pmids", missing).Msg("requested records absent from fetch payload")
	}
	if c.metrics != nil {
		if duplicates > 0 {
			c.metrics.RecordDuplicates(string(domain.SourceTypePubMed), duplicates)
		}
		c.metrics.RecordRecordsEmitted(string(domain.SourceTypePubMed), len(papers))
	}

	c.complete(ctx, logger, started, len(papers))
	return papers, nil
}

func (c *Client) enter(ctx context.Context, logger zerolog.Logger, stage Stage) {
	logger.Debug().Str("stage", string(stage)).Msg("retrieval stage")
	if c.observer != nil {
		c.observer(ctx, stage)
	}
}

func (c *Client) complete(ctx context.Context, logger zerolog.Logger, started time.Time, count int) {
	c.enter(ctx, logger, StageDone)
	elapsed := time.Since(started)
	if c.metrics != nil {
		c.metrics.RecordRetrievalCompleted(papersources.StrategyDirect, count, elapsed.Seconds())
	}
	logger.Info().
		Int("count", count).
		Dur("duration", elapsed).
		Msg("retrieval completed")
}

func (c *Client) fail(ctx context.Context, logger zerolog.Logger, stage Stage, started time.Time, err error) error {
	c.enter(ctx, logger, StageFailed)
	elapsed := time.Since(started)
	if c.metrics != nil {
		c.metrics.RecordRetrievalFailed(papersources.StrategyDirect, string(stage), elapsed.Seconds())
	}
	logger.Error().
		Err(err).
		Str("stage", string(stage)).
		Dur("duration", elapsed).
		Msg("retrieval failed")
	return err
}

func (c *Client) reportWarnings(logger zerolog.Logger, warnings []domain.ParseWarning) {
	dropped := 0
	for _, w := range warnings {
		logger.Warn().
			Str("record_id", w.RecordID).
			Str("field", w.Field).
			Msg(w.Message)
		if c.metrics != nil {
			c.metrics.RecordParseWarning(w.Field)
		}
		if w.Field == FieldPMID {
			dropped++
		}
	}
	if dropped > 0 && c.metrics != nil {
		c.metrics.RecordRecordsDropped(string(domain.SourceTypePubMed), "missing_id", dropped)
	}
}

// missingIDs lists requested ids that produced no record.
func missingIDs(ids []string, papers []domain.Paper) []string {
	have := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		have[p.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
