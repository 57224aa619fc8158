package papersources

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// Strategy names accepted by configuration.
const (
	StrategyDirect = "direct"
	StrategyRemote = "remote"
	StrategyArXiv  = "arxiv"
)

// MaxQueryLength bounds the query text accepted by every retriever.
const MaxQueryLength = 1000

// Retriever turns a free-text research query into an ordered, deduplicated
// list of canonical records.
//
// A nil error with an empty slice means the query matched nothing. Any
// failure is reported as a typed error (*domain.SearchError,
// *domain.FetchError or *domain.ValidationError) with a nil slice.
type Retriever interface {
	// SearchLiterature runs one retrieval. The context bounds every external
	// call made on behalf of this invocation.
	SearchLiterature(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)

	// Name returns the strategy name this retriever is registered under.
	Name() string

	// SourceType returns the source tag attached to the records it emits.
	SourceType() domain.SourceType
}

// ValidateRequest checks the inputs shared by all retrievers and returns
// the trimmed query.
func ValidateRequest(query string, maxResults int) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.NewValidationError("query", "must not be empty")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return "", domain.NewValidationError("query", "is too long")
	}
	if maxResults <= 0 {
		return "", domain.NewValidationError("max_results", "must be positive")
	}
	return query, nil
}
