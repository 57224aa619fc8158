package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// esearch resolves query to at most maxResults PMIDs in relevance order.
// Zero matches, including a PhraseNotFound report, yield an empty slice.
// Every failure is returned as a *domain.SearchError.
func (c *Client) esearch(ctx context.Context, query string, maxResults int) ([]string, error) {
	u, err := url.Parse(c.config.BaseURL + "/esearch.fcgi")
	if err != nil {
		return nil, domain.NewSearchError(query, fmt.Errorf("invalid base URL: %w", err))
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmode", "xml")
	q.Set("retmax", strconv.Itoa(maxResults))
	q.Set("sort", c.config.Sort)
	c.identify(q)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.NewSearchError(query, fmt.Errorf("failed to create request: %w", err))
	}

	body, err := c.httpClient.Send(req)
	if err != nil {
		return nil, domain.NewSearchError(query, err)
	}

	var result ESearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, domain.NewSearchError(query, fmt.Errorf("failed to parse esearch response: %w", err))
	}
	if msg := strings.TrimSpace(result.Error); msg != "" {
		return nil, domain.NewSearchError(query, fmt.Errorf("esearch rejected query: %s", msg))
	}

	return uniqueIDs(result.IDList.IDs, maxResults), nil
}

// uniqueIDs trims ids, drops blanks and repeats (first position wins),
// and caps the result at limit entries.
func uniqueIDs(ids []string, limit int) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

// identify adds the optional NCBI identification parameters.
func (c *Client) identify(q url.Values) {
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	if c.config.Tool != "" {
		q.Set("tool", c.config.Tool)
	}
	if c.config.Email != "" {
		q.Set("email", c.config.Email)
	}
}
