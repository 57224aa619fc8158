package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/helixir/literature-retrieval-service/internal/domain"
)

// efetch retrieves the full records for ids in one batched request and
// returns the raw PubmedArticleSet payload. The batch succeeds or fails as a
// whole; failures are returned as a *domain.FetchError.
func (c *Client) efetch(ctx context.Context, ids []string) ([]byte, error) {
	u, err := url.Parse(c.config.BaseURL + "/efetch.fcgi")
	if err != nil {
		return nil, domain.NewFetchError(ids, fmt.Errorf("invalid base URL: %w", err))
	}

	q := u.Query()
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")
	q.Set("rettype", "abstract")
	c.identify(q)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, domain.NewFetchError(ids, fmt.Errorf("failed to create request: %w", err))
	}

	body, err := c.httpClient.Send(req)
	if err != nil {
		return nil, domain.NewFetchError(ids, err)
	}
	return body, nil
}
