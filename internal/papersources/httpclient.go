package papersources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/helixir/literature-retrieval-service/internal/domain"
	"github.com/helixir/literature-retrieval-service/internal/observability"
)

// maxResponseSize caps how much of a response body is read into memory.
const maxResponseSize = 10 << 20

// HTTPClientConfig configures the HTTP client.
type HTTPClientConfig struct {
	// Name labels metrics and errors (e.g. "pubmed").
	Name string

	// Timeout is the request timeout for HTTP operations.
	Timeout time.Duration

	// MinInterval is the minimum spacing between consecutive requests.
	// Zero selects DefaultMinInterval; a negative value disables spacing.
	MinInterval time.Duration

	// MaxRetries is the number of extra attempts on 429 and 5xx responses.
	// Zero disables retries.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Metrics receives per-request observations. Optional.
	Metrics *observability.Metrics
}

// HTTPClient is the rate-limited transport shared by every stage that talks
// to one external service. All requests made through one instance are
// spaced by MinInterval, regardless of which goroutine issues them.
// It is safe for concurrent use.
type HTTPClient struct {
	client      *http.Client
	rateLimiter *RateLimiter
	config      HTTPClientConfig
}

// NewHTTPClient creates a new rate-limited HTTP client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	if cfg.Name == "" {
		cfg.Name = "external"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Helixir-LiteratureRetrieval/1.0"
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		rateLimiter: NewRateLimiter(cfg.MinInterval),
		config:      cfg,
	}
}

// Send executes req and returns the response body. Any network failure,
// timeout or non-2xx status is returned as a *domain.TransportError.
func (c *HTTPClient) Send(req *http.Request) ([]byte, error) {
	endpoint := endpointName(req)
	start := time.Now()

	resp, err := c.Do(req)
	if err != nil {
		c.recordFailure(endpoint, "network")
		return nil, domain.NewTransportError(endpoint, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.recordFailure(endpoint, "read")
		return nil, domain.NewTransportError(endpoint, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure(endpoint, "status_"+strconv.Itoa(resp.StatusCode))
		return nil, domain.NewTransportError(endpoint, resp.StatusCode, string(body), nil)
	}

	if c.config.Metrics != nil {
		c.config.Metrics.RecordTransportRequest(c.config.Name, endpoint, time.Since(start).Seconds())
	}
	return body, nil
}

// Do executes an HTTP request with rate limiting and optional retries.
// It waits for the rate limiter before each attempt, sets the User-Agent
// header, and when MaxRetries > 0 retries on 429 (honoring Retry-After)
// and on 5xx responses.
//
// The request body is not preserved across retries; callers must provide
// requests with GetBody set if the body needs to be resent on retry.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		waited, err := c.rateLimiter.Wait(req.Context())
		if err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
		if c.config.Metrics != nil {
			c.config.Metrics.RecordRateLimitWait(c.config.Name, waited.Seconds())
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt < c.config.MaxRetries {
				if err := c.waitForRetry(req.Context(), c.config.RetryDelay); err != nil {
					return nil, err
				}
				if err := c.resetRequestBody(req); err != nil {
					return nil, fmt.Errorf("cannot retry request: %w", err)
				}
				continue
			}
			return nil, lastErr
		}

		if attempt < c.config.MaxRetries && c.shouldRetry(resp.StatusCode) {
			retryDelay := c.getRetryDelay(resp)

			if resp.Body != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}

			if err := c.waitForRetry(req.Context(), retryDelay); err != nil {
				return nil, err
			}
			if err := c.resetRequestBody(req); err != nil {
				return nil, fmt.Errorf("cannot retry request: %w", err)
			}
			continue
		}

		// Success, non-retryable status, or retries exhausted: the caller
		// inspects the status code.
		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("unexpected error: no response received")
}

// MinInterval returns the spacing enforced between requests.
func (c *HTTPClient) MinInterval() time.Duration {
	return c.rateLimiter.MinInterval()
}

// shouldRetry returns true if the status code indicates we should retry.
func (c *HTTPClient) shouldRetry(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500 && statusCode < 600
}

// getRetryDelay respects the Retry-After header if present, otherwise uses
// the configured retry delay.
func (c *HTTPClient) getRetryDelay(resp *http.Response) time.Duration {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return c.config.RetryDelay
	}

	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return c.config.RetryDelay
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(t); delay > 0 {
			return delay
		}
	}

	return c.config.RetryDelay
}

// waitForRetry waits for the specified duration, respecting context cancellation.
func (c *HTTPClient) waitForRetry(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// resetRequestBody resets the request body for retry if possible.
func (c *HTTPClient) resetRequestBody(req *http.Request) error {
	if req.Body == nil || req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to get request body for retry: %w", err)
	}
	req.Body = body
	return nil
}

func (c *HTTPClient) recordFailure(endpoint, errorType string) {
	if c.config.Metrics != nil {
		c.config.Metrics.RecordTransportFailure(c.config.Name, endpoint, errorType)
	}
}

// endpointName reduces a request URL to its last path segment
// ("esearch.fcgi", "search") for labels and error messages.
func endpointName(req *http.Request) string {
	if req.URL == nil {
		return "unknown"
	}
	name := path.Base(req.URL.Path)
	if name == "." || name == "/" || name == "" {
		return req.URL.Host
	}
	return name
}
