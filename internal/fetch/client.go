// Package fetch downloads remote wine-list CSV exports. It wraps
// net/http with retry and exponential backoff for transient failures,
// keeps the transport and sleep function injectable for tests, and
// respects context cancellation during requests and backoff waits.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRemoteFetch marks a terminal download failure (network error or
// non-2xx response after retries). No partial writes can have occurred
// since fetching precedes all persistence.
var ErrRemoteFetch = errors.New("remote fetch failed")

// Config configures the Client. Zero durations get defaults: Timeout
// 30s, InitialBackoff 200ms, MaxBackoff 5s.
type Config struct {
	// Timeout is the per-request timeout at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial
	// request; 0 means only the initial attempt.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each
	// subsequent retry doubles it up to MaxBackoff.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential backoff duration.
	MaxBackoff time.Duration

	// Transport is an optional custom RoundTripper for tests.
	Transport http.RoundTripper
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from Config, applying defaults for
// zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		sleep:          time.Sleep,
	}
}

// Get performs an HTTP GET with retry on transient errors (network
// failures, 5xx, 429). The returned response has a non-nil Body the
// caller must close; a non-retryable status is returned as-is for the
// caller to judge.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	if url == "" {
		return nil, fmt.Errorf("fetch: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch: build request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			if !isRetryableStatus(resp.StatusCode) {
				return resp, nil
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("fetch: retryable status %d from %s", resp.StatusCode, url)
		}

		if attempt+1 >= attempts {
			return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, lastErr)
		}

		if err := c.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrRemoteFetch, lastErr)
}

// CSV downloads the body at url, requiring a 2xx response. A non-2xx
// final status or network failure surfaces as ErrRemoteFetch.
func (c *Client) CSV(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: %s: status %d: %w", url, resp.StatusCode, ErrRemoteFetch)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return body, nil
}

// backoff waits with exponential backoff before the next retry,
// aborting early when ctx is canceled.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	d := backoffDuration(c.initialBackoff, attempt, c.maxBackoff)
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	go func() {
		c.sleep(d)
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// isRetryableStatus reports whether the status should trigger a retry.
// Conservative: 5xx and 429 are transient, everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		if initial > max {
			return max
		}
		return initial
	}
	d := initial << attempt
	if d > max {
		return max
	}
	return d
}
