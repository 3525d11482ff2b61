package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/exp/rand"
)

const (
	DefaultMaxRetries  = 3
	DefaultBaseBackoff = time.Millisecond * 500
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries idempotent requests that failed with a transport error,
// a 429 or a 5xx status.
type RetryClient struct {
	client      HTTPClient
	baseBackoff time.Duration
	maxRetries  int
	sleep       func(ctx context.Context, d time.Duration) error
}

// ClientOption is a function that can be used to configure a RetryClient
type ClientOption func(*RetryClient)

// NewRetryClient creates a new RetryClient. The client can be used concurrently.
func NewRetryClient(opts ...ClientOption) *RetryClient {
	c := &RetryClient{
		client:      http.DefaultClient,
		maxRetries:  DefaultMaxRetries,
		baseBackoff: DefaultBaseBackoff,
		sleep:       sleepCtx,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithMaxRetries sets the maximum number of attempts for the client
func WithMaxRetries(maxRetries int) ClientOption {
	return func(c *RetryClient) {
		c.maxRetries = maxRetries
	}
}

// WithBaseBackoff sets the base backoff time for the client
func WithBaseBackoff(baseBackoff time.Duration) ClientOption {
	return func(c *RetryClient) {
		c.baseBackoff = baseBackoff
	}
}

// WithHTTPClient sets the http client to use for the client
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *RetryClient) {
		c.client = client
	}
}

// Do executes the request, retrying retryable failures with exponential backoff.
// If the maximum number of attempts is reached on a retryable status, the last response is returned alongside an error.
// Waiting between attempts stops early when the request context is done.
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	if !idempotent(req) {
		return c.client.Do(req)
	}

	var resp *http.Response
	var err error

	attempts := max(c.maxRetries, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err = c.client.Do(req)
		if err != nil {
			if !retryableError(req.Context(), err) || attempt == attempts-1 {
				return nil, err
			}

			if werr := c.sleep(req.Context(), c.backoff(attempt)); werr != nil {
				return nil, err
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		if attempt == attempts-1 {
			break
		}

		wait := c.getRetryAfter(resp, attempt)
		resp.Body.Close()

		if werr := c.sleep(req.Context(), wait); werr != nil {
			return nil, werr
		}
	}

	return resp, fmt.Errorf("request failed with status %d after %d attempts", resp.StatusCode, attempts)
}

func idempotent(req *http.Request) bool {
	switch req.Method {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func retryableError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// getRetryAfter calculates the appropriate retry delay.
// A Retry-After header, in seconds or as an http date, wins over the backoff but is capped by maxWait.
func (c *RetryClient) getRetryAfter(resp *http.Response, attempt int) time.Duration {
	retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	if !ok {
		return c.backoff(attempt)
	}

	if limit := c.maxWait(); limit > 0 && retryAfter > limit {
		return limit
	}
	return retryAfter
}

// maxWait bounds how long a server can ask the client to wait between attempts
func (c *RetryClient) maxWait() time.Duration {
	return time.Duration(max(c.maxRetries, 1)) * c.baseBackoff * 4
}

func parseRetryAfter(header string, now time.Time) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second, true
	}

	at, err := http.ParseTime(header)
	if err != nil {
		return 0, false
	}
	return max(at.Sub(now), 0), true
}

func (c *RetryClient) backoff(attempt int) time.Duration {
	// 2^n backoff
	expBackoff := time.Duration(1<<attempt) * c.baseBackoff
	if c.baseBackoff <= 0 {
		return expBackoff
	}

	// staggers the backoff to avoid a thundering herd
	jitter := time.Duration(rand.Int63n(int64(c.baseBackoff)))

	return expBackoff + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
