package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = time.Second * 30
)

// ErrUpstreamUnavailable is returned by a BreakerClient for a 5xx response after it has been counted as a failure
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// BreakerClient stops sending requests after consecutive upstream failures
// and lets a single probe through once the open timeout elapses.
type BreakerClient struct {
	client HTTPClient
	cb     *gobreaker.CircuitBreaker[*http.Response]
}

type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	OnStateChange    func(name string, from, to gobreaker.State)
}

// NewBreakerClient wraps client with a circuit breaker
func NewBreakerClient(client HTTPClient, settings BreakerSettings) *BreakerClient {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}

	timeout := settings.OpenTimeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: settings.OnStateChange,
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerClient{client: client, cb: cb}
}

// Do executes the request through the circuit breaker.
// While the breaker is open the request is not sent and gobreaker.ErrOpenState is returned.
func (b *BreakerClient) Do(req *http.Request) (*http.Response, error) {
	return b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.client.Do(req)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
		}

		return resp, nil
	})
}

// State reports the breaker state for diagnostics
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}
