// Package httpretry wraps an HTTP client with bounded retries for the
// administrative API clients. Retries apply to transient server errors
// (429, 5xx) and network failures only; client errors return at once so
// the caller can attribute them.
package httpretry

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/ignite/support-toolkit/internal/pkg/logger"
)

// Doer executes HTTP requests. Both *http.Client and *Client satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy controls the retry schedule.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultPolicy is the schedule used when none is given: three retries,
// exponential backoff from 1s capped at 30s, full jitter.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Client is a Doer that retries transient failures.
type Client struct {
	inner  Doer
	policy Policy
}

// New wraps inner with the given policy. A nil inner gets a default
// http.Client with a 30s timeout.
func New(inner Doer, policy Policy) *Client {
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}
	if policy.MaxRetries <= 0 {
		policy = DefaultPolicy()
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	return &Client{inner: inner, policy: policy}
}

// Do executes req, retrying on retryable statuses and transport errors.
// Context cancellation stops retrying immediately. The final attempt's
// response is returned as-is so callers can inspect status and body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := req.Context().Err(); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}

		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("httpretry: resetting request body: %w", err)
				}
				req.Body = body
			}

			delay := c.backoff(attempt)
			logger.Debug("retrying request",
				"attempt", fmt.Sprintf("%d/%d", attempt, c.policy.MaxRetries),
				"method", req.Method,
				"host", req.URL.Host,
				"delay", delay.String())

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-req.Context().Done():
				timer.Stop()
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, req.Context().Err()
			}
		}

		resp, err := c.inner.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr = err
			if attempt == c.policy.MaxRetries {
				return nil, lastErr
			}
			continue
		}

		if !retryableStatus(resp.StatusCode) || attempt == c.policy.MaxRetries {
			return resp, nil
		}

		// Drain for connection reuse before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: retryable status %d", resp.StatusCode)
	}
}

// backoff returns the jittered delay before the given retry attempt.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.policy.BaseDelay
	for i := 1; i < attempt && d < c.policy.MaxDelay; i++ {
		d *= 2
	}
	if d > c.policy.MaxDelay {
		d = c.policy.MaxDelay
	}
	jittered := time.Duration(rand.Float64() * float64(d))
	if jittered < 100*time.Millisecond {
		jittered = 100 * time.Millisecond
	}
	return jittered
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
