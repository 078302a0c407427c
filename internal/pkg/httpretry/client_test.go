package httpretry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDoer answers each call with the next scripted response or error.
type scriptedDoer struct {
	calls     int
	responses []*http.Response
	errs      []error
}

func (s *scriptedDoer) Do(*http.Request) (*http.Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func resp(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}
}

func fastPolicy() Policy {
	return Policy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)
	return req
}

func TestDoSuccessFirstTry(t *testing.T) {
	inner := &scriptedDoer{responses: []*http.Response{resp(200)}}
	c := New(inner, fastPolicy())

	r, err := c.Do(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, 1, inner.calls)
}

func TestDoRetriesOn503ThenSucceeds(t *testing.T) {
	inner := &scriptedDoer{responses: []*http.Response{resp(503), resp(200)}}
	c := New(inner, fastPolicy())

	r, err := c.Do(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, 2, inner.calls)
}

func TestDoReturnsFinalAttemptResponse(t *testing.T) {
	inner := &scriptedDoer{responses: []*http.Response{resp(502), resp(502), resp(502)}}
	c := New(inner, fastPolicy())

	r, err := c.Do(newRequest(t))
	require.NoError(t, err, "the final response is handed back for inspection")
	assert.Equal(t, 502, r.StatusCode)
	assert.Equal(t, 3, inner.calls, "initial try plus MaxRetries")
}

func TestDoNoRetryOnClientError(t *testing.T) {
	inner := &scriptedDoer{responses: []*http.Response{resp(404)}}
	c := New(inner, fastPolicy())

	r, err := c.Do(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 404, r.StatusCode)
	assert.Equal(t, 1, inner.calls)
}

func TestDoRetriesTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	inner := &scriptedDoer{
		errs:      []error{boom, nil},
		responses: []*http.Response{nil, resp(200)},
	}
	c := New(inner, fastPolicy())

	r, err := c.Do(newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 200, r.StatusCode)
}

func TestDoExhaustedTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	inner := &scriptedDoer{errs: []error{boom, boom, boom}}
	c := New(inner, fastPolicy())

	_, err := c.Do(newRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.test/", nil)
	require.NoError(t, err)

	inner := &scriptedDoer{responses: []*http.Response{resp(200)}}
	c := New(inner, fastPolicy())

	_, err = c.Do(req)
	require.Error(t, err)
	assert.Zero(t, inner.calls)
}

func TestRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, retryableStatus(code), code)
	}
	for _, code := range []int{200, 204, 301, 400, 401, 403, 404} {
		assert.False(t, retryableStatus(code), code)
	}
}
