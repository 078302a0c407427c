// Package sendgrid is a minimal client for the SendGrid suppression
// API: per-address membership reads, paginated list reads, and
// idempotent per-address deletes.
package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/httpretry"
)

const (
	baseURLUS = "https://api.sendgrid.com"
	baseURLEU = "https://api.eu.sendgrid.com"

	defaultPageLimit = 500
	defaultMaxPages  = 500
)

// BaseURLForRegion maps an account's region to its API base URL.
func BaseURLForRegion(r config.Region) string {
	if r == config.RegionEU {
		return baseURLEU
	}
	return baseURLUS
}

// ErrScanTruncated reports that a full-list read stopped at the page
// cap, so the returned entries are a prefix of the list, not all of it.
var ErrScanTruncated = errors.New("list scan stopped at page cap")

// APIError is a non-2xx response from the suppression API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuth reports whether the error means the account credential was
// rejected (401) or lacks the needed scope (403).
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Client is a suppression API client bound to one account's credential.
//
// It deliberately uses a plain HTTP client with no retries: the
// reconciliation workflows are operator-paced and every call must be
// attributable to exactly one outcome.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.Doer

	pageLimit int
	maxPages  int
}

// NewClient creates a suppression client for one account.
func NewClient(apiKey string, region config.Region, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    BaseURLForRegion(region),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		pageLimit:  defaultPageLimit,
		maxPages:   defaultMaxPages,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(d httpretry.Doer) { c.httpClient = d }

// SetBaseURL points the client at a non-production endpoint, e.g. the
// local stub.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// SetPaging overrides the page size and page cap for list scans.
func (c *Client) SetPaging(limit, maxPages int) {
	if limit > 0 {
		c.pageLimit = limit
	}
	if maxPages > 0 {
		c.maxPages = maxPages
	}
}

// doRequest performs an authenticated request and returns the raw body.
// A non-2xx status other than the allowed set becomes an *APIError.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, okStatuses ...int) (int, []byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	for _, ok := range okStatuses {
		if resp.StatusCode == ok {
			return resp.StatusCode, body, nil
		}
	}
	return resp.StatusCode, body, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// GetSuppression checks whether email is on the given list.
// Returns (nil, nil) when the address is not suppressed there.
//
// A 200 does not always mean present: the API answers empty arrays and
// empty objects for absent addresses on some lists, so the body has to
// carry actual data to count.
func (c *Client) GetSuppression(ctx context.Context, kind ListKind, email string) (*Entry, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, kind.Path()+"/"+url.PathEscape(email), nil,
		http.StatusOK, http.StatusNotFound)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", kind, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}

	entry, present := decodeMembership(body)
	if !present {
		return nil, nil
	}
	if entry.Addr() == "" {
		entry.Email = email
	}
	return entry, nil
}

// decodeMembership interprets a 200 membership body. The lists answer
// either a JSON array of entries or a single object.
func decodeMembership(body []byte) (*Entry, bool) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "[]" || trimmed == "{}" || trimmed == "null" {
		return nil, false
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil || len(entries) == 0 {
			return nil, false
		}
		return &entries[0], true
	}

	// Object form: treat an all-empty object as absent, mirroring the
	// list-specific quirks of the API.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}
	meaningful := false
	for _, v := range raw {
		s := strings.TrimSpace(string(v))
		if s != "" && s != "null" && s != `""` && s != "0" && s != "[]" && s != "{}" && s != "false" {
			meaningful = true
			break
		}
	}
	if !meaningful {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// ListSuppressions fetches one page of a suppression list.
// The lists answer either a bare array or {"result": [...]}.
func (c *Client) ListSuppressions(ctx context.Context, kind ListKind, limit, offset int) ([]Entry, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	_, body, err := c.doRequest(ctx, http.MethodGet, kind.Path(), params, http.StatusOK)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", kind, err)
		}
		return entries, nil
	}

	var wrapped struct {
		Result []Entry `json:"result"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", kind, err)
	}
	return wrapped.Result, nil
}

// FetchAllSuppressions pages through the entire list. This is the slow
// path behind domain searches; runtime is proportional to the total
// list size, not the number of targets.
//
// If the page cap stops the scan before the list is exhausted, the
// entries read so far are returned together with ErrScanTruncated so
// callers can surface the incomplete coverage.
func (c *Client) FetchAllSuppressions(ctx context.Context, kind ListKind) ([]Entry, error) {
	var all []Entry
	offset := 0

	for page := 0; page < c.maxPages; page++ {
		batch, err := c.ListSuppressions(ctx, kind, c.pageLimit, offset)
		if err != nil {
			return all, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageLimit {
			return all, nil
		}
		offset += c.pageLimit
	}
	return all, fmt.Errorf("%s: %w", kind, ErrScanTruncated)
}

// DeleteSuppression removes email from the given list. Deleting an
// address that is not on the list succeeds: the desired end state
// (address not suppressed) already holds.
func (c *Client) DeleteSuppression(ctx context.Context, kind ListKind, email string) error {
	_, _, err := c.doRequest(ctx, http.MethodDelete, kind.Path()+"/"+url.PathEscape(email), nil,
		http.StatusNoContent, http.StatusNotFound, http.StatusOK)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", kind, err)
	}
	return nil
}
