// Package scim talks to the identity provisioning API. It covers the
// one workflow support actually runs: look a user up by email and
// delete them from the authentication domain.
package scim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/support-toolkit/internal/pkg/httpretry"
)

const defaultBaseURL = "https://scim-provisioning.service.newrelic.com/scim/v2"

// User is the subset of a SCIM user record the tools need.
type User struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Active   bool   `json:"active"`
}

// Client issues SCIM requests for one authentication domain.
type Client struct {
	baseURL    string
	token      string
	httpClient httpretry.Doer
}

// NewClient creates a SCIM client with the given bearer token.
func NewClient(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: httpretry.New(&http.Client{Timeout: timeout}, httpretry.DefaultPolicy()),
	}
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(d httpretry.Doer) { c.httpClient = d }

func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/scim+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// FindUserByEmail resolves an email to its SCIM user record, or nil
// when no user carries that userName.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	query := url.Values{}
	query.Set("filter", fmt.Sprintf("userName eq %q", email))

	resp, err := c.do(ctx, http.MethodGet, "/Users", query)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		TotalResults int    `json:"totalResults"`
		Resources    []User `json:"Resources"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Resources) == 0 {
		return nil, nil
	}
	return &parsed.Resources[0], nil
}

// DeleteUser removes the user with the given SCIM ID. The API answers
// 204 on success; anything else is an error.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/Users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
