// Package nerdgraph is a small GraphQL-over-HTTP client for the
// platform's administrative API.
package nerdgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/support-toolkit/internal/config"
	"github.com/ignite/support-toolkit/internal/pkg/httpretry"
)

const (
	endpointUS = "https://api.newrelic.com/graphql"
	endpointEU = "https://api.eu.newrelic.com/graphql"
)

// EndpointForRegion maps a region to its GraphQL endpoint.
func EndpointForRegion(r config.Region) string {
	if r == config.RegionEU {
		return endpointEU
	}
	return endpointUS
}

// GraphQLError is one entry of a response's errors array.
type GraphQLError struct {
	Message string `json:"message"`
}

// Errors is the non-empty errors array of a GraphQL response.
type Errors []GraphQLError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ge := range e {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// Client executes GraphQL operations against one regional endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient httpretry.Doer
}

// NewClient creates a client for the given credential and region.
// Admin mutations tolerate retries (deletes are idempotent), so the
// retrying transport is used here.
func NewClient(apiKey string, region config.Region, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   EndpointForRegion(region),
		apiKey:     apiKey,
		httpClient: httpretry.New(&http.Client{Timeout: timeout}, httpretry.DefaultPolicy()),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(d httpretry.Doer) { c.httpClient = d }

// SetEndpoint overrides the GraphQL endpoint (useful for testing).
func (c *Client) SetEndpoint(url string) { c.endpoint = url }

type request struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// Execute runs a query or mutation and unmarshals the data field into
// out (which may be nil). A populated errors array becomes the
// returned error even on HTTP 200.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Errors) > 0 {
		return parsed.Errors
	}
	if out != nil && len(parsed.Data) > 0 {
		if err := json.Unmarshal(parsed.Data, out); err != nil {
			return fmt.Errorf("parsing data: %w", err)
		}
	}
	return nil
}
