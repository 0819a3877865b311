// Package servicenow is a minimal client for the ServiceNow Table API,
// covering the incident reads and creates the relay tools need.
package servicenow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AltairaLabs/incident-relay/internal/types"
)

const (
	tablePath       = "/api/now/table/"
	incidentTable   = "incident"
	maxErrorBodyLen = 512
	defaultTimeout  = 30 * time.Second
)

// ErrMissingCredentials is returned by NewClient when the instance URL,
// username or password is empty
var ErrMissingCredentials = errors.New("servicenow: instance URL, username and password are required")

// ErrEmptyQuery is returned when an incident lookup names neither a number nor a sys_id
var ErrEmptyQuery = errors.New("either incident_number or sys_id must be provided to get an incident")

// APIError is a non-2xx response from the Table API
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP Error: %d %s for %s %s: %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.Method, e.URL, e.Body)
}

// Client talks to one ServiceNow instance with basic auth
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout; zero disables it
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for instanceURL (e.g. https://dev1234.service-now.com)
func NewClient(instanceURL, username, password string, opts ...Option) (*Client, error) {
	instanceURL = strings.TrimRight(instanceURL, "/")
	if instanceURL == "" || username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if _, err := url.ParseRequestURI(instanceURL); err != nil {
		return nil, fmt.Errorf("servicenow: invalid instance URL %q: %w", instanceURL, err)
	}

	c := &Client{
		baseURL:    instanceURL + tablePath,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetIncident returns the first incident matching query, or an empty
// record when none matches
func (c *Client) GetIncident(ctx context.Context, query types.IncidentQuery) (types.Record, error) {
	if query.Empty() {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	if query.Number != "" {
		params.Set("number", query.Number)
	}
	if query.SysID != "" {
		params.Set("sys_id", query.SysID)
	}
	params.Set("sysparm_limit", "1")

	var resp struct {
		Result []types.Record `json:"result"`
	}
	if err := c.do(ctx, http.MethodGet, incidentTable, params, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Result) == 0 || resp.Result[0] == nil {
		return types.Record{}, nil
	}
	return resp.Result[0], nil
}

// CreateIncident posts fields as a new incident and returns the created record
func (c *Client) CreateIncident(ctx context.Context, fields types.Record) (types.Record, error) {
	var resp struct {
		Result types.Record `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, incidentTable, nil, fields, &resp); err != nil {
		return nil, err
	}

	if resp.Result == nil {
		return types.Record{}, nil
	}
	return resp.Result, nil
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, body, out any) error {
	endpoint := c.baseURL + table
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("servicenow request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "servicenow request",
		"method", method,
		"table", table,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &APIError{
			Method:     method,
			URL:        c.baseURL + table,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode servicenow response: %w", err)
	}
	return nil
}
