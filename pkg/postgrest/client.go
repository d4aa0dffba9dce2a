// Package postgrest is a minimal client for the PostgREST dialect served by hosted Postgres providers.
package postgrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
)

const (
	restPath = "/rest/v1/"

	// CodeUniqueViolation is the Postgres SQLSTATE for unique_violation.
	CodeUniqueViolation = "23505"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Transport overrides the HTTP transport; tests point this at httptest servers.
	Transport http.RoundTripper
}

// Client issues table reads and writes under a single API key.
type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, errors.New("postgrest: base url and api key are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")+restPath).
		SetTimeout(timeout).
		SetHeader("apikey", cfg.APIKey).
		SetAuthToken(cfg.APIKey).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if cfg.Transport != nil {
		rc.SetTransport(cfg.Transport)
	}

	return &Client{http: rc}, nil
}

// Filter is a column equality filter rendered as column=eq.value.
type Filter struct {
	Column string
	Value  string
}

// Select reads rows from table into out (a pointer to a slice).
func (c *Client) Select(ctx context.Context, table, columns string, filters []Filter, limit int, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", columns).
		SetResult(out).
		SetError(&Error{})

	for _, f := range filters {
		req.SetQueryParam(f.Column, "eq."+f.Value)
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	resp, err := req.Get(table)
	if err != nil {
		return fmt.Errorf("postgrest select %s: %w", table, err)
	}
	return asError(resp)
}

// Insert writes rows to table without asking for a representation back.
func (c *Client) Insert(ctx context.Context, table string, rows any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		SetError(&Error{}).
		Post(table)
	if err != nil {
		return fmt.Errorf("postgrest insert %s: %w", table, err)
	}
	return asError(resp)
}

// Count returns the exact row count of table using a HEAD request.
func (c *Client) Count(ctx context.Context, table string) (int64, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetHeader("Prefer", "count=exact").
		Head(table)
	if err != nil {
		return 0, fmt.Errorf("postgrest count %s: %w", table, err)
	}
	if err := asError(resp); err != nil {
		return 0, err
	}
	return ParseContentRange(resp.Header().Get("Content-Range"))
}

// ParseContentRange extracts the total from headers like "0-24/3573" or "*/0".
func ParseContentRange(header string) (int64, error) {
	idx := strings.LastIndexByte(header, '/')
	if idx < 0 || idx == len(header)-1 {
		return 0, fmt.Errorf("postgrest: malformed content-range %q", header)
	}
	total := header[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("postgrest: content-range %q has no exact total", header)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("postgrest: malformed content-range %q", header)
	}
	return n, nil
}
