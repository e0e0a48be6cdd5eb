// Package sectors is the client for the Sectors REST API (api.sectors.app).
//
// Every request is a single authenticated GET. Non-200 responses surface as
// *RemoteRequestError and are never retried. Successful bodies may be
// memoized by request URL through an infra.Store.
package sectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/supertypeai/sectors-kb/internal/infra"
	"github.com/supertypeai/sectors-kb/internal/logger"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://api.sectors.app/v1"

	maxErrorBody = 512
)

// Config holds what a Client needs to talk to the API.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches JSON documents from the Sectors API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	store   infra.Store
	group   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithStore enables memoization of successful responses.
func WithStore(s infra.Store) Option {
	return func(cl *Client) { cl.store = s }
}

// New creates a Client. The API key must be supplied by the caller.
func New(cfg Config, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Fetch issues one GET to url and returns the JSON body of a 200 response.
func (c *Client) Fetch(ctx context.Context, url string) (json.RawMessage, error) {
	if c.store != nil {
		body, ok, err := c.store.Get(ctx, url)
		if err != nil {
			logger.L().Warn().Err(err).Str("store", c.store.Name()).Msg("memo lookup failed")
		} else if ok {
			logger.L().Debug().Str("url", url).Bool("memo", true).Msg("sectors fetch")
			return json.RawMessage(body), nil
		}
	}

	// The shared request outlives any single caller; each caller still
	// stops waiting when its own context ends.
	ch := c.group.DoChan(url, func() (any, error) {
		return c.get(context.WithoutCancel(ctx), url)
	})
	var body json.RawMessage
	select {
	case <-ctx.Done():
		return nil, &RemoteRequestError{URL: url, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		body = res.Val.(json.RawMessage)
	}

	if c.store != nil {
		if err := c.store.Set(ctx, url, body); err != nil {
			logger.L().Warn().Err(err).Str("store", c.store.Name()).Msg("memo store failed")
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) (json.RawMessage, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RemoteRequestError{URL: url, Err: err}
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RemoteRequestError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	logger.L().Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("sectors fetch")

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteRequestError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteRequestError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, &RemoteRequestError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not valid JSON")}
	}
	return json.RawMessage(data), nil
}
