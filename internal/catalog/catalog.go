// Package catalog retrieves the model and prompt catalogs exposed by the
// upstream speech service and maps them into typed lists.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "odie/1.0"

// Model describes one entry in the upstream model catalog.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "tts" or "asr"
	Description string `json:"description,omitempty"`
}

// Prompt describes one entry in the upstream prompt catalog.
type Prompt struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Catalog bundles both upstream catalogs for the combined endpoint.
type Catalog struct {
	Models  []Model  `json:"models"`
	Prompts []Prompt `json:"prompts"`
}

// Error represents an error during a catalog fetch.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("catalog error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("catalog error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the catalog client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// DefaultOptions returns sensible defaults for catalog fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client fetches catalogs from one upstream base URL.
type Client struct {
	baseURL string
	opts    *Options
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, opts *Options) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{
			URL:     baseURL,
			Message: "invalid base URL",
			Cause:   err,
		}
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		opts:    opts,
	}, nil
}

// Models retrieves the upstream model catalog.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	var wire struct {
		Models []Model `json:"models"`
	}
	if err := c.getJSON(ctx, "/v1/models", &wire); err != nil {
		return nil, err
	}
	if wire.Models == nil {
		wire.Models = []Model{}
	}
	return wire.Models, nil
}

// Prompts retrieves the upstream prompt catalog.
func (c *Client) Prompts(ctx context.Context) ([]Prompt, error) {
	var wire struct {
		Prompts []Prompt `json:"prompts"`
	}
	if err := c.getJSON(ctx, "/v1/prompts", &wire); err != nil {
		return nil, err
	}
	if wire.Prompts == nil {
		wire.Prompts = []Prompt{}
	}
	return wire.Prompts, nil
}

// FetchAll retrieves both catalogs concurrently. Either failure fails the
// whole fetch; the upstream error is returned unwrapped so callers can
// surface the offending URL.
func (c *Client) FetchAll(ctx context.Context) (*Catalog, error) {
	var cat Catalog

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		models, err := c.Models(ctx)
		if err != nil {
			return err
		}
		cat.Models = models
		return nil
	})
	g.Go(func() error {
		prompts, err := c.Prompts(ctx)
		if err != nil {
			return err
		}
		cat.Prompts = prompts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// getJSON performs one upstream GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	urlStr := c.baseURL + path

	client := &http.Client{Timeout: c.opts.Timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return &Error{
			URL:     urlStr,
			Message: "failed to create request",
			Cause:   err,
		}
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &Error{
			URL:     urlStr,
			Message: "HTTP request failed",
			Cause:   err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			URL:     urlStr,
			Message: "failed to read response body",
			Cause:   err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return &Error{
			URL:     urlStr,
			Message: fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{
			URL:     urlStr,
			Message: "failed to parse response JSON",
			Cause:   err,
		}
	}
	return nil
}
