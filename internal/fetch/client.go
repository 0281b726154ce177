// Package fetch is the read-only gateway to the public FPL API. Every
// payload can be mirrored into a JSONStore so later runs work offline.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/aatrey56/fpl-league-hub/internal/model"
	"github.com/aatrey56/fpl-league-hub/internal/store"
)

const DefaultBaseURL = "https://fantasy.premierleague.com/api"

// APIError is a non-2xx answer from the upstream.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fpl api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Is lets errors.Is(err, model.ErrNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == model.ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	HTTP         *http.Client
	Store        *store.JSONStore
	BaseURL      string
	UserAgent    string
	Sleep        time.Duration
	PrettyWrite  bool
	UseCache     bool
	DisableWrite bool
	// Refresh makes gateway calls skip the cache and hit the network.
	Refresh bool

	logger       *slog.Logger
	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another host (tests, mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.BaseURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.HTTP.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.HTTP = hc
	}
}

// NewClient builds a client. A nil store disables the disk cache.
func NewClient(st *store.JSONStore, opts ...ClientOption) *Client {
	c := &Client{
		HTTP:         &http.Client{Timeout: 20 * time.Second},
		Store:        st,
		BaseURL:      DefaultBaseURL,
		UserAgent:    "fpl-league-hub/1.0",
		PrettyWrite:  true,
		UseCache:     true,
		logger:       slog.Default(),
		maxRetries:   2,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	if st == nil {
		c.UseCache = false
		c.DisableWrite = true
	}
	return c
}

// FetchRaw downloads urlPath (like "/bootstrap-static/") and mirrors it to
// relPath. Returns raw bytes (from cache or network).
func (c *Client) FetchRaw(ctx context.Context, urlPath string, relPath string, force bool) ([]byte, error) {
	if !force && c.UseCache && c.Store.Exists(relPath) {
		return c.Store.ReadRaw(relPath)
	}

	if c.Sleep > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Sleep):
		}
	}

	body, err := c.doWithRetry(ctx, urlPath)
	if err != nil {
		return nil, err
	}

	if !c.DisableWrite {
		if err := c.Store.WriteRaw(relPath, body, c.PrettyWrite); err != nil {
			return nil, fmt.Errorf("cache %s: %w", relPath, err)
		}
	}
	return body, nil
}

func (c *Client) doRequest(ctx context.Context, urlPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", urlPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}
	return body, nil
}

// doWithRetry retries 5xx and 429 answers with jittered exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, urlPath string) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// backoff * (0.5 to 1.5)
			wait := backoff
			if backoff > 0 {
				wait = backoff/2 + time.Duration(rand.Int64N(int64(backoff)))
			}
			c.logger.Debug("retrying request",
				"attempt", attempt,
				"backoff", wait,
				"path", urlPath,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff *= 2
		}

		body, err := c.doRequest(ctx, urlPath)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) getJSON(ctx context.Context, urlPath, relPath string, v any) error {
	body, err := c.FetchRaw(ctx, urlPath, relPath, c.Refresh)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", urlPath, err)
	}
	return nil
}
