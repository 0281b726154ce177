package fetch

import (
	"log/slog"

	"github.com/aatrey56/fpl-league-hub/internal/config"
	"github.com/aatrey56/fpl-league-hub/internal/store"
)

// FromConfig builds a client backed by the raw store under cfg.RawRoot.
// Live mode bypasses the store entirely.
func FromConfig(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	var st *store.JSONStore
	if !cfg.Live && cfg.RawRoot != "" {
		st = store.NewJSONStore(cfg.RawRoot)
	}
	opts := []ClientOption{
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithRetries(cfg.MaxRetries, cfg.RetryBackoff),
	}
	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	c := NewClient(st, opts...)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.Sleep = cfg.Sleep
	if st != nil {
		c.UseCache = cfg.UseCache
	}
	return c
}
