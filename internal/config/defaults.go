package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL         = "https://fantasy.premierleague.com/api"
	DefaultUserAgent       = "fpl-league-hub/1.0"
	DefaultUpstreamTimeout = 20 * time.Second
	DefaultMaxRetries      = 2
	DefaultRetryBackoff    = 500 * time.Millisecond
	DefaultRawRoot         = "data/raw"
	DefaultDerivedRoot     = "data/derived"
	DefaultConcurrency     = 8
	DefaultCallTimeout     = 10 * time.Second
	DefaultServerAddr      = ":8080"
	DefaultMCPPath         = "/mcp"
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

func (c *Config) applyDefaults() {
	// Upstream defaults
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = DefaultBaseURL
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = DefaultUserAgent
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if c.Upstream.MaxRetries == 0 {
		c.Upstream.MaxRetries = DefaultMaxRetries
	}
	if c.Upstream.RetryBackoff == 0 {
		c.Upstream.RetryBackoff = DefaultRetryBackoff
	}
	if c.Upstream.RawRoot == "" {
		c.Upstream.RawRoot = DefaultRawRoot
	}
	if c.DerivedRoot == "" {
		c.DerivedRoot = DefaultDerivedRoot
	}

	// Fan-out defaults
	if c.Fanout.Concurrency == 0 {
		c.Fanout.Concurrency = DefaultConcurrency
	}
	if c.Fanout.CallTimeout == 0 {
		c.Fanout.CallTimeout = DefaultCallTimeout
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.MCPPath == "" {
		c.Server.MCPPath = DefaultMCPPath
	}

	// Archive defaults
	if c.Archive.Port == 0 {
		c.Archive.Port = DefaultDBPort
	}
	if c.Archive.SSLMode == "" {
		c.Archive.SSLMode = DefaultDBSSLMode
	}
	if c.Archive.MaxConns == 0 {
		c.Archive.MaxConns = DefaultMaxConns
	}
	if c.Archive.MinConns == 0 {
		c.Archive.MinConns = DefaultMinConns
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
