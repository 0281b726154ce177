// Package config loads the YAML configuration shared by the server and the
// dev CLI.
package config

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	League      LeagueConfig   `yaml:"league"`
	Upstream    UpstreamConfig `yaml:"upstream"`
	Fanout      FanoutConfig   `yaml:"fanout"`
	Catalog     CatalogConfig  `yaml:"catalog"`
	TieBreak    TieBreakConfig `yaml:"tiebreak"`
	Server      ServerConfig   `yaml:"server"`
	Archive     ArchiveConfig  `yaml:"archive"`
	Log         LogConfig      `yaml:"log"`
	DerivedRoot string         `yaml:"derived_root"`
}

// LeagueConfig names the default mini-league. Tools may override it.
type LeagueConfig struct {
	ID int `yaml:"id"`
}

// UpstreamConfig holds FPL API settings.
type UpstreamConfig struct {
	BaseURL      string        `yaml:"base_url"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Sleep        time.Duration `yaml:"sleep"`
	RawRoot      string        `yaml:"raw_root"`
	// UseCache serves payloads from RawRoot when present.
	UseCache bool `yaml:"use_cache"`
	// Live disables both cache reads and writes.
	Live bool `yaml:"live"`
}

// FanoutConfig bounds per-request upstream concurrency.
type FanoutConfig struct {
	Concurrency int           `yaml:"concurrency"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type CatalogConfig struct {
	// RefreshInterval of zero keeps the catalog for the process lifetime.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

type TieBreakConfig struct {
	// Seed pins coin tosses when non-zero.
	Seed uint64 `yaml:"seed"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	MCPPath string `yaml:"mcp_path"`
	APIKey  string `yaml:"api_key"`
}

// ArchiveConfig is the optional PostgreSQL result archive.
type ArchiveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text or JSON slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
