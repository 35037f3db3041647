// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

// Package config loads layered Bookloft configuration with koanf:
// struct defaults, then an optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/bookloft/bookloft/internal/logging"
	"github.com/bookloft/bookloft/internal/recommend"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port to listen on. Default: 8080
	Port int `koanf:"port"`

	// ReadTimeout / WriteTimeout / ShutdownTimeout bound request and
	// shutdown handling.
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per minute per client IP. Zero disables.
	// Default: 120
	RateLimit int `koanf:"rate_limit"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path to the database file. Default: data/bookloft.duckdb
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory use, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads. Zero lets DuckDB decide.
	Threads int `koanf:"threads"`
}

// SnapshotConfig holds neighbor snapshot settings.
type SnapshotConfig struct {
	// Enabled loads a precomputed snapshot at startup. When false the
	// neighbor index is built per request.
	Enabled bool `koanf:"enabled"`

	// Path is the BadgerDB directory. Default: data/snapshot
	Path string `koanf:"path"`
}

// EnrichConfig holds metadata enrichment settings.
type EnrichConfig struct {
	// Enabled turns on Google Books enrichment during ingest.
	Enabled bool `koanf:"enabled"`

	// BaseURL of the volumes API.
	BaseURL string `koanf:"base_url"`

	// RequestsPerSecond and Burst bound the client-side rate limiter.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	// Timeout per lookup.
	Timeout time.Duration `koanf:"timeout"`
}

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Database  DatabaseConfig   `koanf:"database"`
	Snapshot  SnapshotConfig   `koanf:"snapshot"`
	Recommend recommend.Config `koanf:"recommend"`
	Enrich    EnrichConfig     `koanf:"enrich"`
	Logging   logging.Config   `koanf:"logging"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       120,
		},
		Database: DatabaseConfig{
			Path:      "data/bookloft.duckdb",
			MaxMemory: "1GB",
		},
		Snapshot: SnapshotConfig{
			Path: "data/snapshot",
		},
		Recommend: *recommend.DefaultConfig(),
		Enrich: EnrichConfig{
			BaseURL:           "https://www.googleapis.com/books/v1/volumes",
			RequestsPerSecond: 1,
			Burst:             2,
			Timeout:           10 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// envOverrides maps environment variables to configuration paths. The
// explicit table keeps the surface documented and avoids surprise bindings.
var envOverrides = map[string]string{
	"HTTP_HOST":             "server.host",
	"HTTP_PORT":             "server.port",
	"HTTP_RATE_LIMIT":       "server.rate_limit",
	"DUCKDB_PATH":           "database.path",
	"DUCKDB_MAX_MEMORY":     "database.max_memory",
	"DUCKDB_THREADS":        "database.threads",
	"SNAPSHOT_ENABLED":      "snapshot.enabled",
	"SNAPSHOT_PATH":         "snapshot.path",
	"RECOMMEND_NEIGHBORS":   "recommend.neighbors",
	"RECOMMEND_TOP_N":       "recommend.top_n",
	"RECOMMEND_PRIOR_COUNT": "recommend.prior_count",
	"RECOMMEND_PRIOR_MEAN":  "recommend.prior_mean",
	"RECOMMEND_MAX_RATING":  "recommend.max_rating",
	"ENRICH_ENABLED":        "enrich.enabled",
	"ENRICH_BASE_URL":       "enrich.base_url",
	"LOG_LEVEL":             "logging.level",
	"LOG_FORMAT":            "logging.format",
	"LOG_CALLER":            "logging.caller",
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing precedence. An empty path skips the
// file layer; a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		if target, ok := envOverrides[s]; ok {
			return target
		}
		return "" // unmapped vars are ignored
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the assembled configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid config: server.rate_limit must be non-negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("invalid config: database.path is required")
	}
	if c.Snapshot.Enabled && c.Snapshot.Path == "" {
		return fmt.Errorf("invalid config: snapshot.path is required when snapshot.enabled")
	}
	if c.Enrich.Enabled {
		if c.Enrich.BaseURL == "" {
			return fmt.Errorf("invalid config: enrich.base_url is required when enrich.enabled")
		}
		if c.Enrich.RequestsPerSecond <= 0 {
			return fmt.Errorf("invalid config: enrich.requests_per_second must be positive")
		}
	}
	if err := c.Recommend.Validate(); err != nil {
		return err
	}
	return nil
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
