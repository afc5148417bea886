// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package config defines the Catalogus configuration model and its
// koanf-based loading pipeline (defaults, then YAML file, then
// CATALOGUS_ environment variables).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Catalogus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Vector    VectorConfig    `koanf:"vector"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Sync      SyncConfig      `koanf:"sync"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	FakeStore FakeStoreConfig `koanf:"fakestore"`
	AIGen     AIGenConfig     `koanf:"aigen"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB catalog store settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// CacheConfig holds the BadgerDB product cache settings.
type CacheConfig struct {
	// Path is the Badger directory. Empty means in-memory.
	Path string `koanf:"path"`
}

// VectorConfig holds vector index settings.
type VectorConfig struct {
	// IndexName identifies the logical index; used as the document key
	// prefix in the backing store.
	IndexName string `koanf:"index_name"`
	// TopK is the number of nearest documents requested per semantic
	// search.
	TopK int `koanf:"top_k"`
}

// EmbeddingConfig selects and configures the embedder.
type EmbeddingConfig struct {
	// Provider is "hashing" (local, deterministic) or "api"
	// (OpenAI-compatible endpoint).
	Provider   string `koanf:"provider"`
	Dimensions int    `koanf:"dimensions"`
	Endpoint   string `koanf:"endpoint"`
	APIKey     string `koanf:"api_key"`
	Model      string `koanf:"model"`
}

// SyncConfig holds vector sync pipeline settings.
type SyncConfig struct {
	Enabled bool `koanf:"enabled"`
	// Interval is the fixed period between sync runs.
	Interval time.Duration `koanf:"interval"`
}

// CatalogConfig selects the product service variant.
type CatalogConfig struct {
	// Provider is "db" (catalog-backed) or "fakestore" (external API).
	Provider string `koanf:"provider"`
}

// FakeStoreConfig holds the external Fake Store API client settings.
type FakeStoreConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond bounds the client-side request rate.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// AIGenConfig holds the AI content generation client settings.
type AIGenConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	APIKey   string `koanf:"api_key"`
	Model    string `koanf:"model"`
}

// APIConfig holds serving-surface settings.
type APIConfig struct {
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	RateLimitRequests  int           `koanf:"rate_limit_requests"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled  bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Vector.TopK <= 0 {
		return fmt.Errorf("vector.top_k must be positive, got %d", c.Vector.TopK)
	}
	switch c.Catalog.Provider {
	case "db", "fakestore":
	default:
		return fmt.Errorf("catalog.provider must be \"db\" or \"fakestore\", got %q", c.Catalog.Provider)
	}
	switch c.Embedding.Provider {
	case "hashing":
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
		}
	case "api":
		if c.Embedding.Endpoint == "" {
			return fmt.Errorf("embedding.endpoint is required when embedding.provider is \"api\"")
		}
	default:
		return fmt.Errorf("embedding.provider must be \"hashing\" or \"api\", got %q", c.Embedding.Provider)
	}
	if c.AIGen.Enabled && c.AIGen.Endpoint == "" {
		return fmt.Errorf("aigen.endpoint is required when aigen.enabled is true")
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
