// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/catalogus/config.yaml",
	"/etc/catalogus/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces Catalogus environment variables:
// CATALOGUS_SERVER_PORT -> server.port.
const envPrefix = "CATALOGUS_"

// defaultConfig returns a Config with all defaults applied. These are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8470,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/catalogus.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Cache: CacheConfig{
			Path: "/data/product-cache",
		},
		Vector: VectorConfig{
			IndexName: "product-idx",
			TopK:      5,
		},
		Embedding: EmbeddingConfig{
			Provider:   "hashing",
			Dimensions: 256,
			Endpoint:   "",
			APIKey:     "",
			Model:      "text-embedding-3-small",
		},
		Sync: SyncConfig{
			Enabled:  true,
			Interval: 2 * time.Hour,
		},
		Catalog: CatalogConfig{
			Provider: "db",
		},
		FakeStore: FakeStoreConfig{
			BaseURL:           "https://fakestoreapi.com",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
		},
		AIGen: AIGenConfig{
			Enabled:  false,
			Endpoint: "",
			APIKey:   "",
			Model:    "gpt-4o-mini",
		},
		API: APIConfig{
			CORSAllowedOrigins: []string{},
			RateLimitRequests:  100,
			RateLimitWindow:    time.Minute,
			RateLimitDisabled:  false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// CATALOGUS_ environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// CATALOGUS_SYNC_INTERVAL -> sync.interval
	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform maps CATALOGUS_SECTION_FIELD_NAME to section.field_name.
// Only the first underscore separates the section from the field; the
// remainder keeps its underscores to match the koanf struct tags.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, field, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + field
}

// findConfigFile returns the first config file that exists, preferring the
// CONFIG_PATH env var, or empty string when none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
