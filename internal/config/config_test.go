// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
	if cfg.Server.Port != 8470 || cfg.Vector.TopK != 5 || cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("defaults = port %d, topK %d, interval %s", cfg.Server.Port, cfg.Vector.TopK, cfg.Sync.Interval)
	}
	if cfg.Catalog.Provider != "db" {
		t.Errorf("default catalog provider = %q, want db", cfg.Catalog.Provider)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"sync interval", func(c *Config) { c.Sync.Interval = 0 }, "sync.interval"},
		{"top k", func(c *Config) { c.Vector.TopK = 0 }, "vector.top_k"},
		{"catalog provider", func(c *Config) { c.Catalog.Provider = "magento" }, "catalog.provider"},
		{"embedding provider", func(c *Config) { c.Embedding.Provider = "quantum" }, "embedding.provider"},
		{"hashing dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }, "embedding.dimensions"},
		{"api embedder endpoint", func(c *Config) { c.Embedding.Provider = "api" }, "embedding.endpoint"},
		{"aigen endpoint", func(c *Config) { c.AIGen.Enabled = true }, "aigen.endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CATALOGUS_SERVER_PORT", "server.port"},
		{"CATALOGUS_SYNC_INTERVAL", "sync.interval"},
		{"CATALOGUS_API_RATE_LIMIT_REQUESTS", "api.rate_limit_requests"},
		{"CATALOGUS_FAKESTORE_BASE_URL", "fakestore.base_url"},
		{"CATALOGUS_LOGGING", "logging"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("CATALOGUS_SERVER_PORT", "9001")
	t.Setenv("CATALOGUS_SYNC_INTERVAL", "45m")
	t.Setenv("CATALOGUS_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Sync.Interval != 45*time.Minute {
		t.Errorf("interval = %s, want 45m", cfg.Sync.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9100
catalog:
  provider: fakestore
vector:
  top_k: 7
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9100 || cfg.Catalog.Provider != "fakestore" || cfg.Vector.TopK != 7 {
		t.Errorf("loaded = port %d, provider %q, topK %d", cfg.Server.Port, cfg.Catalog.Provider, cfg.Vector.TopK)
	}
	// Untouched keys keep their defaults.
	if cfg.Database.MaxMemory != "1GB" {
		t.Errorf("max_memory = %q, want default 1GB", cfg.Database.MaxMemory)
	}
}

func TestLoadFilePlusEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("CATALOGUS_SERVER_PORT", "9200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9200 {
		t.Errorf("port = %d, want env to win over the file", cfg.Server.Port)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CATALOGUS_VECTOR_TOP_K", "0")
	if _, err := Load(); err == nil {
		t.Error("Load() accepted top_k = 0")
	}
}

func TestAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8470}
	if got := s.Addr(); got != "127.0.0.1:8470" {
		t.Errorf("Addr() = %q", got)
	}
}
