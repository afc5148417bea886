// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package database implements the catalog store on DuckDB.
//
// The DB wrapper owns the connection, the schema, and every catalog
// query: product CRUD with soft deletion, lazy category creation, the
// category/price-band range query feeding structured recommendations,
// paginated name search, and the append-only search and AI generation
// audit logs.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/mpatel-io/catalogus/internal/config"
	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/metrics"
	"github.com/rs/zerolog"
)

// liveProduct is the centralized soft-delete predicate. Every product
// read path must include it; soft-deleted rows are invisible everywhere
// except the physical table.
const liveProduct = "p.is_deleted = FALSE"

// productColumns is the shared select list for product reads.
const productColumns = `p.id, p.name, p.description, p.price, p.image_url,
	p.category_id, c.name, p.is_deleted, p.created_at, p.last_modified`

// DB wraps the DuckDB connection and provides catalog data access.
// Safe for concurrent use; database/sql handles connection pooling.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// New opens (or creates) the DuckDB database at cfg.Path and initializes
// the schema. An empty path opens an in-memory database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	connStr := ":memory:"
	if cfg != nil && cfg.Path != "" {
		connStr = cfg.Path
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb at %s: %w", connStr, err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to duckdb: %w", err)
	}

	db := &DB{
		conn:   conn,
		logger: logging.With().Str("component", "database").Logger(),
	}

	if err := db.configure(cfg); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info().Str("path", connStr).Msg("database ready")
	return db, nil
}

// configure applies DuckDB resource settings.
func (db *DB) configure(cfg *config.DatabaseConfig) error {
	if cfg == nil {
		return nil
	}
	if cfg.MaxMemory != "" {
		if _, err := db.conn.Exec(fmt.Sprintf("SET memory_limit = '%s'", cfg.MaxMemory)); err != nil {
			return fmt.Errorf("failed to set memory limit: %w", err)
		}
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if _, err := db.conn.Exec(fmt.Sprintf("SET threads = %d", threads)); err != nil {
		return fmt.Errorf("failed to set threads: %w", err)
	}
	return nil
}

// initSchema creates the catalog tables and id sequences.
func (db *DB) initSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS categories_id_seq`,
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGINT PRIMARY KEY DEFAULT nextval('categories_id_seq'),
			name VARCHAR NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL,
			last_modified TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS products_id_seq`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT PRIMARY KEY DEFAULT nextval('products_id_seq'),
			name VARCHAR NOT NULL,
			description VARCHAR,
			price DOUBLE NOT NULL CHECK (price >= 0),
			image_url VARCHAR,
			category_id BIGINT NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL,
			last_modified TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS search_logs_id_seq`,
		`CREATE TABLE IF NOT EXISTS search_logs (
			id BIGINT PRIMARY KEY DEFAULT nextval('search_logs_id_seq'),
			query VARCHAR NOT NULL,
			page_number INTEGER NOT NULL,
			page_size INTEGER NOT NULL,
			sort_param VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS ai_generation_logs_id_seq`,
		`CREATE TABLE IF NOT EXISTS ai_generation_logs (
			id BIGINT PRIMARY KEY DEFAULT nextval('ai_generation_logs_id_seq'),
			product_id BIGINT NOT NULL,
			generation_type VARCHAR NOT NULL,
			input_prompt VARCHAR NOT NULL,
			output_response VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// Conn exposes the underlying connection for collaborators that share the
// database file (the vector index keeps its document table alongside the
// catalog tables).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is usable. Used by the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// observe records query metrics for an operation against a table.
func observe(operation, table string, start time.Time, err error) {
	metrics.DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
