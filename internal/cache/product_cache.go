// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package cache implements the read-through product cache on BadgerDB.
//
// On a hit the cached snapshot is returned without touching the backing
// store; on a miss the product is fetched, stored and returned. Concurrent
// misses for the same id may each fetch from the store (at-least-once
// population); duplicate fetches are accepted rather than suppressed.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/metrics"
	"github.com/mpatel-io/catalogus/internal/models"
)

// keyPrefix is the single logical namespace holding product snapshots.
// Entries are keyed PRODUCTMAP:PRODUCT_<id>.
const keyPrefix = "PRODUCTMAP:PRODUCT_"

// Fetcher is the backing-store read the cache falls through to on a miss.
// It must return models.ErrProductNotFound for ids with no live row.
type Fetcher interface {
	FetchProduct(ctx context.Context, id int64) (*models.Product, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id int64) (*models.Product, error)

// FetchProduct implements Fetcher.
func (f FetcherFunc) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	return f(ctx, id)
}

// ProductCache is a read-through cache mapping product id to a full
// product snapshot, durable across restarts. Safe for concurrent use.
type ProductCache struct {
	db      *badger.DB
	fetcher Fetcher
	logger  zerolog.Logger
}

// Open opens a Badger-backed product cache at path. An empty path opens
// an in-memory cache (used by tests and ephemeral deployments).
func Open(path string, fetcher Fetcher) (*ProductCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open product cache: %w", err)
	}

	return New(db, fetcher), nil
}

// New wraps an existing Badger instance as a product cache.
func New(db *badger.DB, fetcher Fetcher) *ProductCache {
	return &ProductCache{
		db:      db,
		fetcher: fetcher,
		logger:  logging.With().Str("component", "cache").Logger(),
	}
}

func cacheKey(id int64) []byte {
	return []byte(keyPrefix + strconv.FormatInt(id, 10))
}

// Get returns the product snapshot for id. A hit is served from the
// cache; a miss fetches from the backing store, populates the cache and
// returns the fetched snapshot. models.ErrProductNotFound propagates
// unchanged and is never cached.
func (c *ProductCache) Get(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &product)
		})
	})
	if err == nil {
		metrics.CacheHits.Inc()
		return &product, nil
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		// A corrupt or unreadable entry falls through to the store rather
		// than failing the read.
		c.logger.Warn().Err(err).Int64("product_id", id).Msg("cache read failed, falling through")
	}

	metrics.CacheMisses.Inc()

	fetched, err := c.fetcher.FetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.set(fetched); err != nil {
		// Population failure degrades to uncached reads; the fetch result
		// is still valid.
		c.logger.Warn().Err(err).Int64("product_id", id).Msg("cache population failed")
	}
	return fetched, nil
}

// set stores a product snapshot under its id.
func (c *ProductCache) set(p *models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal product %d: %w", p.ID, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(p.ID), data)
	})
}

// Invalidate removes the cached snapshot for id. Called by write paths
// (update, delete) so subsequent reads observe the store's truth.
// Removing an absent key is not an error.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(cacheKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate product %d: %w", id, err)
	}
	return nil
}

// Close closes the underlying Badger instance.
func (c *ProductCache) Close() error {
	return c.db.Close()
}
