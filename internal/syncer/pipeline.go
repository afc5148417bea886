// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package syncer implements the vector synchronization pipeline: a
// periodic job that projects live catalog rows into index documents and
// bulk-upserts them into the vector index.
//
// Lifecycle:
//   - Start(ctx) runs one sync immediately, then ticks on a fixed period
//   - Stop() shuts the worker down and waits for it via WaitGroup
//   - TriggerSync(ctx) runs a sync on demand
//
// Runs are serialized: the run mutex is acquired with TryLock and a tick
// that arrives while a run is in flight is skipped rather than overlapped.
// A failed run is abandoned; the next run re-derives the full projection
// from the catalog, so the pipeline is idempotent by construction.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/metrics"
	"github.com/mpatel-io/catalogus/internal/models"
	"github.com/mpatel-io/catalogus/internal/vector"
)

// Catalog is the read side of the pipeline. Implemented by the database
// package.
type Catalog interface {
	// ListIndexableProducts returns live products with a non-empty
	// description — the only rows eligible for indexing.
	ListIndexableProducts(ctx context.Context) ([]models.Product, error)
}

// Pruner is an optional index capability: removing every document whose
// product id is not in keep. Indexes that support it are reconciled after
// each run, so soft-deleted products and products whose description was
// emptied do not linger from earlier cycles.
type Pruner interface {
	PruneExcept(ctx context.Context, keep []int64) error
}

// Manager owns the periodic sync loop. It holds no state beyond what it
// reads fresh from the catalog each run, making it safely restartable.
type Manager struct {
	catalog  Catalog
	index    vector.Index
	interval time.Duration
	logger   zerolog.Logger

	runMu sync.Mutex // serializes sync runs
	mu    sync.Mutex // protects running and lastSync
	wg    sync.WaitGroup
	stop  context.CancelFunc

	running  bool
	lastSync time.Time
}

// NewManager creates a sync manager with the given run interval.
func NewManager(catalog Catalog, index vector.Index, interval time.Duration) *Manager {
	return &Manager{
		catalog:  catalog,
		index:    index,
		interval: interval,
		logger:   logging.With().Str("component", "syncer").Logger(),
	}
}

// Start launches the sync loop: one immediate run, then one per interval.
// Returns an error if the manager is already running.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("sync manager already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.stop = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop(ctx)

	m.logger.Info().Dur("interval", m.interval).Msg("sync manager started")
	return nil
}

// Stop cancels the loop and waits for the worker goroutine to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.stop()
	m.mu.Unlock()

	m.wg.Wait()
	m.logger.Info().Msg("sync manager stopped")
	return nil
}

// loop runs the initial sync and the periodic ticks.
func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	if err := m.TriggerSync(ctx); err != nil {
		m.logger.Error().Err(err).Msg("initial sync failed")
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.TriggerSync(ctx); err != nil {
				m.logger.Error().Err(err).Msg("scheduled sync failed")
			}
		}
	}
}

// TriggerSync runs one sync now. If a run is already in flight the
// trigger is skipped and reported as such, never overlapped.
func (m *Manager) TriggerSync(ctx context.Context) error {
	if !m.runMu.TryLock() {
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		m.logger.Debug().Msg("sync already in flight, skipping")
		return nil
	}
	defer m.runMu.Unlock()

	start := time.Now()
	count, err := m.runOnce(ctx)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.SyncRunsTotal.WithLabelValues("success").Inc()
	metrics.SyncDocumentsIndexed.Set(float64(count))

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	m.logger.Info().Int("documents", count).Dur("took", time.Since(start)).Msg("sync complete")
	return nil
}

// runOnce projects the indexable catalog rows into documents and issues
// one bulk upsert. Returns the number of documents upserted.
func (m *Manager) runOnce(ctx context.Context) (int, error) {
	products, err := m.catalog.ListIndexableProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to scan catalog: %w", err)
	}

	docs := make([]vector.Document, 0, len(products))
	keep := make([]int64, 0, len(products))
	for _, p := range products {
		docs = append(docs, vector.NewProductDocument(p.ID, p.Category, p.Price, p.Description))
		keep = append(keep, p.ID)
	}

	// One bulk upsert per run to amortize I/O; a failure abandons the
	// whole cycle and the next run retries implicitly.
	if len(docs) > 0 {
		if err := m.index.UpsertBatch(ctx, docs); err != nil {
			return 0, fmt.Errorf("bulk upsert failed: %w", err)
		}
	}

	// Reconcile: documents for rows that are no longer indexable (deleted
	// or description removed) must not survive the run.
	if pruner, ok := m.index.(Pruner); ok {
		if err := pruner.PruneExcept(ctx, keep); err != nil {
			return 0, fmt.Errorf("index prune failed: %w", err)
		}
	}
	return len(docs), nil
}

// LastSyncTime returns the completion time of the most recent successful
// run, or the zero time before the first success.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSync
}
