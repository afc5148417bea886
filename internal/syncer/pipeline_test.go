// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mpatel-io/catalogus/internal/models"
	"github.com/mpatel-io/catalogus/internal/vector"
)

type fakeCatalog struct {
	products []models.Product
	err      error
}

func (c *fakeCatalog) ListIndexableProducts(ctx context.Context) ([]models.Product, error) {
	return c.products, c.err
}

// fakeIndex records upserts and prunes; block, when set, stalls
// UpsertBatch until released so tests can hold a run in flight.
type fakeIndex struct {
	mu      sync.Mutex
	upserts [][]vector.Document
	pruned  [][]int64
	err     error
	block   chan struct{}
}

func (i *fakeIndex) UpsertBatch(ctx context.Context, docs []vector.Document) error {
	if i.block != nil {
		<-i.block
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.upserts = append(i.upserts, docs)
	return i.err
}

func (i *fakeIndex) Search(ctx context.Context, query string, topK int) ([]vector.Document, error) {
	return nil, nil
}

func (i *fakeIndex) PruneExcept(ctx context.Context, keep []int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pruned = append(i.pruned, keep)
	return nil
}

func (i *fakeIndex) upsertCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.upserts)
}

func TestTriggerSyncProjectsCatalog(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{
		{ID: 1, Category: "Books", Price: 20, Description: "a novel"},
		{ID: 2, Category: "Toys", Price: 30, Description: "a puzzle"},
	}}
	index := &fakeIndex{}
	m := NewManager(catalog, index, time.Hour)

	if err := m.TriggerSync(context.Background()); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}

	if len(index.upserts) != 1 {
		t.Fatalf("upsert batches = %d, want 1 bulk upsert per run", len(index.upserts))
	}
	docs := index.upserts[0]
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}
	if id, _ := docs[0].ProductID(); id != 1 {
		t.Errorf("first document id = %d, want 1", id)
	}
	if docs[0].Metadata[vector.MetaCategory] != "Books" {
		t.Errorf("category metadata = %q, want Books", docs[0].Metadata[vector.MetaCategory])
	}
	if docs[0].Content != "a novel" {
		t.Errorf("content = %q, want the description", docs[0].Content)
	}

	if m.LastSyncTime().IsZero() {
		t.Error("LastSyncTime() is zero after a successful run")
	}
}

func TestTriggerSyncReconcilesIndex(t *testing.T) {
	catalog := &fakeCatalog{products: []models.Product{
		{ID: 1, Category: "Books", Price: 20, Description: "still indexable"},
	}}
	index := &fakeIndex{}
	m := NewManager(catalog, index, time.Hour)

	if err := m.TriggerSync(context.Background()); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}

	if len(index.pruned) != 1 {
		t.Fatalf("prune calls = %d, want 1 per run", len(index.pruned))
	}
	if len(index.pruned[0]) != 1 || index.pruned[0][0] != 1 {
		t.Errorf("keep set = %v, want [1]", index.pruned[0])
	}
}

func TestTriggerSyncEmptyCatalogStillPrunes(t *testing.T) {
	index := &fakeIndex{}
	m := NewManager(&fakeCatalog{}, index, time.Hour)

	if err := m.TriggerSync(context.Background()); err != nil {
		t.Fatalf("TriggerSync() error = %v", err)
	}
	if len(index.upserts) != 0 {
		t.Errorf("upsert batches = %d, want 0 for an empty projection", len(index.upserts))
	}
	// Reconciliation still runs so previously indexed rows are removed.
	if len(index.pruned) != 1 || len(index.pruned[0]) != 0 {
		t.Errorf("prune keep set = %v, want one call with empty keep", index.pruned)
	}
}

func TestTriggerSyncSkipsWhenRunning(t *testing.T) {
	index := &fakeIndex{block: make(chan struct{})}
	catalog := &fakeCatalog{products: []models.Product{
		{ID: 1, Category: "Books", Price: 20, Description: "x"},
	}}
	m := NewManager(catalog, index, time.Hour)

	done := make(chan error, 1)
	go func() { done <- m.TriggerSync(context.Background()) }()

	// Wait until the first run holds the run lock (it is stalled inside
	// the blocked upsert).
	deadline := time.Now().Add(2 * time.Second)
	for {
		if m.runMu.TryLock() {
			m.runMu.Unlock()
		} else {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first run never acquired the run lock")
		}
		time.Sleep(time.Millisecond)
	}

	// A second trigger while the first is in flight is a silent skip.
	if err := m.TriggerSync(context.Background()); err != nil {
		t.Fatalf("overlapping TriggerSync() error = %v, want nil skip", err)
	}

	close(index.block)
	if err := <-done; err != nil {
		t.Fatalf("first TriggerSync() error = %v", err)
	}
	if got := index.upsertCount(); got != 1 {
		t.Errorf("upsert batches = %d, want 1 (second trigger skipped)", got)
	}
}

func TestTriggerSyncCatalogFault(t *testing.T) {
	boom := errors.New("catalog down")
	m := NewManager(&fakeCatalog{err: boom}, &fakeIndex{}, time.Hour)

	if err := m.TriggerSync(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want catalog fault", err)
	}
	if !m.LastSyncTime().IsZero() {
		t.Error("LastSyncTime() advanced after a failed run")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	index := &fakeIndex{}
	m := NewManager(&fakeCatalog{}, index, time.Hour)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("second Start() succeeded, want already-running error")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Stop is idempotent.
	if err := m.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}
