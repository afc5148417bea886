// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package vector

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
)

// cachedDoc holds a document's metadata and embedding in memory for fast
// similarity search.
type cachedDoc struct {
	doc Document
	vec []float32
}

// DuckDBIndex implements Index with embeddings persisted in a DuckDB
// table and an in-memory vector cache for search. Documents are keyed by
// product id: a bulk upsert replaces the rows for every id in the batch
// inside one transaction, so re-indexing never accumulates duplicates.
//
// Safe for concurrent use. Readers during an upsert may observe a
// partially updated index; the catalog remains the source of truth and
// the next sync run converges the index.
type DuckDBIndex struct {
	conn      *sql.DB
	embedder  Embedder
	indexName string
	logger    zerolog.Logger

	mu     sync.RWMutex
	cache  []cachedDoc
	loaded bool
}

// NewDuckDBIndex creates the index on an existing DuckDB connection
// (shared with the catalog store) and ensures its document table exists.
// indexName prefixes document keys so multiple logical indexes can share
// one database.
func NewDuckDBIndex(conn *sql.DB, embedder Embedder, indexName string) (*DuckDBIndex, error) {
	idx := &DuckDBIndex{
		conn:      conn,
		embedder:  embedder,
		indexName: indexName,
		logger:    logging.With().Str("component", "vector").Str("index", indexName).Logger(),
	}

	_, err := conn.Exec(`CREATE TABLE IF NOT EXISTS vector_documents (
		index_name VARCHAR NOT NULL,
		product_id BIGINT NOT NULL,
		category VARCHAR NOT NULL,
		price DOUBLE NOT NULL,
		content VARCHAR NOT NULL,
		embedding BLOB NOT NULL,
		PRIMARY KEY (index_name, product_id)
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector_documents table: %w", err)
	}
	return idx, nil
}

// UpsertBatch embeds and stores all documents in one transaction,
// replacing any existing document with the same product id. Documents
// without a parseable id metadata field are rejected — the sync pipeline
// always produces keyed documents.
func (idx *DuckDBIndex) UpsertBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	type row struct {
		id    int64
		price float64
		doc   Document
		vec   []float32
	}
	rows := make([]row, 0, len(docs))
	for _, doc := range docs {
		id, ok := doc.ProductID()
		if !ok {
			return fmt.Errorf("document has no parseable %s metadata", MetaID)
		}
		price, _ := strconv.ParseFloat(doc.Metadata[MetaPrice], 64)

		vec, err := idx.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("failed to embed document for product %d: %w", id, err)
		}
		rows = append(rows, row{id: id, price: price, doc: doc, vec: vec})
	}

	tx, err := idx.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vector_documents WHERE index_name = ? AND product_id = ?`,
			idx.indexName, r.id); err != nil {
			return fmt.Errorf("failed to replace document for product %d: %w", r.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vector_documents (index_name, product_id, category, price, content, embedding)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			idx.indexName, r.id, r.doc.Metadata[MetaCategory], r.price,
			r.doc.Content, serializeVector(r.vec)); err != nil {
			return fmt.Errorf("failed to insert document for product %d: %w", r.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	idx.mu.Lock()
	idx.loaded = false
	idx.mu.Unlock()

	idx.logger.Debug().Int("documents", len(docs)).Msg("bulk upsert complete")
	return nil
}

// PruneExcept deletes every document whose product id is not in keep.
// Called by the sync pipeline after each run to reconcile the index with
// the catalog.
func (idx *DuckDBIndex) PruneExcept(ctx context.Context, keep []int64) error {
	keepSet := make(map[int64]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}

	rows, err := idx.conn.QueryContext(ctx,
		`SELECT product_id FROM vector_documents WHERE index_name = ?`, idx.indexName)
	if err != nil {
		return fmt.Errorf("failed to list indexed ids: %w", err)
	}
	defer rows.Close()

	var stale []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan indexed id: %w", err)
		}
		if _, ok := keepSet[id]; !ok {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("indexed id iteration failed: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	tx, err := idx.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin prune transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM vector_documents WHERE index_name = ? AND product_id = ?`,
			idx.indexName, id); err != nil {
			return fmt.Errorf("failed to prune document for product %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prune: %w", err)
	}

	idx.mu.Lock()
	idx.loaded = false
	idx.mu.Unlock()

	idx.logger.Debug().Int("pruned", len(stale)).Msg("stale documents removed")
	return nil
}

// Search embeds the query and returns the topK nearest documents by
// cosine similarity, best first.
func (idx *DuckDBIndex) Search(ctx context.Context, query string, topK int) ([]Document, error) {
	if topK <= 0 {
		return nil, nil
	}

	queryVec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	cache, err := idx.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Document, 0, len(cache))
	for _, cd := range cache {
		doc := cd.doc
		doc.Score = cosine(queryVec, cd.vec)
		results = append(results, doc)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// snapshot returns the in-memory document cache, loading it from DuckDB
// when stale.
func (idx *DuckDBIndex) snapshot(ctx context.Context) ([]cachedDoc, error) {
	idx.mu.RLock()
	if idx.loaded {
		cache := idx.cache
		idx.mu.RUnlock()
		return cache, nil
	}
	idx.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.loaded {
		return idx.cache, nil
	}

	rows, err := idx.conn.QueryContext(ctx,
		`SELECT product_id, category, price, content, embedding
		 FROM vector_documents WHERE index_name = ?`, idx.indexName)
	if err != nil {
		return nil, fmt.Errorf("failed to load vector cache: %w", err)
	}
	defer rows.Close()

	var cache []cachedDoc
	for rows.Next() {
		var id int64
		var category, content string
		var price float64
		var blob []byte
		if err := rows.Scan(&id, &category, &price, &content, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan vector document: %w", err)
		}
		cache = append(cache, cachedDoc{
			doc: NewProductDocument(id, category, price, content),
			vec: deserializeVector(blob),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector document iteration failed: %w", err)
	}

	idx.cache = cache
	idx.loaded = true
	return cache, nil
}
