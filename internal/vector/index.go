// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package vector provides the semantic document index used by hybrid
// recommendations. Documents are ephemeral projections of products (the
// description as indexed text plus id/category/price metadata),
// regenerated by each sync run. The index persists embeddings in DuckDB
// and serves similarity search from an in-memory vector cache.
package vector

import (
	"context"
	"strconv"
)

// Metadata field names carried by index documents.
const (
	MetaID       = "id"
	MetaCategory = "category"
	MetaPrice    = "price"
)

// Document is an indexed projection of a product: free text plus a
// metadata map. Consumers must treat metadata as untrusted — the id field
// may be absent or malformed on documents written by other producers.
type Document struct {
	// Content is the indexed text (the product description).
	Content string
	// Metadata tags the document; see the Meta* field names.
	Metadata map[string]string
	// Score is the similarity to the query, set on search results only.
	Score float64
}

// NewProductDocument builds the standard projection of a product.
func NewProductDocument(productID int64, category string, price float64, content string) Document {
	return Document{
		Content: content,
		Metadata: map[string]string{
			MetaID:       strconv.FormatInt(productID, 10),
			MetaCategory: category,
			MetaPrice:    strconv.FormatFloat(price, 'f', -1, 64),
		},
	}
}

// ProductID extracts and parses the id metadata field. ok is false when
// the field is absent or not an integer.
func (d Document) ProductID() (int64, bool) {
	raw, present := d.Metadata[MetaID]
	if !present {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Index is the semantic document store contract.
//
// UpsertBatch replaces the documents for every product id in the batch;
// re-indexing a product replaces its document rather than accumulating
// duplicates. Search returns the topK documents nearest to the query
// text under the index's similarity metric, best first.
type Index interface {
	UpsertBatch(ctx context.Context, docs []Document) error
	Search(ctx context.Context, query string, topK int) ([]Document, error)
}
