// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package recommend implements the hybrid recommendation engine.
//
// A hybrid result fuses two candidate sets for a target product: a
// structured set (same category, price within a band around the target)
// and a semantic set (nearest documents in the vector index by the
// target's description). The fused sequence preserves first-seen order —
// structured candidates first, then semantic — and is deduplicated by
// product id.
package recommend

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/metrics"
	"github.com/mpatel-io/catalogus/internal/models"
	"github.com/mpatel-io/catalogus/internal/vector"
)

// Price band multipliers for structured candidates. Bounds are inclusive.
const (
	priceBandLower = 0.7
	priceBandUpper = 1.3
)

// defaultTopK is the number of nearest documents requested per semantic
// search when the engine is constructed with a non-positive topK.
const defaultTopK = 5

// CatalogStore is the catalog access the engine needs. Implemented by
// the database package.
type CatalogStore interface {
	// GetProduct returns the live product for id, or
	// models.ErrProductNotFound when absent or soft-deleted.
	GetProduct(ctx context.Context, id int64) (*models.Product, error)

	// FindSimilarInCategory returns live products in the named category
	// with price in [minPrice, maxPrice] inclusive, excluding excludeID.
	FindSimilarInCategory(ctx context.Context, category string, minPrice, maxPrice float64, excludeID int64) ([]models.Product, error)
}

// Engine produces hybrid recommendations. Safe for concurrent use; each
// call computes a fresh, finite, non-restartable sequence.
type Engine struct {
	store  CatalogStore
	index  vector.Index
	topK   int
	logger zerolog.Logger
}

// NewEngine creates a recommendation engine over the given catalog store
// and vector index.
func NewEngine(store CatalogStore, index vector.Index, topK int) *Engine {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Engine{
		store:  store,
		index:  index,
		topK:   topK,
		logger: logging.With().Str("component", "recommend").Logger(),
	}
}

// HybridRecommendations returns the fused recommendation sequence for
// productID. Fails with models.ErrProductNotFound when the target is
// absent or soft-deleted. A target without a description yields a
// structured-only result; the semantic search is skipped rather than
// failed.
func (e *Engine) HybridRecommendations(ctx context.Context, productID int64) ([]models.Product, error) {
	target, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			metrics.RecommendationRequests.WithLabelValues("not_found").Inc()
		} else {
			metrics.RecommendationRequests.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	structured, err := e.structuredCandidates(ctx, target)
	if err != nil {
		// The structured path fails the whole call on a store fault.
		metrics.RecommendationRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	semantic := e.semanticCandidates(ctx, target)

	fused := fuse(target.ID, structured, semantic)
	metrics.RecommendationRequests.WithLabelValues("success").Inc()

	e.logger.Debug().
		Int64("product_id", productID).
		Int("structured", len(structured)).
		Int("semantic", len(semantic)).
		Int("fused", len(fused)).
		Msg("hybrid recommendations computed")
	return fused, nil
}

// structuredCandidates queries the catalog for products in the target's
// category priced within [0.7P, 1.3P].
func (e *Engine) structuredCandidates(ctx context.Context, target *models.Product) ([]models.Product, error) {
	return e.store.FindSimilarInCategory(ctx, target.Category,
		target.Price*priceBandLower, target.Price*priceBandUpper, target.ID)
}

// semanticCandidates resolves the topK nearest index documents back to
// live products. Recovery is local: documents with missing or malformed
// id metadata are skipped, as are ids that no longer resolve (deleted
// since indexing). An index fault degrades to an empty semantic set
// rather than failing the call.
func (e *Engine) semanticCandidates(ctx context.Context, target *models.Product) []models.Product {
	if target.Description == "" {
		return nil
	}

	docs, err := e.index.Search(ctx, target.Description, e.topK)
	if err != nil {
		e.logger.Warn().Err(err).Int64("product_id", target.ID).Msg("semantic search failed")
		return nil
	}

	var candidates []models.Product
	for _, doc := range docs {
		id, ok := doc.ProductID()
		if !ok {
			continue
		}
		product, err := e.store.GetProduct(ctx, id)
		if err != nil {
			// Dropped silently: the id may have been deleted since the
			// document was indexed.
			continue
		}
		candidates = append(candidates, *product)
	}
	return candidates
}

// fuse unions the candidate sets preserving first-seen order, removing
// duplicates by product id. The target itself is never included.
func fuse(targetID int64, structured, semantic []models.Product) []models.Product {
	seen := map[int64]struct{}{targetID: {}}
	fused := make([]models.Product, 0, len(structured)+len(semantic))
	for _, set := range [][]models.Product{structured, semantic} {
		for _, p := range set {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			fused = append(fused, p)
		}
	}
	return fused
}
