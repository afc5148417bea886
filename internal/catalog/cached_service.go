// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package catalog

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/models"
)

// CachedProductService routes single-product reads of an inner product
// service through the read-through cache. Used for the external-catalog
// variant, whose service is also the cache's backing fetcher; the
// DB-backed service carries its own cache wiring instead.
//
// Writes delegate to the inner service and invalidate the cached snapshot
// on success, so a read after a write observes the inner service's truth.
type CachedProductService struct {
	inner  ProductService
	cache  SnapshotCache
	logger zerolog.Logger
}

// NewCachedProductService wraps inner with cache-backed reads.
func NewCachedProductService(inner ProductService, cache SnapshotCache) *CachedProductService {
	return &CachedProductService{
		inner:  inner,
		cache:  cache,
		logger: logging.With().Str("component", "catalog").Logger(),
	}
}

// GetProduct serves the snapshot from the cache, falling through to the
// inner service on a miss.
func (s *CachedProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.cache.Get(ctx, id)
}

// ListProducts delegates to the inner service; list reads bypass the
// per-product cache.
func (s *CachedProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.inner.ListProducts(ctx)
}

// CreateProduct delegates to the inner service.
func (s *CachedProductService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	return s.inner.CreateProduct(ctx, in)
}

// UpdateProduct delegates to the inner service and invalidates the stale
// snapshot.
func (s *CachedProductService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*models.Product, error) {
	p, err := s.inner.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// DeleteProduct delegates to the inner service and invalidates the stale
// snapshot.
func (s *CachedProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.inner.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *CachedProductService) invalidate(ctx context.Context, id int64) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("cache invalidation failed")
	}
}
