// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/aigen"
	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/models"
)

// Store is the relational access the database-backed service needs.
// Implemented by the database package.
type Store interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	SoftDeleteProduct(ctx context.Context, id int64) error
	GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	InsertAIGenerationLog(ctx context.Context, log *models.AIGenerationLog) error
}

// SnapshotCache is the product cache the service reads through and
// invalidates on writes. Implemented by the cache package.
type SnapshotCache interface {
	Get(ctx context.Context, id int64) (*models.Product, error)
	Invalidate(ctx context.Context, id int64) error
}

// DBProductService is the primary catalog implementation: products live in
// the relational store, single-product reads go through the cache, and
// creates with missing content call out to the AI generator.
type DBProductService struct {
	store     Store
	cache     SnapshotCache
	generator aigen.Generator
	logger    zerolog.Logger
}

// NewDBProductService wires the database-backed catalog service. generator
// may be aigen.Disabled{} when generation is turned off.
func NewDBProductService(store Store, cache SnapshotCache, generator aigen.Generator) *DBProductService {
	return &DBProductService{
		store:     store,
		cache:     cache,
		generator: generator,
		logger:    logging.With().Str("component", "catalog").Logger(),
	}
}

// GetProduct returns the product snapshot for id through the cache.
func (s *DBProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.cache.Get(ctx, id)
}

// ListProducts returns all live products. The listing bypasses the cache;
// it is always served from the store.
func (s *DBProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

// CreateProduct resolves the category (creating it on first use), fills a
// missing description or image URL from the AI generator, and inserts the
// product. Generation is best-effort: a generator failure leaves the field
// empty and the create succeeds.
func (s *DBProductService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	category, err := s.store.GetOrCreateCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		CategoryID:  category.ID,
		Category:    category.Name,
	}

	var descGen, imageGen *aigen.Generation
	if p.Description == "" {
		descGen = s.generate(ctx, "description", p, s.generator.GenerateDescription)
	}
	if p.ImageURL == "" {
		imageGen = s.generate(ctx, "image", p, s.generator.GenerateImage)
	}

	if err := s.store.InsertProduct(ctx, p); err != nil {
		return nil, err
	}

	// Audit rows need the generated product id, so they land after the
	// insert. Audit failure never fails the create.
	s.audit(ctx, p.ID, "description", descGen)
	s.audit(ctx, p.ID, "image", imageGen)

	s.logger.Info().Int64("product_id", p.ID).Str("category", p.Category).Msg("product created")
	return p, nil
}

// generate runs one generation call and applies its output to the product.
// Returns nil when generation failed or produced nothing.
func (s *DBProductService) generate(ctx context.Context, kind string, p *models.Product,
	fn func(ctx context.Context, category, name string) (*aigen.Generation, error)) *aigen.Generation {
	gen, err := fn(ctx, p.Category, p.Name)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", kind).Str("name", p.Name).Msg("content generation failed")
		return nil
	}
	if gen == nil || gen.Output == "" {
		return nil
	}

	switch kind {
	case "description":
		p.Description = gen.Output
	case "image":
		p.ImageURL = gen.Output
	}
	return gen
}

// audit persists one AI generation log row.
func (s *DBProductService) audit(ctx context.Context, productID int64, kind string, gen *aigen.Generation) {
	if gen == nil {
		return
	}
	log := &models.AIGenerationLog{
		ProductID:      productID,
		GenerationType: kind,
		InputPrompt:    gen.Prompt,
		OutputResponse: gen.Output,
	}
	if err := s.store.InsertAIGenerationLog(ctx, log); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", productID).Str("type", kind).Msg("generation audit failed")
	}
}

// UpdateProduct replaces the mutable fields of the live product with id
// and invalidates its cached snapshot. Returns models.ErrProductNotFound
// when the id is absent or soft-deleted.
func (s *DBProductService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*models.Product, error) {
	category, err := s.store.GetOrCreateCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    in.ImageURL,
		CategoryID:  category.ID,
		Category:    category.Name,
	}
	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		// Stale reads self-heal on the next invalidation or cache restart;
		// the write itself has already committed.
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("cache invalidation failed after update")
	}

	// Re-read so the caller sees store-authoritative timestamps.
	updated, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload product %d after update: %w", id, err)
	}
	return updated, nil
}

// DeleteProduct soft-deletes the product and invalidates its cached
// snapshot. Returns models.ErrProductNotFound when the id is absent or
// already deleted.
func (s *DBProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("cache invalidation failed after delete")
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}
