// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/mpatel-io/catalogus/internal/aigen"
	"github.com/mpatel-io/catalogus/internal/models"
)

// memStore is an in-memory Store double recording writes.
type memStore struct {
	nextID     int64
	products   map[int64]*models.Product
	categories map[string]int64
	genLogs    []models.AIGenerationLog
	genLogErr  error
}

func newMemStore() *memStore {
	return &memStore{
		nextID:     1,
		products:   map[int64]*models.Product{},
		categories: map[string]int64{},
	}
}

func (s *memStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memStore) InsertProduct(ctx context.Context, p *models.Product) error {
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	existing, ok := s.products[p.ID]
	if !ok || existing.IsDeleted {
		return models.ErrProductNotFound
	}
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *memStore) SoftDeleteProduct(ctx context.Context, id int64) error {
	p, ok := s.products[id]
	if !ok || p.IsDeleted {
		return models.ErrProductNotFound
	}
	p.IsDeleted = true
	return nil
}

func (s *memStore) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if id, ok := s.categories[name]; ok {
		return &models.Category{ID: id, Name: name}, nil
	}
	id := int64(len(s.categories) + 1)
	s.categories[name] = id
	return &models.Category{ID: id, Name: name}, nil
}

func (s *memStore) InsertAIGenerationLog(ctx context.Context, log *models.AIGenerationLog) error {
	if s.genLogErr != nil {
		return s.genLogErr
	}
	s.genLogs = append(s.genLogs, *log)
	return nil
}

// passCache is a cache double that only records invalidations; Get always
// falls through to the store.
type passCache struct {
	store        *memStore
	invalidated  []int64
	invalidteErr error
}

func (c *passCache) Get(ctx context.Context, id int64) (*models.Product, error) {
	return c.store.GetProduct(ctx, id)
}

func (c *passCache) Invalidate(ctx context.Context, id int64) error {
	c.invalidated = append(c.invalidated, id)
	return c.invalidteErr
}

// scriptedGenerator returns canned generations or a failure.
type scriptedGenerator struct {
	description string
	image       string
	err         error
	descCalls   int
	imageCalls  int
}

func (g *scriptedGenerator) GenerateDescription(ctx context.Context, category, name string) (*aigen.Generation, error) {
	g.descCalls++
	if g.err != nil {
		return nil, g.err
	}
	return &aigen.Generation{Prompt: "desc prompt", Output: g.description}, nil
}

func (g *scriptedGenerator) GenerateImage(ctx context.Context, category, name string) (*aigen.Generation, error) {
	g.imageCalls++
	if g.err != nil {
		return nil, g.err
	}
	return &aigen.Generation{Prompt: "image prompt", Output: g.image}, nil
}

func newTestService(gen aigen.Generator) (*DBProductService, *memStore, *passCache) {
	store := newMemStore()
	cache := &passCache{store: store}
	if gen == nil {
		gen = aigen.Disabled{}
	}
	return NewDBProductService(store, cache, gen), store, cache
}

func TestCreateProductResolvesCategoryLazily(t *testing.T) {
	svc, store, _ := newTestService(nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{Name: "Desk", Description: "d", Price: 100, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if p.ID == 0 || p.Category != "Furniture" || p.CategoryID == 0 {
		t.Errorf("created = %+v, want resolved category", p)
	}

	// Second product in the same category reuses the id.
	q, err := svc.CreateProduct(ctx, &ProductInput{Name: "Chair", Description: "c", Price: 50, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if q.CategoryID != p.CategoryID {
		t.Errorf("category ids differ: %d != %d", q.CategoryID, p.CategoryID)
	}
	if len(store.categories) != 1 {
		t.Errorf("categories created = %d, want 1", len(store.categories))
	}
}

func TestCreateProductGeneratesMissingContent(t *testing.T) {
	gen := &scriptedGenerator{description: "a generated description", image: "https://img.example/1.png"}
	svc, store, _ := newTestService(gen)

	p, err := svc.CreateProduct(context.Background(), &ProductInput{Name: "Desk", Price: 100, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if p.Description != "a generated description" || p.ImageURL != "https://img.example/1.png" {
		t.Errorf("created = %+v, want generated content applied", p)
	}

	if len(store.genLogs) != 2 {
		t.Fatalf("generation audit rows = %d, want 2", len(store.genLogs))
	}
	for _, log := range store.genLogs {
		if log.ProductID != p.ID {
			t.Errorf("audit product id = %d, want %d", log.ProductID, p.ID)
		}
		if log.InputPrompt == "" || log.OutputResponse == "" {
			t.Errorf("audit row incomplete: %+v", log)
		}
	}
}

func TestCreateProductSkipsGenerationWhenProvided(t *testing.T) {
	gen := &scriptedGenerator{description: "unused", image: "unused"}
	svc, store, _ := newTestService(gen)

	p, err := svc.CreateProduct(context.Background(), &ProductInput{
		Name: "Desk", Description: "author supplied", ImageURL: "https://img.example/me.png",
		Price: 100, Category: "Furniture",
	})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if gen.descCalls != 0 || gen.imageCalls != 0 {
		t.Errorf("generator called (%d, %d) times, want (0, 0)", gen.descCalls, gen.imageCalls)
	}
	if p.Description != "author supplied" {
		t.Errorf("description = %q, overwritten by generator", p.Description)
	}
	if len(store.genLogs) != 0 {
		t.Errorf("audit rows = %d, want 0", len(store.genLogs))
	}
}

func TestCreateProductGenerationFailureDegrades(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("model unavailable")}
	svc, store, _ := newTestService(gen)

	p, err := svc.CreateProduct(context.Background(), &ProductInput{Name: "Desk", Price: 100, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v, generation failures must not fail the write", err)
	}
	if p.Description != "" || p.ImageURL != "" {
		t.Errorf("created = %+v, want empty generated fields on failure", p)
	}
	if len(store.genLogs) != 0 {
		t.Errorf("audit rows = %d, want 0 for failed generations", len(store.genLogs))
	}
}

func TestCreateProductAuditFailureIsSilent(t *testing.T) {
	gen := &scriptedGenerator{description: "generated"}
	svc, store, _ := newTestService(gen)
	store.genLogErr = errors.New("audit table full")

	if _, err := svc.CreateProduct(context.Background(), &ProductInput{Name: "Desk", Price: 100, Category: "Furniture"}); err != nil {
		t.Fatalf("CreateProduct() error = %v, audit failure must be silent", err)
	}
}

func TestUpdateProductInvalidatesCache(t *testing.T) {
	svc, _, cache := newTestService(nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{Name: "Lamp", Description: "d", Price: 25, Category: "Lighting"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	updated, err := svc.UpdateProduct(ctx, p.ID, &ProductInput{Name: "Brass Lamp", Description: "d", Price: 39, Category: "Lighting"})
	if err != nil {
		t.Fatalf("UpdateProduct() error = %v", err)
	}
	if updated.Name != "Brass Lamp" || updated.Price != 39 {
		t.Errorf("updated = %+v", updated)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != p.ID {
		t.Errorf("invalidations = %v, want [%d]", cache.invalidated, p.ID)
	}
}

func TestUpdateProductUnknownID(t *testing.T) {
	svc, _, cache := newTestService(nil)

	_, err := svc.UpdateProduct(context.Background(), 404, &ProductInput{Name: "x", Price: 1, Category: "C"})
	if !errors.Is(err, models.ErrProductNotFound) {
		t.Errorf("error = %v, want ErrProductNotFound", err)
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("invalidations = %v, want none for a failed update", cache.invalidated)
	}
}

func TestDeleteProductInvalidatesCache(t *testing.T) {
	svc, store, cache := newTestService(nil)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{Name: "Chair", Description: "d", Price: 50, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}

	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct() error = %v", err)
	}
	if !store.products[p.ID].IsDeleted {
		t.Error("product not soft-deleted in store")
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != p.ID {
		t.Errorf("invalidations = %v, want [%d]", cache.invalidated, p.ID)
	}

	if err := svc.DeleteProduct(ctx, p.ID); !errors.Is(err, models.ErrProductNotFound) {
		t.Errorf("second delete error = %v, want ErrProductNotFound", err)
	}
}

func TestDeleteProductCacheFailureIsSilent(t *testing.T) {
	svc, _, cache := newTestService(nil)
	cache.invalidteErr = errors.New("cache down")
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, &ProductInput{Name: "Chair", Description: "d", Price: 50, Category: "Furniture"})
	if err != nil {
		t.Fatalf("CreateProduct() error = %v", err)
	}
	if err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Errorf("DeleteProduct() error = %v, cache failure must not fail the delete", err)
	}
}
