// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/mpatel-io/catalogus/internal/models"
	"github.com/mpatel-io/catalogus/internal/vector"
)

// fakeStore serves products from a map and records the price band passed
// to the range query.
type fakeStore struct {
	products    map[int64]models.Product
	similar     []models.Product
	similarErr  error
	lastMin     float64
	lastMax     float64
	lastExclude int64
}

func (s *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return &p, nil
}

func (s *fakeStore) FindSimilarInCategory(ctx context.Context, category string, minPrice, maxPrice float64, excludeID int64) ([]models.Product, error) {
	s.lastMin, s.lastMax, s.lastExclude = minPrice, maxPrice, excludeID
	return s.similar, s.similarErr
}

// fakeIndex returns canned documents and records the query.
type fakeIndex struct {
	docs      []vector.Document
	err       error
	lastQuery string
	calls     int
}

func (i *fakeIndex) UpsertBatch(ctx context.Context, docs []vector.Document) error { return nil }

func (i *fakeIndex) Search(ctx context.Context, query string, topK int) ([]vector.Document, error) {
	i.calls++
	i.lastQuery = query
	return i.docs, i.err
}

func product(id int64, name, category string, price float64) models.Product {
	return models.Product{ID: id, Name: name, Category: category, Price: price, Description: name + " desc"}
}

func TestHybridRecommendationsFusesAndDeduplicates(t *testing.T) {
	target := product(1, "Epic Fantasy Novel", "Books", 20)
	store := &fakeStore{
		products: map[int64]models.Product{
			1: target,
			2: product(2, "Mystery Novel", "Books", 18),
			3: product(3, "Sci-Fi Novel", "Books", 22),
			4: product(4, "Poetry Collection", "Books", 15),
		},
		similar: []models.Product{
			product(2, "Mystery Novel", "Books", 18),
			product(3, "Sci-Fi Novel", "Books", 22),
		},
	}
	// Semantic hits overlap on 3 and add 4; 1 is the target itself.
	index := &fakeIndex{docs: []vector.Document{
		vector.NewProductDocument(3, "Books", 22, "Sci-Fi Novel desc"),
		vector.NewProductDocument(1, "Books", 20, "Epic Fantasy Novel desc"),
		vector.NewProductDocument(4, "Books", 15, "Poetry Collection desc"),
	}}

	engine := NewEngine(store, index, 5)
	got, err := engine.HybridRecommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}

	wantIDs := []int64{2, 3, 4}
	if len(got) != len(wantIDs) {
		t.Fatalf("result count = %d, want %d (%+v)", len(got), len(wantIDs), got)
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("result[%d].ID = %d, want %d (structured first, then new semantic)", i, got[i].ID, want)
		}
	}

	if index.lastQuery != target.Description {
		t.Errorf("semantic query = %q, want target description", index.lastQuery)
	}
}

func TestHybridRecommendationsPriceBand(t *testing.T) {
	store := &fakeStore{products: map[int64]models.Product{
		9: product(9, "Oak Table", "Furniture", 100),
	}}
	engine := NewEngine(store, &fakeIndex{}, 5)

	if _, err := engine.HybridRecommendations(context.Background(), 9); err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if store.lastMin != 70 || store.lastMax != 130 {
		t.Errorf("price band = [%v, %v], want [70, 130]", store.lastMin, store.lastMax)
	}
	if store.lastExclude != 9 {
		t.Errorf("excluded id = %d, want 9", store.lastExclude)
	}
}

func TestHybridRecommendationsUnknownTarget(t *testing.T) {
	engine := NewEngine(&fakeStore{products: map[int64]models.Product{}}, &fakeIndex{}, 5)

	_, err := engine.HybridRecommendations(context.Background(), 404)
	if !errors.Is(err, models.ErrProductNotFound) {
		t.Errorf("error = %v, want ErrProductNotFound", err)
	}
}

func TestHybridRecommendationsSkipsSemanticWithoutDescription(t *testing.T) {
	target := product(5, "Bare Widget", "Tools", 10)
	target.Description = ""
	store := &fakeStore{
		products: map[int64]models.Product{5: target},
		similar:  []models.Product{product(6, "Other Widget", "Tools", 11)},
	}
	index := &fakeIndex{docs: []vector.Document{vector.NewProductDocument(6, "Tools", 11, "x")}}

	engine := NewEngine(store, index, 5)
	got, err := engine.HybridRecommendations(context.Background(), 5)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if index.calls != 0 {
		t.Errorf("index searched %d times, want 0 for empty description", index.calls)
	}
	if len(got) != 1 || got[0].ID != 6 {
		t.Errorf("result = %+v, want structured-only [6]", got)
	}
}

func TestHybridRecommendationsIndexFaultDegrades(t *testing.T) {
	store := &fakeStore{
		products: map[int64]models.Product{1: product(1, "Novel", "Books", 20)},
		similar:  []models.Product{product(2, "Other Novel", "Books", 21)},
	}
	index := &fakeIndex{err: errors.New("index down")}

	engine := NewEngine(store, index, 5)
	got, err := engine.HybridRecommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v, want structured-only degradation", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("result = %+v, want structured candidates only", got)
	}
}

func TestHybridRecommendationsSkipsBadDocuments(t *testing.T) {
	store := &fakeStore{
		products: map[int64]models.Product{1: product(1, "Novel", "Books", 20)},
	}
	index := &fakeIndex{docs: []vector.Document{
		{Content: "no id metadata", Metadata: map[string]string{}},
		{Content: "malformed id", Metadata: map[string]string{vector.MetaID: "not-a-number"}},
		vector.NewProductDocument(77, "Books", 20, "deleted since indexing"),
	}}

	engine := NewEngine(store, index, 5)
	got, err := engine.HybridRecommendations(context.Background(), 1)
	if err != nil {
		t.Fatalf("HybridRecommendations() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("result = %+v, want empty (all documents skippable)", got)
	}
}

func TestHybridRecommendationsStoreFaultFails(t *testing.T) {
	boom := errors.New("store down")
	store := &fakeStore{
		products:   map[int64]models.Product{1: product(1, "Novel", "Books", 20)},
		similarErr: boom,
	}

	engine := NewEngine(store, &fakeIndex{}, 5)
	_, err := engine.HybridRecommendations(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want store fault to fail the call", err)
	}
}
