// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/metrics"
	"github.com/mpatel-io/catalogus/internal/models"
)

// fakeStoreProduct is the wire shape of the FakeStore demo API.
type fakeStoreProduct struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

// FakeStoreConfig tunes the FakeStore client.
type FakeStoreConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// FakeStoreProductService is a read-only catalog variant backed by the
// public FakeStore API. All requests pass through a rate limiter and a
// circuit breaker; write operations return ErrReadOnlyCatalog.
//
// It also implements the cache fetcher and sync catalog contracts, so the
// read-through cache and the vector pipeline work unchanged in this mode.
type FakeStoreProductService struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewFakeStoreProductService creates the FakeStore-backed catalog.
//
// Circuit breaker configuration mirrors the rest of the outbound clients:
// 3 requests in half-open state, 1 minute measurement window, 2 minute
// recovery timeout, opens at a 60% failure rate over at least 10 requests.
func NewFakeStoreProductService(cfg FakeStoreConfig) *FakeStoreProductService {
	const cbName = "fakestore-api"

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://fakestoreapi.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}

	logger := logging.With().Str("component", "fakestore").Logger()
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(cbStateValue(to))
		},
	})

	return &FakeStoreProductService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		cb:      cb,
		logger:  logger,
	}
}

func cbStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// get fetches one API path through the limiter and breaker and returns the
// raw body. A 404 maps to models.ErrProductNotFound.
func (s *FakeStoreProductService) get(ctx context.Context, path string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	body, err := s.cb.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, models.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn().Err(err).Str("path", path).Msg("request rejected by circuit breaker")
		}
		return nil, err
	}
	return body, nil
}

// toProduct maps a FakeStore payload to the domain model. The upstream API
// owns ids and categories; CategoryID stays zero in this mode.
func toProduct(fs fakeStoreProduct) models.Product {
	return models.Product{
		ID:          fs.ID,
		Name:        fs.Title,
		Description: fs.Description,
		Price:       fs.Price,
		ImageURL:    fs.Image,
		Category:    fs.Category,
	}
}

// GetProduct fetches one product from the upstream API.
//
// The FakeStore API answers unknown ids with an empty 200 body rather than
// a 404; both map to models.ErrProductNotFound.
func (s *FakeStoreProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	body, err := s.get(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 || string(body) == "null" {
		return nil, models.ErrProductNotFound
	}

	var fs fakeStoreProduct
	if err := json.Unmarshal(body, &fs); err != nil {
		return nil, fmt.Errorf("failed to decode product %d: %w", id, err)
	}
	if fs.ID == 0 {
		return nil, models.ErrProductNotFound
	}

	p := toProduct(fs)
	return &p, nil
}

// FetchProduct makes the service usable as the cache's backing fetcher.
func (s *FakeStoreProductService) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.GetProduct(ctx, id)
}

// ListProducts fetches the full upstream catalog.
func (s *FakeStoreProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	body, err := s.get(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var raw []fakeStoreProduct
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode product list: %w", err)
	}

	products := make([]models.Product, 0, len(raw))
	for _, fs := range raw {
		products = append(products, toProduct(fs))
	}
	return products, nil
}

// ListIndexableProducts returns the upstream products with a non-empty
// description, making the FakeStore catalog a valid sync source.
func (s *FakeStoreProductService) ListIndexableProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	indexable := products[:0]
	for _, p := range products {
		if p.Description != "" {
			indexable = append(indexable, p)
		}
	}
	return indexable, nil
}

// FindSimilarInCategory filters the upstream catalog client-side: same
// category, price in [minPrice, maxPrice] inclusive, excluding excludeID,
// ordered by price then id. The upstream API has no range query, so the
// full list is fetched and filtered here.
func (s *FakeStoreProductService) FindSimilarInCategory(ctx context.Context, category string, minPrice, maxPrice float64, excludeID int64) ([]models.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	var similar []models.Product
	for _, p := range products {
		if p.Category != category || p.ID == excludeID {
			continue
		}
		if p.Price < minPrice || p.Price > maxPrice {
			continue
		}
		similar = append(similar, p)
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].Price != similar[j].Price {
			return similar[i].Price < similar[j].Price
		}
		return similar[i].ID < similar[j].ID
	})
	return similar, nil
}

// CreateProduct is not supported; the upstream API owns the data.
func (s *FakeStoreProductService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	return nil, ErrReadOnlyCatalog
}

// UpdateProduct is not supported; the upstream API owns the data.
func (s *FakeStoreProductService) UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*models.Product, error) {
	return nil, ErrReadOnlyCatalog
}

// DeleteProduct is not supported; the upstream API owns the data.
func (s *FakeStoreProductService) DeleteProduct(ctx context.Context, id int64) error {
	return ErrReadOnlyCatalog
}
