// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package search implements paginated, sorted substring search over the
// catalog with search-query auditing.
package search

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/models"
)

// Store is the catalog access the search engine needs. Implemented by
// the database package.
type Store interface {
	// SearchProductsByName returns one page of live products whose name
	// contains query, plus the total match count.
	SearchProductsByName(ctx context.Context, query string, pageNumber, pageSize int, sortField string) ([]models.Product, int64, error)

	// InsertSearchLog appends one search audit record.
	InsertSearchLog(ctx context.Context, log *models.SearchLog) error
}

// Engine performs catalog searches and audits every invocation.
type Engine struct {
	store  Store
	logger zerolog.Logger
}

// NewEngine creates a search engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{
		store:  store,
		logger: logging.With().Str("component", "search").Logger(),
	}
}

// Search performs a substring match of query against product names among
// non-deleted products, sorted by sortField descending with price
// ascending as the tie-break. pageNumber is zero-based.
//
// Before executing, the invocation is audited as a SearchLog row. The
// audit is fire-and-forget: a logging failure is logged and never blocks
// or fails the search itself.
func (e *Engine) Search(ctx context.Context, query string, pageNumber, pageSize int, sortField string) (models.Page[models.Product], error) {
	audit := &models.SearchLog{
		Query:      query,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		SortParam:  sortField,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.store.InsertSearchLog(ctx, audit); err != nil {
		e.logger.Warn().Err(err).Str("query", query).Msg("search audit failed")
	}

	products, total, err := e.store.SearchProductsByName(ctx, query, pageNumber, pageSize, sortField)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return models.NewPage(products, pageNumber, pageSize, total), nil
}
