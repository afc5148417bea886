// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mpatel-io/catalogus/internal/models"
)

// sortColumns is the allowlist of sortable fields. Sort input never
// reaches SQL directly; it is mapped through this table first.
var sortColumns = map[string]string{
	"name":          "p.name",
	"price":         "p.price",
	"created_at":    "p.created_at",
	"last_modified": "p.last_modified",
}

// ErrInvalidSortField is returned when a search sort field is not in the
// allowlist.
var ErrInvalidSortField = fmt.Errorf("invalid sort field")

// ValidSortField reports whether field is an accepted search sort key.
func ValidSortField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// SearchProductsByName performs a substring match of query against the
// names of live products, sorted by sortField descending with price
// ascending as the tie-break. pageNumber is zero-based. The second return
// value is the total match count across all pages.
func (db *DB) SearchProductsByName(ctx context.Context, query string, pageNumber, pageSize int, sortField string) ([]models.Product, int64, error) {
	column, ok := sortColumns[sortField]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidSortField, sortField)
	}
	if pageNumber < 0 {
		pageNumber = 0
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	start := time.Now()

	var total int64
	countQuery := fmt.Sprintf(`SELECT count(*) FROM products p WHERE %s AND contains(p.name, ?)`, liveProduct)
	err := db.conn.QueryRowContext(ctx, countQuery, query).Scan(&total)
	if err != nil {
		observe("search_count", "products", start, err)
		return nil, 0, fmt.Errorf("failed to count search matches: %w", err)
	}

	// column comes from the allowlist above, never from user input.
	pageQuery := fmt.Sprintf(`SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s AND contains(p.name, ?)
		ORDER BY %s DESC, p.price ASC
		LIMIT ? OFFSET ?`, productColumns, liveProduct, column)

	rows, err := db.conn.QueryContext(ctx, pageQuery, query, pageSize, pageNumber*pageSize)
	observe("search", "products", start, err)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// InsertSearchLog appends one search audit record.
func (db *DB) InsertSearchLog(ctx context.Context, log *models.SearchLog) error {
	start := time.Now()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO search_logs (query, page_number, page_size, sort_param, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		log.Query, log.PageNumber, log.PageSize, log.SortParam, log.CreatedAt,
	).Scan(&log.ID)
	observe("insert", "search_logs", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert search log: %w", err)
	}
	return nil
}

// InsertAIGenerationLog appends one AI generation audit record.
func (db *DB) InsertAIGenerationLog(ctx context.Context, log *models.AIGenerationLog) error {
	start := time.Now()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO ai_generation_logs (product_id, generation_type, input_prompt, output_response, created_at)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`,
		log.ProductID, log.GenerationType, log.InputPrompt, log.OutputResponse, log.CreatedAt,
	).Scan(&log.ID)
	observe("insert", "ai_generation_logs", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert AI generation log: %w", err)
	}
	return nil
}
