// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mpatel-io/catalogus/internal/models"
)

// scanProduct reads one product row in productColumns order.
func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var description, imageURL sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &imageURL,
		&p.CategoryID, &p.Category, &p.IsDeleted, &p.CreatedAt, &p.LastModified); err != nil {
		return nil, err
	}
	p.Description = description.String
	p.ImageURL = imageURL.String
	return &p, nil
}

// GetProduct returns the live product with the given id, or
// models.ErrProductNotFound when the id is absent or soft-deleted.
func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.id = ? AND %s`, productColumns, liveProduct)

	p, err := scanProduct(db.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		observe("get", "products", start, nil)
		return nil, models.ErrProductNotFound
	}
	observe("get", "products", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return p, nil
}

// ListProducts returns all live products ordered by id.
func (db *DB) ListProducts(ctx context.Context) ([]models.Product, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s ORDER BY p.id`, productColumns, liveProduct)

	rows, err := db.conn.QueryContext(ctx, query)
	observe("list", "products", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// InsertProduct inserts a new product and fills in its generated id.
// CategoryID must already be resolved; timestamps are set here.
func (db *DB) InsertProduct(ctx context.Context, p *models.Product) error {
	start := time.Now()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.LastModified = now

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO products (name, description, price, image_url, category_id, is_deleted, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?, FALSE, ?, ?) RETURNING id`,
		p.Name, nullable(p.Description), p.Price, nullable(p.ImageURL),
		p.CategoryID, p.CreatedAt, p.LastModified,
	).Scan(&p.ID)
	observe("insert", "products", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct updates the live product matching p.ID. Returns
// models.ErrProductNotFound when there is no live row to update.
func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	start := time.Now()
	p.LastModified = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, image_url = ?,
			category_id = ?, last_modified = ?
		 WHERE id = ? AND is_deleted = FALSE`,
		p.Name, nullable(p.Description), p.Price, nullable(p.ImageURL),
		p.CategoryID, p.LastModified, p.ID)
	observe("update", "products", start, err)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// SoftDeleteProduct marks the product deleted without removing the row.
// Returns models.ErrProductNotFound when the id is absent or already
// deleted.
func (db *DB) SoftDeleteProduct(ctx context.Context, id int64) error {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE products SET is_deleted = TRUE, last_modified = ?
		 WHERE id = ? AND is_deleted = FALSE`,
		time.Now().UTC(), id)
	observe("soft_delete", "products", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// FindSimilarInCategory returns live products sharing the named category
// with price in [minPrice, maxPrice] (inclusive bounds), excluding
// excludeID. There is no cap on the result size.
func (db *DB) FindSimilarInCategory(ctx context.Context, category string, minPrice, maxPrice float64, excludeID int64) ([]models.Product, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE c.name = ?
		  AND p.price BETWEEN ? AND ?
		  AND p.id != ?
		  AND %s
		ORDER BY p.price, p.id`, productColumns, liveProduct)

	rows, err := db.conn.QueryContext(ctx, query, category, minPrice, maxPrice, excludeID)
	observe("find_similar", "products", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar products in %q: %w", category, err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// ListIndexableProducts returns the live products eligible for vector
// indexing: soft-delete flag unset and non-empty description.
func (db *DB) ListIndexableProducts(ctx context.Context) ([]models.Product, error) {
	start := time.Now()
	query := fmt.Sprintf(`SELECT %s FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE %s AND p.description IS NOT NULL AND p.description != ''
		ORDER BY p.id`, productColumns, liveProduct)

	rows, err := db.conn.QueryContext(ctx, query)
	observe("list_indexable", "products", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexable products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

// collectProducts drains rows into a slice.
func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product row iteration failed: %w", err)
	}
	return products, nil
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
