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

// GetOrCreateCategory returns the category with the given name, creating
// it on first use. Names are unique and case-sensitive; categories are
// never deleted.
func (db *DB) GetOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	start := time.Now()

	var c models.Category
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at, last_modified FROM categories WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.LastModified)
	if err == nil {
		observe("get", "categories", start, nil)
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		observe("get", "categories", start, err)
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	now := time.Now().UTC()
	c = models.Category{Name: name, CreatedAt: now, LastModified: now}
	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO categories (name, created_at, last_modified) VALUES (?, ?, ?) RETURNING id`,
		c.Name, c.CreatedAt, c.LastModified,
	).Scan(&c.ID)
	observe("insert", "categories", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	db.logger.Debug().Str("category", name).Int64("id", c.ID).Msg("category created")
	return &c, nil
}
