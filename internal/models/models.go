// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package models defines the domain entities shared across Catalogus.
package models

import (
	"errors"
	"time"
)

// ErrProductNotFound signals that a product id does not resolve to a live
// (non-soft-deleted) row. It is the only domain error that reaches API
// clients as a distinguishable response; everything else degrades to a
// generic failure at the serving boundary.
var ErrProductNotFound = errors.New("product not found")

// Product is a catalog entry. Products are never physically removed;
// Delete sets IsDeleted and every read path filters on it.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url,omitempty"`
	CategoryID   int64     `json:"category_id,omitempty"`
	Category     string    `json:"category"`
	IsDeleted    bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// Category groups products by name. Names are unique and case-sensitive.
// Categories are created lazily on first use and never deleted.
type Category struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// SearchLog is an append-only audit record of a search invocation.
// It is written before the search executes and never read back by the
// system itself.
type SearchLog struct {
	ID         int64     `json:"id"`
	Query      string    `json:"query"`
	PageNumber int       `json:"page_number"`
	PageSize   int       `json:"page_size"`
	SortParam  string    `json:"sort_param"`
	CreatedAt  time.Time `json:"created_at"`
}

// AIGenerationLog records a single AI content generation (description or
// image) performed on behalf of a product write.
type AIGenerationLog struct {
	ID             int64     `json:"id"`
	ProductID      int64     `json:"product_id"`
	GenerationType string    `json:"generation_type"` // "description" or "image"
	InputPrompt    string    `json:"input_prompt"`
	OutputResponse string    `json:"output_response"`
	CreatedAt      time.Time `json:"created_at"`
}

// Page is one page of a sorted result set, carrying the total match count
// needed by UI pagination controls.
type Page[T any] struct {
	Items      []T   `json:"items"`
	PageNumber int   `json:"page_number"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewPage computes the pagination descriptor for a result slice.
func NewPage[T any](items []T, pageNumber, pageSize int, totalCount int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	}
	return Page[T]{
		Items:      items,
		PageNumber: pageNumber,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
