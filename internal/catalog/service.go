// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package catalog implements the product write/read service on top of the
// relational store, the read-through cache and the AI content generator.
// Two implementations exist: the primary database-backed service and a
// read-only variant proxying the FakeStore demo API.
package catalog

import (
	"context"
	"errors"

	"github.com/mpatel-io/catalogus/internal/models"
)

// ErrReadOnlyCatalog is returned by write operations on catalog variants
// that do not own their data.
var ErrReadOnlyCatalog = errors.New("catalog is read-only")

// ProductInput is the write payload for creating or updating a product.
// Category is a name, resolved (and lazily created) by the service.
type ProductInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
	Category    string  `json:"category" validate:"required,min=1,max=255"`
}

// ProductService is the catalog surface the API serves. Implementations
// must return models.ErrProductNotFound for ids with no live product.
type ProductService interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in *ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
