// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/mpatel-io/catalogus/internal/catalog"
	"github.com/mpatel-io/catalogus/internal/database"
	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/models"
)

// Recommender produces hybrid recommendations for a product.
type Recommender interface {
	HybridRecommendations(ctx context.Context, productID int64) ([]models.Product, error)
}

// Searcher performs paginated catalog search.
type Searcher interface {
	Search(ctx context.Context, query string, pageNumber, pageSize int, sortField string) (models.Page[models.Product], error)
}

// SyncTrigger runs a vector sync on demand.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) error
	LastSyncTime() time.Time
}

// Handlers holds the serving-surface dependencies.
type Handlers struct {
	products    catalog.ProductService
	recommender Recommender
	searcher    Searcher
	syncTrigger SyncTrigger
	readyCheck  func(ctx context.Context) error
	validate    *validator.Validate
}

// NewHandlers wires the HTTP handlers. syncTrigger may be nil when the
// sync pipeline is disabled; readyCheck may be nil when there is no
// backing store to probe.
func NewHandlers(products catalog.ProductService, recommender Recommender, searcher Searcher,
	syncTrigger SyncTrigger, readyCheck func(ctx context.Context) error) *Handlers {
	return &Handlers{
		products:    products,
		recommender: recommender,
		searcher:    searcher,
		syncTrigger: syncTrigger,
		readyCheck:  readyCheck,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// pathID parses the {id} chi URL param.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", raw)
	}
	return id, nil
}

// serviceError maps domain errors to HTTP responses.
func (h *Handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, "product not found", nil)
	case errors.Is(err, catalog.ErrReadOnlyCatalog):
		respondError(w, r, http.StatusMethodNotAllowed, codeReadOnly, "catalog is read-only in this mode", nil)
	case errors.Is(err, database.ErrInvalidSortField):
		respondError(w, r, http.StatusBadRequest, codeValidation, "invalid sort field", nil)
	default:
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, codeInternal, "internal error", nil)
	}
}

// decodeInput parses and validates a product write payload.
func (h *Handlers) decodeInput(w http.ResponseWriter, r *http.Request) (*catalog.ProductInput, bool) {
	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, "malformed request body", nil)
		return nil, false
	}
	if err := h.validate.Struct(&in); err != nil {
		details := map[string]interface{}{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details[fe.Field()] = fmt.Sprintf("failed %q validation", fe.Tag())
			}
		}
		respondError(w, r, http.StatusBadRequest, codeValidation, "validation failed", details)
		return nil, false
	}
	return &in, true
}

// ListProducts handles GET /api/v1/products.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	products, err := h.products.ListProducts(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respond(w, r, http.StatusOK, products, start)
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product, start)
}

// CreateProduct handles POST /api/v1/products.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, product, start)
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, in)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, product, start)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("product %d deleted", id),
	}, start)
}

// Recommendations handles GET /api/v1/products/{id}/recommendations.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	recs, err := h.recommender.HybridRecommendations(r.Context(), id)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.Product{}
	}
	respond(w, r, http.StatusOK, recs, start)
}

// Search handles GET /api/v1/search?q=&page=&size=&sort=.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	query := q.Get("q")
	if query == "" {
		respondError(w, r, http.StatusBadRequest, codeValidation, "query parameter q is required", nil)
		return
	}
	page := queryInt(q.Get("page"), 0)
	size := queryInt(q.Get("size"), 20)
	if size > 100 {
		size = 100
	}
	sortField := q.Get("sort")
	if sortField == "" {
		sortField = "created_at"
	}

	result, err := h.searcher.Search(r.Context(), query, page, size, sortField)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result, start)
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// TriggerSync handles POST /api/v1/sync/trigger. The trigger returns
// immediately when a run is already in flight.
func (h *Handlers) TriggerSync(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.syncTrigger == nil {
		respondError(w, r, http.StatusServiceUnavailable, codeInternal, "sync pipeline is disabled", nil)
		return
	}

	if err := h.syncTrigger.TriggerSync(r.Context()); err != nil {
		h.serviceError(w, r, err)
		return
	}
	respond(w, r, http.StatusAccepted, map[string]interface{}{
		"message":   "sync triggered",
		"last_sync": h.syncTrigger.LastSyncTime(),
	}, start)
}

// Health handles GET /health: overall status plus last sync time.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := map[string]interface{}{"status": "ok"}
	if h.syncTrigger != nil {
		status["last_sync"] = h.syncTrigger.LastSyncTime()
	}
	respond(w, r, http.StatusOK, status, start)
}

// HealthLive handles GET /health/live: process liveness only.
func (h *Handlers) HealthLive(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /health/ready: probes the backing store.
func (h *Handlers) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.readyCheck != nil {
		if err := h.readyCheck(r.Context()); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, codeInternal, "store not ready", nil)
			return
		}
	}
	respond(w, r, http.StatusOK, map[string]string{"status": "ready"}, start)
}
