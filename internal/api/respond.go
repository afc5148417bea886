// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package api is the HTTP serving surface: a chi router over the catalog
// service, the recommendation and search engines and the sync pipeline,
// returning every payload in the models.APIResponse envelope.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/models"
)

// Error codes used in APIError payloads.
const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeReadOnly   = "READ_ONLY_CATALOG"
	codeInternal   = "SERVICE_ERROR"
)

// respond writes a success envelope. started stamps query_time_ms.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}, started time.Time) {
	writeJSON(w, r, status, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	})
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]interface{}) {
	writeJSON(w, r, status, models.APIResponse{
		Status: "error",
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := logging.Ctx(r.Context())
		logger.Error().Err(err).Msg("failed to encode response")
	}
}
