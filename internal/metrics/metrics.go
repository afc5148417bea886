// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Package metrics provides Prometheus instrumentation for Catalogus:
// API latency and throughput, DuckDB query performance, product cache
// efficiency, vector sync runs, and external API circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogus_duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Product cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogus_product_cache_hits_total",
			Help: "Total number of product cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalogus_product_cache_misses_total",
			Help: "Total number of product cache misses",
		},
	)

	// Vector sync metrics
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_vector_sync_runs_total",
			Help: "Total number of vector sync runs by outcome",
		},
		[]string{"result"}, // "success", "error", "skipped"
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalogus_vector_sync_duration_seconds",
			Help:    "Duration of vector sync runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	SyncDocumentsIndexed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogus_vector_sync_documents_indexed",
			Help: "Number of documents upserted by the last sync run",
		},
	)

	// Recommendation metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogus_recommendation_requests_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"result"}, // "success", "not_found", "error"
	)

	// External API circuit breaker state (0 = closed, 1 = half-open, 2 = open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalogus_circuit_breaker_state",
			Help: "Circuit breaker state: 0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)
)
