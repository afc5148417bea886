// Catalogus - Product Catalog and Hybrid Recommendation Service
// Copyright 2026 M. Patel (mpatel-io)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mpatel-io/catalogus

// Command server runs the Catalogus API server: the DuckDB catalog store,
// the Badger product cache, the vector sync pipeline and the chi HTTP
// surface, all under a suture supervision tree.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mpatel-io/catalogus/internal/aigen"
	"github.com/mpatel-io/catalogus/internal/api"
	"github.com/mpatel-io/catalogus/internal/cache"
	"github.com/mpatel-io/catalogus/internal/catalog"
	"github.com/mpatel-io/catalogus/internal/config"
	"github.com/mpatel-io/catalogus/internal/database"
	"github.com/mpatel-io/catalogus/internal/logging"
	"github.com/mpatel-io/catalogus/internal/recommend"
	"github.com/mpatel-io/catalogus/internal/search"
	"github.com/mpatel-io/catalogus/internal/supervisor"
	"github.com/mpatel-io/catalogus/internal/supervisor/services"
	"github.com/mpatel-io/catalogus/internal/syncer"
	"github.com/mpatel-io/catalogus/internal/vector"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Str("catalog", cfg.Catalog.Provider).Msg("catalogus starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	var embedder vector.Embedder
	switch cfg.Embedding.Provider {
	case "api":
		embedder = vector.NewAPIEmbedder(cfg.Embedding.Endpoint, cfg.Embedding.APIKey,
			cfg.Embedding.Model, cfg.Embedding.Dimensions)
	default:
		embedder = vector.NewHashingEmbedder(cfg.Embedding.Dimensions)
	}

	index, err := vector.NewDuckDBIndex(db.Conn(), embedder, cfg.Vector.IndexName)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create vector index")
	}

	var generator aigen.Generator = aigen.Disabled{}
	if cfg.AIGen.Enabled {
		generator = aigen.NewClient(cfg.AIGen.Endpoint, cfg.AIGen.APIKey, cfg.AIGen.Model)
	}

	// The catalog provider selects the product service, the cache's
	// backing fetcher, the recommendation store and the sync source.
	var (
		fetcher        cache.Fetcher
		recommendStore recommend.CatalogStore
		syncSource     syncer.Catalog
	)
	var fakeStore *catalog.FakeStoreProductService
	switch cfg.Catalog.Provider {
	case "fakestore":
		fakeStore = catalog.NewFakeStoreProductService(catalog.FakeStoreConfig{
			BaseURL:           cfg.FakeStore.BaseURL,
			Timeout:           cfg.FakeStore.Timeout,
			RequestsPerSecond: cfg.FakeStore.RequestsPerSecond,
		})
		fetcher = fakeStore
		recommendStore = fakeStore
		syncSource = fakeStore
	default:
		fetcher = cache.FetcherFunc(db.GetProduct)
		recommendStore = db
		syncSource = db
	}

	productCache, err := cache.Open(cfg.Cache.Path, fetcher)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open product cache")
	}
	defer productCache.Close()

	var products catalog.ProductService
	if fakeStore != nil {
		// Single-product reads go through the cache; the service itself is
		// the cache's backing fetcher.
		products = catalog.NewCachedProductService(fakeStore, productCache)
	} else {
		products = catalog.NewDBProductService(db, productCache, generator)
	}

	recommender := recommend.NewEngine(recommendStore, index, cfg.Vector.TopK)
	searcher := search.NewEngine(db)

	var syncManager *syncer.Manager
	if cfg.Sync.Enabled {
		syncManager = syncer.NewManager(syncSource, index, cfg.Sync.Interval)
	}

	var syncTrigger api.SyncTrigger
	if syncManager != nil {
		syncTrigger = syncManager
	}
	handlers := api.NewHandlers(products, recommender, searcher, syncTrigger, db.Ping)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg.API, handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	if syncManager != nil {
		tree.AddPipelineService(services.NewSyncService(syncManager))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && err != context.Canceled {
		logging.Error().Err(err).Msg("supervisor terminated with error")
		os.Exit(1)
	}

	logging.Info().Msg("catalogus stopped")
}
