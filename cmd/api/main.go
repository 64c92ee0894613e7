package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shipfeedhq/shipfeed-backend/api/routes"
	"github.com/shipfeedhq/shipfeed-backend/internal/bundle"
	"github.com/shipfeedhq/shipfeed-backend/internal/catalog"
	"github.com/shipfeedhq/shipfeed-backend/internal/feed"
	"github.com/shipfeedhq/shipfeed-backend/internal/orders"
	"github.com/shipfeedhq/shipfeed-backend/internal/transform"
	"github.com/shipfeedhq/shipfeed-backend/pkg/config"
	"github.com/shipfeedhq/shipfeed-backend/pkg/logger"
	"github.com/shipfeedhq/shipfeed-backend/pkg/metrics"
	"github.com/shipfeedhq/shipfeed-backend/pkg/redis"
	"github.com/shipfeedhq/shipfeed-backend/pkg/shopify"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured, webhook dedupe disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	transformMetrics := metrics.NewTransformMetrics(registry)

	var catalogResolver *catalog.Resolver
	var recipeResolver *bundle.RecipeResolver
	if cfg.Shopify.CatalogEnabled() {
		shopifyClient, err := shopify.New(cfg.Shopify, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap shopify client", err)
			os.Exit(1)
		}
		catalogResolver = catalog.NewResolver(shopifyClient, logg, transformMetrics)
		recipeResolver = bundle.NewRecipeResolver(shopifyClient)
	} else {
		logg.Warn(context.Background(), "shopify admin api not configured, catalog enrichment disabled")
		catalogResolver = catalog.NewResolver(nil, logg, transformMetrics)
		recipeResolver = bundle.NewRecipeResolver(nil)
	}

	pipeline := transform.New(recipeResolver, catalogResolver, logg, transformMetrics)
	store := orders.NewStore(cfg.Store.HistoryCapacity)
	serializer := feed.NewSerializer(cfg.Feed)

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, redisClient, pipeline, store, serializer, transformMetrics, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(drainCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(ctx, "shutdown complete")
}
