package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"titlesearch/internal/cache"
	"titlesearch/internal/factory"
	"titlesearch/internal/platform/config"
	"titlesearch/internal/platform/httpserver"
	"titlesearch/internal/platform/logger"
	platformmetrics "titlesearch/internal/platform/metrics"
	platformredis "titlesearch/internal/platform/redis"
	"titlesearch/internal/registry"
	"titlesearch/internal/search"
	searchhandler "titlesearch/internal/search/handler"
	searchmetrics "titlesearch/internal/search/metrics"
	"titlesearch/pkg/platform/middleware/requestid"
	"titlesearch/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	reg := registry.New(log)
	factory.RegisterBuiltinBuilders(reg)
	if cfg.RegistryPath != "" {
		if err := reg.LoadFile(cfg.RegistryPath); err != nil {
			log.Error("failed to load source registry", "path", cfg.RegistryPath, "error", err)
			os.Exit(1)
		}
	} else {
		reg.AddDefaults()
	}

	var factoryOpts []factory.Option
	if cfg.FactoryStrict {
		factoryOpts = append(factoryOpts, factory.WithStrictMode(true))
	}
	connectorFactory := factory.New(reg, log, factoryOpts...)

	var store cache.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		store = cache.NewRedis(redisClient.Client, cfg.CacheTTL)
		log.Info("using redis result cache", "ttl", cfg.CacheTTL)
	} else {
		store = cache.NewInMemory(cfg.CacheTTL)
		log.Info("using in-memory result cache", "ttl", cfg.CacheTTL)
	}

	svc := search.New(reg, connectorFactory, store, log,
		search.WithMaxConcurrent(cfg.MaxConcurrent),
		search.WithMetrics(searchmetrics.New()),
	)

	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(httpMetrics.Middleware)
	router.Use(chimiddleware.Timeout(cfg.SearchTimeout + 10*time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Route("/api", searchhandler.New(svc, log).Register)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting titlesearch server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
}
