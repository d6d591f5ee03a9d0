package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/plexica/authz/pkg/cache"
	"github.com/plexica/authz/pkg/config"
	"github.com/plexica/authz/pkg/middleware"
	"github.com/plexica/authz/pkg/observability"
	"github.com/plexica/authz/pkg/rbac"
)

var (
	migrateSchema = flag.String("migrate", "", "Run migrations for the given tenant schema and exit")
	seedTenant    = flag.String("seed", "", "Seed system roles for the given tenant ID (requires -schema) and exit")
	seedSchema    = flag.String("schema", "", "Tenant schema to seed into, used with -seed")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.LogLevel), os.Stdout)
	metrics := observability.NewMetrics(nil)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	logrus.Info("Connected to database")

	if *migrateSchema != "" {
		if err := rbac.Migrate(context.Background(), db, *migrateSchema); err != nil {
			logrus.WithError(err).Fatal("Migration failed")
		}
		logrus.WithField("schema", *migrateSchema).Info("Migrations applied")
		return
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// The cache and limiter both fail open, so a cold redis is a
		// degraded start, not a fatal one.
		logrus.WithError(err).Warn("Redis unreachable at startup, caching and rate limiting will fail open")
	} else {
		logrus.Info("Connected to redis")
	}

	permCache := cache.NewRedisCache(redisClient, cache.Options{
		TTL:              cfg.Cache.TTL,
		DebounceInterval: cfg.Cache.DebounceInterval,
		Logger:           logger,
		Metrics:          metrics,
	})
	defer permCache.Close()

	store := rbac.NewStore(db, permCache, logger).WithMetrics(metrics)

	if *seedTenant != "" {
		if *seedSchema == "" {
			logrus.Fatal("-seed requires -schema")
		}
		if err := store.SeedTenant(context.Background(), *seedTenant, *seedSchema); err != nil {
			logrus.WithError(err).Fatal("Seeding failed")
		}
		logrus.WithField("tenant_id", *seedTenant).Info("System roles seeded")
		return
	}

	resolver := rbac.NewResolver(store, permCache, logger, metrics)
	handlers := rbac.NewHandlers(store, resolver, logger)

	limiter := middleware.NewMutationRateLimiter(redisClient, &middleware.MutationRateLimitConfig{
		Limit:    cfg.RateLimit.Limit,
		Window:   cfg.RateLimit.Window,
		Disabled: cfg.RateLimit.Disabled,
	}, logger, metrics)

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	}).Methods("GET")

	api := router.PathPrefix("/").Subrouter()
	api.Use(middleware.TenantContextMiddleware)
	api.Use(limiter.Middleware)
	handlers.RegisterRoutes(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.WithField("addr", server.Addr).Info("Starting authorization server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logrus.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Graceful shutdown failed")
	}
	logrus.Info("Server stopped")
}
