package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"model-version-registry/internal/adapters/primary/http/handlers"
	"model-version-registry/internal/adapters/primary/http/middleware"
	"model-version-registry/internal/adapters/secondary/cache"
	"model-version-registry/internal/adapters/secondary/kserve"
	"model-version-registry/internal/adapters/secondary/memory"
	"model-version-registry/internal/adapters/secondary/postgres"
	"model-version-registry/internal/adapters/secondary/predictor"
	"model-version-registry/internal/config"
	output "model-version-registry/internal/core/ports/output"
	"model-version-registry/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Secondary Adapters (Output Ports - Stores)
	var registryStore output.RegistryStore
	var endpointRepo output.EndpointRepository
	healthCheck := func(context.Context) error { return nil }

	switch cfg.Registry.Store {
	case "memory":
		registryStore = memory.NewRegistryStore()
		endpointRepo = memory.NewEndpointRepository()
		log.Warn("using in-memory registry store; data is lost on restart")
	default:
		pool, err := newPool(&cfg.Database)
		if err != nil {
			log.Fatalf("connect db: %v", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalf("migrate db: %v", err)
		}
		log.Info("database connection established")

		registryStore = postgres.NewRegistryStore(pool)
		endpointRepo = postgres.NewEndpointRepository(pool)
		healthCheck = pool.Ping
	}

	if cfg.Registry.CacheTTL > 0 {
		registryStore = cache.NewRegistryStore(registryStore, cfg.Registry.CacheTTL)
		log.WithField("ttl", cfg.Registry.CacheTTL).Info("registry snapshot cache enabled")
	}

	// KServe Client (Optional - based on config)
	var kserveClient output.KServeClient
	if cfg.Kubernetes.Enabled {
		client, err := kserve.NewKServeClient(&cfg.Kubernetes)
		if err != nil {
			log.Warnf("KServe client init failed (continuing without K8s integration): %v", err)
		} else {
			kserveClient = client
			log.Info("KServe client initialized")
		}
	} else {
		log.Info("KServe integration disabled")
	}

	predictionClient := predictor.NewPredictionClient(&cfg.Predictor)

	// Core Services (Application Layer)
	versionSvc := services.NewModelVersionService(registryStore, services.RegistryOptions{
		Project:            cfg.Registry.Project,
		Location:           cfg.Registry.Location,
		FirstVersionPolicy: cfg.Registry.FirstVersionPolicy,
		WriteTimeout:       cfg.Registry.WriteTimeout,
	})
	endpointSvc := services.NewEndpointService(endpointRepo, registryStore, kserveClient, predictionClient, cfg.Kubernetes.DefaultNS)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(versionSvc, endpointSvc)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1/model-registry")
	h.RegisterRoutes(api)

	router.GET("/healthz", func(c *gin.Context) {
		if err := healthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func newPool(cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
