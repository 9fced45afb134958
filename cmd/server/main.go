// Package main is the entry point for the lotledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lotledger/internal/domain/tracking"
	"lotledger/internal/infrastructure/accounting"
	"lotledger/internal/infrastructure/cache"
	v1 "lotledger/internal/infrastructure/http/v1"
	"lotledger/internal/infrastructure/numbering"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/internal/infrastructure/storage/postgres/catalog_repo"
	"lotledger/internal/infrastructure/storage/postgres/inventory_repo"
	"lotledger/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting lotledger server")

	// --- Database connection ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if getEnv("AUTO_MIGRATE", "false") == "true" {
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Fatalw("failed to apply schema", "error", err)
		}
	}

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	batchRepo := inventory_repo.NewBatchRepo(txManager)
	ledgerRepo := inventory_repo.NewLedgerRepo(txManager)
	reportRepo := inventory_repo.NewReportRepo(txManager)
	vendorRepo := catalog_repo.NewVendorRepo(txManager)

	itemTTL := getEnvDuration("ITEM_CACHE_TTL", 5*time.Minute)
	itemReader := cache.NewItemCache(catalog_repo.NewItemRepo(txManager), itemTTL)

	// --- Accounting outbox ---
	poster := accounting.NewOutboxPoster(postgres.NewOutboxPublisher(txManager))

	// --- Audit trail ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Tracking Service ---
	trackingService := tracking.NewService(tracking.ServiceConfig{
		Batches:   batchRepo,
		Ledger:    ledgerRepo,
		Reports:   reportRepo,
		Items:     itemReader,
		Vendors:   vendorRepo,
		Codes:     numbering.New(batchRepo),
		TxManager: txManager,
		Poster:    poster,
		Auditor:   auditService,
	})

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:     pool,
		Logger:   log,
		Tracking: trackingService,
		Batches:  batchRepo,
		Ledger:   ledgerRepo,
		Reports:  reportRepo,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
