// Package main is the entry point for the lotledger background worker.
// It relays pending outbox messages to the accounting service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lotledger/internal/infrastructure/accounting"
	"lotledger/internal/infrastructure/storage/postgres"
	"lotledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting lotledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	forwarder := accounting.NewForwarder(
		mustEnv("ACCOUNTING_URL"),
		getEnvDuration("ACCOUNTING_TIMEOUT", 10*time.Second),
	)

	relay := postgres.NewOutboxRelay(pool.Pool, getEnvInt("OUTBOX_BATCH_SIZE", 100), forwarder)

	worker := &RelayWorker{
		relay:        relay,
		pollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		log:          log.WithComponent("outbox-relay"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// RelayWorker polls the outbox and delivers pending messages.
type RelayWorker struct {
	relay        *postgres.OutboxRelay
	pollInterval time.Duration
	log          *logger.Logger
}

// Run processes outbox batches until the context is cancelled.
// Exhausted messages are swept to the dead letter queue hourly.
func (w *RelayWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(1 * time.Hour)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			processed, err := w.relay.ProcessBatch(ctx)
			if err != nil {
				w.log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if processed > 0 {
				w.log.Debugw("processed outbox batch", "count", processed)
			}

		case <-dlqTicker.C:
			moved, err := w.relay.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("dead letter sweep failed", "error", err)
				continue
			}
			if moved > 0 {
				w.log.Warnw("moved exhausted messages to dead letter queue", "count", moved)
			}
		}
	}
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
