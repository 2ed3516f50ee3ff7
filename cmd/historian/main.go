// cmd/historian/main.go drains round actions from the Redis queue into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/tienlen/internal/cache"
	"github.com/jason-s-yu/tienlen/internal/config"
	"github.com/jason-s-yu/tienlen/internal/database"
	"github.com/jason-s-yu/tienlen/internal/historian"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb, err := cache.Connect(ctx, redisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer rdb.Close()

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer pool.Close()

	store := &database.RoundStore{Pool: pool}
	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	svc := historian.New(rdb, store, historian.Config{
		Queue:      cfg.HistorianQueueName,
		BatchSize:  cfg.HistorianBatchSize,
		FlushDelay: cfg.HistorianFlush,
		Inactivity: cfg.RoundInactivity,
	}, logger)
	if err := svc.Run(ctx); err != nil {
		logger.Errorf("historian: %v", err)
	}
}
