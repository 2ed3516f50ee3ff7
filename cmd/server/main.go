// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/tienlen/internal/cache"
	"github.com/jason-s-yu/tienlen/internal/config"
	"github.com/jason-s-yu/tienlen/internal/handlers"
	"github.com/jason-s-yu/tienlen/internal/middleware"
	"github.com/jason-s-yu/tienlen/internal/room"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	opts := room.Options{
		DefaultRoom: cfg.DefaultRoomID,
		SettleDelay: cfg.RoundSettleDelay,
	}

	// round history is optional
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(context.Background(), cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warnf("round history disabled: %v", err)
		} else {
			defer rdb.Close()
			pub := cache.NewPublisher(rdb, cfg.HistorianQueueName, 1024, logger)
			defer pub.Close()
			opts.Recorder = pub
			logger.Infof("publishing round history to %s", cfg.RedisAddr)
		}
	}

	reg := room.NewRegistry(logger, opts)
	logRequests := middleware.LogMiddleware(logger)

	mux := http.NewServeMux()

	// room websocket; /ws joins the default room unless the join names one
	ws := http.HandlerFunc(handlers.RoomWSHandler(logger, reg, cfg.OutboxSize))
	mux.Handle("/ws", logRequests(ws))
	mux.Handle("/ws/", logRequests(ws))

	mux.Handle("/rooms", logRequests(handlers.ListRoomsHandler(reg)))
	mux.HandleFunc("/", handlers.HealthHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	reg.Close()
}
