package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/user/furusato-strategy/config"
	"github.com/user/furusato-strategy/internal/game"
	"github.com/user/furusato-strategy/internal/realtime"
	"github.com/user/furusato-strategy/internal/server"
	"github.com/user/furusato-strategy/internal/storage"
	"github.com/user/furusato-strategy/internal/storage/memory"
	"github.com/user/furusato-strategy/internal/storage/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	// Open the store
	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}

	// Wrap the store so every write feeds the realtime hub
	hub := realtime.NewHub()
	notifying := realtime.NewNotifyingStore(store, hub)

	// Initialize the game services
	engine := game.NewEngine(notifying, cfg.Game)
	engine.SetLogger(logger)

	rooms := game.NewRoomService(notifying, cfg.Game)
	rooms.SetLogger(logger)

	// Set up HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.New(engine, rooms, hub, cfg, logger).Router(),
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(srv, logger)
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(parsed)
	}
	logger, _ := config.Build()
	return logger
}

func openStore(cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		logger.Info("Using sqlite store", zap.String("dsn", cfg.Database.DSN))
		return sqlite.Open(cfg.Database.DSN)
	default:
		logger.Info("Using in-memory store")
		return memory.New(), nil
	}
}

func waitForShutdown(srv *http.Server, logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Shutting down")
}
