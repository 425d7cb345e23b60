package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/task-manager-api/internal/api"
	"github.com/dom/task-manager-api/internal/config"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/dom/task-manager-api/internal/repository/memory"
	"github.com/dom/task-manager-api/internal/repository/postgres"
	"github.com/dom/task-manager-api/internal/service"
	"github.com/dom/task-manager-api/internal/websocket"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logging.Err(err))
		os.Exit(1)
	}

	log := logging.Setup(cfg.Environment)
	slog.SetDefault(log)

	repos, closeStore, err := openRepositories(cfg, log)
	if err != nil {
		log.Error("failed to open storage", slog.String("storage", cfg.Storage), logging.Err(err))
		os.Exit(1)
	}
	defer closeStore()

	// Initialize WebSocket hub
	hub := websocket.NewHub(log)
	go hub.Run()

	// Initialize services
	services := service.NewServices(repos, cfg, hub, log)

	// Initialize router
	router := api.NewRouter(services, repos, hub, cfg, log)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", slog.String("port", cfg.Port), slog.String("env", cfg.Environment), slog.String("storage", cfg.Storage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", logging.Err(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", logging.Err(err))
	}

	// Hijacked websocket connections are not tracked by Shutdown.
	hub.Stop()

	log.Info("server stopped")
}

func openRepositories(cfg *config.Config, log *slog.Logger) (*repository.Repositories, func(), error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.NewRepositories(memory.NewStore()), func() {}, nil
	}

	logLevel := logger.Warn
	switch cfg.Environment {
	case config.EnvDevelopment:
		logLevel = logger.Info
	case config.EnvTest:
		logLevel = logger.Silent
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL, logLevel)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return postgres.NewRepositories(db), closeFn, nil
}
