package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfsync/backend/config"
	"github.com/shelfsync/backend/internal/app"
	httpDelivery "github.com/shelfsync/backend/internal/delivery/http"
	"github.com/shelfsync/backend/internal/infrastructure/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := app.NewLogger(cfg, false)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	deps := app.New(cfg, appLog)
	defer deps.Close()

	appLog.Info("Starting ShelfSync backend",
		logger.String("environment", cfg.Server.Environment),
		logger.String("port", cfg.Server.Port),
		logger.String("site", cfg.Catalog.SiteDomain),
		logger.Int("brands", len(cfg.Catalog.Brands)),
		logger.Duration("cache_ttl", cfg.Cache.TTL),
		logger.Float64("fetch_rps", cfg.Fetch.RequestsPerSecond))

	handler := httpDelivery.NewHandler(deps.Pages, deps.Pipeline, cfg.Catalog.SiteDomain)
	router := httpDelivery.SetupRouter(cfg, handler, appLog)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Fetch.Timeout * time.Duration(cfg.Fetch.MaxRetries+2),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("Server listening", logger.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLog.Fatal("Server failed", logger.Error(err))
		}
		return
	case <-ctx.Done():
		appLog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Server shutdown failed", logger.Error(err))
		return
	}
	appLog.Info("Server stopped")
}
