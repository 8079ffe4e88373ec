package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logstudio/internal/config"
	"logstudio/internal/http"
	"logstudio/internal/seed"
	"logstudio/internal/service"
	"logstudio/internal/storage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//go:generate swagger generate spec --scan-models -o ../../internal/http/swagger.json

// General API information
//
// This API stores a personal idea pipeline (entries promoted from L0 Lab Note to L3 Product,
// each with an append-only update log) and a block-structured journal.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Logstudio API
//   description: |
//     Content API for entries, their update logs and journal posts.
//     Reads are public; writes require the admin secret when one is configured.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath, "driver", cfg.DBDriver)

	dataset, err := seed.Load()
	if err != nil {
		log.Fatalf("Failed to load seed dataset: %v", err)
	}

	// Create repository instances
	entryRepo := storage.NewEntryRepo(db)
	journalRepo := storage.NewJournalRepo(db)
	systemRepo := storage.NewSystemRepo(db)

	deps := &http.Deps{
		EntryService:       service.NewEntryService(entryRepo),
		JournalService:     service.NewJournalService(journalRepo),
		SystemService:      service.NewSystemService(systemRepo, dataset, version),
		AdminSecret:        cfg.AdminSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WriteRateLimit:     cfg.WriteRateLimit,
	}
	router := http.NewRouter(deps)

	if cfg.DevMode() {
		slog.Warn("ADMIN_SECRET is not set: all write routes are open (development mode)")
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("API server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("API server stopped")
}
