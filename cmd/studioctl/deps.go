package main

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"logstudio/internal/config"
	"logstudio/internal/seed"
	"logstudio/internal/service"
	"logstudio/internal/storage"
)

// deps holds the services a command operates on.
type deps struct {
	entries service.EntryService
	system  service.SystemService
}

// withDB loads configuration, opens and migrates the database, then calls fn.
// The database is closed when fn returns.
func withDB(flags *globalFlags, stderr io.Writer, fn func(db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.dbDriver != "" {
		cfg.DBDriver = flags.dbDriver
	}
	slog.SetDefault(cfg.NewLogger(stderr))

	db, err := storage.New(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return fn(db)
}

// withDeps is withDB with the services built on top.
func withDeps(flags *globalFlags, stderr io.Writer, fn func(*deps) error) error {
	return withDB(flags, stderr, func(db *sql.DB) error {
		dataset, err := seed.Load()
		if err != nil {
			return fmt.Errorf("loading seed dataset: %w", err)
		}
		return fn(&deps{
			entries: service.NewEntryService(storage.NewEntryRepo(db)),
			system:  service.NewSystemService(storage.NewSystemRepo(db), dataset, version),
		})
	})
}
