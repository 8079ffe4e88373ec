package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by New.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

// DuplicateError identifies the column whose unique constraint was violated.
type DuplicateError struct {
	Table  string
	Column string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s.%s", e.Table, e.Column)
}

// Is makes errors.Is(err, ErrDuplicate) match.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens a SQLite database connection at the given path using driver
// ("sqlite3" for mattn/go-sqlite3, "sqlite" for modernc.org/sqlite).
// Every pooled connection gets foreign keys, WAL, a busy timeout and
// IMMEDIATE transactions through the DSN.
func New(driver, path string) (*sql.DB, error) {
	dsn, err := buildDSN(driver, path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func buildDSN(driver, path string) (string, error) {
	params := url.Values{}
	switch driver {
	case DriverMattn:
		params.Add("_foreign_keys", "on")
		params.Add("_busy_timeout", "5000")
		params.Add("_journal_mode", "WAL")
		params.Add("_txlock", "immediate")
	case DriverModernc:
		params.Add("_pragma", "foreign_keys(1)")
		params.Add("_pragma", "busy_timeout(5000)")
		params.Add("_pragma", "journal_mode(WAL)")
		params.Add("_txlock", "immediate")
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode(), nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			level INTEGER NOT NULL CHECK (level BETWEEN 0 AND 3),
			type TEXT NOT NULL,
			date TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			content TEXT NOT NULL DEFAULT '',
			link TEXT,
			metrics TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS entries_level_idx ON entries(level);`,
		`CREATE TABLE IF NOT EXISTS entry_updates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id TEXT NOT NULL,
			date TEXT NOT NULL,
			version TEXT,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (entry_id) REFERENCES entries(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS entry_updates_entry_id_idx ON entry_updates(entry_id);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			subtitle TEXT NOT NULL,
			date TEXT NOT NULL,
			quarter TEXT NOT NULL,
			read_time TEXT NOT NULL,
			cover_image TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS journal_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			journal_entry_id TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			type TEXT NOT NULL,
			content TEXT NOT NULL,
			component_name TEXT,
			FOREIGN KEY (journal_entry_id) REFERENCES journal_entries(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS journal_blocks_entry_id_idx ON journal_blocks(journal_entry_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// WithTx runs fn inside one transaction. The transaction is rolled back when
// fn returns an error or panics, and committed otherwise. fn's error is
// returned unchanged so callers can match sentinels with errors.Is.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// classifyError converts driver constraint failures into *DuplicateError.
// Both drivers report "UNIQUE constraint failed: table.column"; modernc appends the extended code.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	i := strings.Index(msg, marker)
	if i < 0 {
		return err
	}
	fields := strings.Fields(msg[i+len(marker):])
	if len(fields) == 0 {
		return err
	}
	target := strings.TrimSuffix(fields[0], ",")
	table, column, ok := strings.Cut(target, ".")
	if !ok {
		return err
	}
	return &DuplicateError{Table: table, Column: column}
}
