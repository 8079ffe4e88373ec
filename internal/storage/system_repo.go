package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SystemRepo provides connectivity checks and whole-database operations.
type SystemRepo struct {
	db *sql.DB
}

// NewSystemRepo creates a new SystemRepo.
func NewSystemRepo(db *sql.DB) *SystemRepo {
	return &SystemRepo{db: db}
}

// Ping issues a trivial query against the database.
func (r *SystemRepo) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Reseed deletes every journal block, journal post, entry update and entry
// (children first), then inserts the given data. Everything happens in one
// transaction: on failure the previous contents are left intact.
func (r *SystemRepo) Reseed(ctx context.Context, entries []EntryBundle, posts []JournalBundle) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"journal_blocks", "journal_entries", "entry_updates", "entries"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, b := range entries {
			if err := insertBundle(ctx, tx, b); err != nil {
				return fmt.Errorf("failed to seed entry %s: %w", b.Entry.ID, err)
			}
		}
		for _, b := range posts {
			if err := insertJournalBundle(ctx, tx, b); err != nil {
				return fmt.Errorf("failed to seed journal entry %s: %w", b.Post.ID, err)
			}
		}
		return nil
	})
}
