package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	entryColumns = `id, slug, title, description, level, type, date, tags, content, link, metrics, created_at, updated_at`

	insertEntryStatement = `
	INSERT INTO entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertUpdateStatement = `
	INSERT INTO entry_updates (entry_id, date, version, type, content)
	VALUES (?, ?, ?, ?, ?)
	`
)

// EntryRepo provides methods for entry and update-log operations.
type EntryRepo struct {
	db *sql.DB
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// List returns entries in insertion order. A non-nil level restricts the result to that level.
func (r *EntryRepo) List(ctx context.Context, level *int) ([]EntryRecord, error) {
	query := `SELECT ` + entryColumns + ` FROM entries`
	var args []any
	if level != nil {
		query += ` WHERE level = ?`
		args = append(args, *level)
	}
	query += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []EntryRecord{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Get gets an entry by ID. Returns ErrNotFound if not found.
func (r *EntryRepo) Get(ctx context.Context, id string) (*EntryRecord, error) {
	return getEntry(ctx, r.db, id)
}

// ListUpdates returns the update logs of the given entries ordered by insertion.
// Returns an empty slice when no ids are given.
func (r *EntryRepo) ListUpdates(ctx context.Context, entryIDs ...string) ([]UpdateRecord, error) {
	updates := []UpdateRecord{}
	if len(entryIDs) == 0 {
		return updates, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(entryIDs)), ",")
	args := make([]any, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, date, version, type, content FROM entry_updates
		 WHERE entry_id IN (`+placeholders+`) ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry updates: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var u UpdateRecord
		var version sql.NullString
		if err := rows.Scan(&u.ID, &u.EntryID, &u.Date, &version, &u.Type, &u.Content); err != nil {
			return nil, fmt.Errorf("failed to scan entry update: %w", err)
		}
		if version.Valid {
			u.Version = &version.String
		}
		updates = append(updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return updates, nil
}

// Create inserts an entry and its initial update log in one transaction.
// A taken id or slug yields a *DuplicateError.
func (r *EntryRepo) Create(ctx context.Context, entry *EntryRecord, updates []UpdateRecord) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertBundle(ctx, tx, EntryBundle{Entry: *entry, Updates: updates})
	})
}

// Update applies patch to the entry with the given id. updated_at is always written.
// Returns ErrNotFound if no entry has that id.
func (r *EntryRepo) Update(ctx context.Context, id string, patch EntryPatch) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(patch.UpdatedAt)}

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Slug != nil {
		add("slug", *patch.Slug)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Level != nil {
		add("level", *patch.Level)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Tags != nil {
		tags, err := encodeTags(*patch.Tags)
		if err != nil {
			return err
		}
		add("tags", tags)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.SetLink {
		add("link", nullableString(patch.Link))
	}
	if patch.SetMetrics {
		metrics, err := encodeMetrics(patch.Metrics)
		if err != nil {
			return err
		}
		add("metrics", metrics)
	}
	args = append(args, id)

	result, err := r.db.ExecContext(ctx,
		`UPDATE entries SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", classifyError(err))
	}
	return requireAffected(result)
}

// Delete removes an entry; its update log goes with it through ON DELETE CASCADE.
// Returns ErrNotFound if no entry has that id.
func (r *EntryRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return requireAffected(result)
}

// AppendUpdate inserts one update-log row and bumps the entry's updated_at in one transaction.
// Returns ErrNotFound if no entry has that id.
func (r *EntryRepo) AppendUpdate(ctx context.Context, entryID string, update UpdateRecord, updatedAt time.Time) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE entries SET updated_at = ? WHERE id = ?",
			formatTimestamp(updatedAt), entryID,
		)
		if err != nil {
			return fmt.Errorf("failed to touch entry: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		update.EntryID = entryID
		return insertUpdate(ctx, tx, update)
	})
}

// ApplyTransition reads the entry inside a transaction, asks decide for the
// transition, then writes the new level/type and the log row before committing.
// Any error from decide aborts the transaction and is returned unchanged.
// Returns ErrNotFound if no entry has that id.
func (r *EntryRepo) ApplyTransition(ctx context.Context, id string, decide func(current EntryRecord) (EntryTransition, error)) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := getEntry(ctx, tx, id)
		if err != nil {
			return err
		}

		transition, err := decide(*current)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE entries SET level = ?, type = ?, updated_at = ? WHERE id = ?",
			transition.Level, transition.Type, formatTimestamp(transition.UpdatedAt), id,
		); err != nil {
			return fmt.Errorf("failed to update entry level: %w", err)
		}

		log := transition.Log
		log.EntryID = id
		return insertUpdate(ctx, tx, log)
	})
}

func getEntry(ctx context.Context, q querier, id string) (*EntryRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (*EntryRecord, error) {
	var entry EntryRecord
	var tags string
	var link, metrics sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&entry.ID, &entry.Slug, &entry.Title, &entry.Description, &entry.Level,
		&entry.Type, &entry.Date, &tags, &entry.Content, &link, &metrics,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	entry.Tags = []string{}
	if err := json.Unmarshal([]byte(tags), &entry.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for entry %s: %w", entry.ID, err)
	}
	if link.Valid {
		entry.Link = &link.String
	}
	if metrics.Valid {
		if err := json.Unmarshal([]byte(metrics.String), &entry.Metrics); err != nil {
			return nil, fmt.Errorf("failed to decode metrics for entry %s: %w", entry.ID, err)
		}
		if entry.Metrics == nil {
			entry.Metrics = []Metric{}
		}
	}
	if entry.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if entry.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &entry, nil
}

func insertBundle(ctx context.Context, q querier, b EntryBundle) error {
	e := b.Entry
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}
	metrics, err := encodeMetrics(e.Metrics)
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, insertEntryStatement,
		e.ID, e.Slug, e.Title, e.Description, e.Level, e.Type, e.Date,
		tags, e.Content, nullableString(e.Link), metrics,
		formatTimestamp(e.CreatedAt), formatTimestamp(e.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert entry: %w", classifyError(err))
	}

	for _, u := range b.Updates {
		u.EntryID = e.ID
		if err := insertUpdate(ctx, q, u); err != nil {
			return err
		}
	}
	return nil
}

func insertUpdate(ctx context.Context, q querier, u UpdateRecord) error {
	if _, err := q.ExecContext(ctx, insertUpdateStatement,
		u.EntryID, u.Date, nullableString(u.Version), u.Type, u.Content,
	); err != nil {
		return fmt.Errorf("failed to insert entry update: %w", err)
	}
	return nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}

func encodeMetrics(metrics []Metric) (any, error) {
	if metrics == nil {
		return nil, nil
	}
	b, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metrics: %w", err)
	}
	return string(b), nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
