package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	journalColumns = `id, slug, title, subtitle, date, quarter, read_time, cover_image, created_at, updated_at`

	insertJournalStatement = `
	INSERT INTO journal_entries (` + journalColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	insertBlockStatement = `
	INSERT INTO journal_blocks (journal_entry_id, sort_order, type, content, component_name)
	VALUES (?, ?, ?, ?, ?)
	`
)

// JournalRepo provides methods for journal post and block operations.
type JournalRepo struct {
	db *sql.DB
}

// NewJournalRepo creates a new JournalRepo.
func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// List returns all journal posts in insertion order, without blocks.
func (r *JournalRepo) List(ctx context.Context) ([]JournalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+journalColumns+` FROM journal_entries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := []JournalRecord{}
	for rows.Next() {
		post, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return posts, nil
}

// GetBySlug gets a journal post by slug. Returns ErrNotFound if not found.
func (r *JournalRepo) GetBySlug(ctx context.Context, slug string) (*JournalRecord, error) {
	return getJournalBySlug(ctx, r.db, slug)
}

// ListBlocks returns the blocks of a journal post ordered by sort_order.
func (r *JournalRepo) ListBlocks(ctx context.Context, journalID string) ([]BlockRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, journal_entry_id, sort_order, type, content, component_name
		 FROM journal_blocks WHERE journal_entry_id = ? ORDER BY sort_order, id`,
		journalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal blocks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	blocks := []BlockRecord{}
	for rows.Next() {
		var b BlockRecord
		var componentName sql.NullString
		if err := rows.Scan(&b.ID, &b.JournalEntryID, &b.SortOrder, &b.Type, &b.Content, &componentName); err != nil {
			return nil, fmt.Errorf("failed to scan journal block: %w", err)
		}
		if componentName.Valid {
			b.ComponentName = &componentName.String
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return blocks, nil
}

// Create inserts a journal post and its blocks in one transaction.
// Block sort_order is the index in blocks. A taken id or slug yields a *DuplicateError.
func (r *JournalRepo) Create(ctx context.Context, post *JournalRecord, blocks []BlockRecord) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return insertJournalBundle(ctx, tx, JournalBundle{Post: *post, Blocks: blocks})
	})
}

// Update patches the post's metadata. When blocks is non-nil the existing
// blocks are deleted and replaced by *blocks (sort_order 0..n-1) in the same
// transaction, so readers never observe a post without its blocks.
// Returns ErrNotFound if no post has that slug.
func (r *JournalRepo) Update(ctx context.Context, slug string, patch JournalPatch, blocks *[]BlockRecord) error {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(patch.UpdatedAt)}

	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Subtitle != nil {
		add("subtitle", *patch.Subtitle)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.Quarter != nil {
		add("quarter", *patch.Quarter)
	}
	if patch.ReadTime != nil {
		add("read_time", *patch.ReadTime)
	}
	if patch.SetCoverImage {
		add("cover_image", nullableString(patch.CoverImage))
	}
	args = append(args, slug)

	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		post, err := getJournalBySlug(ctx, tx, slug)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE journal_entries SET `+strings.Join(sets, ", ")+` WHERE slug = ?`,
			args...,
		); err != nil {
			return fmt.Errorf("failed to update journal entry: %w", err)
		}

		if blocks == nil {
			return nil
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM journal_blocks WHERE journal_entry_id = ?", post.ID); err != nil {
			return fmt.Errorf("failed to delete journal blocks: %w", err)
		}
		return insertBlocks(ctx, tx, post.ID, *blocks)
	})
}

// Delete removes a journal post; its blocks go with it through ON DELETE CASCADE.
// Returns ErrNotFound if no post has that slug.
func (r *JournalRepo) Delete(ctx context.Context, slug string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM journal_entries WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return requireAffected(result)
}

func getJournalBySlug(ctx context.Context, q querier, slug string) (*JournalRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journal_entries WHERE slug = ?`, slug)
	post, err := scanJournal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

func scanJournal(s rowScanner) (*JournalRecord, error) {
	var post JournalRecord
	var coverImage sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&post.ID, &post.Slug, &post.Title, &post.Subtitle, &post.Date,
		&post.Quarter, &post.ReadTime, &coverImage, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal entry: %w", err)
	}

	if coverImage.Valid {
		post.CoverImage = &coverImage.String
	}
	if post.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	if post.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return &post, nil
}

func insertJournalBundle(ctx context.Context, q querier, b JournalBundle) error {
	p := b.Post
	if _, err := q.ExecContext(ctx, insertJournalStatement,
		p.ID, p.Slug, p.Title, p.Subtitle, p.Date, p.Quarter, p.ReadTime,
		nullableString(p.CoverImage), formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert journal entry: %w", classifyError(err))
	}
	return insertBlocks(ctx, q, p.ID, b.Blocks)
}

// insertBlocks writes blocks with sort_order set to their index, ignoring any SortOrder already present.
func insertBlocks(ctx context.Context, q querier, journalID string, blocks []BlockRecord) error {
	for i, b := range blocks {
		if _, err := q.ExecContext(ctx, insertBlockStatement,
			journalID, i, b.Type, b.Content, nullableString(b.ComponentName),
		); err != nil {
			return fmt.Errorf("failed to insert journal block %d: %w", i, err)
		}
	}
	return nil
}
