package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePost(id, slug string) *JournalRecord {
	return &JournalRecord{
		ID:        id,
		Slug:      slug,
		Title:     "Title",
		Subtitle:  "Sub",
		Date:      "Dec 2024",
		Quarter:   "Q4",
		ReadTime:  "5 min",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}
}

func blockTypes(blocks []BlockRecord) []string {
	types := make([]string, len(blocks))
	for i, b := range blocks {
		types[i] = b.Type
	}
	return types
}

func TestJournalRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	post := samplePost("j-1", "first")
	post.CoverImage = strPtr("linear-gradient(#000, #fff)")
	blocks := []BlockRecord{
		{Type: "markdown", Content: "intro", SortOrder: 9},
		{Type: "component", Content: "{}", ComponentName: strPtr("Chart")},
		{Type: "pull-quote", Content: "quote"},
	}
	require.NoError(t, repo.Create(ctx, post, blocks))

	got, err := repo.GetBySlug(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, "j-1", got.ID)
	require.NotNil(t, got.CoverImage)
	assert.Equal(t, "linear-gradient(#000, #fff)", *got.CoverImage)

	stored, err := repo.ListBlocks(ctx, "j-1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, []string{"markdown", "component", "pull-quote"}, blockTypes(stored))
	for i, b := range stored {
		assert.Equal(t, i, b.SortOrder)
	}
	require.NotNil(t, stored[1].ComponentName)
	assert.Equal(t, "Chart", *stored[1].ComponentName)
	assert.Nil(t, stored[0].ComponentName)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournalRepo_Create_Duplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, samplePost("j-1", "first"), nil))

	err := repo.Create(ctx, samplePost("j-2", "first"), []BlockRecord{{Type: "markdown", Content: "x"}})
	assert.ErrorIs(t, err, ErrDuplicate)

	blocks, err := repo.ListBlocks(ctx, "j-2")
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestJournalRepo_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)

	require.NoError(t, repo.Create(ctx, samplePost("j-2", "two"), nil))
	require.NoError(t, repo.Create(ctx, samplePost("j-1", "one"), nil))

	posts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "two", posts[0].Slug)
	assert.Equal(t, "one", posts[1].Slug)
}

func TestJournalRepo_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	post := samplePost("j-1", "first")
	post.CoverImage = strPtr("https://example.com/a.png")
	require.NoError(t, repo.Create(ctx, post, []BlockRecord{
		{Type: "markdown", Content: "a"},
		{Type: "markdown", Content: "b"},
	}))
	later := testTime.Add(time.Minute)

	t.Run("metadata only keeps blocks", func(t *testing.T) {
		title := "Renamed"
		require.NoError(t, repo.Update(ctx, "first", JournalPatch{Title: &title, UpdatedAt: later}, nil))

		got, err := repo.GetBySlug(ctx, "first")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "Sub", got.Subtitle)
		assert.True(t, got.UpdatedAt.Equal(later))

		blocks, err := repo.ListBlocks(ctx, "j-1")
		require.NoError(t, err)
		assert.Len(t, blocks, 2)
	})

	t.Run("blocks replaced", func(t *testing.T) {
		replacement := []BlockRecord{
			{Type: "image", Content: "https://example.com/i.png"},
			{Type: "pull-quote", Content: "q"},
			{Type: "markdown", Content: "c"},
		}
		require.NoError(t, repo.Update(ctx, "first", JournalPatch{UpdatedAt: later}, &replacement))

		blocks, err := repo.ListBlocks(ctx, "j-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"image", "pull-quote", "markdown"}, blockTypes(blocks))
		for i, b := range blocks {
			assert.Equal(t, i, b.SortOrder)
		}
	})

	t.Run("empty blocks clears", func(t *testing.T) {
		empty := []BlockRecord{}
		require.NoError(t, repo.Update(ctx, "first", JournalPatch{UpdatedAt: later}, &empty))

		blocks, err := repo.ListBlocks(ctx, "j-1")
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})

	t.Run("clear cover image", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, "first", JournalPatch{SetCoverImage: true, UpdatedAt: later}, nil))

		got, err := repo.GetBySlug(ctx, "first")
		require.NoError(t, err)
		assert.Nil(t, got.CoverImage)
	})

	t.Run("not found", func(t *testing.T) {
		err := repo.Update(ctx, "missing", JournalPatch{UpdatedAt: later}, nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestJournalRepo_Delete_Cascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewJournalRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, samplePost("j-1", "first"), []BlockRecord{{Type: "markdown", Content: "a"}}))
	require.NoError(t, repo.Delete(ctx, "first"))

	var orphans int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM journal_blocks").Scan(&orphans))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, repo.Delete(ctx, "first"), ErrNotFound)
}
