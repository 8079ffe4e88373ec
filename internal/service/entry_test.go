package service_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logstudio/internal/service"
	"logstudio/internal/storage"
)

func newEntryService(t *testing.T) service.EntryService {
	t.Helper()
	return service.NewEntryService(storage.NewEntryRepo(newTestDB(t)), service.WithClock(tickingClock(time.Second)))
}

func validCreate(slug string) service.CreateEntryRequest {
	return service.CreateEntryRequest{
		Slug:  slug,
		Title: "Title " + slug,
		Level: ptr(0),
		Type:  "note",
		Date:  "2025-01-15",
	}
}

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	errs, ok := service.AsValidationErrors(err)
	require.True(t, ok, "expected validation error, got %v", err)
	fields, _ := errs.Flatten()
	return fields
}

func TestEntryService_Create(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	entry, err := svc.Create(ctx, validCreate("my-idea"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^note-[0-9a-z]+$`), entry.ID)
	assert.Equal(t, "my-idea", entry.Slug)
	assert.Equal(t, "", entry.Description)
	assert.Equal(t, "", entry.Content)
	assert.NotNil(t, entry.Tags)
	assert.Empty(t, entry.Tags)
	assert.NotNil(t, entry.Updates)
	assert.Empty(t, entry.Updates)
	assert.Nil(t, entry.Link)
	assert.Nil(t, entry.Metrics)
	assert.True(t, entry.CreatedAt.Equal(entry.UpdatedAt))
	assert.Equal(t, time.UTC, entry.CreatedAt.Location())
}

func TestEntryService_Create_WithUpdatesAndID(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	req := validCreate("with-log")
	req.ID = "proj-custom"
	req.Level = ptr(2)
	req.Type = "project"
	req.Tags = []string{"go"}
	req.Link = ptr("https://github.com/example/project")
	req.Metrics = []service.Metric{{Label: "Stars", Value: "12"}}
	req.Updates = []service.NewUpdate{
		{Date: "2025-01-15", Type: "init", Content: "Started"},
		{Date: "2025-01-20", Version: ptr("v0.1.0"), Type: "release", Content: "First cut"},
	}

	entry, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "proj-custom", entry.ID)
	require.Len(t, entry.Updates, 2)
	assert.Equal(t, "Started", entry.Updates[0].Content)
	require.NotNil(t, entry.Updates[1].Version)
	assert.Equal(t, "v0.1.0", *entry.Updates[1].Version)
	assert.Equal(t, []service.Metric{{Label: "Stars", Value: "12"}}, entry.Metrics)
}

func TestEntryService_Create_Validation(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	tests := []struct {
		name       string
		mutate     func(*service.CreateEntryRequest)
		wantFields []string
	}{
		{
			name:       "missing everything",
			mutate:     func(r *service.CreateEntryRequest) { *r = service.CreateEntryRequest{} },
			wantFields: []string{"slug", "title", "level", "type", "date"},
		},
		{
			name:       "level out of range",
			mutate:     func(r *service.CreateEntryRequest) { r.Level = ptr(4) },
			wantFields: []string{"level"},
		},
		{
			name:       "unknown type",
			mutate:     func(r *service.CreateEntryRequest) { r.Type = "idea" },
			wantFields: []string{"type"},
		},
		{
			name:       "bad date",
			mutate:     func(r *service.CreateEntryRequest) { r.Date = "15/01/2025" },
			wantFields: []string{"date"},
		},
		{
			name:       "impossible calendar date",
			mutate:     func(r *service.CreateEntryRequest) { r.Date = "2025-13-45" },
			wantFields: []string{"date"},
		},
		{
			name: "impossible update date",
			mutate: func(r *service.CreateEntryRequest) {
				r.Updates = []service.NewUpdate{{Date: "2025-02-30", Type: "init", Content: "x"}}
			},
			wantFields: []string{"updates"},
		},
		{
			name:       "relative link",
			mutate:     func(r *service.CreateEntryRequest) { r.Link = ptr("/not/absolute") },
			wantFields: []string{"link"},
		},
		{
			name: "bad initial update",
			mutate: func(r *service.CreateEntryRequest) {
				r.Updates = []service.NewUpdate{{Date: "2025-01-15", Type: "wip", Content: ""}}
			},
			wantFields: []string{"updates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate("validation")
			tt.mutate(&req)

			_, err := svc.Create(ctx, req)
			require.ErrorIs(t, err, service.ErrInvalidInput)

			fields := validationFields(t, err)
			for _, f := range tt.wantFields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tt.wantFields))
		})
	}

	all, err := svc.List(ctx, service.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected payloads must not be stored")
}

func TestEntryService_Create_Duplicate(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	_, err := svc.Create(ctx, validCreate("taken"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validCreate("taken"))
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.Equal(t, "slug", verr.Field)

	dupID := validCreate("other")
	dupID.ID = "fixed"
	_, err = svc.Create(ctx, dupID)
	require.NoError(t, err)
	dupID.Slug = "another"
	_, err = svc.Create(ctx, dupID)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "id", verr.Field)
}

func TestEntryService_Get_NotFound(t *testing.T) {
	svc := newEntryService(t)

	_, err := svc.Get(testContext(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntryService_List(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	create := func(slug string, level int, tags ...string) {
		req := validCreate(slug)
		req.ID = slug
		req.Level = ptr(level)
		req.Tags = tags
		req.Updates = []service.NewUpdate{{Date: "2025-01-15", Type: "init", Content: slug}}
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}
	create("a", 0, "Go", "cli")
	create("b", 2, "go")
	create("c", 2, "Go")

	ids := func(entries []service.Entry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter service.EntryFilter
		want   []string
	}{
		{name: "all", filter: service.EntryFilter{}, want: []string{"a", "b", "c"}},
		{name: "by level", filter: service.EntryFilter{Level: ptr(2)}, want: []string{"b", "c"}},
		{name: "by tag is case-sensitive", filter: service.EntryFilter{Tag: "Go"}, want: []string{"a", "c"}},
		{name: "level and tag", filter: service.EntryFilter{Level: ptr(2), Tag: "go"}, want: []string{"b"}},
		{name: "no match", filter: service.EntryFilter{Tag: "G"}, want: []string{}},
		{name: "empty level", filter: service.EntryFilter{Level: ptr(3)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.filter)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
			for _, e := range got {
				require.Len(t, e.Updates, 1)
				assert.Equal(t, e.ID, e.Updates[0].Content)
			}
		})
	}

	_, err := svc.List(ctx, service.EntryFilter{Level: ptr(9)})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestEntryService_Update(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	req := validCreate("patch-me")
	req.Description = "original"
	req.Link = ptr("https://example.com")
	req.Metrics = []service.Metric{{Label: "MRR", Value: "$5"}}
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	t.Run("sparse patch", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, service.UpdateEntryRequest{Title: ptr("Renamed")})
		require.NoError(t, err)

		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "original", updated.Description)
		assert.Equal(t, created.Slug, updated.Slug)
		require.NotNil(t, updated.Link)
		assert.Equal(t, created.Metrics, updated.Metrics)
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	})

	t.Run("null clears link and metrics", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, service.UpdateEntryRequest{
			Link:    service.Null[string](),
			Metrics: service.Null[[]service.Metric](),
		})
		require.NoError(t, err)
		assert.Nil(t, updated.Link)
		assert.Nil(t, updated.Metrics)
	})

	t.Run("set metrics", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, service.UpdateEntryRequest{
			Metrics: service.Some([]service.Metric{{Label: "Users", Value: "3"}}),
			Link:    service.Some("https://example.org"),
		})
		require.NoError(t, err)
		assert.Equal(t, []service.Metric{{Label: "Users", Value: "3"}}, updated.Metrics)
		require.NotNil(t, updated.Link)
		assert.Equal(t, "https://example.org", *updated.Link)
	})

	t.Run("level change leaves type and log alone", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, service.UpdateEntryRequest{Level: ptr(3)})
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Level)
		assert.Equal(t, "note", updated.Type)
		assert.Empty(t, updated.Updates)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, service.UpdateEntryRequest{
			Title: ptr(""),
			Level: ptr(-1),
			Link:  service.Some("nope"),
			Date:  ptr("2025-1-1"),
		})
		fields := validationFields(t, err)
		assert.Len(t, fields, 4)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := svc.Create(ctx, validCreate("occupied"))
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, service.UpdateEntryRequest{Slug: ptr("occupied")})
		assert.Contains(t, validationFields(t, err), "slug")
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", service.UpdateEntryRequest{Title: ptr("x")})
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestEntryService_Delete(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	req := validCreate("doomed")
	req.Updates = []service.NewUpdate{{Date: "2025-01-15", Type: "init", Content: "x"}}
	created, err := svc.Create(ctx, req)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.ListUpdates(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), service.ErrNotFound)
}

func TestEntryService_AppendUpdate(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	created, err := svc.Create(ctx, validCreate("growing"))
	require.NoError(t, err)

	logs, err := svc.AppendUpdate(ctx, created.ID, service.AppendUpdateRequest{Type: "feat", Content: "Dark mode"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, logs[0].Date)
	assert.Equal(t, "2025-03-14", logs[0].Date, "date defaults to today in UTC")
	assert.Nil(t, logs[0].Version)

	logs, err = svc.AppendUpdate(ctx, created.ID, service.AppendUpdateRequest{
		Type:    "release",
		Content: "Shipped",
		Version: ptr("v1.0.0"),
		Date:    "2025-02-01",
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Dark mode", logs[0].Content)
	assert.Equal(t, "2025-02-01", logs[1].Date)

	after, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, after.Updates, logs)

	_, err = svc.AppendUpdate(ctx, created.ID, service.AppendUpdateRequest{Type: "wip", Content: ""})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "content")

	_, err = svc.AppendUpdate(ctx, "missing", service.AppendUpdateRequest{Type: "fix", Content: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestEntryService_UpdatedAtStrictlyIncreases(t *testing.T) {
	// A frozen clock still yields strictly increasing updatedAt values.
	frozen := func() time.Time { return baseTime }
	svc := service.NewEntryService(storage.NewEntryRepo(newTestDB(t)), service.WithClock(frozen))
	ctx := testContext()

	created, err := svc.Create(ctx, validCreate("frozen"))
	require.NoError(t, err)

	prev := created.UpdatedAt
	for i := 0; i < 3; i++ {
		_, err := svc.AppendUpdate(ctx, created.ID, service.AppendUpdateRequest{Type: "chore", Content: "tick"})
		require.NoError(t, err)

		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.After(prev), "iteration %d: %v not after %v", i, got.UpdatedAt, prev)
		prev = got.UpdatedAt
	}
}

func TestEntryService_Promote(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	created, err := svc.Create(ctx, validCreate("rising"))
	require.NoError(t, err)

	promoted, err := svc.Promote(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, promoted.Level)
	assert.Equal(t, "project", promoted.Type)
	require.Len(t, promoted.Updates, 1)
	assert.Equal(t, "release", promoted.Updates[0].Type)
	assert.Equal(t, "Promoted from L0 Lab Note to L2 Project.", promoted.Updates[0].Content)
	assert.Equal(t, "2025-03-14", promoted.Updates[0].Date)
	assert.True(t, promoted.UpdatedAt.After(created.UpdatedAt))

	moved, err := svc.Promote(ctx, created.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Level)
	assert.Equal(t, "note", moved.Type)
	require.Len(t, moved.Updates, 2)
	assert.Equal(t, "Moved from L2 Project to L0 Lab Note.", moved.Updates[1].Content)
}

func TestEntryService_Promote_Rejections(t *testing.T) {
	svc := newEntryService(t)
	ctx := testContext()

	created, err := svc.Create(ctx, validCreate("steady"))
	require.NoError(t, err)

	t.Run("same level", func(t *testing.T) {
		_, err := svc.Promote(ctx, created.ID, 0)
		require.ErrorIs(t, err, service.ErrConflict)
		var conflict *service.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "Entry is already at this level", conflict.Message)

		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Updates)
		assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := svc.Promote(ctx, created.ID, 4)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Promote(ctx, "missing", 1)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestEntryService_StorageFailure(t *testing.T) {
	db := newTestDB(t)
	svc := service.NewEntryService(storage.NewEntryRepo(db))
	require.NoError(t, db.Close())

	_, err := svc.List(testContext(), service.EntryFilter{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrNotFound)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)

	_, err = svc.Create(testContext(), validCreate("x"))
	require.Error(t, err)
	_, ok := service.AsValidationErrors(err)
	assert.False(t, ok)
}
