package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_entry_service.go -package=mocks logstudio/internal/service EntryService

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"logstudio/internal/contextutil"
	"logstudio/internal/storage"
)

// EntryStore persists entries and their update logs.
// It is satisfied by *storage.EntryRepo.
type EntryStore interface {
	List(ctx context.Context, level *int) ([]storage.EntryRecord, error)
	Get(ctx context.Context, id string) (*storage.EntryRecord, error)
	ListUpdates(ctx context.Context, entryIDs ...string) ([]storage.UpdateRecord, error)
	Create(ctx context.Context, entry *storage.EntryRecord, updates []storage.UpdateRecord) error
	Update(ctx context.Context, id string, patch storage.EntryPatch) error
	Delete(ctx context.Context, id string) error
	AppendUpdate(ctx context.Context, entryID string, update storage.UpdateRecord, updatedAt time.Time) error
	ApplyTransition(ctx context.Context, id string, decide func(current storage.EntryRecord) (storage.EntryTransition, error)) error
}

// Metric is a label/value pair shown on project and product cards.
type Metric struct {
	Label string
	Value string
}

// UpdateLog is one changelog line of an entry.
type UpdateLog struct {
	Date    string
	Version *string
	Type    string
	Content string
}

// Entry is a pipeline item with its full update log.
type Entry struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Level       int
	Type        string
	Date        string
	Tags        []string
	Content     string
	Link        *string
	Metrics     []Metric // nil when unset
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Updates     []UpdateLog
}

// EntryFilter narrows List. Level is compared exactly; Tag must be one of the entry's tags (case-sensitive).
type EntryFilter struct {
	Level *int
	Tag   string
}

// NewUpdate is an update-log line supplied on create.
type NewUpdate struct {
	Date    string
	Version *string
	Type    string
	Content string
}

// CreateEntryRequest is the payload of EntryService.Create.
// ID is generated when empty. Level is required.
type CreateEntryRequest struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Level       *int
	Type        string
	Date        string
	Tags        []string
	Content     string
	Link        *string
	Metrics     []Metric
	Updates     []NewUpdate
}

// UpdateEntryRequest is a sparse patch: nil fields are left untouched.
// Changing Level here neither syncs Type nor writes a log line; use Promote for that.
type UpdateEntryRequest struct {
	Slug        *string
	Title       *string
	Description *string
	Level       *int
	Type        *string
	Date        *string
	Tags        *[]string
	Content     *string
	Link        Nullable[string]
	Metrics     Nullable[[]Metric]
}

// AppendUpdateRequest is the payload of EntryService.AppendUpdate. Date defaults to today (UTC).
type AppendUpdateRequest struct {
	Type    string
	Content string
	Version *string
	Date    string
}

// EntryService manages entries and their maturity lifecycle.
type EntryService interface {
	// List returns matching entries in insertion order, each with its update log.
	List(ctx context.Context, filter EntryFilter) ([]Entry, error)
	// Create validates and stores a new entry with its initial updates.
	Create(ctx context.Context, req CreateEntryRequest) (Entry, error)
	// Get returns one entry with its update log.
	Get(ctx context.Context, id string) (Entry, error)
	// Update applies a sparse patch and returns the refreshed entry.
	Update(ctx context.Context, id string, req UpdateEntryRequest) (Entry, error)
	// Delete removes an entry and its update log.
	Delete(ctx context.Context, id string) error
	// ListUpdates returns an entry's update log in insertion order.
	ListUpdates(ctx context.Context, id string) ([]UpdateLog, error)
	// AppendUpdate adds one line to the update log and returns the full log.
	AppendUpdate(ctx context.Context, id string, req AppendUpdateRequest) ([]UpdateLog, error)
	// Promote moves an entry to level, syncing its type and logging the transition.
	Promote(ctx context.Context, id string, level int) (Entry, error)
}

// entryService implements EntryService.
type entryService struct {
	store EntryStore
	clock *clock
}

// NewEntryService creates a new EntryService.
func NewEntryService(store EntryStore, opts ...Option) EntryService {
	o := buildOptions(opts)
	return &entryService{
		store: store,
		clock: newClock(o.now),
	}
}

// List returns entries matching filter.
func (s *entryService) List(ctx context.Context, filter EntryFilter) ([]Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if filter.Level != nil && !ValidLevel(*filter.Level) {
		var v validator
		v.level("level", *filter.Level)
		logger.WarnContext(ctx, "invalid entry filter", "level", *filter.Level)
		return nil, v.err()
	}

	records, err := s.store.List(ctx, filter.Level)
	if err != nil {
		return nil, mapStoreError(ctx, err, "failed to list entries")
	}

	if filter.Tag != "" {
		records = slices.DeleteFunc(records, func(r storage.EntryRecord) bool {
			return !slices.Contains(r.Tags, filter.Tag)
		})
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	updates, err := s.store.ListUpdates(ctx, ids...)
	if err != nil {
		return nil, mapStoreError(ctx, err, "failed to list entry updates")
	}

	byEntry := make(map[string][]UpdateLog, len(records))
	for _, u := range updates {
		byEntry[u.EntryID] = append(byEntry[u.EntryID], toUpdateLog(u))
	}

	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, toEntry(r, byEntry[r.ID]))
	}
	return entries, nil
}

// Create validates req and stores the entry and its initial updates atomically.
func (s *entryService) Create(ctx context.Context, req CreateEntryRequest) (Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateCreateEntry(req); err != nil {
		logger.WarnContext(ctx, "invalid create entry request", "error", err)
		return Entry{}, err
	}

	now := s.clock.stamp()
	id := req.ID
	if id == "" {
		id = generateEntryID(req.Type, now)
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	record := &storage.EntryRecord{
		ID:          id,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Level:       *req.Level,
		Type:        req.Type,
		Date:        req.Date,
		Tags:        tags,
		Content:     req.Content,
		Link:        req.Link,
		Metrics:     toStorageMetrics(req.Metrics),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	updates := make([]storage.UpdateRecord, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, storage.UpdateRecord{
			Date:    u.Date,
			Version: u.Version,
			Type:    u.Type,
			Content: u.Content,
		})
	}

	if err := s.store.Create(ctx, record, updates); err != nil {
		return Entry{}, mapStoreError(ctx, err, "failed to create entry")
	}

	logger.InfoContext(ctx, "entry created", "id", id, "level", record.Level, "updates", len(updates))
	return s.Get(ctx, id)
}

// Get returns the entry with the given id.
func (s *entryService) Get(ctx context.Context, id string) (Entry, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return Entry{}, mapStoreError(ctx, err, "failed to get entry")
	}

	updates, err := s.store.ListUpdates(ctx, id)
	if err != nil {
		return Entry{}, mapStoreError(ctx, err, "failed to list entry updates")
	}

	logs := make([]UpdateLog, 0, len(updates))
	for _, u := range updates {
		logs = append(logs, toUpdateLog(u))
	}
	return toEntry(*record, logs), nil
}

// Update applies req to the entry. updatedAt is refreshed even when req is empty.
func (s *entryService) Update(ctx context.Context, id string, req UpdateEntryRequest) (Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := validateUpdateEntry(req); err != nil {
		logger.WarnContext(ctx, "invalid update entry request", "id", id, "error", err)
		return Entry{}, err
	}

	patch := storage.EntryPatch{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Type:        req.Type,
		Date:        req.Date,
		Tags:        req.Tags,
		Content:     req.Content,
		SetLink:     req.Link.Set,
		Link:        req.Link.Value,
		SetMetrics:  req.Metrics.Set,
		UpdatedAt:   s.clock.stamp(),
	}
	if req.Metrics.Value != nil {
		patch.Metrics = toStorageMetrics(*req.Metrics.Value)
		if patch.Metrics == nil {
			patch.Metrics = []storage.Metric{}
		}
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		return Entry{}, mapStoreError(ctx, err, "failed to update entry")
	}

	logger.InfoContext(ctx, "entry updated", "id", id)
	return s.Get(ctx, id)
}

// Delete removes the entry with the given id.
func (s *entryService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreError(ctx, err, "failed to delete entry")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "entry deleted", "id", id)
	return nil
}

// ListUpdates returns the update log of the entry with the given id.
func (s *entryService) ListUpdates(ctx context.Context, id string) ([]UpdateLog, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, mapStoreError(ctx, err, "failed to get entry")
	}
	return s.listUpdates(ctx, id)
}

// AppendUpdate validates req, stores it and bumps the entry's updatedAt.
func (s *entryService) AppendUpdate(ctx context.Context, id string, req AppendUpdateRequest) ([]UpdateLog, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var v validator
	v.oneOf("type", req.Type, UpdateTypes)
	v.nonEmpty("content", req.Content)
	if req.Date != "" {
		v.date("date", req.Date)
	}
	if err := v.err(); err != nil {
		logger.WarnContext(ctx, "invalid append update request", "id", id, "error", err)
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = s.clock.today()
	}

	update := storage.UpdateRecord{
		Date:    date,
		Version: req.Version,
		Type:    req.Type,
		Content: req.Content,
	}
	if err := s.store.AppendUpdate(ctx, id, update, s.clock.stamp()); err != nil {
		return nil, mapStoreError(ctx, err, "failed to append entry update")
	}

	logger.InfoContext(ctx, "entry update appended", "id", id, "type", req.Type)
	return s.listUpdates(ctx, id)
}

// Promote moves the entry to level in one transaction: the level, the
// canonical type, updatedAt and a release log line are written together.
// Moving to the current level yields a *ConflictError.
func (s *entryService) Promote(ctx context.Context, id string, level int) (Entry, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !ValidLevel(level) {
		var v validator
		v.level("level", level)
		logger.WarnContext(ctx, "invalid promote level", "id", id, "level", level)
		return Entry{}, v.err()
	}

	var from int
	err := s.store.ApplyTransition(ctx, id, func(current storage.EntryRecord) (storage.EntryTransition, error) {
		if current.Level == level {
			return storage.EntryTransition{}, &ConflictError{Message: "Entry is already at this level"}
		}
		from = current.Level
		return storage.EntryTransition{
			Level:     level,
			Type:      LevelName(level),
			UpdatedAt: s.clock.stamp(),
			Log: storage.UpdateRecord{
				Date:    s.clock.today(),
				Type:    "release",
				Content: transitionMessage(current.Level, level),
			},
		}, nil
	})
	if err != nil {
		return Entry{}, mapStoreError(ctx, err, "failed to promote entry")
	}

	logger.InfoContext(ctx, "entry level changed", "id", id, "from", from, "to", level)
	return s.Get(ctx, id)
}

func (s *entryService) listUpdates(ctx context.Context, id string) ([]UpdateLog, error) {
	updates, err := s.store.ListUpdates(ctx, id)
	if err != nil {
		return nil, mapStoreError(ctx, err, "failed to list entry updates")
	}
	logs := make([]UpdateLog, 0, len(updates))
	for _, u := range updates {
		logs = append(logs, toUpdateLog(u))
	}
	return logs, nil
}

// mapStoreError translates storage errors into the service taxonomy.
// Unexpected errors are logged and wrapped.
func mapStoreError(ctx context.Context, err error, msg string) error {
	var dup *storage.DuplicateError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.As(err, &dup):
		return &ValidationError{Field: dup.Column, Message: fmt.Sprintf("%s already exists", dup.Column)}
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidInput):
		return err
	default:
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, msg, "error", err)
		return WrapError(err, msg)
	}
}

func validateCreateEntry(req CreateEntryRequest) error {
	var v validator
	v.nonEmpty("slug", req.Slug)
	v.nonEmpty("title", req.Title)
	if req.Level == nil {
		v.add("level", "Required")
	} else {
		v.level("level", *req.Level)
	}
	v.oneOf("type", req.Type, EntryTypes)
	v.date("date", req.Date)
	if req.Link != nil {
		v.url("link", *req.Link)
	}
	for i, u := range req.Updates {
		prefix := "update " + strconv.Itoa(i) + ": "
		if !slices.Contains(UpdateTypes, u.Type) {
			v.add("updates", prefix+"invalid type '"+u.Type+"'")
		}
		if u.Content == "" {
			v.add("updates", prefix+"content must not be empty")
		}
		if !validDate(u.Date) {
			v.add("updates", prefix+"invalid date, expected YYYY-MM-DD")
		}
	}
	return v.err()
}

func validateUpdateEntry(req UpdateEntryRequest) error {
	var v validator
	if req.Slug != nil {
		v.nonEmpty("slug", *req.Slug)
	}
	if req.Title != nil {
		v.nonEmpty("title", *req.Title)
	}
	if req.Level != nil {
		v.level("level", *req.Level)
	}
	if req.Type != nil {
		v.oneOf("type", *req.Type, EntryTypes)
	}
	if req.Date != nil {
		v.date("date", *req.Date)
	}
	if req.Link.Value != nil {
		v.url("link", *req.Link.Value)
	}
	return v.err()
}

// generateEntryID builds "{type[0:4]}-{base36 unix millis}", e.g. "note-m5x2k1a0".
func generateEntryID(entryType string, now time.Time) string {
	prefix := entryType
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return prefix + "-" + strconv.FormatInt(now.UnixMilli(), 36)
}

func toEntry(r storage.EntryRecord, updates []UpdateLog) Entry {
	if updates == nil {
		updates = []UpdateLog{}
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	var metrics []Metric
	if r.Metrics != nil {
		metrics = make([]Metric, len(r.Metrics))
		for i, m := range r.Metrics {
			metrics[i] = Metric{Label: m.Label, Value: m.Value}
		}
	}
	return Entry{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Level:       r.Level,
		Type:        r.Type,
		Date:        r.Date,
		Tags:        tags,
		Content:     r.Content,
		Link:        r.Link,
		Metrics:     metrics,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Updates:     updates,
	}
}

func toUpdateLog(u storage.UpdateRecord) UpdateLog {
	return UpdateLog{
		Date:    u.Date,
		Version: u.Version,
		Type:    u.Type,
		Content: u.Content,
	}
}

func toStorageMetrics(metrics []Metric) []storage.Metric {
	if metrics == nil {
		return nil
	}
	out := make([]storage.Metric, len(metrics))
	for i, m := range metrics {
		out[i] = storage.Metric{Label: m.Label, Value: m.Value}
	}
	return out
}
