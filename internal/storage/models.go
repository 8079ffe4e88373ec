package storage

import "time"

// timestampLayout matches JavaScript's Date.toISOString, the format stored in created_at/updated_at.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Metric is one label/value pair shown on project and product cards.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// EntryRecord represents a row of the entries table.
type EntryRecord struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Level       int
	Type        string
	Date        string   // YYYY-MM-DD
	Tags        []string // stored as a JSON array
	Content     string
	Link        *string  // nil is NULL
	Metrics     []Metric // nil is NULL, stored as a JSON array otherwise
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdateRecord represents a row of the entry_updates table.
// ID is the autoincrement key and defines insertion order.
type UpdateRecord struct {
	ID      int64
	EntryID string
	Date    string
	Version *string
	Type    string
	Content string
}

// EntryPatch lists the columns to change on an entry. Nil pointers are left
// untouched; Link and Metrics use an explicit Set flag because NULL is a valid value.
type EntryPatch struct {
	Slug        *string
	Title       *string
	Description *string
	Level       *int
	Type        *string
	Date        *string
	Tags        *[]string
	Content     *string
	SetLink     bool
	Link        *string
	SetMetrics  bool
	Metrics     []Metric
	UpdatedAt   time.Time
}

// EntryTransition is the change applied by EntryRepo.ApplyTransition:
// the new level and type plus the log row recording it.
type EntryTransition struct {
	Level     int
	Type      string
	UpdatedAt time.Time
	Log       UpdateRecord
}

// EntryBundle is an entry together with its update log, used for bulk inserts.
type EntryBundle struct {
	Entry   EntryRecord
	Updates []UpdateRecord
}

// JournalRecord represents a row of the journal_entries table.
type JournalRecord struct {
	ID         string
	Slug       string
	Title      string
	Subtitle   string
	Date       string // free-form display date
	Quarter    string
	ReadTime   string
	CoverImage *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BlockRecord represents a row of the journal_blocks table.
type BlockRecord struct {
	ID             int64
	JournalEntryID string
	SortOrder      int
	Type           string
	Content        string
	ComponentName  *string
}

// JournalPatch lists the metadata columns to change on a journal post.
type JournalPatch struct {
	Title         *string
	Subtitle      *string
	Date          *string
	Quarter       *string
	ReadTime      *string
	SetCoverImage bool
	CoverImage    *string
	UpdatedAt     time.Time
}

// JournalBundle is a journal post together with its ordered blocks.
type JournalBundle struct {
	Post   JournalRecord
	Blocks []BlockRecord
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
