package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_journal_service.go -package=mocks logstudio/internal/service JournalService

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"logstudio/internal/contextutil"
	"logstudio/internal/storage"
)

// Journal block types.
const (
	BlockTypeMarkdown  = "markdown"
	BlockTypeComponent = "component"
	BlockTypeImage     = "image"
	BlockTypePullQuote = "pull-quote"
)

// JournalStore persists journal posts and their blocks.
// It is satisfied by *storage.JournalRepo.
type JournalStore interface {
	List(ctx context.Context) ([]storage.JournalRecord, error)
	GetBySlug(ctx context.Context, slug string) (*storage.JournalRecord, error)
	ListBlocks(ctx context.Context, journalID string) ([]storage.BlockRecord, error)
	Create(ctx context.Context, post *storage.JournalRecord, blocks []storage.BlockRecord) error
	Update(ctx context.Context, slug string, patch storage.JournalPatch, blocks *[]storage.BlockRecord) error
	Delete(ctx context.Context, slug string) error
}

// Block is one unit of a journal post body. The concrete types are
// MarkdownBlock, ComponentBlock, ImageBlock and PullQuoteBlock.
type Block interface {
	// BlockType returns the stored type name, e.g. "pull-quote".
	BlockType() string
	// BlockContent returns the stored content string.
	BlockContent() string
}

// MarkdownBlock is raw markdown.
type MarkdownBlock struct {
	Markdown string
}

// ComponentBlock names an interactive renderer and carries its props as a JSON document.
type ComponentBlock struct {
	Name      string
	PropsJSON string
}

// ImageBlock is an image URL.
type ImageBlock struct {
	URL string
}

// PullQuoteBlock is a highlighted quote.
type PullQuoteBlock struct {
	Quote string
}

func (MarkdownBlock) BlockType() string  { return BlockTypeMarkdown }
func (ComponentBlock) BlockType() string { return BlockTypeComponent }
func (ImageBlock) BlockType() string     { return BlockTypeImage }
func (PullQuoteBlock) BlockType() string { return BlockTypePullQuote }

func (b MarkdownBlock) BlockContent() string  { return b.Markdown }
func (b ComponentBlock) BlockContent() string { return b.PropsJSON }
func (b ImageBlock) BlockContent() string     { return b.URL }
func (b PullQuoteBlock) BlockContent() string { return b.Quote }

// BlockInput is a block as received on the wire.
type BlockInput struct {
	Type          string
	Content       string
	ComponentName *string
}

// NewBlock builds the concrete Block for in. Component blocks require a
// non-empty name and props that parse as JSON.
func NewBlock(in BlockInput) (Block, error) {
	switch in.Type {
	case BlockTypeMarkdown:
		return MarkdownBlock{Markdown: in.Content}, nil
	case BlockTypeImage:
		return ImageBlock{URL: in.Content}, nil
	case BlockTypePullQuote:
		return PullQuoteBlock{Quote: in.Content}, nil
	case BlockTypeComponent:
		if in.ComponentName == nil || *in.ComponentName == "" {
			return nil, &ValidationError{Field: "componentName", Message: "componentName is required for component blocks"}
		}
		if !json.Valid([]byte(in.Content)) {
			return nil, &ValidationError{Field: "content", Message: "component props must be valid JSON"}
		}
		return ComponentBlock{Name: *in.ComponentName, PropsJSON: in.Content}, nil
	default:
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("invalid block type '%s'", in.Type)}
	}
}

// ComponentName returns the renderer name of a component block, or nil for other blocks.
func ComponentName(b Block) *string {
	if c, ok := b.(ComponentBlock); ok {
		name := c.Name
		return &name
	}
	return nil
}

// JournalSummary is a journal post without its blocks.
type JournalSummary struct {
	ID         string
	Slug       string
	Title      string
	Subtitle   string
	Date       string
	Quarter    string
	ReadTime   string
	CoverImage *string
}

// JournalPost is a full journal post with blocks in display order.
type JournalPost struct {
	JournalSummary
	CreatedAt time.Time
	UpdatedAt time.Time
	Blocks    []Block
}

// JournalRef identifies a created post.
type JournalRef struct {
	ID   string
	Slug string
}

// CreateJournalRequest is the payload of JournalService.Create. ID is generated when empty.
type CreateJournalRequest struct {
	ID         string
	Slug       string
	Title      string
	Subtitle   string
	Date       string
	Quarter    string
	ReadTime   string
	CoverImage *string
	Blocks     []BlockInput
}

// UpdateJournalRequest is a sparse patch. A non-nil Blocks replaces every
// block of the post, an empty slice removes them all.
type UpdateJournalRequest struct {
	Title      *string
	Subtitle   *string
	Date       *string
	Quarter    *string
	ReadTime   *string
	CoverImage Nullable[string]
	Blocks     *[]BlockInput
}

// JournalService manages block-structured journal posts.
type JournalService interface {
	// List returns post summaries in insertion order.
	List(ctx context.Context) ([]JournalSummary, error)
	// Create validates and stores a post with its blocks.
	Create(ctx context.Context, req CreateJournalRequest) (JournalRef, error)
	// Get returns the post with the given slug and its blocks.
	Get(ctx context.Context, slug string) (JournalPost, error)
	// Update applies a sparse patch, replacing blocks when given.
	Update(ctx context.Context, slug string, req UpdateJournalRequest) error
	// Delete removes a post and its blocks.
	Delete(ctx context.Context, slug string) error
}

// journalService implements JournalService.
type journalService struct {
	store JournalStore
	clock *clock
}

// NewJournalService creates a new JournalService.
func NewJournalService(store JournalStore, opts ...Option) JournalService {
	o := buildOptions(opts)
	return &journalService{
		store: store,
		clock: newClock(o.now),
	}
}

// List returns all post summaries.
func (s *journalService) List(ctx context.Context) ([]JournalSummary, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, mapStoreError(ctx, err, "failed to list journal entries")
	}

	summaries := make([]JournalSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, toJournalSummary(r))
	}
	return summaries, nil
}

// Create validates req and stores the post and its blocks atomically.
func (s *journalService) Create(ctx context.Context, req CreateJournalRequest) (JournalRef, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var v validator
	v.nonEmpty("slug", req.Slug)
	v.nonEmpty("title", req.Title)
	v.nonEmpty("subtitle", req.Subtitle)
	v.nonEmpty("date", req.Date)
	v.nonEmpty("quarter", req.Quarter)
	v.nonEmpty("readTime", req.ReadTime)
	blocks := buildBlocks(&v, req.Blocks)
	if err := v.err(); err != nil {
		logger.WarnContext(ctx, "invalid create journal request", "error", err)
		return JournalRef{}, err
	}

	now := s.clock.stamp()
	id := req.ID
	if id == "" {
		id = "j-" + strconv.FormatInt(now.UnixMilli(), 36)
	}

	record := &storage.JournalRecord{
		ID:         id,
		Slug:       req.Slug,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Date:       req.Date,
		Quarter:    req.Quarter,
		ReadTime:   req.ReadTime,
		CoverImage: req.CoverImage,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Create(ctx, record, toBlockRecords(blocks)); err != nil {
		return JournalRef{}, mapStoreError(ctx, err, "failed to create journal entry")
	}

	logger.InfoContext(ctx, "journal entry created", "id", id, "slug", req.Slug, "blocks", len(blocks))
	return JournalRef{ID: id, Slug: req.Slug}, nil
}

// Get returns the post with the given slug.
func (s *journalService) Get(ctx context.Context, slug string) (JournalPost, error) {
	record, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return JournalPost{}, mapStoreError(ctx, err, "failed to get journal entry")
	}

	rows, err := s.store.ListBlocks(ctx, record.ID)
	if err != nil {
		return JournalPost{}, mapStoreError(ctx, err, "failed to list journal blocks")
	}

	blocks := make([]Block, 0, len(rows))
	for _, row := range rows {
		blocks = append(blocks, fromBlockRecord(row))
	}
	return JournalPost{
		JournalSummary: toJournalSummary(*record),
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
		Blocks:         blocks,
	}, nil
}

// Update applies req to the post with the given slug.
func (s *journalService) Update(ctx context.Context, slug string, req UpdateJournalRequest) error {
	logger := contextutil.LoggerFromContext(ctx)

	var v validator
	optionalNonEmpty := func(field string, value *string) {
		if value != nil {
			v.nonEmpty(field, *value)
		}
	}
	optionalNonEmpty("title", req.Title)
	optionalNonEmpty("subtitle", req.Subtitle)
	optionalNonEmpty("date", req.Date)
	optionalNonEmpty("quarter", req.Quarter)
	optionalNonEmpty("readTime", req.ReadTime)

	var replacement *[]storage.BlockRecord
	if req.Blocks != nil {
		records := toBlockRecords(buildBlocks(&v, *req.Blocks))
		replacement = &records
	}
	if err := v.err(); err != nil {
		logger.WarnContext(ctx, "invalid update journal request", "slug", slug, "error", err)
		return err
	}

	patch := storage.JournalPatch{
		Title:         req.Title,
		Subtitle:      req.Subtitle,
		Date:          req.Date,
		Quarter:       req.Quarter,
		ReadTime:      req.ReadTime,
		SetCoverImage: req.CoverImage.Set,
		CoverImage:    req.CoverImage.Value,
		UpdatedAt:     s.clock.stamp(),
	}
	if err := s.store.Update(ctx, slug, patch, replacement); err != nil {
		return mapStoreError(ctx, err, "failed to update journal entry")
	}

	logger.InfoContext(ctx, "journal entry updated", "slug", slug, "blocks_replaced", replacement != nil)
	return nil
}

// Delete removes the post with the given slug.
func (s *journalService) Delete(ctx context.Context, slug string) error {
	if err := s.store.Delete(ctx, slug); err != nil {
		return mapStoreError(ctx, err, "failed to delete journal entry")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "journal entry deleted", "slug", slug)
	return nil
}

// buildBlocks converts inputs to blocks, recording problems on v under the "blocks" field.
func buildBlocks(v *validator, inputs []BlockInput) []Block {
	blocks := make([]Block, 0, len(inputs))
	for i, in := range inputs {
		b, err := NewBlock(in)
		if err != nil {
			v.add("blocks", fmt.Sprintf("block %d: %s", i, err.(*ValidationError).Message))
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

func toBlockRecords(blocks []Block) []storage.BlockRecord {
	records := make([]storage.BlockRecord, len(blocks))
	for i, b := range blocks {
		records[i] = storage.BlockRecord{
			SortOrder:     i,
			Type:          b.BlockType(),
			Content:       b.BlockContent(),
			ComponentName: ComponentName(b),
		}
	}
	return records
}

// fromBlockRecord maps a stored row to its Block. Unknown types read as markdown.
func fromBlockRecord(r storage.BlockRecord) Block {
	switch r.Type {
	case BlockTypeComponent:
		name := ""
		if r.ComponentName != nil {
			name = *r.ComponentName
		}
		return ComponentBlock{Name: name, PropsJSON: r.Content}
	case BlockTypeImage:
		return ImageBlock{URL: r.Content}
	case BlockTypePullQuote:
		return PullQuoteBlock{Quote: r.Content}
	default:
		return MarkdownBlock{Markdown: r.Content}
	}
}

func toJournalSummary(r storage.JournalRecord) JournalSummary {
	return JournalSummary{
		ID:         r.ID,
		Slug:       r.Slug,
		Title:      r.Title,
		Subtitle:   r.Subtitle,
		Date:       r.Date,
		Quarter:    r.Quarter,
		ReadTime:   r.ReadTime,
		CoverImage: r.CoverImage,
	}
}
