package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"logstudio/internal/service"
)

// JournalHandler handles HTTP requests for journal posts.
type JournalHandler struct {
	journalService service.JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
	}
}

// JournalSummaryResponse represents a post in the journal listing.
//
// swagger:model JournalSummaryResponse
type JournalSummaryResponse struct {
	ID         string  `json:"id"`
	Slug       string  `json:"slug"`
	Title      string  `json:"title"`
	Subtitle   string  `json:"subtitle"`
	Date       string  `json:"date"`
	Quarter    string  `json:"quarter"`
	ReadTime   string  `json:"readTime"`
	CoverImage *string `json:"coverImage"`
}

// BlockDTO is a journal block on the wire. componentName is only set for component blocks.
//
// swagger:model BlockDTO
type BlockDTO struct {
	Type          string  `json:"type"`
	Content       string  `json:"content"`
	ComponentName *string `json:"componentName"`
}

// JournalDetailResponse represents a full post with ordered blocks.
//
// swagger:model JournalDetailResponse
type JournalDetailResponse struct {
	JournalSummaryResponse
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
	Blocks    []BlockDTO `json:"blocks"`
}

// JournalCreatedResponse identifies a created post.
//
// swagger:model JournalCreatedResponse
type JournalCreatedResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// CreateJournalRequest represents the HTTP request payload for creating a post.
//
// swagger:model CreateJournalRequest
type CreateJournalRequest struct {
	ID         string     `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	Date       string     `json:"date"`
	Quarter    string     `json:"quarter"`
	ReadTime   string     `json:"readTime"`
	CoverImage *string    `json:"coverImage"`
	Blocks     []BlockDTO `json:"blocks"`
}

// UpdateJournalRequest represents a sparse post patch.
// A present blocks array replaces all blocks; null or absent leaves them untouched.
//
// swagger:model UpdateJournalRequest
type UpdateJournalRequest struct {
	Title      *string          `json:"title"`
	Subtitle   *string          `json:"subtitle"`
	Date       *string          `json:"date"`
	Quarter    *string          `json:"quarter"`
	ReadTime   *string          `json:"readTime"`
	CoverImage nullable[string] `json:"coverImage"`
	Blocks     *[]BlockDTO      `json:"blocks"`
}

// swagger:route GET /api/journal listJournal
//
// # List journal posts
//
// Returns post summaries in insertion order, without blocks.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Post summaries
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/JournalSummaryResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := h.journalService.List(ctx)
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	resp := make([]JournalSummaryResponse, 0, len(posts))
	for _, p := range posts {
		resp = append(resp, toJournalSummaryResponse(p))
	}
	writeJSON(w, ctx, http.StatusOK, resp)
}

// swagger:route POST /api/journal createJournal
//
// # Create a journal post
//
// Stores the post and its blocks atomically. The id is generated when omitted.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/CreateJournalRequest"
//
// responses:
//
//	'201':
//	  description: Created post reference
//	  schema:
//	    "$ref": "#/definitions/JournalCreatedResponse"
//	'400':
//	  description: Validation failed
//	  schema:
//	    "$ref": "#/definitions/ValidationErrorResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateJournalRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	ref, err := h.journalService.Create(ctx, service.CreateJournalRequest{
		ID:         req.ID,
		Slug:       req.Slug,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Date:       req.Date,
		Quarter:    req.Quarter,
		ReadTime:   req.ReadTime,
		CoverImage: req.CoverImage,
		Blocks:     fromBlockDTOs(req.Blocks),
	})
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusCreated, JournalCreatedResponse{ID: ref.ID, Slug: ref.Slug})
}

// swagger:route GET /api/journal/{slug} getJournal
//
// # Get a journal post
//
// Returns the post with its blocks in display order.
//
// ---
// produces:
// - application/json
// parameters:
//   - in: path
//     name: slug
//     type: string
//     required: true
//     description: Journal post slug
//
// responses:
//
//	'200':
//	  description: The post
//	  schema:
//	    "$ref": "#/definitions/JournalDetailResponse"
//	'404':
//	  description: Journal post not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := h.journalService.Get(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	blocks := make([]BlockDTO, 0, len(post.Blocks))
	for _, b := range post.Blocks {
		blocks = append(blocks, BlockDTO{
			Type:          b.BlockType(),
			Content:       b.BlockContent(),
			ComponentName: service.ComponentName(b),
		})
	}
	writeJSON(w, ctx, http.StatusOK, JournalDetailResponse{
		JournalSummaryResponse: toJournalSummaryResponse(post.JournalSummary),
		CreatedAt:              post.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:              post.UpdatedAt.UTC().Format(timestampLayout),
		Blocks:                 blocks,
	})
}

// swagger:route PUT /api/journal/{slug} updateJournal
//
// # Update a journal post
//
// Applies a sparse patch. A `blocks` array replaces every block; null or absent leaves them untouched.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: path
//     name: slug
//     type: string
//     required: true
//     description: Journal post slug
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/UpdateJournalRequest"
//
// responses:
//
//	'200':
//	  description: Updated
//	  schema:
//	    "$ref": "#/definitions/StatusResponse"
//	'400':
//	  description: Validation failed
//	  schema:
//	    "$ref": "#/definitions/ValidationErrorResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Journal post not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JournalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateJournalRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	var blocks *[]service.BlockInput
	if req.Blocks != nil {
		converted := fromBlockDTOs(*req.Blocks)
		blocks = &converted
	}

	err := h.journalService.Update(ctx, chi.URLParam(r, "slug"), service.UpdateJournalRequest{
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Date:       req.Date,
		Quarter:    req.Quarter,
		ReadTime:   req.ReadTime,
		CoverImage: req.CoverImage.toService(),
		Blocks:     blocks,
	})
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, StatusResponse{Status: "updated"})
}

// swagger:route DELETE /api/journal/{slug} deleteJournal
//
// # Delete a journal post
//
// Its blocks are removed with it.
//
// ---
// produces:
// - application/json
// parameters:
//   - in: path
//     name: slug
//     type: string
//     required: true
//     description: Journal post slug
//
// responses:
//
//	'200':
//	  description: Deleted
//	  schema:
//	    "$ref": "#/definitions/StatusResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Journal post not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.journalService.Delete(ctx, chi.URLParam(r, "slug")); err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, StatusResponse{Status: "deleted"})
}

func toJournalSummaryResponse(p service.JournalSummary) JournalSummaryResponse {
	return JournalSummaryResponse{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title,
		Subtitle:   p.Subtitle,
		Date:       p.Date,
		Quarter:    p.Quarter,
		ReadTime:   p.ReadTime,
		CoverImage: p.CoverImage,
	}
}

func fromBlockDTOs(dtos []BlockDTO) []service.BlockInput {
	inputs := make([]service.BlockInput, len(dtos))
	for i, b := range dtos {
		inputs[i] = service.BlockInput{
			Type:          b.Type,
			Content:       b.Content,
			ComponentName: b.ComponentName,
		}
	}
	return inputs
}
