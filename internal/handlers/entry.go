package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"logstudio/internal/service"
)

// EntryHandler handles HTTP requests for entries and their update logs.
type EntryHandler struct {
	entryService service.EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
	}
}

// MetricDTO is a label/value pair.
//
// swagger:model MetricDTO
type MetricDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// UpdateLogResponse represents one changelog line.
//
// swagger:model UpdateLogResponse
type UpdateLogResponse struct {
	Date    string  `json:"date"`
	Version *string `json:"version"`
	Type    string  `json:"type"`
	Content string  `json:"content"`
}

// EntryResponse represents an entry with its update log.
//
// swagger:model EntryResponse
type EntryResponse struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Level       int                 `json:"level"`
	Type        string              `json:"type"`
	Date        string              `json:"date"`
	Tags        []string            `json:"tags"`
	Content     string              `json:"content"`
	Link        *string             `json:"link"`
	Metrics     []MetricDTO         `json:"metrics"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	Updates     []UpdateLogResponse `json:"updates"`
}

// NewUpdateRequest is an update-log line supplied on create.
//
// swagger:model NewUpdateRequest
type NewUpdateRequest struct {
	Date    string  `json:"date"`
	Version *string `json:"version"`
	Type    string  `json:"type"`
	Content string  `json:"content"`
}

// CreateEntryRequest represents the HTTP request payload for creating an entry.
//
// swagger:model CreateEntryRequest
type CreateEntryRequest struct {
	ID          string             `json:"id"`
	Slug        string             `json:"slug"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Level       *int               `json:"level"`
	Type        string             `json:"type"`
	Date        string             `json:"date"`
	Tags        []string           `json:"tags"`
	Content     string             `json:"content"`
	Link        *string            `json:"link"`
	Metrics     []MetricDTO        `json:"metrics"`
	Updates     []NewUpdateRequest `json:"updates"`
}

// UpdateEntryRequest represents a sparse entry patch. link and metrics accept null to clear.
//
// swagger:model UpdateEntryRequest
type UpdateEntryRequest struct {
	Slug        *string               `json:"slug"`
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Level       *int                  `json:"level"`
	Type        *string               `json:"type"`
	Date        *string               `json:"date"`
	Tags        *[]string             `json:"tags"`
	Content     *string               `json:"content"`
	Link        nullable[string]      `json:"link"`
	Metrics     nullable[[]MetricDTO] `json:"metrics"`
}

// AppendUpdateRequest represents the HTTP request payload for appending to the update log.
//
// swagger:model AppendUpdateRequest
type AppendUpdateRequest struct {
	Type    string  `json:"type"`
	Content string  `json:"content"`
	Version *string `json:"version"`
	Date    string  `json:"date"`
}

// PromoteRequest represents the HTTP request payload for a level change.
//
// swagger:model PromoteRequest
type PromoteRequest struct {
	Level *int `json:"level"`
}

// swagger:route GET /api/entries listEntries
//
// # List entries
//
// Returns entries in insertion order with their update logs.
// Filters: `level` (0-3) and `tag` (exact, case-sensitive).
//
// ---
// produces:
// - application/json
// parameters:
//   - in: query
//     name: level
//     type: integer
//     required: false
//     description: Only entries at this level
//   - in: query
//     name: tag
//     type: string
//     required: false
//     description: Only entries carrying this tag
//
// responses:
//
//	'200':
//	  description: Matching entries
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/EntryResponse"
//	'400':
//	  description: Validation failed
//	  schema:
//	    "$ref": "#/definitions/ValidationErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter service.EntryFilter
	query := r.URL.Query()
	if raw := query.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			handleServiceError(w, ctx, &service.ValidationError{Field: "level", Message: "Expected integer, received '" + raw + "'"})
			return
		}
		filter.Level = &level
	}
	filter.Tag = query.Get("tag")

	entries, err := h.entryService.List(ctx, filter)
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	writeJSON(w, ctx, http.StatusOK, resp)
}

// swagger:route POST /api/entries createEntry
//
// # Create an entry
//
// Stores the entry and its initial update log atomically. The id is generated when omitted.
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
//     "$ref": "#/definitions/CreateEntryRequest"
//
// responses:
//
//	'201':
//	  description: Created entry
//	  schema:
//	    "$ref": "#/definitions/EntryResponse"
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
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateEntryRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	updates := make([]service.NewUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, service.NewUpdate{
			Date:    u.Date,
			Version: u.Version,
			Type:    u.Type,
			Content: u.Content,
		})
	}

	entry, err := h.entryService.Create(ctx, service.CreateEntryRequest{
		ID:          req.ID,
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Type:        req.Type,
		Date:        req.Date,
		Tags:        req.Tags,
		Content:     req.Content,
		Link:        req.Link,
		Metrics:     fromMetricDTOs(req.Metrics),
		Updates:     updates,
	})
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	writeJSON(w, ctx, http.StatusCreated, toEntryResponse(entry))
}

// swagger:route GET /api/entries/{id} getEntry
//
// # Get an entry
//
// ---
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
//
// responses:
//
//	'200':
//	  description: The entry with its update log
//	  schema:
//	    "$ref": "#/definitions/EntryResponse"
//	'404':
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, err := h.entryService.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, toEntryResponse(entry))
}

// swagger:route PUT /api/entries/{id} updateEntry
//
// # Update an entry
//
// Applies a sparse patch. `link` and `metrics` accept null to clear.
// Changing `level` here does not sync `type` or log a milestone; use promote for that.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/UpdateEntryRequest"
//
// responses:
//
//	'200':
//	  description: Updated entry
//	  schema:
//	    "$ref": "#/definitions/EntryResponse"
//	'400':
//	  description: Validation failed
//	  schema:
//	    "$ref": "#/definitions/ValidationErrorResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateEntryRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	metrics := service.Nullable[[]service.Metric]{Set: req.Metrics.set}
	if req.Metrics.value != nil {
		converted := fromMetricDTOs(*req.Metrics.value)
		if converted == nil {
			converted = []service.Metric{}
		}
		metrics.Value = &converted
	}

	entry, err := h.entryService.Update(ctx, chi.URLParam(r, "id"), service.UpdateEntryRequest{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Type:        req.Type,
		Date:        req.Date,
		Tags:        req.Tags,
		Content:     req.Content,
		Link:        req.Link.toService(),
		Metrics:     metrics,
	})
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, toEntryResponse(entry))
}

// swagger:route DELETE /api/entries/{id} deleteEntry
//
// # Delete an entry
//
// The update log is removed with it.
//
// ---
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
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
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.entryService.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, StatusResponse{Status: "deleted"})
}

// swagger:route GET /api/entries/{id}/updates listEntryUpdates
//
// # List an entry's update log
//
// ---
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
//
// responses:
//
//	'200':
//	  description: Update log in insertion order
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/UpdateLogResponse"
//	'404':
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logs, err := h.entryService.ListUpdates(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, toUpdateLogResponses(logs))
}

// swagger:route POST /api/entries/{id}/updates appendEntryUpdate
//
// # Append to the update log
//
// `date` defaults to today (UTC). The entry's updatedAt is bumped.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/AppendUpdateRequest"
//
// responses:
//
//	'201':
//	  description: Full update log after the append
//	  schema:
//	    type: array
//	    items:
//	      "$ref": "#/definitions/UpdateLogResponse"
//	'400':
//	  description: Validation failed
//	  schema:
//	    "$ref": "#/definitions/ValidationErrorResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) AppendUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AppendUpdateRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}

	logs, err := h.entryService.AppendUpdate(ctx, chi.URLParam(r, "id"), service.AppendUpdateRequest{
		Type:    req.Type,
		Content: req.Content,
		Version: req.Version,
		Date:    req.Date,
	})
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusCreated, toUpdateLogResponses(logs))
}

// swagger:route POST /api/entries/{id}/promote promoteEntry
//
// # Change an entry's level
//
// Sets level and the matching type and appends a release log line in one transaction.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// parameters:
//   - in: path
//     name: id
//     type: string
//     required: true
//     description: Entry id
//   - in: body
//     name: body
//     required: true
//     schema:
//     "$ref": "#/definitions/PromoteRequest"
//
// responses:
//
//	'200':
//	  description: Promoted entry
//	  schema:
//	    "$ref": "#/definitions/EntryResponse"
//	'400':
//	  description: Invalid level or already at this level
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'404':
//	  description: Entry not found
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Internal server error
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *EntryHandler) Promote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PromoteRequest
	if err := decodeJSON(r, w, &req); err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	if req.Level == nil {
		handleServiceError(w, ctx, &service.ValidationError{Field: "level", Message: "Required"})
		return
	}

	entry, err := h.entryService.Promote(ctx, chi.URLParam(r, "id"), *req.Level)
	if err != nil {
		handleServiceError(w, ctx, err)
		return
	}
	writeJSON(w, ctx, http.StatusOK, toEntryResponse(entry))
}

func toEntryResponse(e service.Entry) EntryResponse {
	var metrics []MetricDTO
	if e.Metrics != nil {
		metrics = make([]MetricDTO, len(e.Metrics))
		for i, m := range e.Metrics {
			metrics[i] = MetricDTO{Label: m.Label, Value: m.Value}
		}
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryResponse{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Level:       e.Level,
		Type:        e.Type,
		Date:        e.Date,
		Tags:        tags,
		Content:     e.Content,
		Link:        e.Link,
		Metrics:     metrics,
		CreatedAt:   e.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:   e.UpdatedAt.UTC().Format(timestampLayout),
		Updates:     toUpdateLogResponses(e.Updates),
	}
}

func toUpdateLogResponses(logs []service.UpdateLog) []UpdateLogResponse {
	resp := make([]UpdateLogResponse, 0, len(logs))
	for _, u := range logs {
		resp = append(resp, UpdateLogResponse{
			Date:    u.Date,
			Version: u.Version,
			Type:    u.Type,
			Content: u.Content,
		})
	}
	return resp
}

func fromMetricDTOs(dtos []MetricDTO) []service.Metric {
	if dtos == nil {
		return nil
	}
	metrics := make([]service.Metric, len(dtos))
	for i, m := range dtos {
		metrics[i] = service.Metric{Label: m.Label, Value: m.Value}
	}
	return metrics
}
