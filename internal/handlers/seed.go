package handlers

import (
	"net/http"

	"logstudio/internal/contextutil"
	"logstudio/internal/service"
)

// SeedHandler handles the destructive reseed endpoint.
type SeedHandler struct {
	systemService service.SystemService
}

// NewSeedHandler creates a new SeedHandler.
func NewSeedHandler(systemService service.SystemService) *SeedHandler {
	return &SeedHandler{
		systemService: systemService,
	}
}

// SeedResponse reports the restored record counts.
//
// swagger:model SeedResponse
type SeedResponse struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
	Journal int    `json:"journal"`
}

// SeedErrorResponse is returned when the reseed fails.
//
// swagger:model SeedErrorResponse
type SeedErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// swagger:route POST /api/seed seedDatabase
//
// # Restore the built-in dataset
//
// Deletes all entries, update logs and journal posts, then inserts the built-in dataset in one transaction.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Seeded
//	  schema:
//	    "$ref": "#/definitions/SeedResponse"
//	'401':
//	  description: Admin secret missing or wrong
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'500':
//	  description: Seed failed
//	  schema:
//	    "$ref": "#/definitions/SeedErrorResponse"
func (h *SeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.systemService.Seed(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "seed failed", "error", err)
		writeJSON(w, ctx, http.StatusInternalServerError, SeedErrorResponse{
			Status:  "error",
			Message: "Internal server error",
		})
		return
	}

	writeJSON(w, ctx, http.StatusOK, SeedResponse{
		Status:  "ok",
		Entries: result.Entries,
		Journal: result.Journal,
	})
}
