package handlers

import (
	"net/http"

	"logstudio/internal/contextutil"
	"logstudio/internal/service"
)

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	systemService service.SystemService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(systemService service.SystemService) *HealthHandler {
	return &HealthHandler{
		systemService: systemService,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// "ok" or "error"
	Status string `json:"status"`

	// Build version of the running API
	Version string `json:"version"`

	// Present only when Status is "error"
	Message string `json:"message,omitempty"`
}

// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// Pings the database with a five second timeout.
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Database reachable
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'500':
//	  description: Database connection failed
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := h.systemService.Health(ctx)
	if !health.OK {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "health check failed", "version", health.Version)
		writeJSON(w, ctx, http.StatusInternalServerError, HealthResponse{
			Status:  "error",
			Version: health.Version,
			Message: "Database connection failed",
		})
		return
	}

	writeJSON(w, ctx, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: health.Version,
	})
}
