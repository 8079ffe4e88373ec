package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"logstudio/internal/contextutil"
	"logstudio/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// timestampLayout renders createdAt/updatedAt as ISO-8601 UTC with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationDetail lists validation messages per field plus payload-level messages.
//
// swagger:model ValidationDetail
type ValidationDetail struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
	FormErrors  []string            `json:"formErrors"`
}

// ValidationErrorResponse is the 400 body for rejected payloads.
//
// swagger:model ValidationErrorResponse
type ValidationErrorResponse struct {
	Error ValidationDetail `json:"error"`
}

// StatusResponse acknowledges a mutation without returning the resource.
//
// swagger:model StatusResponse
type StatusResponse struct {
	Status string `json:"status"`
}

// nullable tracks whether a JSON field was present and whether it was null.
type nullable[T any] struct {
	set   bool
	value *T
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (n *nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.value = &v
	return nil
}

func (n nullable[T]) toService() service.Nullable[T] {
	return service.Nullable[T]{Set: n.set, Value: n.value}
}

// decodeJSON reads one JSON document from the request body into dst.
// Decoding failures are reported as service validation errors.
func decodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return &service.ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("Expected %s, received %s", typeErr.Type, typeErr.Value),
			}
		case errors.As(err, &tooLarge):
			return &service.ValidationError{Message: "Request body too large"}
		case errors.Is(err, io.EOF):
			return &service.ValidationError{Message: "Request body is empty"}
		default:
			return &service.ValidationError{Message: "Malformed JSON in request body"}
		}
	}
	return nil
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, ctx context.Context, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	if verrs, ok := service.AsValidationErrors(err); ok {
		logger.WarnContext(ctx, "validation error", "error", err)
		fieldErrors, formErrors := verrs.Flatten()
		writeJSON(w, ctx, http.StatusBadRequest, ValidationErrorResponse{
			Error: ValidationDetail{FieldErrors: fieldErrors, FormErrors: formErrors},
		})
		return
	}

	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		logger.WarnContext(ctx, "conflict", "error", err)
		writeError(w, http.StatusBadRequest, conflict.Message)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid input")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
