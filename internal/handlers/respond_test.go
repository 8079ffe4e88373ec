package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"logstudio/internal/service"
)

// withURLParam attaches a chi route parameter to r.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) ValidationDetail {
	t.Helper()
	var resp ValidationErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode validation response: %v", err)
	}
	return resp.Error
}

func decodeErrorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not found",
			err:        fmt.Errorf("lookup: %w", service.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"Not found"}`,
		},
		{
			name:       "conflict",
			err:        &service.ConflictError{Message: "Entry is already at this level"},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Entry is already at this level"}`,
		},
		{
			name:       "unauthorized",
			err:        service.ErrUnauthorized,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":"Unauthorized"}`,
		},
		{
			name:       "single validation error",
			err:        &service.ValidationError{Field: "slug", Message: "slug already exists"},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":{"fieldErrors":{"slug":["slug already exists"]},"formErrors":[]}}`,
		},
		{
			name: "validation errors",
			err: service.ValidationErrors{
				{Field: "title", Message: "Required"},
				{Message: "Malformed JSON in request body"},
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":{"fieldErrors":{"title":["Required"]},"formErrors":["Malformed JSON in request body"]}}`,
		},
		{
			name:       "internal error is not leaked",
			err:        errors.New("database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleServiceError(w, context.Background(), tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Level *int   `json:"level"`
		Title string `json:"title"`
	}

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
	}{
		{name: "valid", body: `{"level":1,"title":"x"}`},
		{name: "unknown fields ignored", body: `{"title":"x","extra":true}`},
		{name: "malformed", body: `{"title":`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
		{name: "wrong type", body: `{"level":"high"}`, wantErr: true, wantField: "level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var p payload
			err := decodeJSON(r, w, &p)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("decodeJSON() error = %v", err)
				}
				return
			}

			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("decodeJSON() error = %v, want *service.ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("decodeJSON() field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"title":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	var p struct {
		Title string `json:"title"`
	}
	err := decodeJSON(r, w, &p)

	var verr *service.ValidationError
	if !errors.As(err, &verr) || verr.Message != "Request body too large" {
		t.Errorf("decodeJSON() error = %v, want body too large", err)
	}
}

func TestNullable_UnmarshalJSON(t *testing.T) {
	type patch struct {
		Link nullable[string] `json:"link"`
	}

	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantValue *string
	}{
		{name: "absent", body: `{}`, wantSet: false},
		{name: "null", body: `{"link":null}`, wantSet: true},
		{name: "value", body: `{"link":"https://example.com"}`, wantSet: true, wantValue: strPtr("https://example.com")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			got := p.Link.toService()
			if got.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", got.Set, tt.wantSet)
			}
			switch {
			case tt.wantValue == nil && got.Value != nil:
				t.Errorf("Value = %q, want nil", *got.Value)
			case tt.wantValue != nil && (got.Value == nil || *got.Value != *tt.wantValue):
				t.Errorf("Value = %v, want %q", got.Value, *tt.wantValue)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
