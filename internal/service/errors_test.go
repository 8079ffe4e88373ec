package service

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err: &ValidationError{
				Field:   "slug",
				Message: "cannot be empty",
			},
			want: "validation error on field slug: cannot be empty",
		},
		{
			name: "form error",
			err: &ValidationError{
				Field:   "",
				Message: "invalid body",
			},
			want: "validation error: invalid body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("ValidationError should match ErrInvalidInput")
			}
		})
	}
}

func TestValidationErrors_Flatten(t *testing.T) {
	errs := ValidationErrors{
		{Field: "title", Message: "Required"},
		{Field: "updates.0.type", Message: "Invalid enum value"},
		{Field: "title", Message: "too short"},
		{Message: "Malformed JSON"},
	}

	fieldErrors, formErrors := errs.Flatten()

	wantFields := map[string][]string{
		"title":          {"Required", "too short"},
		"updates.0.type": {"Invalid enum value"},
	}
	if !reflect.DeepEqual(fieldErrors, wantFields) {
		t.Errorf("Flatten() fieldErrors = %v, want %v", fieldErrors, wantFields)
	}
	if !reflect.DeepEqual(formErrors, []string{"Malformed JSON"}) {
		t.Errorf("Flatten() formErrors = %v", formErrors)
	}

	if !errors.Is(errs, ErrInvalidInput) {
		t.Error("ValidationErrors should match ErrInvalidInput")
	}

	emptyFields, emptyForm := ValidationErrors{}.Flatten()
	if emptyFields == nil || emptyForm == nil {
		t.Error("Flatten() should return non-nil collections")
	}
}

func TestAsValidationErrors(t *testing.T) {
	single := &ValidationError{Field: "slug", Message: "taken"}

	tests := []struct {
		name    string
		err     error
		wantOK  bool
		wantLen int
	}{
		{name: "single", err: fmt.Errorf("wrap: %w", single), wantOK: true, wantLen: 1},
		{name: "many", err: ValidationErrors{single, single}, wantOK: true, wantLen: 2},
		{name: "other", err: ErrNotFound, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsValidationErrors(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("AsValidationErrors() ok = %v, want %v", ok, tt.wantOK)
			}
			if len(got) != tt.wantLen {
				t.Errorf("AsValidationErrors() len = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestConflictError(t *testing.T) {
	err := fmt.Errorf("promote: %w", &ConflictError{Message: "Entry is already at this level"})

	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError should match ErrConflict")
	}
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatal("errors.As should find ConflictError")
	}
	if conflict.Error() != "Entry is already at this level" {
		t.Errorf("ConflictError.Error() = %q", conflict.Error())
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{
			name:    "nil error",
			err:     nil,
			msg:     "context",
			wantNil: true,
		},
		{
			name:    "wrapped error",
			err:     errors.New("original error"),
			msg:     "context",
			wantNil: false,
			wantMsg: "context: original error",
		},
		{
			name:    "empty message",
			err:     errors.New("original error"),
			msg:     "",
			wantNil: false,
			wantMsg: ": original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Errorf("WrapError() = nil, want error")
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got.Error(), tt.wantMsg)
			}
			// Verify error wrapping
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}

func TestErrorConstants(t *testing.T) {
	sentinels := []error{ErrInvalidInput, ErrNotFound, ErrConflict, ErrUnauthorized}
	for i, a := range sentinels {
		if a == nil {
			t.Fatalf("sentinel %d is nil", i)
		}
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
