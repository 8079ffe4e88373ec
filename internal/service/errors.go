package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a request is valid but cannot apply to the current state.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned when a mutating request lacks the admin secret.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError represents a validation error with a field name.
// An empty Field marks a form-level error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationErrors collects every problem found in one payload.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidInput) match.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Flatten groups messages by field. Form-level messages (empty Field) go to formErrors.
func (e ValidationErrors) Flatten() (fieldErrors map[string][]string, formErrors []string) {
	fieldErrors = map[string][]string{}
	formErrors = []string{}
	for _, v := range e {
		if v.Field == "" {
			formErrors = append(formErrors, v.Message)
			continue
		}
		fieldErrors[v.Field] = append(fieldErrors[v.Field], v.Message)
	}
	return fieldErrors, formErrors
}

// AsValidationErrors normalizes a *ValidationError or ValidationErrors found in err's chain.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}

// ConflictError reports a state conflict with a client-facing message.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
