package service

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// validDate reports whether value is a real calendar day written as YYYY-MM-DD.
func validDate(value string) bool {
	if !datePattern.MatchString(value) {
		return false
	}
	_, err := time.Parse(time.DateOnly, value)
	return err == nil
}

// Nullable is a patch value that tells an absent field (Set false) from an
// explicit null (Set true, Value nil) and a new value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// Some returns a Nullable that sets the field to v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// validator accumulates field errors for one payload.
type validator struct {
	errs ValidationErrors
}

func (v *validator) add(field, msg string) {
	v.errs = append(v.errs, &ValidationError{Field: field, Message: msg})
}

func (v *validator) nonEmpty(field, value string) {
	if value == "" {
		v.add(field, "String must contain at least 1 character(s)")
	}
}

func (v *validator) oneOf(field, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		v.add(field, fmt.Sprintf("Invalid enum value. Expected %s, received '%s'", quoteList(allowed), value))
	}
}

func (v *validator) date(field, value string) {
	if !validDate(value) {
		v.add(field, "Invalid date, expected YYYY-MM-DD")
	}
}

func (v *validator) url(field, value string) {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || (u.Host == "" && u.Opaque == "") {
		v.add(field, "Invalid url")
	}
}

func (v *validator) level(field string, level int) {
	if !ValidLevel(level) {
		v.add(field, fmt.Sprintf("Level must be between %d and %d", LevelLabNote, LevelProduct))
	}
}

// err returns nil when nothing was recorded.
func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, s := range values {
		quoted[i] = "'" + s + "'"
	}
	return strings.Join(quoted, " | ")
}
