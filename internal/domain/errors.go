package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Lookup errors
var (
	ErrNotFound = errors.New("not found")
)

// Uniqueness errors
var (
	ErrConflict       = errors.New("conflict")
	ErrUsernameExists = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrEmailExists    = fmt.Errorf("%w: email already exists", ErrConflict)
)

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}
