package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced alert does not exist.
	ErrNotFound = errors.New("alert not found")

	// ErrStorageUnavailable is returned when the persistence service cannot be
	// reached or rejects a write.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// FieldViolation describes one violated input constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every constraint an input violated.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Violations = append(e.Violations, FieldViolation{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// OrNil returns e as an error, or nil when no violation was recorded.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}
