package models

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid field in a rejected payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a payload before any write happens. It carries
// every violated field, not just the first one found.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Empty reports whether no violations were collected.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// StorageError wraps a failed storage operation. The surrounding
// transaction has been rolled back; no partial state remains. Retryable is
// true only for lock-wait timeouts, never for constraint violations.
type StorageError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *StorageError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("storage: %s (%s): %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// QuerySyntaxError rejects a malformed full-text match expression.
// Escaping raw user text is the caller's responsibility; see
// store.EscapeMatch.
type QuerySyntaxError struct {
	Query string
	Err   error
}

func (e *QuerySyntaxError) Error() string {
	return fmt.Sprintf("query syntax: %q: %v (escape raw input before searching)", e.Query, e.Err)
}

func (e *QuerySyntaxError) Unwrap() error { return e.Err }
