package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("wrong credentials")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrInvalidToken       = errors.New("token is invalid or expired")

	// ErrExpenseNotFound covers both missing expenses and expenses owned by
	// someone else; callers must not be able to tell the two apart.
	ErrExpenseNotFound = errors.New("expense not found")
)

// FieldRequired is the message used for every missing mandatory field.
const FieldRequired = "This field is required."

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends msg to the messages recorded for field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Has reports whether field already carries at least one message.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldValidationError builds a ValidationError holding a single message.
func FieldValidationError(field, msg string) *ValidationError {
	e := NewValidationError()
	e.Add(field, msg)
	return e
}
