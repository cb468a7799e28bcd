package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a book or bill id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrBookHasBills is returned when deleting a book that bills still reference.
	ErrBookHasBills = errors.New("book has bills and cannot be deleted")
)

// ValidationErrors maps an input field name to a human-readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// StoreError wraps a failed transaction. Its message is the store's own
// error text so it can be shown to the user as is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// AsValidationErrors extracts field errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

func isDomainError(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBookHasBills) {
		return true
	}
	_, ok := AsValidationErrors(err)
	return ok
}
