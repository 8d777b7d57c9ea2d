package store

import (
	"errors"
	"fmt"
)

// StoreError represents a failure detected while reading or writing
// the session log or marker files.
//
// Store errors include:
//   - Blocked: the log cannot be written because another program holds it
//   - Empty store: ReplaceLast attempted with no records
//   - Invalid record: a row fails validation (bad timestamp, end <= start)
//
// StoreError includes structured fields so callers can decide on a
// recovery policy without string matching.
type StoreError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the file the error refers to.
	Path string

	// Row is the 1-based data row the error refers to (0 if not row-scoped).
	Row int
}

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeBlocked indicates the log is held open exclusively by another
	// program. The write did not happen and can be retried after the other
	// program releases the file.
	ErrCodeBlocked ErrorCode = "IO_BLOCKED"

	// ErrCodeEmptyStore indicates a last-row rewrite with no rows present.
	ErrCodeEmptyStore ErrorCode = "EMPTY_STORE"

	// ErrCodeInvalidRecord indicates a row with an unparsable timestamp or
	// a non-positive duration (end <= start).
	ErrCodeInvalidRecord ErrorCode = "INVALID_RECORD"
)

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: %s (file=%s, row=%d)", e.Code, e.Message, e.Path, e.Row)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (file=%s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsBlocked returns true if the error is a blocked-file error.
// Uses errors.As to handle wrapped errors.
func IsBlocked(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeBlocked
	}
	return false
}

// IsEmptyStore returns true if the error is an empty-store error.
func IsEmptyStore(err error) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == ErrCodeEmptyStore
	}
	return false
}

// NewBlockedError creates a StoreError for a log held by another program.
func NewBlockedError(path string, cause error) *StoreError {
	return &StoreError{
		Code:    ErrCodeBlocked,
		Message: fmt.Sprintf("file is held open by another program: %v", cause),
		Path:    path,
	}
}

// NewEmptyStoreError creates a StoreError for a rewrite with no records.
func NewEmptyStoreError(path string) *StoreError {
	return &StoreError{
		Code:    ErrCodeEmptyStore,
		Message: "no records to rewrite",
		Path:    path,
	}
}
