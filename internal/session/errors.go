package session

import (
	"errors"
	"fmt"
)

// StateError represents a rejected state-machine transition.
//
// Transition errors include:
//   - No client: start or select attempted without a client
//   - Not running: stop attempted while no timer runs
//   - Already running: start attempted while a timer runs
//   - Not recovered: any transition attempted before startup recovery
//
// These are guard failures, not I/O failures; the machine's state is
// unchanged when one is returned. I/O failures surface as store errors
// and keep their own codes (see internal/store).
type StateError struct {
	// Code identifies the rejected transition category.
	Code StateErrorCode

	// Message is a human-readable description.
	Message string

	// Client is the client involved, when one applies.
	Client string
}

// StateErrorCode categorizes transition rejections.
type StateErrorCode string

const (
	// ErrCodeNoClient indicates an action that needs a selected client.
	ErrCodeNoClient StateErrorCode = "NO_CLIENT"

	// ErrCodeNotRunning indicates a stop with no running timer.
	ErrCodeNotRunning StateErrorCode = "NOT_RUNNING"

	// ErrCodeAlreadyRunning indicates a start while a timer runs.
	ErrCodeAlreadyRunning StateErrorCode = "ALREADY_RUNNING"

	// ErrCodeNotRecovered indicates a transition before RecoverOnStartup
	// has resolved the previous process's crash state.
	ErrCodeNotRecovered StateErrorCode = "NOT_RECOVERED"
)

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Client != "" {
		return fmt.Sprintf("%s: %s (client=%s)", e.Code, e.Message, e.Client)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNoClient returns true if the error is a missing-client rejection.
// Uses errors.As to handle wrapped errors.
func IsNoClient(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNoClient
	}
	return false
}

// IsNotRunning returns true if the error is a stop-while-idle rejection.
func IsNotRunning(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeNotRunning
	}
	return false
}

// IsAlreadyRunning returns true if the error is a double-start rejection.
func IsAlreadyRunning(err error) bool {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code == ErrCodeAlreadyRunning
	}
	return false
}
