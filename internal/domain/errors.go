package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every "missing entity" error. Use errors.Is to match any of them.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrEventNotFound  = fmt.Errorf("event %w", ErrNotFound)
	ErrTicketNotFound = fmt.Errorf("ticket %w", ErrNotFound)
)

var (
	// ErrForbidden is returned when the caller is not the organizer of the event it tries to change.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyRegistered is returned when a ticket already exists for the (event, user) pair.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrDuplicateEmail    = errors.New("email already in use")
	// ErrInvalidInput is returned for missing or malformed fields. Detail is attached with %w.
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// InvalidInput wraps ErrInvalidInput with a human readable reason.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
