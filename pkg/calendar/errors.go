package calendar

import (
	"errors"
	"fmt"
)

// Sentinel errors for the calendar package.
var (
	// ErrNoCredentials indicates no stored OAuth user credentials were
	// found; the user must authorize at /google/oauth/start first.
	ErrNoCredentials = errors.New("calendar: credentials not found, authorize at /google/oauth/start")

	// ErrInvalidCredentials indicates the stored credential file is
	// malformed or missing required fields.
	ErrInvalidCredentials = errors.New("calendar: invalid credentials")

	// ErrInvalidTimezone indicates an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("calendar: invalid timezone")

	// ErrInvalidDuration indicates a zero or negative event duration.
	ErrInvalidDuration = errors.New("calendar: event duration must be positive")

	// ErrInvalidInterval indicates a computed end at or before start.
	ErrInvalidInterval = errors.New("calendar: event end must be after start")
)

// Error is the typed integration error wrapping failures to reach
// Google Calendar.
type Error struct {
	// Op is the operation that failed ("list events", "insert event",
	// "refresh token").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("calendar: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError wraps err with operation context, passing nil through.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
