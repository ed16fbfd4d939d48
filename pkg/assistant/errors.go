package assistant

import "errors"

// Sentinel errors for the assistant package.
var (
	// ErrInvalidToken indicates a continuation token that could not be
	// decoded or carries an unknown schema version. The conversation
	// cannot continue from it; the caller must start a new utterance.
	ErrInvalidToken = errors.New("assistant: invalid or expired token")

	// ErrNoCalendar indicates the assistant was built without a
	// calendar collaborator.
	ErrNoCalendar = errors.New("assistant: calendar collaborator is required")
)
