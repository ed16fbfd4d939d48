// Package assistant implements the voice-command interpreter behind the
// /voice endpoints: intent classification, slot extraction, conflict
// detection and the stateless multi-turn slot-filling dialogue. All
// continuation state travels inside an opaque token returned to the
// client, so the package holds no session state between calls.
package assistant

import (
	"context"
	"time"
)

// Attendee is one invitee on a calendar event.
type Attendee struct {
	Email string `json:"email"`
}

// Slots is the event-creation working state gathered across dialogue
// turns. Every field is optional while gathering; the orchestrator
// decides when enough is known to commit.
type Slots struct {
	Title           string     `json:"title,omitempty"`
	Location        string     `json:"location,omitempty"`
	Attendees       []Attendee `json:"attendees,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	StartISO        string     `json:"start_iso,omitempty"`
}

// Merge fills the missing fields of s from o. A slot that is already
// filled is never overwritten; the placeholder title is the one
// exception and may be replaced by a real one.
func (s *Slots) Merge(o Slots) {
	if s.Title == "" {
		s.Title = o.Title
	} else if s.Title == DefaultTitle && o.Title != "" && o.Title != DefaultTitle {
		s.Title = o.Title
	}
	if s.Location == "" {
		s.Location = o.Location
	}
	if len(s.Attendees) == 0 {
		s.Attendees = o.Attendees
	}
	if s.DurationMinutes == 0 {
		s.DurationMinutes = o.DurationMinutes
	}
	if s.StartISO == "" {
		s.StartISO = o.StartISO
	}
}

// Response is what both voice endpoints return to the caller.
type Response struct {
	OK             bool           `json:"ok"`
	Message        string         `json:"message"`
	ExpectingInput bool           `json:"expecting_input,omitempty"`
	Details        map[string]any `json:"details,omitempty"`
}

// Event is an existing calendar entry as reported by the calendar
// collaborator. Start and End are RFC 3339 timestamps, or plain
// YYYY-MM-DD dates for all-day events.
type Event struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

// EventInput describes an event the assistant wants created.
type EventInput struct {
	Title           string
	Description     string
	Location        string
	Start           time.Time
	DurationMinutes int
	Timezone        string
	Attendees       []Attendee
}

// CreatedEvent is the calendar collaborator's commit result.
type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// Calendar is the narrow contract the assistant needs from the calendar
// integration. Implementations are expected to return a typed
// integration error on any transport, auth or validation failure.
type Calendar interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, in EventInput) (CreatedEvent, error)
}

// State labels the dialogue position a response was produced in.
type State int

const (
	// StateCommitted means the request is done: chit-chat answered,
	// agenda listed, or the event created.
	StateCommitted State = iota
	// StateAwaitingSlot means a required slot is missing and the
	// response carries a continuation token plus a follow-up question.
	StateAwaitingSlot
	// StateAwaitingConfirmation means a conflicting event was found and
	// the response carries a confirmation token.
	StateAwaitingConfirmation
	// StateCancelled means the user declined a pending creation.
	StateCancelled
)

// String returns the wire label for the state.
func (s State) String() string {
	switch s {
	case StateAwaitingSlot:
		return "awaiting_slot"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateCancelled:
		return "cancelled"
	default:
		return "committed"
	}
}
