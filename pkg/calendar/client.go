// Package calendar integrates with Google Calendar using OAuth user
// credentials saved by the OAuth callback. It is a thin collaborator:
// callers get typed integration errors and decide how to degrade.
package calendar

import (
	"context"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/hannalabs/hanna-api/internal/log"
)

// Config configures the calendar client.
type Config struct {
	// CredentialsPath is where OAuth user credentials are stored.
	CredentialsPath string

	// CredentialsJSON is an optional full JSON payload used when the
	// file does not exist yet.
	CredentialsJSON string

	// CalendarID defaults to "primary".
	CalendarID string

	// DefaultTimezone is applied to naive inputs.
	DefaultTimezone string

	// DefaultDurationMinutes is used when an event has neither an end
	// nor a duration.
	DefaultDurationMinutes int
}

// Client talks to Google Calendar. Credentials are loaded lazily at
// the first call, not at startup: there is no preflight step, and a
// missing authorization surfaces as a typed error at the point of use.
type Client struct {
	cfg   Config
	store *CredentialStore
}

// Event is an existing calendar entry. Start and End carry the RFC 3339
// dateTime, or the plain date for all-day events.
type Event struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	HTMLLink string `json:"htmlLink,omitempty"`
}

// EventInput describes an event to create. End wins over
// DurationMinutes when both are set.
type EventInput struct {
	Title           string
	Description     string
	Location        string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	Timezone        string
	Attendees       []string
}

// CreatedEvent is the result of a successful insert.
type CreatedEvent struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// New creates a calendar client.
func New(cfg Config) *Client {
	if cfg.CalendarID == "" {
		cfg.CalendarID = "primary"
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = 60
	}
	return &Client{
		cfg: cfg,
		store: &CredentialStore{
			Path:    cfg.CredentialsPath,
			EnvJSON: cfg.CredentialsJSON,
		},
	}
}

// Store exposes the credential store for the OAuth callback handler.
func (c *Client) Store() *CredentialStore {
	return c.store
}

// service builds an authenticated Calendar API client.
func (c *Client) service(ctx context.Context) (*gcal.Service, error) {
	ts, err := c.store.tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, wrapError("build service", err)
	}
	return svc, nil
}

// ListEvents returns single-occurrence events between from and to,
// ordered by start time.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	svc, err := c.service(ctx)
	if err != nil {
		return nil, err
	}

	res, err := svc.Events.List(c.cfg.CalendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapError("list events", err)
	}

	events := make([]Event, 0, len(res.Items))
	for _, item := range res.Items {
		events = append(events, Event{
			ID:       item.Id,
			Summary:  item.Summary,
			Start:    eventTime(item.Start),
			End:      eventTime(item.End),
			HTMLLink: item.HtmlLink,
		})
	}
	log.Debug("events listed", "count", len(events), "calendar", c.cfg.CalendarID)
	return events, nil
}

// CreateEvent inserts an event and notifies attendees.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (CreatedEvent, error) {
	start, end, tz, err := c.computeInterval(in)
	if err != nil {
		return CreatedEvent{}, err
	}

	body := &gcal.Event{
		Summary:     in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: tz,
		},
	}
	for _, email := range in.Attendees {
		if email != "" {
			body.Attendees = append(body.Attendees, &gcal.EventAttendee{Email: email})
		}
	}

	svc, err := c.service(ctx)
	if err != nil {
		return CreatedEvent{}, err
	}
	created, err := svc.Events.Insert(c.cfg.CalendarID, body).
		SendUpdates("all").
		Context(ctx).
		Do()
	if err != nil {
		return CreatedEvent{}, wrapError("insert event", err)
	}

	log.Info("event created", "id", created.Id, "summary", in.Title)
	return CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
		Start:    eventTime(created.Start),
		End:      eventTime(created.End),
	}, nil
}

// eventTime flattens the dateTime/date pair Google reports.
func eventTime(t *gcal.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
