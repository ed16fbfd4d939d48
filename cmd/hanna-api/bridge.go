package main

import (
	"context"
	"time"

	"github.com/hannalabs/hanna-api/pkg/assistant"
	"github.com/hannalabs/hanna-api/pkg/calendar"
)

// calendarBridge adapts the Google Calendar client to the narrow
// interface the assistant works against.
type calendarBridge struct {
	cal *calendar.Client
}

func (b *calendarBridge) ListEvents(ctx context.Context, from, to time.Time) ([]assistant.Event, error) {
	events, err := b.cal.ListEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]assistant.Event, 0, len(events))
	for _, e := range events {
		out = append(out, assistant.Event{
			ID:       e.ID,
			Summary:  e.Summary,
			Start:    e.Start,
			End:      e.End,
			HTMLLink: e.HTMLLink,
		})
	}
	return out, nil
}

func (b *calendarBridge) CreateEvent(ctx context.Context, in assistant.EventInput) (assistant.CreatedEvent, error) {
	emails := make([]string, 0, len(in.Attendees))
	for _, a := range in.Attendees {
		emails = append(emails, a.Email)
	}
	created, err := b.cal.CreateEvent(ctx, calendar.EventInput{
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		Start:           in.Start,
		DurationMinutes: in.DurationMinutes,
		Timezone:        in.Timezone,
		Attendees:       emails,
	})
	if err != nil {
		return assistant.CreatedEvent{}, err
	}
	return assistant.CreatedEvent{
		ID:       created.ID,
		HTMLLink: created.HTMLLink,
		Start:    created.Start,
		End:      created.End,
	}, nil
}
