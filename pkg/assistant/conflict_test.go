package assistant

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeCalendar implements Calendar for orchestrator tests.
type fakeCalendar struct {
	events  []Event
	listErr error

	created   []EventInput
	createErr error
}

func (f *fakeCalendar) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, in EventInput) (CreatedEvent, error) {
	if f.createErr != nil {
		return CreatedEvent{}, f.createErr
	}
	f.created = append(f.created, in)
	return CreatedEvent{
		ID:       "evt-1",
		HTMLLink: "https://calendar.example.com/evt-1",
		Start:    in.Start.Format(time.RFC3339),
	}, nil
}

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 3, 11, h, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(9), at(10), at(9), at(10), true},
		{"partial overlap", at(9), at(10), at(9).Add(30 * time.Minute), at(11), true},
		{"contained", at(9), at(12), at(10), at(11), true},
		{"disjoint", at(9), at(10), at(14), at(15), false},
		{"touching is not a conflict", at(9), at(10), at(10), at(11), false},
		{"touching the other way", at(10), at(11), at(9), at(10), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("Overlaps reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectorFind(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Dentista", Start: "2026-03-11T09:30:00Z", End: "2026-03-11T10:30:00Z"},
		{ID: "2", Summary: "Almoço", Start: "2026-03-11T12:00:00Z", End: "2026-03-11T13:00:00Z"},
		{ID: "3", Summary: "Quebrado", Start: "not a timestamp", End: "2026-03-11T11:00:00Z"},
	}}
	d := NewDetector(cal)

	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	conflicts := d.Find(context.Background(), start, start.Add(time.Hour), time.UTC)

	if len(conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(conflicts), conflicts)
	}
	if conflicts[0].Event.ID != "1" {
		t.Errorf("conflicting event = %s, want 1", conflicts[0].Event.ID)
	}
}

func TestDetectorFindAllDayEvent(t *testing.T) {
	cal := &fakeCalendar{events: []Event{
		{ID: "1", Summary: "Feriado", Start: "2026-03-11", End: "2026-03-12"},
	}}
	d := NewDetector(cal)

	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	conflicts := d.Find(context.Background(), start, start.Add(time.Hour), time.UTC)
	if len(conflicts) != 1 {
		t.Fatalf("all-day event not detected: %+v", conflicts)
	}
}

func TestDetectorDegradesOnListFailure(t *testing.T) {
	cal := &fakeCalendar{listErr: errors.New("calendar unreachable")}
	d := NewDetector(cal)

	start := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	if conflicts := d.Find(context.Background(), start, start.Add(time.Hour), time.UTC); conflicts != nil {
		t.Errorf("expected nil conflicts on list failure, got %+v", conflicts)
	}
}
