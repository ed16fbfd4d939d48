package assistant

import (
	"context"
	"time"

	"github.com/hannalabs/hanna-api/internal/log"
)

// conflictWindowPad is how far around a candidate interval existing
// events are scanned.
const conflictWindowPad = 6 * time.Hour

// Conflict pairs an existing event with its parsed interval.
type Conflict struct {
	Event Event
	Start time.Time
	End   time.Time
}

// Detector finds existing events overlapping a candidate interval.
// The check is advisory: a failing calendar read degrades to "no known
// conflicts" so it can never abort a creation flow.
type Detector struct {
	cal Calendar
}

// NewDetector creates a Detector over the given calendar collaborator.
func NewDetector(cal Calendar) *Detector {
	return &Detector{cal: cal}
}

// Find returns the events whose intervals intersect [start, end),
// scanning a window padded by 6 hours on each side. Events with
// malformed timestamps are skipped individually.
func (d *Detector) Find(ctx context.Context, start, end time.Time, loc *time.Location) []Conflict {
	events, err := d.cal.ListEvents(ctx, start.Add(-conflictWindowPad), end.Add(conflictWindowPad))
	if err != nil {
		log.Warn("conflict scan failed, assuming no conflicts", "error", err)
		return nil
	}

	var conflicts []Conflict
	for _, ev := range events {
		s, err := parseEventTime(ev.Start, loc)
		if err != nil {
			continue
		}
		e, err := parseEventTime(ev.End, loc)
		if err != nil {
			continue
		}
		if Overlaps(s, e, start, end) {
			conflicts = append(conflicts, Conflict{Event: ev, Start: s, End: e})
		}
	}
	return conflicts
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// parseEventTime accepts the two shapes Google Calendar reports: an
// RFC 3339 dateTime or a plain YYYY-MM-DD date for all-day events.
func parseEventTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}
