package calendar

import (
	"fmt"
	"time"
)

// computeInterval resolves the event's start/end pair in the requested
// timezone. When no explicit end is given, the duration (spoken or the
// configured default) is added to the start. Zero or negative durations
// and inverted intervals are rejected.
func (c *Client) computeInterval(in EventInput) (start, end time.Time, tz string, err error) {
	name := in.Timezone
	if name == "" {
		name = c.cfg.DefaultTimezone
	}
	loc, lerr := time.LoadLocation(name)
	if lerr != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}

	start = in.Start.In(loc)
	if !in.End.IsZero() {
		end = in.End.In(loc)
	} else {
		duration := in.DurationMinutes
		if duration == 0 {
			duration = c.cfg.DefaultDurationMinutes
		}
		if duration <= 0 {
			return time.Time{}, time.Time{}, "", ErrInvalidDuration
		}
		end = start.Add(time.Duration(duration) * time.Minute)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, "", ErrInvalidInterval
	}
	return start, end, loc.String(), nil
}
