package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// Patterns for the PT-BR fallback stages. The library stages handle the
// general cases; these cover the two phrasings the library misses most.
// regexp's \b is an ASCII word boundary and never fires next to accented
// letters, so word edges are explicit non-letter guards instead.
var (
	// "amanhã [às HH[:MM]]"
	tomorrowAtPat = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])amanh[ãa](?:[^\p{L}\p{N}]+(?:.*?[^\p{L}\p{N}])??[aà]s?\s+(\d{1,2})(?::(\d{2}))?)?`)

	// "dia D[/M[/Y]] [às HH[:MM]]"
	dayOfMonthPat = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}])dia\s+(\d{1,2})(?:/(\d{1,2})(?:/(\d{2,4}))?)?(?:[^\p{L}\p{N}]+(?:.*?[^\p{L}\p{N}])??[aà]s?\s+(\d{1,2})(?::(\d{2}))?)?`)

	// "N h[oras]" and "N m[in[utos]]"
	hoursPat   = regexp.MustCompile(`(\d+)\s*h(oras?)?`)
	minutesPat = regexp.MustCompile(`(\d+)\s*m(in(utos)?)?`)
)

// Hour used when a fallback stage matches a date but no time of day.
const defaultHour = 9

// Resolver turns natural-language Portuguese date/time fragments into
// absolute instants. Stages are tried in order until one succeeds; when
// none do, Resolve reports false — callers must treat that as "need
// more input", never as a failure.
type Resolver struct {
	now func() time.Time
}

// NewResolver creates a Resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// Resolve parses text like "amanhã às 9", "dia 20 às 15:30" or
// "daqui a 2 dias" into an instant in loc.
func (r *Resolver) Resolve(text string, loc *time.Location) (time.Time, bool) {
	now := r.now().In(loc)

	cfg := &dateparser.Configuration{
		CurrentTime:         now,
		DefaultTimezone:     loc,
		Languages:           []string{"pt"},
		PreferredDateSource: dateparser.Future,
	}

	// Stage 1: whole-text parse, biased towards the future.
	if dt, err := dateparser.Parse(cfg, text); err == nil && !dt.Time.IsZero() {
		return dt.Time.In(loc), true
	}

	// Stage 2: first recognized date span inside the phrase.
	if _, found, err := dateparser.Search(cfg, text); err == nil && len(found) > 0 {
		return found[0].Date.Time.In(loc), true
	}

	// Stage 3: "amanhã" with optional time of day.
	if t, ok := r.tomorrowAt(text, now); ok {
		return t, true
	}

	// Stage 4: "dia D[/M[/Y]]" with optional time of day.
	if t, ok := r.dayOfMonthAt(text, now, loc); ok {
		return t, true
	}

	return time.Time{}, false
}

// ResolveDuration extracts a duration in minutes from phrases like
// "por 2 horas", "duração 90 min" or "1h e 30".
func (r *Resolver) ResolveDuration(text string) (int, bool) {
	t := strings.ToLower(text)
	if m := hoursPat.FindStringSubmatch(t); m != nil {
		hours, _ := strconv.Atoi(m[1])
		extra := 0
		if mm := minutesPat.FindStringSubmatch(t); mm != nil {
			extra, _ = strconv.Atoi(mm[1])
		}
		return hours*60 + extra, true
	}
	if m := minutesPat.FindStringSubmatch(t); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// tomorrowAt resolves "amanhã [às HH[:MM]]" relative to now,
// defaulting to 09:00 when no time is given.
func (r *Resolver) tomorrowAt(text string, now time.Time) (time.Time, bool) {
	m := tomorrowAtPat.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	hour, minute := defaultHour, 0
	if m[1] != "" {
		hour, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	d := now.AddDate(0, 0, 1)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location()), true
}

// dayOfMonthAt resolves "dia D[/M[/Y]] [às HH[:MM]]". Month and year
// default to the current ones, two-digit years are normalized by adding
// 2000, and time of day defaults to 09:00. Calendar-invalid dates like
// day 31 of a 30-day month fail silently.
func (r *Resolver) dayOfMonthAt(text string, now time.Time, loc *time.Location) (time.Time, bool) {
	m := dayOfMonthPat.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, year := int(now.Month()), now.Year()
	if m[2] != "" {
		month, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
	}
	hour, minute := defaultHour, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
	}
	if m[5] != "" {
		minute, _ = strconv.Atoi(m[5])
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes out-of-range components (Feb 30 → Mar 2);
	// anything that moved was not a real calendar date.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}
