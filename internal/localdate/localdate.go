// Package localdate decides which calendar day an instant belongs to.
// Every "today" and every day bucket in the application goes through a Zone,
// so all of them share one reference timezone.
package localdate

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata" // reference zone must load on hosts without zoneinfo
)

// Layout is the canonical calendar-day format
const Layout = "2006-01-02"

// DefaultTimezone is the product's reference timezone
const DefaultTimezone = "Asia/Seoul"

// CalendarDay returns the YYYY-MM-DD day of t as observed in loc
func CalendarDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(Layout)
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthBounds returns the first and last calendar day strings of a month
func MonthBounds(year int, month time.Month) (string, string) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, month, DaysIn(year, month), 0, 0, 0, 0, time.UTC)
	return first.Format(Layout), last.Format(Layout)
}

// ErrInvalidDay is returned for strings that are not YYYY-MM-DD
var ErrInvalidDay = errors.New("invalid calendar day")

// ParseDay validates a YYYY-MM-DD string
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(Layout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDay, day, err)
	}
	return t, nil
}

// Zone pairs the reference location with a clock
type Zone struct {
	loc *time.Location
	now func() time.Time
}

// NewZone loads the named reference timezone with the system clock
func NewZone(name string) (*Zone, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return &Zone{loc: loc, now: time.Now}, nil
}

// NewZoneWithClock builds a Zone around a custom clock
func NewZoneWithClock(loc *time.Location, now func() time.Time) *Zone {
	if now == nil {
		now = time.Now
	}
	return &Zone{loc: loc, now: now}
}

// Location returns the reference location
func (z *Zone) Location() *time.Location {
	return z.loc
}

// Now returns the current instant expressed in the reference location
func (z *Zone) Now() time.Time {
	return z.now().In(z.loc)
}

// Today returns the current calendar day
func (z *Zone) Today() string {
	return CalendarDay(z.now(), z.loc)
}

// Day returns the calendar day of t
func (z *Zone) Day(t time.Time) string {
	return CalendarDay(t, z.loc)
}

// On reports whether t falls on day
func (z *Zone) On(t time.Time, day string) bool {
	return CalendarDay(t, z.loc) == day
}

// IsToday reports whether t falls on the current calendar day
func (z *Zone) IsToday(t time.Time) bool {
	return z.On(t, z.Today())
}
