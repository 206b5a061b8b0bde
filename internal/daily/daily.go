// Package daily decides when a challenge belongs to "today".
//
// A Calendar pins day boundaries to one fixed zone so every channel rolls
// over at the same wall-clock midnight regardless of the host's TZ.
package daily

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database for hosts without /usr/share/zoneinfo
)

// DefaultZone is the zone used when none is configured.
const DefaultZone = "Asia/Shanghai"

// Calendar maps timestamps to calendar days in a fixed location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar loads zone and returns a Calendar using the wall clock.
func NewCalendar(zone string) (*Calendar, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zone, err)
	}
	return &Calendar{loc: loc, now: time.Now}, nil
}

// WithClock returns a copy of c that reads the current time from now.
func (c *Calendar) WithClock(now func() time.Time) *Calendar {
	return &Calendar{loc: c.loc, now: now}
}

// Now returns the current instant.
func (c *Calendar) Now() time.Time { return c.now() }

// Location returns the reference zone.
func (c *Calendar) Location() *time.Location { return c.loc }

// DateKey returns YYYY-MM-DD for t in the reference zone.
func (c *Calendar) DateKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same reference-zone date.
func (c *Calendar) SameDay(a, b time.Time) bool {
	return c.DateKey(a) == c.DateKey(b)
}
