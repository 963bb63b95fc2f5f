// Package clock centralises timezone-aware wall-clock reasoning (ClockTZ in
// the component design). Every persisted instant is UTC; every work-hours
// or "is this in the past" decision is made against the caller-supplied
// IANA zone, never against server local time.
package clock

import (
	"fmt"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
)

// ClockTZ is the single entry point for timezone-aware time arithmetic.
// It is stateless and safe for concurrent use; all methods are pure
// functions of their arguments plus the real wall clock.
type ClockTZ struct{}

func New() *ClockTZ { return &ClockTZ{} }

// NowUTC returns the current instant in UTC.
func (ClockTZ) NowUTC() time.Time {
	return time.Now().UTC()
}

// NowIn returns the current instant converted to zone.
func (c ClockTZ) NowIn(zone string) (time.Time, error) {
	loc, err := c.loadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}

// ToUTC converts a local instant to UTC, preserving the absolute instant.
func (ClockTZ) ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// LocalDateTime builds the local instant for date D at time-of-day tod in zone.
func (c ClockTZ) LocalDateTime(date time.Time, tod domain.LocalTime, zone string) (time.Time, error) {
	loc, err := c.loadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, loc), nil
}

// ParseDate parses a YYYY-MM-DD calendar date. It carries no time-of-day or
// zone information by itself; callers combine it with a zone via
// LocalDateTime.
func (ClockTZ) ParseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", domain.ErrBadInput, s)
	}
	return d, nil
}

// WeekdayDB converts a local instant's weekday to the storage convention of
// 0=Sunday..6=Saturday. Go's time.Weekday already uses 0=Sunday, so this is
// the identity conversion in this runtime, but the function is the single
// place that conversion is allowed to happen: a future port to a 0=Monday
// library only touches this line.
func (ClockTZ) WeekdayDB(t time.Time) int {
	return int(t.Weekday())
}

func (ClockTZ) loadLocation(zone string) (*time.Location, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", domain.ErrBadInput, zone)
	}
	return loc, nil
}
