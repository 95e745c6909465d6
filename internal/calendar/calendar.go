// Package calendar implements the effective-day arithmetic used for plan
// display. An event defines a timezone and an "effective begin of day", a
// wall-clock time that acts as midnight for grouping purposes: a concert at
// 01:00 still belongs to the previous day's programme. All functions are pure
// and take the clock configuration as an explicit value.
package calendar

import (
	"fmt"
	"time"
)

// Date is a civil calendar date without time-of-day or timezone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a date from its components without normalisation.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a date in ISO form (2006-01-02).
func ParseDate(value string) (Date, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return Date{}, fmt.Errorf("calendar: invalid date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// AddDays returns the date n days after d, normalising across month and year
// boundaries.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is chronologically earlier than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is chronologically later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// String renders the date in ISO form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay is a local wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a wall-clock time in HH:MM form.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("calendar: invalid time of day %q: %w", value, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Before reports whether t is an earlier wall-clock time than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	return t.Minute < other.Minute
}

// DurationSinceMidnight returns the offset of t from local midnight.
func (t TimeOfDay) DurationSinceMidnight() time.Duration {
	return time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute
}

// String renders the wall-clock time in HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ClockInfo carries the per-event display-time configuration. It is threaded
// as a parameter through every calendar conversion; there is no process-wide
// timezone.
type ClockInfo struct {
	Location            *time.Location
	EffectiveBeginOfDay TimeOfDay
}

// NewClockInfo resolves the IANA timezone name and pairs it with the
// effective begin-of-day time.
func NewClockInfo(timezone string, beginOfDay TimeOfDay) (ClockInfo, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return ClockInfo{}, fmt.Errorf("calendar: unknown timezone %q: %w", timezone, err)
	}
	return ClockInfo{Location: loc, EffectiveBeginOfDay: beginOfDay}, nil
}

func (c ClockInfo) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// EffectiveDate assigns ts to the display day it belongs to: the timestamp is
// converted to the event timezone and shifted back by the effective begin of
// day before taking the date component. Total and deterministic for any
// (timestamp, clock) pair.
func EffectiveDate(ts time.Time, clock ClockInfo) Date {
	local := ts.In(clock.location())
	return DateOf(local.Add(-clock.EffectiveBeginOfDay.DurationSinceMidnight()))
}

// InstantFromEffectiveDateAndTime converts an effective date plus a local
// wall-clock time back into a UTC instant. Times before the effective begin
// of day fall on the following calendar date. When a DST transition makes the
// local time ambiguous, the latest matching UTC instant is chosen.
func InstantFromEffectiveDateAndTime(date Date, tod TimeOfDay, clock ClockInfo) time.Time {
	if tod.Before(clock.EffectiveBeginOfDay) {
		date = date.AddDays(1)
	}
	return latestInstant(date, tod, clock.location())
}

// CurrentEffectiveDate returns the effective date that now falls on.
func CurrentEffectiveDate(clock ClockInfo, now time.Time) Date {
	return EffectiveDate(now, clock)
}

// MostReasonableDate returns the current effective date clamped into the
// event's span, so that plan views land on a day the event actually covers.
func MostReasonableDate(first, last Date, clock ClockInfo, now time.Time) Date {
	current := EffectiveDate(now, clock)
	if current.Before(first) {
		return first
	}
	if current.After(last) {
		return last
	}
	return current
}

// EffectiveDaySpan returns the half-open UTC interval [begin, end) covered by
// the effective date.
func EffectiveDaySpan(date Date, clock ClockInfo) (time.Time, time.Time) {
	begin := InstantFromEffectiveDateAndTime(date, clock.EffectiveBeginOfDay, clock)
	end := InstantFromEffectiveDateAndTime(date.AddDays(1), clock.EffectiveBeginOfDay, clock)
	return begin, end
}

// latestInstant resolves a local wall-clock time on a calendar date to a UTC
// instant. During the overlap hour after clocks roll back the same wall time
// exists twice; the later instant wins. A wall time skipped by a forward jump
// resolves to whatever the runtime normalises it to.
func latestInstant(date Date, tod TimeOfDay, loc *time.Location) time.Time {
	candidate := time.Date(date.Year, date.Month, date.Day, tod.Hour, tod.Minute, 0, 0, loc)
	best := candidate

	_, candidateOffset := candidate.Zone()
	for _, probe := range []time.Duration{-24 * time.Hour, 24 * time.Hour} {
		_, probeOffset := candidate.Add(probe).Zone()
		if probeOffset == candidateOffset {
			continue
		}
		alt := candidate.Add(time.Duration(candidateOffset-probeOffset) * time.Second)
		if matchesWallClock(alt, date, tod, loc) && alt.After(best) {
			best = alt
		}
	}

	if !matchesWallClock(best, date, tod, loc) {
		return candidate.UTC()
	}
	return best.UTC()
}

func matchesWallClock(t time.Time, date Date, tod TimeOfDay, loc *time.Location) bool {
	local := t.In(loc)
	return DateOf(local) == date && local.Hour() == tod.Hour && local.Minute() == tod.Minute
}
