// Package recurrence expands a weekly slot rule into concrete time intervals
// and decides which of them can be created next to the slots that already
// exist for a facility.
//
// The package does no I/O. Callers load the existing slots, call Compute and
// persist the accepted candidates.
package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays moves d by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnightUTC().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday { return d.midnightUTC().Weekday() }

func (d Date) Before(o Date) bool { return d.midnightUTC().Before(o.midnightUTC()) }

func (d Date) After(o Date) bool { return d.midnightUTC().After(o.midnightUTC()) }

// DaysUntil returns the number of calendar days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.midnightUTC().Sub(d.midnightUTC()).Hours() / 24)
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string { return d.midnightUTC().Format(dateLayout) }

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:mm" (24h).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidStartTime, s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour < 24 && c.Minute >= 0 && c.Minute < 60
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Combine places the clock time on date d in loc. Wall-clock times that fall
// in a DST gap are normalized forward by time.Date.
func Combine(d Date, c Clock, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, loc)
}

var weekdayNames = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

// ParseWeekday accepts the upper-case English day names used by the clients
// (MONDAY..SUNDAY), case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
	}
	return wd, nil
}

// WeekdayName is the inverse of ParseWeekday.
func WeekdayName(wd time.Weekday) string {
	return strings.ToUpper(wd.String())
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share any instant. Intervals that only
// touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Busy is an interval already occupied by a persisted slot, whatever its
// booking status.
type Busy struct {
	Ref string
	Interval
}

// Rule is a weekly recurrence: one slot on every DayOfWeek in
// [RangeStart, RangeEnd], starting at Start and lasting DurationMinutes.
type Rule struct {
	DayOfWeek       time.Weekday
	Start           Clock
	DurationMinutes int
	Price           int64
	RangeStart      Date
	RangeEnd        Date
	Location        *time.Location
}

func (r Rule) location() *time.Location {
	if r.Location == nil {
		return time.UTC
	}
	return r.Location
}

func (r Rule) duration() time.Duration {
	return time.Duration(r.DurationMinutes) * time.Minute
}

// Candidate is one materialized occurrence of a rule.
type Candidate struct {
	Date Date
	Interval
}

// Conflict is a candidate rejected because it overlaps With.
type Conflict struct {
	Candidate
	With Busy
}
