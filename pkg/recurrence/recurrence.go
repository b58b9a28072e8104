package recurrence

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrInvalidRange     = errors.New("range end is before range start")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrInvalidDay       = errors.New("invalid day of week")
	ErrInvalidStartTime = errors.New("invalid start time")
	ErrInvalidDate      = errors.New("invalid date, use YYYY-MM-DD")
	ErrRangeTooLong     = errors.New("date range is too long")
)

// maxDurationMinutes is the longest duration time.Duration can hold.
const maxDurationMinutes = math.MaxInt64 / int64(time.Minute)

// Limits bounds what a single rule may request. Zero means unbounded.
type Limits struct {
	MaxRangeDays int
}

// Validate checks the rule against the hard-failure conditions. Nothing
// should be created for a rule that fails validation.
func Validate(r Rule, lim Limits) error {
	if r.RangeStart.IsZero() || r.RangeEnd.IsZero() || r.RangeEnd.Before(r.RangeStart) {
		return ErrInvalidRange
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if int64(r.DurationMinutes) > maxDurationMinutes {
		return fmt.Errorf("%w: %d minutes is out of range", ErrInvalidDuration, r.DurationMinutes)
	}
	if r.Price < 0 {
		return ErrInvalidPrice
	}
	if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
		return ErrInvalidDay
	}
	if !r.Start.valid() {
		return ErrInvalidStartTime
	}
	if lim.MaxRangeDays > 0 {
		if span := r.RangeStart.DaysUntil(r.RangeEnd) + 1; span > lim.MaxRangeDays {
			return fmt.Errorf("%w: %d days, max %d", ErrRangeTooLong, span, lim.MaxRangeDays)
		}
	}
	return nil
}

// Expand lists every occurrence of r in chronological order. Dates advance by
// calendar week, so a DST change keeps the wall-clock start time.
func Expand(r Rule) []Candidate {
	if r.RangeEnd.Before(r.RangeStart) {
		return nil
	}
	offset := (int(r.DayOfWeek) - int(r.RangeStart.Weekday()) + 7) % 7
	loc := r.location()
	dur := r.duration()

	var out []Candidate
	for d := r.RangeStart.AddDays(offset); !d.After(r.RangeEnd); d = d.AddDays(7) {
		start := Combine(d, r.Start, loc)
		out = append(out, Candidate{
			Date:     d,
			Interval: Interval{Start: start, End: start.Add(dur)},
		})
	}
	return out
}

// Window returns the interval covering every candidate of r, for loading
// the existing slots Compute has to check against. ok is false when the rule
// has no occurrence.
func Window(r Rule) (w Interval, ok bool) {
	cands := Expand(r)
	if len(cands) == 0 {
		return Interval{}, false
	}
	return Interval{Start: cands[0].Start, End: cands[len(cands)-1].End}, true
}

// Plan is the outcome of checking a rule against existing slots.
type Plan struct {
	Requested int
	Accepted  []Candidate
	Conflicts []Conflict
}

// AlreadyExisting is the number of candidates skipped because of a conflict.
func (p Plan) AlreadyExisting() int { return len(p.Conflicts) }

// Compute validates r, expands it and partitions the candidates. A candidate
// is rejected when it overlaps an existing slot or a candidate accepted
// earlier in the same plan; both lists stay chronological.
func Compute(r Rule, existing []Busy, lim Limits) (Plan, error) {
	if err := Validate(r, lim); err != nil {
		return Plan{}, err
	}

	busy := make([]Busy, len(existing))
	copy(busy, existing)
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	cands := Expand(r)
	p := Plan{Requested: len(cands)}
	for _, c := range cands {
		if b, hit := firstOverlap(busy, c.Interval); hit {
			p.Conflicts = append(p.Conflicts, Conflict{Candidate: c, With: b})
			continue
		}
		p.Accepted = append(p.Accepted, c)
		busy = insertSorted(busy, Busy{Interval: c.Interval})
	}
	return p, nil
}

// firstOverlap scans the start-ordered list; entries starting at or after
// iv.End cannot overlap, so the scan stops there.
func firstOverlap(busy []Busy, iv Interval) (Busy, bool) {
	for _, b := range busy {
		if !b.Start.Before(iv.End) {
			break
		}
		if Overlaps(b.Interval, iv) {
			return b, true
		}
	}
	return Busy{}, false
}

func insertSorted(busy []Busy, b Busy) []Busy {
	i := sort.Search(len(busy), func(i int) bool { return !busy[i].Start.Before(b.Start) })
	busy = append(busy, Busy{})
	copy(busy[i+1:], busy[i:])
	busy[i] = b
	return busy
}

// PriceFromAmount converts a decimal amount (as sent by clients) into minor
// units, rejecting NaN, infinities and negative values.
func PriceFromAmount(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return 0, ErrInvalidPrice
	}
	minor := math.Round(amount * 100)
	if minor > math.MaxInt64/2 {
		return 0, ErrInvalidPrice
	}
	return int64(minor), nil
}
