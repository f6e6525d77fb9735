// Package filter derives visible subsets of events and rosters. It never mutates its input
// and keeps no state between calls.
package filter

import (
	"iter"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"campusevents/internal/domain"
)

// DateLayout is the wire format of Event.Date.
const DateLayout = "2006-01-02"

// Evaluator applies filter criteria relative to a clock and a time zone.
// The zero value uses time.Now and time.Local.
type Evaluator struct {
	Now      func() time.Time
	Location *time.Location
}

// Apply filters events with the default Evaluator.
func Apply(events []domain.Event, criteria domain.FilterCriteria) []domain.Event {
	return Evaluator{}.Apply(events, criteria)
}

// Apply returns the events matching every constraint, in input order.
func (ev Evaluator) Apply(events []domain.Event, criteria domain.FilterCriteria) []domain.Event {
	out := slices.Collect(ev.Seq(events, criteria))
	if out == nil {
		out = []domain.Event{}
	}
	return out
}

// Seq returns a lazily evaluated view of the matching events. The evaluation time is taken
// once per iteration, so each range over the sequence recomputes from scratch.
func (ev Evaluator) Seq(events []domain.Event, criteria domain.FilterCriteria) iter.Seq[domain.Event] {
	return func(yield func(domain.Event) bool) {
		match := ev.matcher(criteria)
		for _, e := range events {
			if !match(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

func (ev Evaluator) matcher(c domain.FilterCriteria) func(domain.Event) bool {
	loc := ev.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if ev.Now != nil {
		now = ev.Now
	}
	inBucket := bucketFunc(c.Date, now().In(loc), loc)
	search := fold(c.Search)

	return func(e domain.Event) bool {
		if c.Category != "" && e.Category != c.Category {
			return false
		}
		if search != "" && !strings.Contains(fold(e.Title), search) {
			return false
		}
		return inBucket(e.Date)
	}
}

// bucketFunc returns the date predicate for bucket at calendar-day granularity.
// Unknown buckets and unparsable event dates match nothing.
func bucketFunc(bucket domain.DateBucket, now time.Time, loc *time.Location) func(string) bool {
	if bucket == domain.DateAny {
		return func(string) bool { return true }
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return func(date string) bool {
		d, err := time.ParseInLocation(DateLayout, date, loc)
		if err != nil {
			return false
		}
		switch bucket {
		case domain.DateToday:
			return d.Equal(today)
		case domain.DateThisWeek:
			return !d.Before(today) && d.Before(today.AddDate(0, 0, 7))
		case domain.DateThisMonth:
			return d.Year() == today.Year() && d.Month() == today.Month()
		}
		return false
	}
}

// fold normalizes s for case-insensitive comparison.
func fold(s string) string {
	return cases.Fold().String(s)
}
