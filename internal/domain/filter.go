package domain

// DateBucket restricts events to a window relative to the evaluation day.
type DateBucket string

const (
	DateAny       DateBucket = ""
	DateToday     DateBucket = "today"
	DateThisWeek  DateBucket = "this-week"
	DateThisMonth DateBucket = "this-month"
)

// Valid reports whether b is a known bucket (the empty bucket included).
func (b DateBucket) Valid() bool {
	switch b {
	case DateAny, DateToday, DateThisWeek, DateThisMonth:
		return true
	}
	return false
}

// FilterCriteria selects a visible subset of events. An empty field places no constraint.
// It is replaced wholesale on every change.
type FilterCriteria struct {
	Search   string     `json:"search"`
	Category string     `json:"category"`
	Date     DateBucket `json:"date"`
}

// IsZero reports whether no constraint is set.
func (c FilterCriteria) IsZero() bool {
	return c.Search == "" && c.Category == "" && c.Date == DateAny
}
