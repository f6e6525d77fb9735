package filter

import (
	"strings"

	"campusevents/internal/domain"
)

// Attendees returns the attendees whose name, email or department contains query,
// ignoring case. An empty query returns every attendee in input order.
func Attendees(attendees []domain.Attendee, query string) []domain.Attendee {
	q := fold(strings.TrimSpace(query))
	out := make([]domain.Attendee, 0, len(attendees))
	for _, a := range attendees {
		if q == "" ||
			strings.Contains(fold(a.Name), q) ||
			strings.Contains(fold(a.Email), q) ||
			strings.Contains(fold(a.Department), q) {
			out = append(out, a)
		}
	}
	return out
}
