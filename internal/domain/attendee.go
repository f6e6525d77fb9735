package domain

import (
	"context"
	"io"
	"time"
)

// Attendee is a registration on an event's roster. Rosters are produced by the backend
// and are read-only on the client.
type Attendee struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// RosterService defines organizer-facing roster operations.
type RosterService interface {
	// Attendees fetches the roster for eventID. Results are not cached.
	Attendees(ctx context.Context, eventID string) ([]Attendee, error)
	// ExportCSV writes the roster as CSV to w.
	ExportCSV(w io.Writer, attendees []Attendee) error
	// EmailExport mails the roster for eventTitle to the given address.
	EmailExport(ctx context.Context, eventTitle, to string, attendees []Attendee) error
}
