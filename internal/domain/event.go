package domain

import "context"

// Category values offered by the event form.
const (
	CategoryWorkshop  = "workshop"
	CategorySeminar   = "seminar"
	CategoryCultural  = "cultural"
	CategorySports    = "sports"
	CategoryTechnical = "technical"
	CategorySocial    = "social"
)

// Event represents a campus event as seen by the current user.
// IsRegistered is relative to the viewer, not a property of the event itself.
type Event struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Location      string `json:"location"`
	Category      string `json:"category"`
	Capacity      int    `json:"capacity"`
	Registered    int    `json:"registered"`
	OrganizerID   string `json:"organizerId"`
	OrganizerName string `json:"organizerName"`
	IsRegistered  bool   `json:"isRegistered"`
}

// IsFull reports whether no seats remain.
func (e Event) IsFull() bool {
	return e.Registered >= e.Capacity
}

// SpotsLeft returns the number of seats still available, never negative.
func (e Event) SpotsLeft() int {
	if e.Registered >= e.Capacity {
		return 0
	}
	return e.Capacity - e.Registered
}

// EventFormData is the already-validated payload supplied by the event form.
type EventFormData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Category    string `json:"category"`
	Capacity    int    `json:"capacity"`
}

// EventPatch is a partial edit. Nil fields are left untouched on the server and in the store.
type EventPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Location    *string `json:"location,omitempty"`
	Category    *string `json:"category,omitempty"`
	Capacity    *int    `json:"capacity,omitempty"`
}

// ApplyTo returns e with the non-nil patch fields copied over it.
func (p EventPatch) ApplyTo(e Event) Event {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Time != nil {
		e.Time = *p.Time
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Capacity != nil {
		e.Capacity = *p.Capacity
	}
	return e
}

// EventStats summarises a collection of events for the organizer dashboard.
type EventStats struct {
	TotalEvents        int     `json:"totalEvents"`
	TotalRegistrations int     `json:"totalRegistrations"`
	TotalCapacity      int     `json:"totalCapacity"`
	FullEvents         int     `json:"fullEvents"`
	FillRate           float64 `json:"fillRate"`
}

// EventsAPI is the Events resource client contract.
type EventsAPI interface {
	GetAll(ctx context.Context, filters FilterCriteria) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Create(ctx context.Context, data EventFormData) (*Event, error)
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
	GetMyEvents(ctx context.Context) ([]Event, error)
	Register(ctx context.Context, eventID string) error
	Unregister(ctx context.Context, eventID string) error
	GetAttendees(ctx context.Context, eventID string) ([]Attendee, error)
	GetRegisteredEvents(ctx context.Context) ([]Event, error)
}
