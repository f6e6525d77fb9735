// Package campusapi holds the typed resource clients for the campus events backend.
// Clients add no error classification: gateway failures are returned unchanged.
package campusapi

import (
	"context"
	"net/http"
	"net/url"

	"campusevents/internal/adapters/transport"
	"campusevents/internal/domain"
)

type eventsClient struct {
	gw *transport.Gateway
}

// NewEventsClient returns an EventsAPI backed by gw.
func NewEventsClient(gw *transport.Gateway) domain.EventsAPI {
	return &eventsClient{gw: gw}
}

// listQuery encodes the non-empty filter fields. Empty fields are omitted, never sent as "key=".
func listQuery(f domain.FilterCriteria) string {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	if f.Date != domain.DateAny {
		v.Set("date", string(f.Date))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func eventPath(id string, suffix ...string) string {
	p := "/events/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *eventsClient) GetAll(ctx context.Context, filters domain.FilterCriteria) ([]domain.Event, error) {
	return transport.Do[[]domain.Event](ctx, c.gw, http.MethodGet, "/events"+listQuery(filters), nil)
}

func (c *eventsClient) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	ev, err := transport.Do[domain.Event](ctx, c.gw, http.MethodGet, eventPath(id), nil)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *eventsClient) Create(ctx context.Context, data domain.EventFormData) (*domain.Event, error) {
	ev, err := transport.Do[domain.Event](ctx, c.gw, http.MethodPost, "/events", data)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *eventsClient) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	ev, err := transport.Do[domain.Event](ctx, c.gw, http.MethodPut, eventPath(id), patch)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (c *eventsClient) Delete(ctx context.Context, id string) error {
	return c.gw.Send(ctx, http.MethodDelete, eventPath(id), nil, nil)
}

func (c *eventsClient) GetMyEvents(ctx context.Context) ([]domain.Event, error) {
	return transport.Do[[]domain.Event](ctx, c.gw, http.MethodGet, "/events/my-events", nil)
}

func (c *eventsClient) Register(ctx context.Context, eventID string) error {
	return c.gw.Send(ctx, http.MethodPost, eventPath(eventID, "register"), nil, nil)
}

func (c *eventsClient) Unregister(ctx context.Context, eventID string) error {
	return c.gw.Send(ctx, http.MethodPost, eventPath(eventID, "unregister"), nil, nil)
}

func (c *eventsClient) GetAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	return transport.Do[[]domain.Attendee](ctx, c.gw, http.MethodGet, eventPath(eventID, "attendees"), nil)
}

func (c *eventsClient) GetRegisteredEvents(ctx context.Context) ([]domain.Event, error) {
	return transport.Do[[]domain.Event](ctx, c.gw, http.MethodGet, "/events/registered", nil)
}
