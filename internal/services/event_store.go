package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"campusevents/internal/domain"
)

// EventStore is the in-memory source of truth for the events the current user can see.
// It is the only component that changes Registered and IsRegistered, and it changes them
// only after the backend has confirmed the action.
//
// Mutations are serialized per event identity: while a call for an event is outstanding,
// further mutating calls on that event fail with domain.ErrMutationPending. Calls on
// different events proceed independently.
type EventStore struct {
	api domain.EventsAPI

	mu      sync.Mutex
	order   []string
	byID    map[string]domain.Event
	pending map[string]struct{}
}

// NewEventStore returns an empty store backed by api.
func NewEventStore(api domain.EventsAPI) *EventStore {
	return &EventStore{
		api:     api,
		byID:    make(map[string]domain.Event),
		pending: make(map[string]struct{}),
	}
}

// normalize restores 0 <= Registered <= Capacity on records coming from outside the store.
func normalize(e domain.Event) domain.Event {
	if e.Registered < 0 {
		e.Registered = 0
	}
	if e.Registered > e.Capacity {
		e.Registered = max(e.Capacity, 0)
	}
	return e
}

// LoadBrowse replaces the contents with the events matching filters, marking the ones the
// user is registered for. Both lists are fetched concurrently.
func (s *EventStore) LoadBrowse(ctx context.Context, filters domain.FilterCriteria) error {
	var all, registered []domain.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.api.GetAll(gctx, filters)
		return err
	})
	g.Go(func() error {
		var err error
		registered, err = s.api.GetRegisteredEvents(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	mine := make(map[string]struct{}, len(registered))
	for _, e := range registered {
		mine[e.ID] = struct{}{}
	}
	for i := range all {
		if _, ok := mine[all[i].ID]; ok {
			all[i].IsRegistered = true
		}
	}
	s.Replace(all)
	return nil
}

// LoadMine replaces the contents with the events organized by the current user.
func (s *EventStore) LoadMine(ctx context.Context) error {
	events, err := s.api.GetMyEvents(ctx)
	if err != nil {
		return err
	}
	s.Replace(events)
	return nil
}

// Replace swaps the whole collection. Duplicate ids keep their first position and last value.
func (s *EventStore) Replace(events []domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = make([]string, 0, len(events))
	s.byID = make(map[string]domain.Event, len(events))
	for _, e := range events {
		if _, ok := s.byID[e.ID]; !ok {
			s.order = append(s.order, e.ID)
		}
		s.byID[e.ID] = normalize(e)
	}
}

// Snapshot returns a copy of the events in store order.
func (s *EventStore) Snapshot() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the event held under id.
func (s *EventStore) Get(id string) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	return e, ok
}

// Len returns the number of events held.
func (s *EventStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Pending reports whether a mutation on id is in flight.
func (s *EventStore) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// begin claims the pending slot for id after check accepts the current committed record.
func (s *EventStore) begin(id string, check func(domain.Event) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return domain.ErrEventNotFound
	}
	if _, busy := s.pending[id]; busy {
		return domain.ErrMutationPending
	}
	if check != nil {
		if err := check(e); err != nil {
			return err
		}
	}
	s.pending[id] = struct{}{}
	return nil
}

func (s *EventStore) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// commit applies fn to the record currently held under id. A record removed while the call
// was in flight stays removed.
func (s *EventStore) commit(id string, fn func(domain.Event) domain.Event) (domain.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return domain.Event{}, false
	}
	e = normalize(fn(e))
	s.byID[id] = e
	return e, true
}

// Register registers the current user for the event. It is rejected locally, without a
// network call, when the event is unknown, already registered, full, or busy.
func (s *EventStore) Register(ctx context.Context, id string) error {
	err := s.begin(id, func(e domain.Event) error {
		if e.IsRegistered {
			return domain.ErrAlreadyRegistered
		}
		if e.IsFull() {
			return domain.ErrEventFull
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer s.end(id)

	if err := s.api.Register(ctx, id); err != nil {
		return err
	}
	_, ok := s.commit(id, func(e domain.Event) domain.Event {
		if e.IsRegistered {
			return e
		}
		e.Registered++
		e.IsRegistered = true
		return e
	})
	if !ok {
		return domain.ErrEventNotFound
	}
	return nil
}

// Unregister cancels the current user's registration for the event.
func (s *EventStore) Unregister(ctx context.Context, id string) error {
	err := s.begin(id, func(e domain.Event) error {
		if !e.IsRegistered {
			return domain.ErrNotRegistered
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer s.end(id)

	if err := s.api.Unregister(ctx, id); err != nil {
		return err
	}
	_, ok := s.commit(id, func(e domain.Event) domain.Event {
		if !e.IsRegistered {
			return e
		}
		e.Registered = max(e.Registered-1, 0)
		e.IsRegistered = false
		return e
	})
	if !ok {
		return domain.ErrEventNotFound
	}
	return nil
}

// Create publishes a new event and places it first in the collection.
func (s *EventStore) Create(ctx context.Context, data domain.EventFormData) (domain.Event, error) {
	if data.Capacity < 1 {
		return domain.Event{}, domain.ErrInvalidCapacity
	}
	created, err := s.api.Create(ctx, data)
	if err != nil {
		return domain.Event{}, err
	}
	if created == nil || created.ID == "" {
		return domain.Event{}, fmt.Errorf("create event: backend returned no event id")
	}
	e := normalize(*created)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ID]; !ok {
		s.order = append([]string{e.ID}, s.order...)
	}
	s.byID[e.ID] = e
	return e, nil
}

func checkCapacity(patch domain.EventPatch) func(domain.Event) error {
	return func(e domain.Event) error {
		if patch.Capacity == nil {
			return nil
		}
		if *patch.Capacity < 1 {
			return domain.ErrInvalidCapacity
		}
		if *patch.Capacity < e.Registered {
			return domain.ErrCapacityBelowRegistered
		}
		return nil
	}
}

// Update edits the event. Only the fields set in patch change; everything else, including
// the registration count, is preserved from the held record.
func (s *EventStore) Update(ctx context.Context, id string, patch domain.EventPatch) (domain.Event, error) {
	if err := s.begin(id, checkCapacity(patch)); err != nil {
		return domain.Event{}, err
	}
	defer s.end(id)

	if _, err := s.api.Update(ctx, id, patch); err != nil {
		return domain.Event{}, err
	}
	e, ok := s.commit(id, patch.ApplyTo)
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return e, nil
}

// Delete removes the event on the backend and then from the collection.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	if err := s.begin(id, nil); err != nil {
		return err
	}
	defer s.end(id)

	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.Remove(id)
	return nil
}

// Upsert replaces the event with the same id, or appends it when new.
func (s *EventStore) Upsert(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.byID[e.ID] = normalize(e)
}

// Merge applies patch to the held event without a network call, under the same capacity
// rules as Update.
func (s *EventStore) Merge(id string, patch domain.EventPatch) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return domain.Event{}, domain.ErrEventNotFound
	}
	if err := checkCapacity(patch)(e); err != nil {
		return domain.Event{}, err
	}
	e = normalize(patch.ApplyTo(e))
	s.byID[id] = e
	return e, nil
}

// Remove deletes the event with id. It reports whether an event was removed.
func (s *EventStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Stats summarises the held events.
func (s *EventStore) Stats() domain.EventStats {
	var st domain.EventStats
	for _, e := range s.Snapshot() {
		st.TotalEvents++
		st.TotalRegistrations += e.Registered
		st.TotalCapacity += e.Capacity
		if e.IsFull() {
			st.FullEvents++
		}
	}
	if st.TotalCapacity > 0 {
		st.FillRate = float64(st.TotalRegistrations) / float64(st.TotalCapacity)
	}
	return st
}
