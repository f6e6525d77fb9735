package cli

import (
	"errors"
	"fmt"

	"campusevents/internal/adapters/transport"
	"campusevents/internal/domain"
)

var (
	errNotLoggedIn   = errors.New("not logged in, run campusctl login first")
	errOrganizerOnly = errors.New("this command is available to organizers only")
)

// Describe phrases err for a person at a terminal. Rejected actions read differently from
// failures to talk to the server.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUsage):
		return err.Error()
	case errors.Is(err, errNotLoggedIn), errors.Is(err, errOrganizerOnly):
		return err.Error()
	case domain.IsPrecondition(err):
		return "not allowed: " + preconditionText(err)
	}

	apiErr, ok := transport.AsAPIError(err)
	if !ok {
		return "error: " + err.Error()
	}
	switch {
	case apiErr.Status == 0:
		return "could not reach the server: " + apiErr.Message
	case transport.IsUnauthorized(err):
		return "not authorized: " + apiErr.Message
	default:
		return fmt.Sprintf("server rejected the request (%d): %s", apiErr.Status, apiErr.Message)
	}
}

func preconditionText(err error) string {
	switch {
	case errors.Is(err, domain.ErrEventFull):
		return "the event is full"
	case errors.Is(err, domain.ErrAlreadyRegistered):
		return "you are already registered for this event"
	case errors.Is(err, domain.ErrNotRegistered):
		return "you are not registered for this event"
	case errors.Is(err, domain.ErrEventNotFound):
		return "no such event in the current list"
	case errors.Is(err, domain.ErrMutationPending):
		return "another change to this event is still in progress"
	case errors.Is(err, domain.ErrInvalidCapacity):
		return "capacity must be at least 1"
	case errors.Is(err, domain.ErrCapacityBelowRegistered):
		return "capacity cannot be lower than the number of registered attendees"
	case errors.Is(err, domain.ErrInvalidRole):
		return "role must be organizer or student"
	default:
		return err.Error()
	}
}
