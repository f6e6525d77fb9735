package domain

import (
	"errors"
	"fmt"
)

// ErrPrecondition is the parent of every locally detected invariant breach.
// Operations failing with it never reached the network.
var ErrPrecondition = errors.New("precondition failed")

// Precondition violations, each satisfying errors.Is(err, ErrPrecondition).
var (
	ErrEventNotFound           = fmt.Errorf("%w: event not found", ErrPrecondition)
	ErrAlreadyRegistered       = fmt.Errorf("%w: already registered", ErrPrecondition)
	ErrEventFull               = fmt.Errorf("%w: event is full", ErrPrecondition)
	ErrNotRegistered           = fmt.Errorf("%w: not registered", ErrPrecondition)
	ErrInvalidCapacity         = fmt.Errorf("%w: capacity must be at least 1", ErrPrecondition)
	ErrCapacityBelowRegistered = fmt.Errorf("%w: capacity cannot be lower than current registrations", ErrPrecondition)
	ErrMutationPending         = fmt.Errorf("%w: another change to this event is in progress", ErrPrecondition)
	ErrInvalidRole             = fmt.Errorf("%w: role must be organizer or student", ErrPrecondition)
)

// Sentinel errors for session and storage lookups.
var (
	ErrNotFound  = errors.New("not found")
	ErrNoSession = errors.New("no active session")
)

// IsPrecondition reports whether err is a locally detected invariant breach.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}
