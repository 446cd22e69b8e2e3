package domain

import "errors"

// Sentinel errors classifying every engine failure. Services wrap these with
// fmt.Errorf("%w: detail") so handlers can classify with errors.Is while
// callers still get a human-readable message. Anything not matching one of
// these sentinels is treated as an infrastructure failure and mapped to
// HTTP 500 without echoing internal detail.

// ErrNotFound is returned when a referenced trip or driver does not exist.
// Handlers map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when an operation is not legal from the
// record's current state, including the lost-race case where a conditional
// update matched zero rows. Handlers map this to HTTP 400.
var ErrInvalidState = errors.New("invalid state")

// ErrConflict is returned when the actor already holds a competing active
// resource (a passenger with an active trip, a driver with an active trip).
// Handlers map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the actor's identity or role does not match
// the requested transition (e.g. starting a trip assigned to someone else).
// Handlers map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrNoDriversAvailable is returned by trip requests when no driver row has
// availability = available. Handlers map this to HTTP 503.
var ErrNoDriversAvailable = errors.New("no drivers available")

// ErrValidation is returned when input fails validation before reaching any
// state check (e.g. malformed body, unknown availability value).
// Handlers map this to HTTP 422.
var ErrValidation = errors.New("validation error")
