// Package domain contains the core data types for the mototaxi dispatch
// backend. This package has no dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a trip. Stored as text in Postgres.
type TripStatus string

const (
	// TripSearching is the initial state: the passenger has requested a trip
	// and no driver has claimed it yet. A searching trip never has a driver.
	TripSearching TripStatus = "searching"

	// TripAssigned means a driver has claimed the trip but not started it.
	TripAssigned TripStatus = "assigned"

	// TripInProgress means the assigned driver has started the trip.
	TripInProgress TripStatus = "in_progress"

	// TripFinished is terminal: the assigned driver completed the trip.
	TripFinished TripStatus = "finished"

	// TripCancelled is terminal: the passenger or the assigned driver
	// cancelled the trip before completion.
	TripCancelled TripStatus = "cancelled"
)

// CancelActor records which party cancelled a trip.
type CancelActor string

const (
	CancelledByPassenger CancelActor = "passenger"
	CancelledByDriver    CancelActor = "driver"
)

// ActiveTripStatuses are the states in which a trip still occupies its
// passenger. A passenger may hold at most one trip in these states.
var ActiveTripStatuses = []TripStatus{TripSearching, TripAssigned, TripInProgress}

// DriverActiveTripStatuses are the states that make a driver busy.
// A driver may hold at most one trip in these states.
var DriverActiveTripStatuses = []TripStatus{TripAssigned, TripInProgress}

// tripTransitions is the complete set of legal status transitions.
// Terminal states map to an empty list. Anything not listed here is
// rejected with ErrInvalidState by the engine.
var tripTransitions = map[TripStatus][]TripStatus{
	TripSearching:  {TripAssigned, TripCancelled},
	TripAssigned:   {TripInProgress, TripCancelled},
	TripInProgress: {TripFinished, TripCancelled},
	TripFinished:   {},
	TripCancelled:  {},
}

// CanTransition reports whether moving a trip from one status to another is
// permitted by the lifecycle state machine. Identity transitions are not
// legal: every operation must move the trip forward.
func CanTransition(from, to TripStatus) bool {
	for _, s := range tripTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status permits no further transitions.
func (s TripStatus) Terminal() bool {
	return len(tripTransitions[s]) == 0
}

// Trip is the unit of work tracked from request to terminal outcome.
// Identity fields (ID, PassengerID, and DriverID once set) are immutable;
// only Status and the per-transition timestamps change, and each timestamp
// is written exactly once.
type Trip struct {
	ID          uuid.UUID    `json:"id"`
	PassengerID string       `json:"passenger_id"`
	DriverID    *string      `json:"driver_id,omitempty"` // nil until a driver accepts
	Status      TripStatus   `json:"status"`
	AcceptedAt  *time.Time   `json:"accepted_at,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	FinishedAt  *time.Time   `json:"finished_at,omitempty"`
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"`
	CancelledBy *CancelActor `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AssignedTo reports whether the trip's recorded driver is userID.
// Always false while the trip is still searching.
func (t Trip) AssignedTo(userID string) bool {
	return t.DriverID != nil && *t.DriverID == userID
}
