package domain

import (
	"fmt"
	"time"
)

// Availability is a driver's dispatch availability. Stored as text.
type Availability string

const (
	// DriverAvailable means the driver can be matched with new trips.
	DriverAvailable Availability = "available"

	// DriverBusy means the driver holds a trip in assigned or in_progress.
	// This value is owned by the dispatch protocol: drivers cannot set it
	// directly, and the engine flips it on accept/finish/cancel.
	DriverBusy Availability = "busy"

	// DriverOffline means the driver is not participating in matching.
	DriverOffline Availability = "offline"
)

// ParseAvailability validates a client-supplied availability string.
// Returns ErrValidation for unknown values.
func ParseAvailability(s string) (Availability, error) {
	switch Availability(s) {
	case DriverAvailable, DriverBusy, DriverOffline:
		return Availability(s), nil
	default:
		return "", fmt.Errorf("%w: unknown availability %q", ErrValidation, s)
	}
}

// Driver is one row of the driver registry. Only Availability ever mutates.
//
// Invariant: a driver is busy iff it holds exactly one trip in assigned or
// in_progress. The engine restores available after the trip's own state
// transition commits, so a brief window exists where trip state and
// availability disagree; the trip record is authoritative.
type Driver struct {
	UserID       string       `json:"user_id"`
	Availability Availability `json:"availability"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
