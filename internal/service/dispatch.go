// Package service contains the trip lifecycle engine for the mototaxi
// dispatch backend. The engine validates preconditions, classifies failures
// into the domain error taxonomy, and performs the conditional state
// transitions that keep trips and driver availability consistent under
// concurrent callers. No SQL and no HTTP live here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/observability"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/repo"
)

// DispatchService is the trip lifecycle engine.
//
// The engine holds no mutable state of its own: all shared state lives in
// the two stores, and correctness under concurrency reduces to the
// conditional-update discipline used against them. Every transition write
// is conditioned on the status the engine last read; a zero-row result
// means another caller won the race, and the loss is terminal for the
// current call (no retry inside the engine).
type DispatchService struct {
	trips   repo.TripRepo
	drivers repo.DriverRepo
	log     *slog.Logger
	now     func() time.Time
}

// NewDispatchService constructs the engine over the two store interfaces.
func NewDispatchService(trips repo.TripRepo, drivers repo.DriverRepo, log *slog.Logger) *DispatchService {
	return &DispatchService{
		trips:   trips,
		drivers: drivers,
		log:     log,
		now:     time.Now,
	}
}

// RequestTrip creates a new searching trip for passengerID and returns it
// together with one available driver as an advisory hint. The hint does not
// reserve the driver: availability is only claimed at acceptance, so a
// driver who never acts holds nothing.
//
// Fails with ErrConflict if the passenger already has an active trip and
// with ErrNoDriversAvailable if no driver is currently available.
func (s *DispatchService) RequestTrip(ctx context.Context, passengerID string) (domain.Trip, domain.Driver, error) {
	active, err := s.trips.FindByPassenger(ctx, passengerID, domain.ActiveTripStatuses)
	if err != nil {
		return domain.Trip{}, domain.Driver{}, fmt.Errorf("service.DispatchService.RequestTrip: %w", err)
	}
	if len(active) > 0 {
		return domain.Trip{}, domain.Driver{}, fmt.Errorf("%w: passenger already has an active trip", domain.ErrConflict)
	}

	candidates, err := s.drivers.FindAvailable(ctx, 1)
	if err != nil {
		return domain.Trip{}, domain.Driver{}, fmt.Errorf("service.DispatchService.RequestTrip: %w", err)
	}
	if len(candidates) == 0 {
		return domain.Trip{}, domain.Driver{}, domain.ErrNoDriversAvailable
	}

	trip, err := s.trips.Create(ctx, passengerID)
	if err != nil {
		return domain.Trip{}, domain.Driver{}, fmt.Errorf("service.DispatchService.RequestTrip: %w", err)
	}

	observability.TripsRequestedTotal.Inc()
	s.log.InfoContext(ctx, "trip requested", "trip_id", trip.ID, "passenger_id", passengerID)
	return trip, candidates[0], nil
}

// AcceptTrip lets driverID claim a searching trip. Preconditions are checked
// in order, each producing a distinct failure: driver registered (ErrNotFound),
// driver available (ErrInvalidState), driver holds no active trip
// (ErrConflict — defends against stale availability), trip exists
// (ErrNotFound), trip searching (ErrInvalidState).
//
// The claim itself is a conditional update on status = searching. A zero-row
// result means another driver claimed the trip between the read and the
// write; that is reported as ErrInvalidState ("trip no longer available")
// and is not retried — the passenger must re-request matching.
//
// After the claim commits the driver is flipped to busy. A failure of that
// second write leaves the trip assigned and is surfaced as an internal
// error; the trip record stays authoritative.
func (s *DispatchService) AcceptTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error) {
	driver, err := s.drivers.GetByUserID(ctx, driverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: driver not registered", domain.ErrNotFound)
		}
		return domain.Trip{}, fmt.Errorf("service.DispatchService.AcceptTrip: %w", err)
	}
	if driver.Availability != domain.DriverAvailable {
		return domain.Trip{}, fmt.Errorf("%w: driver is %s", domain.ErrInvalidState, driver.Availability)
	}

	// Availability can lag behind trip state (the busy flip is a separate
	// write), so the trip table is consulted as the authority.
	held, err := s.trips.FindByDriver(ctx, driverID, domain.DriverActiveTripStatuses)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.DispatchService.AcceptTrip: %w", err)
	}
	if len(held) > 0 {
		return domain.Trip{}, fmt.Errorf("%w: driver already has an active trip", domain.ErrConflict)
	}

	trip, err := s.getTrip(ctx, tripID, "service.DispatchService.AcceptTrip")
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.Status != domain.TripSearching {
		return domain.Trip{}, invalidStatusErr(trip.Status, "searching")
	}

	now := s.now()
	updated, err := s.trips.UpdateStatus(ctx, tripID, domain.TripSearching, repo.TripPatch{
		Status:     domain.TripAssigned,
		DriverID:   &driverID,
		AcceptedAt: &now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Lost the race: another driver claimed the trip after our read.
			observability.AcceptRacesLostTotal.Inc()
			return domain.Trip{}, fmt.Errorf("%w: trip no longer available", domain.ErrInvalidState)
		}
		return domain.Trip{}, fmt.Errorf("service.DispatchService.AcceptTrip: %w", err)
	}

	if err := s.drivers.SetAvailability(ctx, driverID, domain.DriverBusy); err != nil {
		observability.AvailabilityWriteFailures.Inc()
		s.log.ErrorContext(ctx, "failed to mark driver busy after accept",
			"trip_id", tripID, "driver_id", driverID, "error", err)
		return domain.Trip{}, fmt.Errorf("service.DispatchService.AcceptTrip: mark driver busy: %w", err)
	}

	observability.TripsAcceptedTotal.Inc()
	s.log.InfoContext(ctx, "trip accepted", "trip_id", tripID, "driver_id", driverID)
	return updated, nil
}

// StartTrip moves an assigned trip to in_progress. Only the recorded driver
// may start the trip; any other caller gets ErrForbidden regardless of role.
func (s *DispatchService) StartTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID, "service.DispatchService.StartTrip")
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.Status != domain.TripAssigned {
		return domain.Trip{}, invalidStatusErr(trip.Status, "assigned")
	}
	if !trip.AssignedTo(driverID) {
		return domain.Trip{}, fmt.Errorf("%w: trip is assigned to another driver", domain.ErrForbidden)
	}

	now := s.now()
	updated, err := s.trips.UpdateStatus(ctx, tripID, domain.TripAssigned, repo.TripPatch{
		Status:    domain.TripInProgress,
		StartedAt: &now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: trip state changed", domain.ErrInvalidState)
		}
		return domain.Trip{}, fmt.Errorf("service.DispatchService.StartTrip: %w", err)
	}

	s.log.InfoContext(ctx, "trip started", "trip_id", tripID, "driver_id", driverID)
	return updated, nil
}

// FinishTrip completes an in-progress trip. Only the recorded driver may
// finish it. After the transition commits the driver is restored to
// available; a failure of that write is logged and does not fail the call —
// the finished trip is authoritative and a later operation corrects the
// registry.
func (s *DispatchService) FinishTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID, "service.DispatchService.FinishTrip")
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.Status != domain.TripInProgress {
		return domain.Trip{}, invalidStatusErr(trip.Status, "in_progress")
	}
	if !trip.AssignedTo(driverID) {
		return domain.Trip{}, fmt.Errorf("%w: trip is assigned to another driver", domain.ErrForbidden)
	}

	now := s.now()
	updated, err := s.trips.UpdateStatus(ctx, tripID, domain.TripInProgress, repo.TripPatch{
		Status:     domain.TripFinished,
		FinishedAt: &now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: trip state changed", domain.ErrInvalidState)
		}
		return domain.Trip{}, fmt.Errorf("service.DispatchService.FinishTrip: %w", err)
	}

	s.restoreAvailability(ctx, driverID, tripID)

	observability.TripsFinishedTotal.Inc()
	s.log.InfoContext(ctx, "trip finished", "trip_id", tripID, "driver_id", driverID)
	return updated, nil
}

// CancelTrip cancels a trip on behalf of actorID. The owning passenger may
// cancel while the trip is searching or assigned; the assigned driver may
// cancel while it is assigned or in progress. Once in progress the
// passenger is refused with ErrForbidden (distinct from "not your trip").
// Terminal trips reject cancellation with ErrInvalidState.
//
// Roles are accepted for interface symmetry but grant nothing here:
// cancellation rights follow the identities recorded on the trip.
func (s *DispatchService) CancelTrip(ctx context.Context, actorID string, roles []string, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID, "service.DispatchService.CancelTrip")
	if err != nil {
		return domain.Trip{}, err
	}

	if trip.Status.Terminal() {
		return domain.Trip{}, fmt.Errorf("%w: trip already %s", domain.ErrInvalidState, trip.Status)
	}

	isPassenger := trip.PassengerID == actorID
	isDriver := trip.AssignedTo(actorID)

	var by domain.CancelActor
	switch {
	case trip.Status == domain.TripInProgress && isDriver:
		by = domain.CancelledByDriver
	case trip.Status == domain.TripInProgress && isPassenger:
		return domain.Trip{}, fmt.Errorf("%w: only the assigned driver can cancel a trip in progress", domain.ErrForbidden)
	case isPassenger:
		by = domain.CancelledByPassenger
	case isDriver:
		by = domain.CancelledByDriver
	default:
		return domain.Trip{}, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
	}

	now := s.now()
	updated, err := s.trips.UpdateStatus(ctx, tripID, trip.Status, repo.TripPatch{
		Status:      domain.TripCancelled,
		CancelledAt: &now,
		CancelledBy: &by,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: trip state changed", domain.ErrInvalidState)
		}
		return domain.Trip{}, fmt.Errorf("service.DispatchService.CancelTrip: %w", err)
	}

	if trip.DriverID != nil {
		s.restoreAvailability(ctx, *trip.DriverID, tripID)
	}

	observability.TripsCancelledTotal.WithLabelValues(string(by)).Inc()
	s.log.InfoContext(ctx, "trip cancelled", "trip_id", tripID, "cancelled_by", by)
	return updated, nil
}

// GetTrip returns a trip to one of its participants. Anyone else is refused.
func (s *DispatchService) GetTrip(ctx context.Context, actorID string, tripID uuid.UUID) (domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID, "service.DispatchService.GetTrip")
	if err != nil {
		return domain.Trip{}, err
	}
	if trip.PassengerID != actorID && !trip.AssignedTo(actorID) {
		return domain.Trip{}, fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
	}
	return trip, nil
}

// ListTrips returns every trip in which the actor participates, newest first.
func (s *DispatchService) ListTrips(ctx context.Context, actorID string) ([]domain.Trip, error) {
	trips, err := s.trips.ListByParticipant(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("service.DispatchService.ListTrips: %w", err)
	}
	return trips, nil
}

// SetDriverAvailability lets a driver go available or offline, creating the
// registry row on first use. Busy cannot be set directly: it is owned by the
// dispatch protocol. Any manual change is refused with ErrConflict while the
// driver holds an active trip, so availability cannot be pulled out from
// under an assignment.
func (s *DispatchService) SetDriverAvailability(ctx context.Context, driverID string, availability domain.Availability) (domain.Driver, error) {
	if availability == domain.DriverBusy {
		return domain.Driver{}, fmt.Errorf("%w: busy is set by dispatch and cannot be requested", domain.ErrValidation)
	}

	held, err := s.trips.FindByDriver(ctx, driverID, domain.DriverActiveTripStatuses)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DispatchService.SetDriverAvailability: %w", err)
	}
	if len(held) > 0 {
		return domain.Driver{}, fmt.Errorf("%w: driver has an active trip", domain.ErrConflict)
	}

	driver, err := s.drivers.Upsert(ctx, driverID, availability)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.DispatchService.SetDriverAvailability: %w", err)
	}

	s.log.InfoContext(ctx, "driver availability updated", "driver_id", driverID, "availability", availability)
	return driver, nil
}

// getTrip fetches a trip, normalising a missing row to a caller-facing
// not-found message and wrapping infrastructure failures with op.
func (s *DispatchService) getTrip(ctx context.Context, tripID uuid.UUID, op string) (domain.Trip, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("%w: trip not found", domain.ErrNotFound)
		}
		return domain.Trip{}, fmt.Errorf("%s: %w", op, err)
	}
	return trip, nil
}

// invalidStatusErr builds the ErrInvalidState for an operation attempted
// from the wrong status. Terminal states get the "already finished/cancelled"
// phrasing.
func invalidStatusErr(current domain.TripStatus, expected string) error {
	if current.Terminal() {
		return fmt.Errorf("%w: trip already %s", domain.ErrInvalidState, current)
	}
	return fmt.Errorf("%w: trip is %s, expected %s", domain.ErrInvalidState, current, expected)
}

// restoreAvailability flips a driver back to available after a committed
// finish or cancel. Best effort: a failure is logged and counted but never
// invalidates the trip transition — the trip record is authoritative and
// the registry is corrected by a later operation.
func (s *DispatchService) restoreAvailability(ctx context.Context, driverID string, tripID uuid.UUID) {
	if err := s.drivers.SetAvailability(ctx, driverID, domain.DriverAvailable); err != nil {
		observability.AvailabilityWriteFailures.Inc()
		s.log.ErrorContext(ctx, "failed to restore driver availability",
			"trip_id", tripID, "driver_id", driverID, "error", err)
	}
}
