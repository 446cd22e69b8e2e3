package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/repo"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/service"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field — set only the ones your test needs.
type mockTripRepo struct {
	create            func(ctx context.Context, passengerID string) (domain.Trip, error)
	getByID           func(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	findByPassenger   func(ctx context.Context, passengerID string, statuses []domain.TripStatus) ([]domain.Trip, error)
	findByDriver      func(ctx context.Context, driverID string, statuses []domain.TripStatus) ([]domain.Trip, error)
	listByParticipant func(ctx context.Context, userID string) ([]domain.Trip, error)
	updateStatus      func(ctx context.Context, id uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error)
}

func (m *mockTripRepo) Create(ctx context.Context, passengerID string) (domain.Trip, error) {
	return m.create(ctx, passengerID)
}
func (m *mockTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, id)
}
func (m *mockTripRepo) FindByPassenger(ctx context.Context, passengerID string, statuses []domain.TripStatus) ([]domain.Trip, error) {
	return m.findByPassenger(ctx, passengerID, statuses)
}
func (m *mockTripRepo) FindByDriver(ctx context.Context, driverID string, statuses []domain.TripStatus) ([]domain.Trip, error) {
	return m.findByDriver(ctx, driverID, statuses)
}
func (m *mockTripRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Trip, error) {
	return m.listByParticipant(ctx, userID)
}
func (m *mockTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
	return m.updateStatus(ctx, id, expected, patch)
}

// mockDriverRepo is a hand-written test double for repo.DriverRepo.
type mockDriverRepo struct {
	upsert          func(ctx context.Context, userID string, availability domain.Availability) (domain.Driver, error)
	getByUserID     func(ctx context.Context, userID string) (domain.Driver, error)
	findAvailable   func(ctx context.Context, limit int) ([]domain.Driver, error)
	setAvailability func(ctx context.Context, userID string, availability domain.Availability) error
}

func (m *mockDriverRepo) Upsert(ctx context.Context, userID string, availability domain.Availability) (domain.Driver, error) {
	return m.upsert(ctx, userID, availability)
}
func (m *mockDriverRepo) GetByUserID(ctx context.Context, userID string) (domain.Driver, error) {
	return m.getByUserID(ctx, userID)
}
func (m *mockDriverRepo) FindAvailable(ctx context.Context, limit int) ([]domain.Driver, error) {
	return m.findAvailable(ctx, limit)
}
func (m *mockDriverRepo) SetAvailability(ctx context.Context, userID string, availability domain.Availability) error {
	return m.setAvailability(ctx, userID, availability)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.TripRepo   = (*mockTripRepo)(nil)
	_ repo.DriverRepo = (*mockDriverRepo)(nil)
)

// ---- helpers ---------------------------------------------------------------

func newEngine(trips repo.TripRepo, drivers repo.DriverRepo) *service.DispatchService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewDispatchService(trips, drivers, log)
}

func searchingTrip(passengerID string) domain.Trip {
	return domain.Trip{
		ID:          uuid.New(),
		PassengerID: passengerID,
		Status:      domain.TripSearching,
		CreatedAt:   time.Now().UTC(),
	}
}

func assignedTrip(passengerID, driverID string) domain.Trip {
	t := searchingTrip(passengerID)
	t.Status = domain.TripAssigned
	t.DriverID = &driverID
	now := time.Now().UTC()
	t.AcceptedAt = &now
	return t
}

func inProgressTrip(passengerID, driverID string) domain.Trip {
	t := assignedTrip(passengerID, driverID)
	t.Status = domain.TripInProgress
	now := time.Now().UTC()
	t.StartedAt = &now
	return t
}

func availableDriver(userID string) domain.Driver {
	return domain.Driver{UserID: userID, Availability: domain.DriverAvailable, UpdatedAt: time.Now().UTC()}
}

// assertNotClassified asserts err matches none of the caller-facing
// sentinels, i.e. the handler will report it as an internal error.
func assertNotClassified(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	for _, sentinel := range []error{
		domain.ErrNotFound, domain.ErrInvalidState, domain.ErrConflict,
		domain.ErrForbidden, domain.ErrNoDriversAvailable, domain.ErrValidation,
	} {
		assert.NotErrorIs(t, err, sentinel)
	}
}

// ---- RequestTrip -----------------------------------------------------------

func TestRequestTrip_createsSearchingTrip(t *testing.T) {
	created := searchingTrip("p1")
	trips := &mockTripRepo{
		findByPassenger: func(_ context.Context, passengerID string, statuses []domain.TripStatus) ([]domain.Trip, error) {
			assert.Equal(t, "p1", passengerID)
			assert.Equal(t, domain.ActiveTripStatuses, statuses)
			return nil, nil
		},
		create: func(_ context.Context, passengerID string) (domain.Trip, error) {
			assert.Equal(t, "p1", passengerID)
			return created, nil
		},
	}
	drivers := &mockDriverRepo{
		findAvailable: func(_ context.Context, limit int) ([]domain.Driver, error) {
			return []domain.Driver{availableDriver("d1")}, nil
		},
	}

	trip, candidate, err := newEngine(trips, drivers).RequestTrip(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, domain.TripSearching, trip.Status)
	assert.Nil(t, trip.DriverID, "searching trip must have no driver")
	assert.Equal(t, "d1", candidate.UserID)
}

func TestRequestTrip_conflictWhenActiveTripExists(t *testing.T) {
	trips := &mockTripRepo{
		findByPassenger: func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
			return []domain.Trip{searchingTrip("p1")}, nil
		},
	}

	_, _, err := newEngine(trips, &mockDriverRepo{}).RequestTrip(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRequestTrip_unavailableWhenNoDrivers(t *testing.T) {
	trips := &mockTripRepo{
		findByPassenger: func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
			return nil, nil
		},
	}
	drivers := &mockDriverRepo{
		findAvailable: func(context.Context, int) ([]domain.Driver, error) {
			return nil, nil
		},
	}

	_, _, err := newEngine(trips, drivers).RequestTrip(context.Background(), "p1")

	assert.ErrorIs(t, err, domain.ErrNoDriversAvailable)
}

// ---- AcceptTrip ------------------------------------------------------------

// acceptMocks builds the happy-path mocks for AcceptTrip and lets individual
// tests override single fields.
func acceptMocks(trip domain.Trip) (*mockTripRepo, *mockDriverRepo, *[]domain.Availability) {
	var availabilityWrites []domain.Availability

	trips := &mockTripRepo{
		findByDriver: func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
			return nil, nil
		},
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) {
			return trip, nil
		},
		updateStatus: func(_ context.Context, id uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
			updated := trip
			updated.Status = patch.Status
			updated.DriverID = patch.DriverID
			updated.AcceptedAt = patch.AcceptedAt
			return updated, nil
		},
	}
	drivers := &mockDriverRepo{
		getByUserID: func(_ context.Context, userID string) (domain.Driver, error) {
			return availableDriver(userID), nil
		},
		setAvailability: func(_ context.Context, _ string, availability domain.Availability) error {
			availabilityWrites = append(availabilityWrites, availability)
			return nil
		},
	}
	return trips, drivers, &availabilityWrites
}

func TestAcceptTrip_claimsSearchingTrip(t *testing.T) {
	trip := searchingTrip("p1")
	trips, drivers, writes := acceptMocks(trip)

	var gotExpected domain.TripStatus
	var gotPatch repo.TripPatch
	inner := trips.updateStatus
	trips.updateStatus = func(ctx context.Context, id uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
		gotExpected = expected
		gotPatch = patch
		return inner(ctx, id, expected, patch)
	}

	updated, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripAssigned, updated.Status)
	require.NotNil(t, updated.DriverID)
	assert.Equal(t, "d1", *updated.DriverID)
	assert.NotNil(t, updated.AcceptedAt)

	// The claim must be conditioned on the trip still searching.
	assert.Equal(t, domain.TripSearching, gotExpected)
	require.NotNil(t, gotPatch.DriverID)
	assert.Equal(t, "d1", *gotPatch.DriverID)

	// After the claim the driver is flipped to busy exactly once.
	assert.Equal(t, []domain.Availability{domain.DriverBusy}, *writes)
}

func TestAcceptTrip_driverNotRegistered(t *testing.T) {
	drivers := &mockDriverRepo{
		getByUserID: func(context.Context, string) (domain.Driver, error) {
			return domain.Driver{}, domain.ErrNotFound
		},
	}

	_, err := newEngine(&mockTripRepo{}, drivers).AcceptTrip(context.Background(), "d1", uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptTrip_driverNotAvailable(t *testing.T) {
	for _, availability := range []domain.Availability{domain.DriverBusy, domain.DriverOffline} {
		drivers := &mockDriverRepo{
			getByUserID: func(_ context.Context, userID string) (domain.Driver, error) {
				return domain.Driver{UserID: userID, Availability: availability}, nil
			},
		}

		_, err := newEngine(&mockTripRepo{}, drivers).AcceptTrip(context.Background(), "d1", uuid.New())

		assert.ErrorIs(t, err, domain.ErrInvalidState)
		// The message names the actual state so the driver knows why.
		assert.ErrorContains(t, err, string(availability))
	}
}

func TestAcceptTrip_driverAlreadyHoldsActiveTrip(t *testing.T) {
	// Availability says available but the trip table disagrees: the trip
	// table wins and the accept is refused as a conflict.
	trip := searchingTrip("p1")
	trips, drivers, _ := acceptMocks(trip)
	trips.findByDriver = func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
		return []domain.Trip{assignedTrip("p2", "d1")}, nil
	}

	_, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAcceptTrip_tripNotFound(t *testing.T) {
	trip := searchingTrip("p1")
	trips, drivers, _ := acceptMocks(trip)
	trips.getByID = func(context.Context, uuid.UUID) (domain.Trip, error) {
		return domain.Trip{}, domain.ErrNotFound
	}

	_, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptTrip_tripNotSearching(t *testing.T) {
	trip := assignedTrip("p1", "d2")
	trips, drivers, _ := acceptMocks(trip)

	_, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestAcceptTrip_lostRaceIsInvalidState(t *testing.T) {
	// The read saw a searching trip, but the conditional update matched
	// zero rows: another driver claimed it in between. The loser gets
	// InvalidState (not Conflict) and the driver is never marked busy.
	trip := searchingTrip("p1")
	trips, drivers, writes := acceptMocks(trip)
	trips.updateStatus = func(context.Context, uuid.UUID, domain.TripStatus, repo.TripPatch) (domain.Trip, error) {
		return domain.Trip{}, domain.ErrNotFound
	}

	_, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorContains(t, err, "no longer available")
	assert.Empty(t, *writes, "driver availability must not change on a lost race")
}

func TestAcceptTrip_busyWriteFailureIsInternal(t *testing.T) {
	// The trip claim committed but flipping the driver to busy failed.
	// The call surfaces an unclassified (internal) error and leaves the
	// trip assigned — there is no automatic rollback.
	trip := searchingTrip("p1")
	trips, drivers, _ := acceptMocks(trip)
	drivers.setAvailability = func(context.Context, string, domain.Availability) error {
		return errors.New("connection reset")
	}

	_, err := newEngine(trips, drivers).AcceptTrip(context.Background(), "d1", trip.ID)

	assertNotClassified(t, err)
}

// ---- StartTrip -------------------------------------------------------------

func TestStartTrip_setsInProgress(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
		updateStatus: func(_ context.Context, _ uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
			assert.Equal(t, domain.TripAssigned, expected)
			updated := trip
			updated.Status = patch.Status
			updated.StartedAt = patch.StartedAt
			return updated, nil
		},
	}

	updated, err := newEngine(trips, &mockDriverRepo{}).StartTrip(context.Background(), "d1", trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripInProgress, updated.Status)
	assert.NotNil(t, updated.StartedAt)
}

func TestStartTrip_forbiddenForOtherDriver(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}

	_, err := newEngine(trips, &mockDriverRepo{}).StartTrip(context.Background(), "d2", trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStartTrip_invalidFromSearching(t *testing.T) {
	trip := searchingTrip("p1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}

	_, err := newEngine(trips, &mockDriverRepo{}).StartTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ---- FinishTrip ------------------------------------------------------------

func TestFinishTrip_completesAndRestoresDriver(t *testing.T) {
	trip := inProgressTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
		updateStatus: func(_ context.Context, _ uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
			assert.Equal(t, domain.TripInProgress, expected)
			updated := trip
			updated.Status = patch.Status
			updated.FinishedAt = patch.FinishedAt
			return updated, nil
		},
	}

	var restored []domain.Availability
	drivers := &mockDriverRepo{
		setAvailability: func(_ context.Context, userID string, availability domain.Availability) error {
			assert.Equal(t, "d1", userID)
			restored = append(restored, availability)
			return nil
		},
	}

	updated, err := newEngine(trips, drivers).FinishTrip(context.Background(), "d1", trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripFinished, updated.Status)
	assert.NotNil(t, updated.FinishedAt)
	assert.Equal(t, []domain.Availability{domain.DriverAvailable}, restored)
}

func TestFinishTrip_forbiddenForOtherDriver(t *testing.T) {
	trip := inProgressTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}

	_, err := newEngine(trips, &mockDriverRepo{}).FinishTrip(context.Background(), "d2", trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestFinishTrip_invalidFromAssigned(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}

	_, err := newEngine(trips, &mockDriverRepo{}).FinishTrip(context.Background(), "d1", trip.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestFinishTrip_availabilityFailureDoesNotFailCall(t *testing.T) {
	// Restoring the driver is best effort: the finish already committed,
	// so a failed registry write is logged, not surfaced.
	trip := inProgressTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
		updateStatus: func(_ context.Context, _ uuid.UUID, _ domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
			updated := trip
			updated.Status = patch.Status
			return updated, nil
		},
	}
	drivers := &mockDriverRepo{
		setAvailability: func(context.Context, string, domain.Availability) error {
			return errors.New("connection reset")
		},
	}

	updated, err := newEngine(trips, drivers).FinishTrip(context.Background(), "d1", trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripFinished, updated.Status)
}

// ---- CancelTrip ------------------------------------------------------------

// cancelTrips returns a trip repo whose conditional update applies the
// cancel patch to the given trip.
func cancelTrips(trip domain.Trip) *mockTripRepo {
	return &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
		updateStatus: func(_ context.Context, _ uuid.UUID, expected domain.TripStatus, patch repo.TripPatch) (domain.Trip, error) {
			updated := trip
			updated.Status = patch.Status
			updated.CancelledAt = patch.CancelledAt
			updated.CancelledBy = patch.CancelledBy
			return updated, nil
		},
	}
}

func TestCancelTrip_passengerCancelsSearching(t *testing.T) {
	trip := searchingTrip("p1")

	availabilityWritten := false
	drivers := &mockDriverRepo{
		setAvailability: func(context.Context, string, domain.Availability) error {
			availabilityWritten = true
			return nil
		},
	}

	updated, err := newEngine(cancelTrips(trip), drivers).
		CancelTrip(context.Background(), "p1", []string{"passenger"}, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripCancelled, updated.Status)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, domain.CancelledByPassenger, *updated.CancelledBy)
	assert.False(t, availabilityWritten, "no driver to restore on an unassigned trip")
}

func TestCancelTrip_passengerCancelsAssigned_restoresDriver(t *testing.T) {
	trip := assignedTrip("p1", "d1")

	var restored []string
	drivers := &mockDriverRepo{
		setAvailability: func(_ context.Context, userID string, availability domain.Availability) error {
			assert.Equal(t, domain.DriverAvailable, availability)
			restored = append(restored, userID)
			return nil
		},
	}

	updated, err := newEngine(cancelTrips(trip), drivers).
		CancelTrip(context.Background(), "p1", []string{"passenger"}, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripCancelled, updated.Status)
	assert.Equal(t, []string{"d1"}, restored)
}

func TestCancelTrip_driverCancelsAssigned(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	drivers := &mockDriverRepo{
		setAvailability: func(context.Context, string, domain.Availability) error { return nil },
	}

	updated, err := newEngine(cancelTrips(trip), drivers).
		CancelTrip(context.Background(), "d1", []string{"driver"}, trip.ID)

	require.NoError(t, err)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, domain.CancelledByDriver, *updated.CancelledBy)
}

func TestCancelTrip_passengerForbiddenInProgress(t *testing.T) {
	trip := inProgressTrip("p1", "d1")

	_, err := newEngine(cancelTrips(trip), &mockDriverRepo{}).
		CancelTrip(context.Background(), "p1", []string{"passenger"}, trip.ID)

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorContains(t, err, "in progress")
}

func TestCancelTrip_driverCancelsInProgress(t *testing.T) {
	trip := inProgressTrip("p1", "d1")
	drivers := &mockDriverRepo{
		setAvailability: func(context.Context, string, domain.Availability) error { return nil },
	}

	updated, err := newEngine(cancelTrips(trip), drivers).
		CancelTrip(context.Background(), "d1", []string{"driver"}, trip.ID)

	require.NoError(t, err)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, domain.CancelledByDriver, *updated.CancelledBy)
}

func TestCancelTrip_strangerForbiddenRegardlessOfRole(t *testing.T) {
	trip := assignedTrip("p1", "d1")

	for _, roles := range [][]string{{"passenger"}, {"driver"}, {"passenger", "driver"}} {
		_, err := newEngine(cancelTrips(trip), &mockDriverRepo{}).
			CancelTrip(context.Background(), "someone-else", roles, trip.ID)

		assert.ErrorIs(t, err, domain.ErrForbidden)
	}
}

func TestCancelTrip_terminalStatesRejected(t *testing.T) {
	finished := inProgressTrip("p1", "d1")
	finished.Status = domain.TripFinished

	cancelled := assignedTrip("p1", "d1")
	cancelled.Status = domain.TripCancelled

	cases := []struct {
		trip    domain.Trip
		message string
	}{
		{finished, "already finished"},
		{cancelled, "already cancelled"},
	}

	for _, tc := range cases {
		trips := &mockTripRepo{
			getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return tc.trip, nil },
		}

		_, err := newEngine(trips, &mockDriverRepo{}).
			CancelTrip(context.Background(), "p1", []string{"passenger"}, tc.trip.ID)

		assert.ErrorIs(t, err, domain.ErrInvalidState)
		assert.ErrorContains(t, err, tc.message)
	}
}

func TestCancelTrip_availabilityFailureDoesNotFailCall(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	drivers := &mockDriverRepo{
		setAvailability: func(context.Context, string, domain.Availability) error {
			return errors.New("connection reset")
		},
	}

	updated, err := newEngine(cancelTrips(trip), drivers).
		CancelTrip(context.Background(), "p1", []string{"passenger"}, trip.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.TripCancelled, updated.Status)
}

// ---- SetDriverAvailability -------------------------------------------------

func TestSetDriverAvailability_upserts(t *testing.T) {
	trips := &mockTripRepo{
		findByDriver: func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
			return nil, nil
		},
	}
	drivers := &mockDriverRepo{
		upsert: func(_ context.Context, userID string, availability domain.Availability) (domain.Driver, error) {
			return domain.Driver{UserID: userID, Availability: availability}, nil
		},
	}

	driver, err := newEngine(trips, drivers).
		SetDriverAvailability(context.Background(), "d1", domain.DriverAvailable)

	require.NoError(t, err)
	assert.Equal(t, domain.DriverAvailable, driver.Availability)
}

func TestSetDriverAvailability_busyRejected(t *testing.T) {
	_, err := newEngine(&mockTripRepo{}, &mockDriverRepo{}).
		SetDriverAvailability(context.Background(), "d1", domain.DriverBusy)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetDriverAvailability_conflictWithActiveTrip(t *testing.T) {
	trips := &mockTripRepo{
		findByDriver: func(context.Context, string, []domain.TripStatus) ([]domain.Trip, error) {
			return []domain.Trip{assignedTrip("p1", "d1")}, nil
		},
	}

	_, err := newEngine(trips, &mockDriverRepo{}).
		SetDriverAvailability(context.Background(), "d1", domain.DriverOffline)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- GetTrip / ListTrips ---------------------------------------------------

func TestGetTrip_participantsOnly(t *testing.T) {
	trip := assignedTrip("p1", "d1")
	trips := &mockTripRepo{
		getByID: func(context.Context, uuid.UUID) (domain.Trip, error) { return trip, nil },
	}
	engine := newEngine(trips, &mockDriverRepo{})

	_, err := engine.GetTrip(context.Background(), "p1", trip.ID)
	assert.NoError(t, err)

	_, err = engine.GetTrip(context.Background(), "d1", trip.ID)
	assert.NoError(t, err)

	_, err = engine.GetTrip(context.Background(), "someone-else", trip.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListTrips_returnsParticipantTrips(t *testing.T) {
	want := []domain.Trip{searchingTrip("p1")}
	trips := &mockTripRepo{
		listByParticipant: func(_ context.Context, userID string) ([]domain.Trip, error) {
			assert.Equal(t, "p1", userID)
			return want, nil
		},
	}

	got, err := newEngine(trips, &mockDriverRepo{}).ListTrips(context.Background(), "p1")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
