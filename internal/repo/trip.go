// Package repo contains all database access for the mototaxi dispatch
// backend. Each table has its own file with an interface and a Postgres
// implementation. No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripPatch carries the fields a status transition writes. Status is always
// written; every other field is applied only when non-nil, so a patch never
// clears a timestamp that an earlier transition set.
type TripPatch struct {
	Status      domain.TripStatus
	DriverID    *string
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	CancelledAt *time.Time
	CancelledBy *domain.CancelActor
}

// TripRepo defines the persistence operations for trips. The engine depends
// on this interface, not the concrete Postgres implementation, which allows
// it to be unit-tested with a mock.
type TripRepo interface {
	// Create inserts a new trip in the searching state for the given
	// passenger and returns the persisted record (with DB-generated id and
	// created_at populated).
	Create(ctx context.Context, passengerID string) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// FindByPassenger returns the passenger's trips whose status is in
	// statuses, newest first.
	FindByPassenger(ctx context.Context, passengerID string, statuses []domain.TripStatus) ([]domain.Trip, error)

	// FindByDriver returns the driver's trips whose status is in statuses,
	// newest first.
	FindByDriver(ctx context.Context, driverID string, statuses []domain.TripStatus) ([]domain.Trip, error)

	// ListByParticipant returns every trip in which userID is the passenger
	// or the assigned driver, newest first.
	ListByParticipant(ctx context.Context, userID string) ([]domain.Trip, error)

	// UpdateStatus is the conditional-update primitive of the dispatch
	// protocol: it applies patch to the trip only if the trip's status still
	// equals expected at execution time, as a single atomic statement.
	// When the predicate no longer holds (or the id does not exist) zero
	// rows match and domain.ErrNotFound is returned; the caller decides how
	// to classify that, typically as a lost race.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.TripStatus, patch TripPatch) (domain.Trip, error)
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, passenger_id, driver_id, status, accepted_at,
	started_at, finished_at, cancelled_at, cancelled_by, created_at`

// Create inserts a new searching trip and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, passengerID string) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (passenger_id, status)
		VALUES (@passenger_id, @status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"passenger_id": passengerID,
		"status":       domain.TripSearching,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// FindByPassenger returns the passenger's trips in the given statuses.
func (r *pgTripRepo) FindByPassenger(ctx context.Context, passengerID string, statuses []domain.TripStatus) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passenger_id = @passenger_id
		AND   status = ANY(@statuses)
		ORDER BY created_at DESC`

	args := pgx.NamedArgs{
		"passenger_id": passengerID,
		"statuses":     statusStrings(statuses),
	}

	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindByPassenger: %w", err)
	}
	return trips, nil
}

// FindByDriver returns the driver's trips in the given statuses.
func (r *pgTripRepo) FindByDriver(ctx context.Context, driverID string, statuses []domain.TripStatus) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE driver_id = @driver_id
		AND   status = ANY(@statuses)
		ORDER BY created_at DESC`

	args := pgx.NamedArgs{
		"driver_id": driverID,
		"statuses":  statusStrings(statuses),
	}

	trips, err := r.queryTrips(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.FindByDriver: %w", err)
	}
	return trips, nil
}

// ListByParticipant returns all trips where userID is passenger or driver.
func (r *pgTripRepo) ListByParticipant(ctx context.Context, userID string) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE passenger_id = @user_id OR driver_id = @user_id
		ORDER BY created_at DESC`

	trips, err := r.queryTrips(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListByParticipant: %w", err)
	}
	return trips, nil
}

// UpdateStatus applies patch iff the trip's status still equals expected.
// The WHERE clause carries the predicate, so check and write happen as one
// atomic statement: among concurrent callers racing the same trip, only the
// one whose expected status still holds sees a row returned.
func (r *pgTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected domain.TripStatus, patch TripPatch) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status       = @status,
		    driver_id    = COALESCE(@driver_id, driver_id),
		    accepted_at  = COALESCE(@accepted_at, accepted_at),
		    started_at   = COALESCE(@started_at, started_at),
		    finished_at  = COALESCE(@finished_at, finished_at),
		    cancelled_at = COALESCE(@cancelled_at, cancelled_at),
		    cancelled_by = COALESCE(@cancelled_by, cancelled_by)
		WHERE id = @id AND status = @expected
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":           id,
		"expected":     expected,
		"status":       patch.Status,
		"driver_id":    patch.DriverID,
		"accepted_at":  patch.AcceptedAt,
		"started_at":   patch.StartedAt,
		"finished_at":  patch.FinishedAt,
		"cancelled_at": patch.CancelledAt,
		"cancelled_by": patch.CancelledBy,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTrip(row)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	return result, nil
}

// queryTrips runs a multi-row trip query and scans all results.
func (r *pgTripRepo) queryTrips(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Trip, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return trips, nil
}

// statusStrings converts a status slice to []string for ANY() binding.
func statusStrings(statuses []domain.TripStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTrip to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
// It handles the UUID and nullable column conversions.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t           domain.Trip
		id          pgtype.UUID
		driverID    pgtype.Text
		acceptedAt  pgtype.Timestamptz
		startedAt   pgtype.Timestamptz
		finishedAt  pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
		cancelledBy pgtype.Text
	)

	err := s.Scan(&id, &t.PassengerID, &driverID, &t.Status, &acceptedAt,
		&startedAt, &finishedAt, &cancelledAt, &cancelledBy, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Trip{}, domain.ErrNotFound
		}
		return domain.Trip{}, err
	}

	t.ID = uuid.UUID(id.Bytes)
	if driverID.Valid {
		d := driverID.String
		t.DriverID = &d
	}
	t.AcceptedAt = timePtr(acceptedAt)
	t.StartedAt = timePtr(startedAt)
	t.FinishedAt = timePtr(finishedAt)
	t.CancelledAt = timePtr(cancelledAt)
	if cancelledBy.Valid {
		by := domain.CancelActor(cancelledBy.String)
		t.CancelledBy = &by
	}

	return t, nil
}

// timePtr converts a nullable timestamptz into *time.Time.
func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time
	return &t
}
