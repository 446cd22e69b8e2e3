package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
)

// DriverRepo defines the persistence operations for the driver registry.
// One row per driver; only the availability column ever mutates.
type DriverRepo interface {
	// Upsert creates the driver's registry row or updates its availability
	// if it already exists, and returns the persisted record. Used by the
	// availability endpoint so drivers are registered lazily on their first
	// status update.
	Upsert(ctx context.Context, userID string, availability domain.Availability) (domain.Driver, error)

	// GetByUserID retrieves a driver by user ID.
	// Returns domain.ErrNotFound if the driver has no registry row.
	GetByUserID(ctx context.Context, userID string) (domain.Driver, error)

	// FindAvailable returns up to limit drivers with availability = available.
	// Order is unspecified: selection is "any available driver".
	FindAvailable(ctx context.Context, limit int) ([]domain.Driver, error)

	// SetAvailability updates an existing driver's availability.
	// Returns domain.ErrNotFound if the driver has no registry row.
	SetAvailability(ctx context.Context, userID string, availability domain.Availability) error
}

// pgDriverRepo is the Postgres implementation of DriverRepo.
type pgDriverRepo struct {
	db db
}

// NewDriverRepo constructs a DriverRepo backed by the provided db connection.
func NewDriverRepo(db db) DriverRepo {
	return &pgDriverRepo{db: db}
}

// Upsert inserts or updates the driver's registry row.
func (r *pgDriverRepo) Upsert(ctx context.Context, userID string, availability domain.Availability) (domain.Driver, error) {
	const q = `
		INSERT INTO drivers (user_id, availability)
		VALUES (@user_id, @availability)
		ON CONFLICT (user_id) DO UPDATE
		SET availability = EXCLUDED.availability,
		    updated_at   = now()
		RETURNING user_id, availability, updated_at`

	args := pgx.NamedArgs{
		"user_id":      userID,
		"availability": availability,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanDriver(row)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.Upsert: %w", err)
	}
	return result, nil
}

// GetByUserID retrieves a driver by primary key.
func (r *pgDriverRepo) GetByUserID(ctx context.Context, userID string) (domain.Driver, error) {
	const q = `
		SELECT user_id, availability, updated_at
		FROM drivers
		WHERE user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID})
	result, err := scanDriver(row)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("repo.DriverRepo.GetByUserID: %w", err)
	}
	return result, nil
}

// FindAvailable returns up to limit available drivers.
func (r *pgDriverRepo) FindAvailable(ctx context.Context, limit int) ([]domain.Driver, error) {
	const q = `
		SELECT user_id, availability, updated_at
		FROM drivers
		WHERE availability = @availability
		LIMIT @limit`

	args := pgx.NamedArgs{
		"availability": domain.DriverAvailable,
		"limit":        limit,
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.FindAvailable: %w", err)
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DriverRepo.FindAvailable: scan: %w", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DriverRepo.FindAvailable: rows: %w", err)
	}

	return drivers, nil
}

// SetAvailability updates the availability of an existing driver.
func (r *pgDriverRepo) SetAvailability(ctx context.Context, userID string, availability domain.Availability) error {
	const q = `
		UPDATE drivers
		SET availability = @availability,
		    updated_at   = now()
		WHERE user_id = @user_id`

	args := pgx.NamedArgs{
		"user_id":      userID,
		"availability": availability,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("repo.DriverRepo.SetAvailability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.DriverRepo.SetAvailability: %w", domain.ErrNotFound)
	}
	return nil
}

// scanDriver maps a single database row into a domain.Driver.
func scanDriver(s scanner) (domain.Driver, error) {
	var d domain.Driver
	if err := s.Scan(&d.UserID, &d.Availability, &d.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Driver{}, domain.ErrNotFound
		}
		return domain.Driver{}, err
	}
	return d, nil
}
