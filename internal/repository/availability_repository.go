package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecolenet/remplacement-api/internal/models"
)

// AvailabilityRepository persists recurring availability periods and specific
// overrides for substitutes.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListRecurring returns the recurring availability periods of one substitute.
func (r *AvailabilityRepository) ListRecurring(ctx context.Context, substituteID string) ([]models.RecurringAvailability, error) {
	const query = `SELECT id, substitute_id, start_date, end_date, schedule, created_at
FROM recurring_availabilities WHERE substitute_id = $1 ORDER BY start_date ASC`
	var periods []models.RecurringAvailability
	if err := r.db.SelectContext(ctx, &periods, query, substituteID); err != nil {
		return nil, fmt.Errorf("list recurring availabilities: %w", err)
	}
	return periods, nil
}

// ReplaceRecurring swaps a substitute's recurring periods atomically so a
// half-applied edit never leaves the calendar inconsistent.
func (r *AvailabilityRepository) ReplaceRecurring(ctx context.Context, substituteID string, periods []models.RecurringAvailability) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace recurring: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM recurring_availabilities WHERE substitute_id = $1", substituteID); err != nil {
		return fmt.Errorf("clear recurring availabilities: %w", err)
	}
	const insert = `INSERT INTO recurring_availabilities (id, substitute_id, start_date, end_date, schedule, created_at)
VALUES (:id, :substitute_id, :start_date, :end_date, :schedule, :created_at)`
	for i := range periods {
		if periods[i].ID == "" {
			periods[i].ID = uuid.NewString()
		}
		periods[i].SubstituteID = substituteID
		periods[i].CreatedAt = time.Now().UTC()
		if _, err := tx.NamedExecContext(ctx, insert, periods[i]); err != nil {
			return fmt.Errorf("insert recurring availability: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace recurring: %w", err)
	}
	return nil
}

// ListOverrides returns the specific overrides of one substitute falling
// inside the inclusive [from, to] window.
func (r *AvailabilityRepository) ListOverrides(ctx context.Context, substituteID string, from, to time.Time) ([]models.AvailabilityOverride, error) {
	const query = `SELECT id, substitute_id, date, period, available, note, created_at
FROM availability_overrides
WHERE substitute_id = $1 AND date BETWEEN $2 AND $3
ORDER BY date ASC`
	var overrides []models.AvailabilityOverride
	if err := r.db.SelectContext(ctx, &overrides, query, substituteID, from, to); err != nil {
		return nil, fmt.Errorf("list availability overrides: %w", err)
	}
	return overrides, nil
}

// CreateOverride inserts a specific override.
func (r *AvailabilityRepository) CreateOverride(ctx context.Context, override *models.AvailabilityOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	override.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO availability_overrides (id, substitute_id, date, period, available, note, created_at)
VALUES (:id, :substitute_id, :date, :period, :available, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, override); err != nil {
		return fmt.Errorf("create availability override: %w", err)
	}
	return nil
}

// DeleteOverride removes a specific override.
func (r *AvailabilityRepository) DeleteOverride(ctx context.Context, substituteID, overrideID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM availability_overrides WHERE id = $1 AND substitute_id = $2", overrideID, substituteID); err != nil {
		return fmt.Errorf("delete availability override: %w", err)
	}
	return nil
}
