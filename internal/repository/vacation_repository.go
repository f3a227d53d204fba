package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ecolenet/remplacement-api/internal/models"
)

// VacationRepository persists school holiday windows.
type VacationRepository struct {
	db *sqlx.DB
}

// NewVacationRepository constructs a vacation repository.
func NewVacationRepository(db *sqlx.DB) *VacationRepository {
	return &VacationRepository{db: db}
}

// ListBySchoolIDs returns holiday windows for the given schools overlapping
// the inclusive [from, to] window.
func (r *VacationRepository) ListBySchoolIDs(ctx context.Context, schoolIDs []string, from, to time.Time) ([]models.SchoolVacation, error) {
	if len(schoolIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, school_id, label, start_date, end_date, created_at
FROM school_vacations
WHERE school_id = ANY($1) AND start_date <= $3 AND end_date >= $2
ORDER BY start_date ASC`
	var vacations []models.SchoolVacation
	if err := r.db.SelectContext(ctx, &vacations, query, pq.Array(schoolIDs), from, to); err != nil {
		return nil, fmt.Errorf("list school vacations: %w", err)
	}
	return vacations, nil
}

// ListInWindow returns every holiday window overlapping [from, to],
// regardless of school. Used for substitute calendars with no school scope.
func (r *VacationRepository) ListInWindow(ctx context.Context, from, to time.Time) ([]models.SchoolVacation, error) {
	const query = `SELECT id, school_id, label, start_date, end_date, created_at
FROM school_vacations
WHERE start_date <= $2 AND end_date >= $1
ORDER BY start_date ASC`
	var vacations []models.SchoolVacation
	if err := r.db.SelectContext(ctx, &vacations, query, from, to); err != nil {
		return nil, fmt.Errorf("list vacations in window: %w", err)
	}
	return vacations, nil
}

// Create inserts a holiday window.
func (r *VacationRepository) Create(ctx context.Context, vacation *models.SchoolVacation) error {
	if vacation.ID == "" {
		vacation.ID = uuid.NewString()
	}
	vacation.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO school_vacations (id, school_id, label, start_date, end_date, created_at)
VALUES (:id, :school_id, :label, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vacation); err != nil {
		return fmt.Errorf("create school vacation: %w", err)
	}
	return nil
}
