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

// AssignmentRepository persists substitute assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// GetByID fetches one assignment.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, substitute_id, collaborator_id, school_id, absence_id, start_date, end_date, period, created_at
FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	assignment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO assignments (id, substitute_id, collaborator_id, school_id, absence_id, start_date, end_date, period, created_at)
VALUES (:id, :substitute_id, :collaborator_id, :school_id, :absence_id, :start_date, :end_date, :period, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Delete removes an assignment and reports whether a row was deleted.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete assignment rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByCollaboratorIDsInWindow batch-fetches assignments for a set of
// collaborators overlapping [from, to], joined with display names so the
// board renders without follow-up lookups.
func (r *AssignmentRepository) ListByCollaboratorIDsInWindow(ctx context.Context, collaboratorIDs []string, from, to time.Time) ([]models.AssignmentDetail, error) {
	if len(collaboratorIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT a.id, a.substitute_id, a.collaborator_id, a.school_id, a.absence_id,
a.start_date, a.end_date, a.period, a.created_at,
sub.full_name AS substitute_name, c.full_name AS collaborator_name, s.name AS school_name
FROM assignments a
JOIN substitutes sub ON sub.id = a.substitute_id
JOIN collaborators c ON c.id = a.collaborator_id
JOIN schools s ON s.id = a.school_id
WHERE a.collaborator_id = ANY($1) AND a.start_date <= $3 AND a.end_date >= $2
ORDER BY a.start_date ASC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, pq.Array(collaboratorIDs), from, to); err != nil {
		return nil, fmt.Errorf("batch list assignments: %w", err)
	}
	return assignments, nil
}

// ListBySubstituteInWindow returns a substitute's assignments overlapping
// [from, to]. Feeds the substitute calendar.
func (r *AssignmentRepository) ListBySubstituteInWindow(ctx context.Context, substituteID string, from, to time.Time) ([]models.Assignment, error) {
	const query = `SELECT id, substitute_id, collaborator_id, school_id, absence_id, start_date, end_date, period, created_at
FROM assignments
WHERE substitute_id = $1 AND start_date <= $3 AND end_date >= $2
ORDER BY start_date ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, substituteID, from, to); err != nil {
		return nil, fmt.Errorf("list substitute assignments: %w", err)
	}
	return assignments, nil
}

// ExistsOverlapping reports whether the substitute already has an assignment
// overlapping [from, to] with a conflicting period. FULL_DAY conflicts with
// everything, half days only with themselves or FULL_DAY. The check spans all
// collaborators and schools on purpose: the data model would allow the rows,
// but one person cannot cover two places in the same half day.
func (r *AssignmentRepository) ExistsOverlapping(ctx context.Context, substituteID string, from, to time.Time, period string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM assignments
WHERE substitute_id = $1 AND start_date <= $3 AND end_date >= $2
AND (period = $4 OR period = 'FULL_DAY' OR $4 = 'FULL_DAY'))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, substituteID, from, to, period); err != nil {
		return false, fmt.Errorf("check overlapping assignment: %w", err)
	}
	return exists, nil
}
