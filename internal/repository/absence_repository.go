package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ecolenet/remplacement-api/internal/models"
)

// AbsenceRepository persists declared absences.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an absence repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// List returns absences overlapping the filter window, most recent first.
func (r *AbsenceRepository) List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, int, error) {
	base := "FROM absences a"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("a.end_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("a.start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.Reason != "" {
		where = append(where, fmt.Sprintf("a.reason = $%d", len(args)+1))
		args = append(args, filter.Reason)
	}
	if filter.SchoolID != "" {
		base += " JOIN collaborator_schools cs ON cs.collaborator_id = a.collaborator_id"
		where = append(where, fmt.Sprintf("cs.school_id = $%d", len(args)+1))
		args = append(args, filter.SchoolID)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.collaborator_id, a.start_date, a.end_date, a.period, a.reason, a.notes, a.created_at, a.updated_at
%s WHERE %s ORDER BY a.start_date DESC, a.created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absences: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count absences: %w", err)
	}
	return absences, total, nil
}

// GetByID fetches one absence.
func (r *AbsenceRepository) GetByID(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT id, collaborator_id, start_date, end_date, period, reason, notes, created_at, updated_at
FROM absences WHERE id = $1`
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// Create inserts an absence.
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	absence.CreatedAt = now
	absence.UpdatedAt = now
	const query = `INSERT INTO absences (id, collaborator_id, start_date, end_date, period, reason, notes, created_at, updated_at)
VALUES (:id, :collaborator_id, :start_date, :end_date, :period, :reason, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// Delete removes an absence.
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM absences WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	return nil
}
