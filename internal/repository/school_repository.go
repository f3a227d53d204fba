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

// SchoolRepository persists schools and their deadline configuration.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs a school repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns schools matching the filter.
func (r *SchoolRepository) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error) {
	base := "FROM schools"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
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

	query := fmt.Sprintf(`SELECT id, name, city, replace_after_days, active, created_at, updated_at
%s WHERE %s ORDER BY name ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schools: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schools: %w", err)
	}
	return schools, total, nil
}

// GetByID fetches one school.
func (r *SchoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	const query = `SELECT id, name, city, replace_after_days, active, created_at, updated_at
FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, city, replace_after_days, active, created_at, updated_at)
VALUES (:id, :name, :city, :replace_after_days, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// UpdateDeadline sets the per-school replacement deadline in days. A nil
// value clears the deadline.
func (r *SchoolRepository) UpdateDeadline(ctx context.Context, id string, replaceAfterDays *int) error {
	const query = `UPDATE schools SET replace_after_days = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, replaceAfterDays, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update school deadline: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update school deadline: school %s not found", id)
	}
	return nil
}
