package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ecolenet/remplacement-api/internal/models"
)

// CollaboratorRepository persists collaborators and their school links.
type CollaboratorRepository struct {
	db *sqlx.DB
}

// NewCollaboratorRepository constructs a collaborator repository.
func NewCollaboratorRepository(db *sqlx.DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

// List returns collaborators matching the filter.
func (r *CollaboratorRepository) List(ctx context.Context, filter models.CollaboratorFilter) ([]models.Collaborator, int, error) {
	base := "FROM collaborators c"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(c.full_name ILIKE $%d OR c.email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("c.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.SchoolID != "" {
		base += " JOIN collaborator_schools cs ON cs.collaborator_id = c.id"
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

	query := fmt.Sprintf(`SELECT c.id, c.full_name, c.email, c.phone, c.active, c.created_at, c.updated_at
%s WHERE %s ORDER BY c.full_name ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var collaborators []models.Collaborator
	if err := r.db.SelectContext(ctx, &collaborators, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list collaborators: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count collaborators: %w", err)
	}
	return collaborators, total, nil
}

// GetByID fetches one collaborator.
func (r *CollaboratorRepository) GetByID(ctx context.Context, id string) (*models.Collaborator, error) {
	const query = `SELECT id, full_name, email, phone, active, created_at, updated_at
FROM collaborators WHERE id = $1`
	var collaborator models.Collaborator
	if err := r.db.GetContext(ctx, &collaborator, query, id); err != nil {
		return nil, err
	}
	return &collaborator, nil
}

// Create inserts a collaborator.
func (r *CollaboratorRepository) Create(ctx context.Context, collaborator *models.Collaborator) error {
	if collaborator.ID == "" {
		collaborator.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	collaborator.CreatedAt = now
	collaborator.UpdatedAt = now
	const query = `INSERT INTO collaborators (id, full_name, email, phone, active, created_at, updated_at)
VALUES (:id, :full_name, :email, :phone, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, collaborator); err != nil {
		return fmt.Errorf("create collaborator: %w", err)
	}
	return nil
}

// ListSchools returns the school links for one collaborator, including the
// stored weekly schedule text and each school's deadline config.
func (r *CollaboratorRepository) ListSchools(ctx context.Context, collaboratorID string) ([]models.CollaboratorSchool, error) {
	const query = `SELECT cs.collaborator_id, c.full_name AS collaborator_name, cs.school_id, s.name AS school_name, cs.schedule, s.replace_after_days
FROM collaborator_schools cs
JOIN collaborators c ON c.id = cs.collaborator_id
JOIN schools s ON s.id = cs.school_id
WHERE cs.collaborator_id = $1
ORDER BY s.name ASC`
	var links []models.CollaboratorSchool
	if err := r.db.SelectContext(ctx, &links, query, collaboratorID); err != nil {
		return nil, fmt.Errorf("list collaborator schools: %w", err)
	}
	return links, nil
}

// ListSchoolsByCollaboratorIDs batch-fetches school links for a set of
// collaborators so the absence board does one query instead of one per row.
func (r *CollaboratorRepository) ListSchoolsByCollaboratorIDs(ctx context.Context, collaboratorIDs []string) ([]models.CollaboratorSchool, error) {
	if len(collaboratorIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT cs.collaborator_id, c.full_name AS collaborator_name, cs.school_id, s.name AS school_name, cs.schedule, s.replace_after_days
FROM collaborator_schools cs
JOIN collaborators c ON c.id = cs.collaborator_id
JOIN schools s ON s.id = cs.school_id
WHERE cs.collaborator_id = ANY($1)
ORDER BY cs.collaborator_id, s.name ASC`
	var links []models.CollaboratorSchool
	if err := r.db.SelectContext(ctx, &links, query, pq.Array(collaboratorIDs)); err != nil {
		return nil, fmt.Errorf("batch list collaborator schools: %w", err)
	}
	return links, nil
}

// UpsertSchoolLink attaches a collaborator to a school, replacing the stored
// weekly schedule when the link exists.
func (r *CollaboratorRepository) UpsertSchoolLink(ctx context.Context, collaboratorID, schoolID string, schedule *string) error {
	const query = `INSERT INTO collaborator_schools (collaborator_id, school_id, schedule)
VALUES ($1, $2, $3)
ON CONFLICT (collaborator_id, school_id) DO UPDATE SET schedule = EXCLUDED.schedule`
	if _, err := r.db.ExecContext(ctx, query, collaboratorID, schoolID, schedule); err != nil {
		return fmt.Errorf("upsert collaborator school link: %w", err)
	}
	return nil
}
