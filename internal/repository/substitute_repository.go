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

// SubstituteRepository persists substitutes.
type SubstituteRepository struct {
	db *sqlx.DB
}

// NewSubstituteRepository constructs a substitute repository.
func NewSubstituteRepository(db *sqlx.DB) *SubstituteRepository {
	return &SubstituteRepository{db: db}
}

// List returns substitutes matching the filter.
func (r *SubstituteRepository) List(ctx context.Context, filter models.SubstituteFilter) ([]models.Substitute, int, error) {
	base := "FROM substitutes"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT id, full_name, email, phone, active, notes, created_at, updated_at
%s WHERE %s ORDER BY full_name ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var substitutes []models.Substitute
	if err := r.db.SelectContext(ctx, &substitutes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list substitutes: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count substitutes: %w", err)
	}
	return substitutes, total, nil
}

// GetByID fetches one substitute.
func (r *SubstituteRepository) GetByID(ctx context.Context, id string) (*models.Substitute, error) {
	const query = `SELECT id, full_name, email, phone, active, notes, created_at, updated_at
FROM substitutes WHERE id = $1`
	var substitute models.Substitute
	if err := r.db.GetContext(ctx, &substitute, query, id); err != nil {
		return nil, err
	}
	return &substitute, nil
}

// Create inserts a substitute.
func (r *SubstituteRepository) Create(ctx context.Context, substitute *models.Substitute) error {
	if substitute.ID == "" {
		substitute.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	substitute.CreatedAt = now
	substitute.UpdatedAt = now
	const query = `INSERT INTO substitutes (id, full_name, email, phone, active, notes, created_at, updated_at)
VALUES (:id, :full_name, :email, :phone, :active, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, substitute); err != nil {
		return fmt.Errorf("create substitute: %w", err)
	}
	return nil
}

// Update modifies a substitute.
func (r *SubstituteRepository) Update(ctx context.Context, substitute *models.Substitute) error {
	substitute.UpdatedAt = time.Now().UTC()
	const query = `UPDATE substitutes SET full_name = :full_name, email = :email, phone = :phone,
active = :active, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, substitute); err != nil {
		return fmt.Errorf("update substitute: %w", err)
	}
	return nil
}
