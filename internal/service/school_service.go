package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error)
	GetByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	UpdateDeadline(ctx context.Context, id string, replaceAfterDays *int) error
}

type schoolVacationRepository interface {
	Create(ctx context.Context, vacation *models.SchoolVacation) error
}

// CreateSchoolRequest is the payload for registering a school.
type CreateSchoolRequest struct {
	Name             string `json:"name" validate:"required"`
	City             string `json:"city" validate:"required"`
	ReplaceAfterDays *int   `json:"replace_after_days" validate:"omitempty,min=0"`
}

// UpdateDeadlineRequest sets or clears the per-school replacement deadline.
type UpdateDeadlineRequest struct {
	ReplaceAfterDays *int `json:"replace_after_days" validate:"omitempty,min=0"`
}

// CreateVacationRequest declares a holiday window for a school.
type CreateVacationRequest struct {
	Label     string `json:"label" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// SchoolService manages schools and their holiday windows.
type SchoolService struct {
	repo      schoolRepository
	vacations schoolVacationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService instance.
func NewSchoolService(repo schoolRepository, vacations schoolVacationRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SchoolService{repo: repo, vacations: vacations, validator: validate, logger: logger}
}

// List returns schools matching the filter.
func (s *SchoolService) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, int, error) {
	schools, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, total, nil
}

// Get fetches one school.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school")
	}
	return school, nil
}

// Create registers a new school.
func (s *SchoolService) Create(ctx context.Context, req CreateSchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school := &models.School{
		Name:             req.Name,
		City:             req.City,
		ReplaceAfterDays: req.ReplaceAfterDays,
		Active:           true,
	}
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create school")
	}
	s.logger.Info("school created", zap.String("school_id", school.ID))
	return school, nil
}

// UpdateDeadline sets or clears a school's replacement deadline.
func (s *SchoolService) UpdateDeadline(ctx context.Context, id string, req UpdateDeadlineRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline payload")
	}
	if err := s.repo.UpdateDeadline(ctx, id, req.ReplaceAfterDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update deadline")
	}
	return nil
}

// AddVacation declares a holiday window for a school.
func (s *SchoolService) AddVacation(ctx context.Context, schoolID string, req CreateVacationRequest) (*models.SchoolVacation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vacation payload")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, schoolID); err != nil {
		return nil, err
	}
	vacation := &models.SchoolVacation{
		SchoolID:  schoolID,
		Label:     req.Label,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.vacations.Create(ctx, vacation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create vacation")
	}
	return vacation, nil
}

// parseDateRange decodes two ISO dates and checks their order.
func parseDateRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	return start, end, nil
}
