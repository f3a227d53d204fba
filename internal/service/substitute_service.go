package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type substituteRepository interface {
	List(ctx context.Context, filter models.SubstituteFilter) ([]models.Substitute, int, error)
	GetByID(ctx context.Context, id string) (*models.Substitute, error)
	Create(ctx context.Context, substitute *models.Substitute) error
	Update(ctx context.Context, substitute *models.Substitute) error
}

type availabilityWriteRepository interface {
	ListRecurring(ctx context.Context, substituteID string) ([]models.RecurringAvailability, error)
	ReplaceRecurring(ctx context.Context, substituteID string, periods []models.RecurringAvailability) error
	CreateOverride(ctx context.Context, override *models.AvailabilityOverride) error
	DeleteOverride(ctx context.Context, substituteID, overrideID string) error
}

// CreateSubstituteRequest is the payload for registering a substitute.
type CreateSubstituteRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone"`
	Notes    *string `json:"notes"`
}

// UpdateSubstituteRequest modifies a substitute's profile.
type UpdateSubstituteRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone"`
	Active   *bool   `json:"active"`
	Notes    *string `json:"notes"`
}

// RecurringPeriodInput is one availability period in a replace request.
type RecurringPeriodInput struct {
	StartDate string                `json:"start_date" validate:"required"`
	EndDate   string                `json:"end_date" validate:"required"`
	Schedule  []engine.PatternEntry `json:"schedule"`
}

// SetRecurringRequest swaps a substitute's recurring availability periods.
type SetRecurringRequest struct {
	Periods []RecurringPeriodInput `json:"periods" validate:"dive"`
}

// CreateOverrideRequest pins one date and period as available or not.
type CreateOverrideRequest struct {
	Date      string  `json:"date" validate:"required"`
	Period    string  `json:"period" validate:"required"`
	Available *bool   `json:"available" validate:"required"`
	Note      *string `json:"note"`
}

// SubstituteService manages substitute profiles and their availability rules.
type SubstituteService struct {
	repo         substituteRepository
	availability availabilityWriteRepository
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewSubstituteService constructs a SubstituteService instance.
func NewSubstituteService(repo substituteRepository, availability availabilityWriteRepository, validate *validator.Validate, logger *zap.Logger) *SubstituteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SubstituteService{repo: repo, availability: availability, validator: validate, logger: logger}
}

// List returns substitutes matching the filter.
func (s *SubstituteService) List(ctx context.Context, filter models.SubstituteFilter) ([]models.Substitute, int, error) {
	substitutes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitutes")
	}
	return substitutes, total, nil
}

// Get fetches one substitute.
func (s *SubstituteService) Get(ctx context.Context, id string) (*models.Substitute, error) {
	substitute, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch substitute")
	}
	return substitute, nil
}

// Create registers a new substitute.
func (s *SubstituteService) Create(ctx context.Context, req CreateSubstituteRequest) (*models.Substitute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute payload")
	}
	substitute := &models.Substitute{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Active:   true,
		Notes:    req.Notes,
	}
	if err := s.repo.Create(ctx, substitute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitute")
	}
	s.logger.Info("substitute created", zap.String("substitute_id", substitute.ID))
	return substitute, nil
}

// Update modifies a substitute profile.
func (s *SubstituteService) Update(ctx context.Context, id string, req UpdateSubstituteRequest) (*models.Substitute, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute payload")
	}
	substitute, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	substitute.FullName = req.FullName
	substitute.Email = req.Email
	substitute.Phone = req.Phone
	substitute.Notes = req.Notes
	if req.Active != nil {
		substitute.Active = *req.Active
	}
	if err := s.repo.Update(ctx, substitute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update substitute")
	}
	return substitute, nil
}

// ListRecurring returns a substitute's stored recurring availability periods.
func (s *SubstituteService) ListRecurring(ctx context.Context, id string) ([]models.RecurringAvailability, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	periods, err := s.availability.ListRecurring(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recurring periods")
	}
	return periods, nil
}

// SetRecurring replaces a substitute's recurring availability periods. Each
// period's weekly schedule is normalized before storage so the calendar never
// re-parses raw input.
func (s *SubstituteService) SetRecurring(ctx context.Context, id string, req SetRecurringRequest) ([]models.RecurringAvailability, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring periods payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	periods := make([]models.RecurringAvailability, 0, len(req.Periods))
	for _, input := range req.Periods {
		start, end, err := parseDateRange(input.StartDate, input.EndDate)
		if err != nil {
			return nil, err
		}
		pattern := engine.NewWeeklyPattern(input.Schedule)
		if len(pattern) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule must contain at least one valid weekday entry")
		}
		encoded, err := json.Marshal(pattern.Entries())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
		}
		schedule := string(encoded)
		periods = append(periods, models.RecurringAvailability{
			StartDate: start,
			EndDate:   end,
			Schedule:  &schedule,
		})
	}

	if err := s.availability.ReplaceRecurring(ctx, id, periods); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace recurring periods")
	}
	s.logger.Info("recurring periods replaced",
		zap.String("substitute_id", id),
		zap.Int("periods", len(periods)))
	return periods, nil
}

// AddOverride pins one concrete date and period for a substitute. The date
// must land on a school weekday.
func (s *SubstituteService) AddOverride(ctx context.Context, id string, req CreateOverrideRequest) (*models.AvailabilityOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	date, err := time.Parse(engine.ISODate, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if _, ok := engine.WeekdayOf(date); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "override date must be a school weekday")
	}
	period := engine.Period(strings.ToUpper(strings.TrimSpace(req.Period)))
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be MORNING, AFTERNOON or FULL_DAY")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	override := &models.AvailabilityOverride{
		SubstituteID: id,
		Date:         date,
		Period:       string(period),
		Available:    *req.Available,
		Note:         req.Note,
	}
	if err := s.availability.CreateOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create override")
	}
	return override, nil
}

// DeleteOverride removes an availability override.
func (s *SubstituteService) DeleteOverride(ctx context.Context, substituteID, overrideID string) error {
	if _, err := s.Get(ctx, substituteID); err != nil {
		return err
	}
	if err := s.availability.DeleteOverride(ctx, substituteID, overrideID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}
	return nil
}
