package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/lock"
)

type assignmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) (bool, error)
	ExistsOverlapping(ctx context.Context, substituteID string, from, to time.Time, period string) (bool, error)
}

type absenceLookup interface {
	GetByID(ctx context.Context, id string) (*models.Absence, error)
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CreateAssignmentRequest books a substitute for a collaborator.
type CreateAssignmentRequest struct {
	SubstituteID   string  `json:"substitute_id" validate:"required"`
	CollaboratorID string  `json:"collaborator_id" validate:"required"`
	SchoolID       string  `json:"school_id" validate:"required"`
	AbsenceID      *string `json:"absence_id"`
	StartDate      string  `json:"start_date" validate:"required"`
	EndDate        string  `json:"end_date" validate:"required"`
	Period         string  `json:"period" validate:"required"`
}

// AssignmentService books and cancels assignments. Creation serialises the
// overlap check behind a per-substitute lock so two concurrent operators
// cannot double-book the same person.
type AssignmentService struct {
	assignments assignmentRepository
	absences    absenceLookup
	substitutes substituteLookup
	cache       cacheInvalidator
	locker      lock.Locker
	validator   *validator.Validate
	logger      *zap.Logger
	lockTTL     time.Duration
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(
	assignments assignmentRepository,
	absences absenceLookup,
	substitutes substituteLookup,
	cache cacheInvalidator,
	locker lock.Locker,
	validate *validator.Validate,
	logger *zap.Logger,
	lockTTL time.Duration,
) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &AssignmentService{
		assignments: assignments,
		absences:    absences,
		substitutes: substitutes,
		cache:       cache,
		locker:      locker,
		validator:   validate,
		logger:      logger,
		lockTTL:     lockTTL,
	}
}

// Create books a substitute after checking the slot is not already taken.
func (s *AssignmentService) Create(ctx context.Context, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	period := engine.Period(strings.ToUpper(req.Period))
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be MORNING, AFTERNOON or FULL_DAY")
	}

	substitute, err := s.substitutes.Get(ctx, req.SubstituteID)
	if err != nil {
		return nil, err
	}
	if !substitute.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "substitute is inactive")
	}

	if req.AbsenceID != nil {
		absence, err := s.absences.GetByID(ctx, *req.AbsenceID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch absence")
		}
		if absence.CollaboratorID != req.CollaboratorID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "absence belongs to another collaborator")
		}
		if !engine.RangesOverlap(start, end, absence.StartDate, absence.EndDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignment range does not touch the absence")
		}
	}

	lockKey := "assignment:substitute:" + req.SubstituteID
	acquired, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire booking lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrLocked, "another booking for this substitute is in progress")
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("failed to release booking lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	taken, err := s.assignments.ExistsOverlapping(ctx, req.SubstituteID, start, end, string(period))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for overlap")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "substitute already booked on an overlapping slot")
	}

	assignment := &models.Assignment{
		SubstituteID:   req.SubstituteID,
		CollaboratorID: req.CollaboratorID,
		SchoolID:       req.SchoolID,
		AbsenceID:      req.AbsenceID,
		StartDate:      start,
		EndDate:        end,
		Period:         string(period),
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.invalidateBoard(ctx)
	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("substitute_id", assignment.SubstituteID),
		zap.String("school_id", assignment.SchoolID))
	return assignment, nil
}

// Delete cancels an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.assignments.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	s.invalidateBoard(ctx)
	s.logger.Info("assignment deleted", zap.String("assignment_id", id))
	return nil
}

func (s *AssignmentService) invalidateBoard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "board:*"); err != nil {
		s.logger.Warn("failed to invalidate board cache", zap.Error(err))
	}
}
