package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type availabilityReadRepository interface {
	ListRecurring(ctx context.Context, substituteID string) ([]models.RecurringAvailability, error)
	ListOverrides(ctx context.Context, substituteID string, from, to time.Time) ([]models.AvailabilityOverride, error)
}

type substituteAssignmentRepository interface {
	ListBySubstituteInWindow(ctx context.Context, substituteID string, from, to time.Time) ([]models.Assignment, error)
}

type vacationWindowRepository interface {
	ListInWindow(ctx context.Context, from, to time.Time) ([]models.SchoolVacation, error)
}

type substituteLookup interface {
	Get(ctx context.Context, id string) (*models.Substitute, error)
}

// AvailabilityService resolves substitute calendars. It fetches the raw
// calendar facts once per request and runs the pure resolver per half-day.
type AvailabilityService struct {
	substitutes  substituteLookup
	availability availabilityReadRepository
	assignments  substituteAssignmentRepository
	vacations    vacationWindowRepository
	logger       *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService instance.
func NewAvailabilityService(
	substitutes substituteLookup,
	availability availabilityReadRepository,
	assignments substituteAssignmentRepository,
	vacations vacationWindowRepository,
	logger *zap.Logger,
) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		substitutes:  substitutes,
		availability: availability,
		assignments:  assignments,
		vacations:    vacations,
		logger:       logger,
	}
}

// Calendar resolves one substitute's half-day grid over [from, to]. Holiday
// windows mask non-assigned slots as VACATION before the regular precedence
// applies.
func (s *AvailabilityService) Calendar(ctx context.Context, substituteID string, from, to time.Time) (*models.SubstituteCalendar, error) {
	if engine.DateOnly(to).Before(engine.DateOnly(from)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	if _, err := s.substitutes.Get(ctx, substituteID); err != nil {
		return nil, err
	}

	facts, err := s.fetchFacts(ctx, substituteID, from, to)
	if err != nil {
		return nil, err
	}
	holidays, err := s.vacations.ListInWindow(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holiday windows")
	}

	calendar := &models.SubstituteCalendar{
		SubstituteID: substituteID,
		From:         engine.DateOnly(from).Format(engine.ISODate),
		To:           engine.DateOnly(to).Format(engine.ISODate),
	}
	for d := engine.DateOnly(from); !d.After(engine.DateOnly(to)); d = d.AddDate(0, 0, 1) {
		if _, ok := engine.WeekdayOf(d); !ok {
			continue
		}
		for _, half := range engine.PeriodFullDay.Halves() {
			status := engine.ResolveSlot(facts, d, half)
			if status != engine.StatusAssigned && dateInVacations(d, holidays) {
				status = engine.StatusVacation
			}
			calendar.Slots = append(calendar.Slots, models.CalendarSlot{
				Date:   d.Format(engine.ISODate),
				Period: half,
				Status: status,
			})
		}
	}
	return calendar, nil
}

// Facts assembles the resolver inputs for one substitute over a window.
// Shared with the assignment flow, which re-resolves candidate slots before
// committing.
func (s *AvailabilityService) Facts(ctx context.Context, substituteID string, from, to time.Time) (engine.AvailabilityFacts, error) {
	return s.fetchFacts(ctx, substituteID, from, to)
}

func (s *AvailabilityService) fetchFacts(ctx context.Context, substituteID string, from, to time.Time) (engine.AvailabilityFacts, error) {
	var facts engine.AvailabilityFacts

	recurring, err := s.availability.ListRecurring(ctx, substituteID)
	if err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recurring periods")
	}
	for _, row := range recurring {
		var pattern engine.WeeklyPattern
		if row.Schedule != nil {
			if parsed, ok := engine.ParseWeeklyPattern(*row.Schedule); ok {
				pattern = parsed
			}
		}
		facts.Recurring = append(facts.Recurring, engine.RecurringPeriod{
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
			Pattern:   pattern,
		})
	}

	overrides, err := s.availability.ListOverrides(ctx, substituteID, from, to)
	if err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	for _, row := range overrides {
		facts.Overrides = append(facts.Overrides, engine.OverrideEntry{
			Date:      row.Date,
			Period:    engine.Period(row.Period),
			Available: row.Available,
		})
	}

	assignments, err := s.assignments.ListBySubstituteInWindow(ctx, substituteID, from, to)
	if err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	for _, row := range assignments {
		facts.Assignments = append(facts.Assignments, engine.AssignmentSpan{
			SubstituteID:   row.SubstituteID,
			CollaboratorID: row.CollaboratorID,
			SchoolID:       row.SchoolID,
			StartDate:      row.StartDate,
			EndDate:        row.EndDate,
			Period:         engine.Period(row.Period),
		})
	}

	return facts, nil
}

func dateInVacations(date time.Time, vacations []models.SchoolVacation) bool {
	for _, vacation := range vacations {
		if engine.DateWithin(date, vacation.StartDate, vacation.EndDate) {
			return true
		}
	}
	return false
}
