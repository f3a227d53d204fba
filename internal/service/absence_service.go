package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
	"github.com/ecolenet/remplacement-api/pkg/export"
)

type absenceRepository interface {
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, int, error)
	GetByID(ctx context.Context, id string) (*models.Absence, error)
	Create(ctx context.Context, absence *models.Absence) error
	Delete(ctx context.Context, id string) error
}

type collaboratorReadRepository interface {
	GetByID(ctx context.Context, id string) (*models.Collaborator, error)
	ListSchools(ctx context.Context, collaboratorID string) ([]models.CollaboratorSchool, error)
	ListSchoolsByCollaboratorIDs(ctx context.Context, collaboratorIDs []string) ([]models.CollaboratorSchool, error)
}

type boardAssignmentRepository interface {
	ListByCollaboratorIDsInWindow(ctx context.Context, collaboratorIDs []string, from, to time.Time) ([]models.AssignmentDetail, error)
}

type schoolVacationReadRepository interface {
	ListBySchoolIDs(ctx context.Context, schoolIDs []string, from, to time.Time) ([]models.SchoolVacation, error)
}

type boardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CreateAbsenceRequest declares an absence for a collaborator.
type CreateAbsenceRequest struct {
	CollaboratorID string  `json:"collaborator_id" validate:"required"`
	StartDate      string  `json:"start_date" validate:"required"`
	EndDate        string  `json:"end_date" validate:"required"`
	Period         string  `json:"period" validate:"required"`
	Reason         string  `json:"reason" validate:"required"`
	Notes          *string `json:"notes"`
}

// AbsenceBoardConfig tunes board assembly.
type AbsenceBoardConfig struct {
	CacheTTL             time.Duration
	DefaultWindow        time.Duration
	DefaultPageSize      int
	DefaultThresholdDays int
}

// AbsenceService assembles the dispatch board: absences enriched with
// per-school coverage and urgency, sorted most urgent first.
type AbsenceService struct {
	absences      absenceRepository
	collaborators collaboratorReadRepository
	assignments   boardAssignmentRepository
	vacations     schoolVacationReadRepository
	cache         boardCache
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	config        AbsenceBoardConfig
}

// NewAbsenceService constructs an AbsenceService instance.
func NewAbsenceService(
	absences absenceRepository,
	collaborators collaboratorReadRepository,
	assignments boardAssignmentRepository,
	vacations schoolVacationReadRepository,
	cache boardCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config AbsenceBoardConfig,
) *AbsenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AbsenceService{
		absences:      absences,
		collaborators: collaborators,
		assignments:   assignments,
		vacations:     vacations,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		config:        config,
	}
}

// Create declares an absence after validating dates, period and reason.
func (s *AbsenceService) Create(ctx context.Context, req CreateAbsenceRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	period := engine.Period(strings.ToUpper(req.Period))
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period must be MORNING, AFTERNOON or FULL_DAY")
	}
	reason := models.AbsenceReason(strings.ToUpper(req.Reason))
	if !reason.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown absence reason")
	}

	if _, err := s.collaborators.GetByID(ctx, req.CollaboratorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collaborator not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch collaborator")
	}

	absence := &models.Absence{
		CollaboratorID: req.CollaboratorID,
		StartDate:      start,
		EndDate:        end,
		Period:         string(period),
		Reason:         reason,
		Notes:          req.Notes,
	}
	if err := s.absences.Create(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create absence")
	}
	s.logger.Info("absence created",
		zap.String("absence_id", absence.ID),
		zap.String("collaborator_id", absence.CollaboratorID))
	return absence, nil
}

// Board returns the sorted, enriched absence board. today is explicit so the
// same window renders identically in tests and exports.
func (s *AbsenceService) Board(ctx context.Context, filter models.AbsenceFilter, today time.Time) (*models.BoardPage, error) {
	s.applyDefaults(&filter, today)

	key := s.boardCacheKey(filter, today)
	if s.cache != nil {
		var cached models.BoardPage
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		}
		s.metrics.RecordCacheOperation(false)
	}

	started := time.Now()
	page, err := s.buildBoard(ctx, filter, today)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveBoardBuild(time.Since(started))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, page, s.config.CacheTTL); err != nil {
			s.logger.Warn("failed to cache board", zap.Error(err))
		}
	}
	return page, nil
}

// Coverage returns the enriched view of a single absence.
func (s *AbsenceService) Coverage(ctx context.Context, absenceID string, today time.Time) (*models.BoardRow, error) {
	absence, err := s.absences.GetByID(ctx, absenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch absence")
	}
	rows, err := s.enrich(ctx, []models.Absence{*absence}, today)
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// ExportBoard renders the current board as CSV or PDF bytes.
func (s *AbsenceService) ExportBoard(ctx context.Context, filter models.AbsenceFilter, today time.Time, format string) ([]byte, string, error) {
	page, err := s.Board(ctx, filter, today)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Collaborator", "From", "To", "Period", "Reason", "Coverage", "Covered", "Required", "Urgency", "Days Remaining"},
	}
	for _, row := range page.Rows {
		remaining := ""
		if row.Urgency.DaysRemaining != nil {
			remaining = strconv.Itoa(*row.Urgency.DaysRemaining)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Collaborator":   row.CollaboratorName,
			"From":           row.StartDate.Format(engine.ISODate),
			"To":             row.EndDate.Format(engine.ISODate),
			"Period":         row.Period,
			"Reason":         string(row.Reason),
			"Coverage":       string(row.Coverage.Classification),
			"Covered":        strconv.Itoa(row.Coverage.Covered),
			"Required":       strconv.Itoa(row.Coverage.Total),
			"Urgency":        string(row.Urgency.Tier),
			"Days Remaining": remaining,
		})
	}

	switch strings.ToLower(format) {
	case "csv":
		payload, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf", "":
		payload, err := export.NewPDFExporter().Render(dataset, "Replacement board "+today.Format(engine.ISODate))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *AbsenceService) applyDefaults(filter *models.AbsenceFilter, today time.Time) {
	if filter.From == nil {
		from := engine.DateOnly(today)
		filter.From = &from
	}
	if filter.To == nil {
		to := engine.DateOnly(today.Add(s.config.DefaultWindow))
		filter.To = &to
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.config.DefaultPageSize
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
}

func (s *AbsenceService) boardCacheKey(filter models.AbsenceFilter, today time.Time) string {
	return fmt.Sprintf("board:%s:%s:%s:%s:%d:%d:%s",
		filter.From.Format(engine.ISODate),
		filter.To.Format(engine.ISODate),
		filter.SchoolID,
		filter.Reason,
		filter.Page,
		filter.PageSize,
		engine.DateOnly(today).Format(engine.ISODate))
}

func (s *AbsenceService) buildBoard(ctx context.Context, filter models.AbsenceFilter, today time.Time) (*models.BoardPage, error) {
	absences, total, err := s.absences.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}

	rows, err := s.enrich(ctx, absences, today)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return engine.LessUrgent(rows[i].Urgency, rows[j].Urgency, rows[i].StartDate, rows[j].StartDate)
	})

	return &models.BoardPage{
		Rows:        rows,
		Total:       total,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// enrich runs the reconciliation for a batch of absences: batched fact
// fetches, then pure engine computation per absence and school.
func (s *AbsenceService) enrich(ctx context.Context, absences []models.Absence, today time.Time) ([]models.BoardRow, error) {
	if len(absences) == 0 {
		return []models.BoardRow{}, nil
	}

	collaboratorIDs := make([]string, 0, len(absences))
	seen := make(map[string]bool, len(absences))
	var windowFrom, windowTo time.Time
	for i, absence := range absences {
		if !seen[absence.CollaboratorID] {
			seen[absence.CollaboratorID] = true
			collaboratorIDs = append(collaboratorIDs, absence.CollaboratorID)
		}
		if i == 0 || absence.StartDate.Before(windowFrom) {
			windowFrom = absence.StartDate
		}
		if i == 0 || absence.EndDate.After(windowTo) {
			windowTo = absence.EndDate
		}
	}

	links, err := s.collaborators.ListSchoolsByCollaboratorIDs(ctx, collaboratorIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list collaborator schools")
	}
	linksByCollaborator := make(map[string][]models.CollaboratorSchool, len(collaboratorIDs))
	schoolIDs := make([]string, 0, len(links))
	seenSchools := make(map[string]bool, len(links))
	for _, link := range links {
		linksByCollaborator[link.CollaboratorID] = append(linksByCollaborator[link.CollaboratorID], link)
		if !seenSchools[link.SchoolID] {
			seenSchools[link.SchoolID] = true
			schoolIDs = append(schoolIDs, link.SchoolID)
		}
	}

	assignmentRows, err := s.assignments.ListByCollaboratorIDsInWindow(ctx, collaboratorIDs, windowFrom, windowTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	assignmentsByCollaborator := make(map[string][]models.AssignmentDetail)
	for _, row := range assignmentRows {
		assignmentsByCollaborator[row.CollaboratorID] = append(assignmentsByCollaborator[row.CollaboratorID], row)
	}

	vacationRows, err := s.vacations.ListBySchoolIDs(ctx, schoolIDs, windowFrom, windowTo)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vacations")
	}
	vacationsBySchool := make(map[string][]models.SchoolVacation)
	for _, row := range vacationRows {
		vacationsBySchool[row.SchoolID] = append(vacationsBySchool[row.SchoolID], row)
	}

	rows := make([]models.BoardRow, 0, len(absences))
	for _, absence := range absences {
		rows = append(rows, s.enrichOne(absence, linksByCollaborator[absence.CollaboratorID],
			assignmentsByCollaborator[absence.CollaboratorID], vacationsBySchool, today))
	}
	return rows, nil
}

func (s *AbsenceService) enrichOne(
	absence models.Absence,
	links []models.CollaboratorSchool,
	assignments []models.AssignmentDetail,
	vacationsBySchool map[string][]models.SchoolVacation,
	today time.Time,
) models.BoardRow {
	row := models.BoardRow{Absence: absence}
	period := engine.Period(absence.Period)

	var pooledCovered, pooledTotal int
	anyDegenerate := false
	for _, link := range links {
		if row.CollaboratorName == "" {
			row.CollaboratorName = link.CollaboratorName
		}

		pattern, ok := parseLinkSchedule(link.Schedule)
		required := engine.ExpandPresence(absence.StartDate, absence.EndDate, period, pattern)
		required = dropVacationSlots(required, vacationsBySchool[link.SchoolID])

		spans := spansForSchool(assignments, absence, link.SchoolID)
		coverage := engine.ComputeCoverage(required, spans)
		s.metrics.ObserveCoverage(coverage)

		threshold := link.ReplaceAfterDays
		if threshold == nil && s.config.DefaultThresholdDays > 0 {
			fallback := s.config.DefaultThresholdDays
			threshold = &fallback
		}
		urgency := engine.ComputeUrgency(today, absence.StartDate, threshold, coverage.IsCovered())
		s.metrics.ObserveUrgency(urgency.Tier)

		row.Schools = append(row.Schools, models.SchoolCoverage{
			SchoolID:        link.SchoolID,
			SchoolName:      link.SchoolName,
			Coverage:        coverage,
			Urgency:         urgency,
			FallbackApplied: !ok,
		})
		pooledCovered += coverage.Covered
		pooledTotal += coverage.Total
		anyDegenerate = anyDegenerate || coverage.Degenerate
	}

	row.Coverage = poolCoverage(pooledCovered, pooledTotal, anyDegenerate)
	row.Urgency = worstUrgency(row.Schools)
	row.Assignments = assignmentsForAbsence(assignments, absence)
	return row
}

// parseLinkSchedule decodes a stored schedule column. ok is false when the
// column carried no usable data and the conservative fallback applied.
func parseLinkSchedule(schedule *string) (engine.WeeklyPattern, bool) {
	if schedule == nil {
		return nil, false
	}
	return engine.ParseWeeklyPattern(*schedule)
}

func dropVacationSlots(slots []engine.Slot, vacations []models.SchoolVacation) []engine.Slot {
	if len(vacations) == 0 {
		return slots
	}
	kept := slots[:0]
	for _, slot := range slots {
		inVacation := false
		for _, vacation := range vacations {
			if engine.DateWithin(slot.Date, vacation.StartDate, vacation.EndDate) {
				inVacation = true
				break
			}
		}
		if !inVacation {
			kept = append(kept, slot)
		}
	}
	return kept
}

func spansForSchool(assignments []models.AssignmentDetail, absence models.Absence, schoolID string) []engine.AssignmentSpan {
	var spans []engine.AssignmentSpan
	for _, assignment := range assignments {
		if assignment.SchoolID != schoolID {
			continue
		}
		if !engine.RangesOverlap(assignment.StartDate, assignment.EndDate, absence.StartDate, absence.EndDate) {
			continue
		}
		spans = append(spans, engine.AssignmentSpan{
			SubstituteID:   assignment.SubstituteID,
			CollaboratorID: assignment.CollaboratorID,
			SchoolID:       assignment.SchoolID,
			StartDate:      assignment.StartDate,
			EndDate:        assignment.EndDate,
			Period:         engine.Period(assignment.Period),
		})
	}
	return spans
}

func assignmentsForAbsence(assignments []models.AssignmentDetail, absence models.Absence) []models.AssignmentDetail {
	var matched []models.AssignmentDetail
	for _, assignment := range assignments {
		if assignment.AbsenceID != nil && *assignment.AbsenceID == absence.ID {
			matched = append(matched, assignment)
			continue
		}
		if engine.RangesOverlap(assignment.StartDate, assignment.EndDate, absence.StartDate, absence.EndDate) {
			matched = append(matched, assignment)
		}
	}
	return matched
}

func poolCoverage(covered, total int, degenerate bool) engine.CoverageResult {
	result := engine.CoverageResult{Covered: covered, Total: total, Degenerate: degenerate && total == 0}
	switch {
	case total == 0:
		result.Classification = engine.CoverageNone
		result.Degenerate = true
	case covered >= total:
		result.Classification = engine.CoverageFull
	case covered > 0:
		result.Classification = engine.CoveragePartial
	default:
		result.Classification = engine.CoverageNone
	}
	return result
}

// worstUrgency picks the most urgent per-school result for row sorting.
func worstUrgency(schools []models.SchoolCoverage) engine.UrgencyResult {
	if len(schools) == 0 {
		return engine.UrgencyResult{Tier: engine.TierNoDeadline}
	}
	worst := schools[0].Urgency
	for _, school := range schools[1:] {
		if engine.LessUrgent(school.Urgency, worst, time.Time{}, time.Time{}) {
			worst = school.Urgency
		}
	}
	return worst
}
