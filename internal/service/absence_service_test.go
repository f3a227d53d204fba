package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolenet/remplacement-api/internal/engine"
	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type absenceRepoStub struct {
	absences []models.Absence
	err      error
}

func (s *absenceRepoStub) List(ctx context.Context, filter models.AbsenceFilter) ([]models.Absence, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	return s.absences, len(s.absences), nil
}

func (s *absenceRepoStub) GetByID(ctx context.Context, id string) (*models.Absence, error) {
	for _, absence := range s.absences {
		if absence.ID == id {
			found := absence
			return &found, nil
		}
	}
	return nil, errNoRows()
}

func (s *absenceRepoStub) Create(ctx context.Context, absence *models.Absence) error {
	if s.err != nil {
		return s.err
	}
	absence.ID = "abs-new"
	s.absences = append(s.absences, *absence)
	return nil
}

func (s *absenceRepoStub) Delete(ctx context.Context, id string) error { return s.err }

type collaboratorRepoStub struct {
	collaborators map[string]models.Collaborator
	links         []models.CollaboratorSchool
}

func (s *collaboratorRepoStub) GetByID(ctx context.Context, id string) (*models.Collaborator, error) {
	if collaborator, ok := s.collaborators[id]; ok {
		return &collaborator, nil
	}
	return nil, errNoRows()
}

func (s *collaboratorRepoStub) ListSchools(ctx context.Context, collaboratorID string) ([]models.CollaboratorSchool, error) {
	return s.linksFor([]string{collaboratorID}), nil
}

func (s *collaboratorRepoStub) ListSchoolsByCollaboratorIDs(ctx context.Context, collaboratorIDs []string) ([]models.CollaboratorSchool, error) {
	return s.linksFor(collaboratorIDs), nil
}

func (s *collaboratorRepoStub) linksFor(ids []string) []models.CollaboratorSchool {
	var matched []models.CollaboratorSchool
	for _, link := range s.links {
		for _, id := range ids {
			if link.CollaboratorID == id {
				matched = append(matched, link)
			}
		}
	}
	return matched
}

type boardAssignmentRepoStub struct {
	assignments []models.AssignmentDetail
}

func (s *boardAssignmentRepoStub) ListByCollaboratorIDsInWindow(ctx context.Context, collaboratorIDs []string, from, to time.Time) ([]models.AssignmentDetail, error) {
	return s.assignments, nil
}

type vacationRepoStub struct {
	vacations []models.SchoolVacation
}

func (s *vacationRepoStub) ListBySchoolIDs(ctx context.Context, schoolIDs []string, from, to time.Time) ([]models.SchoolVacation, error) {
	return s.vacations, nil
}

func errNoRows() error { return sql.ErrNoRows }

func newBoardService(absences *absenceRepoStub, collaborators *collaboratorRepoStub, assignments *boardAssignmentRepoStub, vacations *vacationRepoStub) *AbsenceService {
	return NewAbsenceService(absences, collaborators, assignments, vacations, nil, nil, nil, nil, AbsenceBoardConfig{
		CacheTTL:        time.Minute,
		DefaultWindow:   30 * 24 * time.Hour,
		DefaultPageSize: 50,
	})
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestBoardFullCoverageMarksCovered(t *testing.T) {
	// Absence Mon-Fri full week, presence Mon morning + Tue full day.
	// A full-day assignment over the whole week covers everything.
	monday := mustDate(t, "2025-09-08")
	friday := mustDate(t, "2025-09-12")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: friday,
		Period: "FULL_DAY", Reason: models.AbsenceReasonSickness,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{{
		CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
		SchoolID: "school-1", SchoolName: "Ecole du Lac",
		Schedule:         strPtr(`[{"weekday":"MONDAY","period":"MORNING"},{"weekday":"TUESDAY","period":"FULL_DAY"}]`),
		ReplaceAfterDays: intPtr(5),
	}}}
	assignments := &boardAssignmentRepoStub{assignments: []models.AssignmentDetail{{
		Assignment: models.Assignment{
			ID: "assign-1", SubstituteID: "sub-1", CollaboratorID: "collab-1", SchoolID: "school-1",
			StartDate: monday, EndDate: friday, Period: "FULL_DAY",
		},
		SubstituteName: "Jean Martin", CollaboratorName: "Claire Dubois", SchoolName: "Ecole du Lac",
	}}}

	svc := newBoardService(absences, collaborators, assignments, &vacationRepoStub{})
	page, err := svc.Board(context.Background(), models.AbsenceFilter{}, monday)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	row := page.Rows[0]
	assert.Equal(t, "Claire Dubois", row.CollaboratorName)
	// Mon morning + Tue morning + Tue afternoon = 3 required half-days.
	assert.Equal(t, 3, row.Coverage.Total)
	assert.Equal(t, 3, row.Coverage.Covered)
	assert.Equal(t, engine.CoverageFull, row.Coverage.Classification)
	assert.Equal(t, engine.TierCovered, row.Urgency.Tier)
	require.Len(t, row.Assignments, 1)
}

func TestBoardMissingScheduleFallsBackToFullPresence(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	friday := mustDate(t, "2025-09-12")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: friday,
		Period: "FULL_DAY", Reason: models.AbsenceReasonTraining,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{{
		CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
		SchoolID: "school-1", SchoolName: "Ecole du Lac",
		Schedule: nil, ReplaceAfterDays: intPtr(5),
	}}}

	svc := newBoardService(absences, collaborators, &boardAssignmentRepoStub{}, &vacationRepoStub{})
	page, err := svc.Board(context.Background(), models.AbsenceFilter{}, monday)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	row := page.Rows[0]
	// Five weekdays, two halves each.
	assert.Equal(t, 10, row.Coverage.Total)
	assert.Equal(t, engine.CoverageNone, row.Coverage.Classification)
	require.Len(t, row.Schools, 1)
	assert.True(t, row.Schools[0].FallbackApplied)
	// today == start, threshold 5: five days remain.
	require.NotNil(t, row.Urgency.DaysRemaining)
	assert.Equal(t, 5, *row.Urgency.DaysRemaining)
	assert.Equal(t, engine.TierPlentyOfTime, row.Urgency.Tier)
}

func TestBoardOverdueSortsFirst(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	friday := mustDate(t, "2025-09-12")
	today := mustDate(t, "2025-09-16")
	absences := &absenceRepoStub{absences: []models.Absence{
		{
			ID: "abs-covered", CollaboratorID: "collab-1",
			StartDate: monday, EndDate: monday,
			Period: "MORNING", Reason: models.AbsenceReasonSickness,
		},
		{
			ID: "abs-overdue", CollaboratorID: "collab-2",
			StartDate: monday, EndDate: friday,
			Period: "FULL_DAY", Reason: models.AbsenceReasonSickness,
		},
	}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{
		{
			CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
			SchoolID: "school-1", SchoolName: "Ecole du Lac",
			Schedule: strPtr(`[{"weekday":"MONDAY","period":"MORNING"}]`), ReplaceAfterDays: intPtr(5),
		},
		{
			CollaboratorID: "collab-2", CollaboratorName: "Paul Perret",
			SchoolID: "school-2", SchoolName: "Ecole des Pins",
			Schedule: nil, ReplaceAfterDays: intPtr(3),
		},
	}}
	assignments := &boardAssignmentRepoStub{assignments: []models.AssignmentDetail{{
		Assignment: models.Assignment{
			ID: "assign-1", SubstituteID: "sub-1", CollaboratorID: "collab-1", SchoolID: "school-1",
			StartDate: monday, EndDate: monday, Period: "MORNING",
		},
		SubstituteName: "Jean Martin", CollaboratorName: "Claire Dubois", SchoolName: "Ecole du Lac",
	}}}

	svc := newBoardService(absences, collaborators, assignments, &vacationRepoStub{})
	page, err := svc.Board(context.Background(), models.AbsenceFilter{}, today)
	require.NoError(t, err)
	require.Len(t, page.Rows, 2)

	assert.Equal(t, "abs-overdue", page.Rows[0].ID)
	assert.Equal(t, engine.TierDueOrOverdue, page.Rows[0].Urgency.Tier)
	require.NotNil(t, page.Rows[0].Urgency.DaysRemaining)
	// 8 elapsed days against a 3 day threshold.
	assert.Equal(t, -5, *page.Rows[0].Urgency.DaysRemaining)
	assert.Equal(t, engine.TierCovered, page.Rows[1].Urgency.Tier)
}

func TestBoardVacationMasksRequiredSlots(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	friday := mustDate(t, "2025-09-12")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: friday,
		Period: "FULL_DAY", Reason: models.AbsenceReasonPersonal,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{{
		CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
		SchoolID: "school-1", SchoolName: "Ecole du Lac",
		Schedule: nil,
	}}}
	vacations := &vacationRepoStub{vacations: []models.SchoolVacation{{
		ID: "vac-1", SchoolID: "school-1", Label: "Automne",
		StartDate: monday, EndDate: friday,
	}}}

	svc := newBoardService(absences, collaborators, &boardAssignmentRepoStub{}, vacations)
	page, err := svc.Board(context.Background(), models.AbsenceFilter{}, monday)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	row := page.Rows[0]
	// The whole absence falls inside the holiday window: nothing to cover.
	assert.Equal(t, 0, row.Coverage.Total)
	assert.True(t, row.Coverage.Degenerate)
	assert.Equal(t, engine.CoverageNone, row.Coverage.Classification)
}

func TestBoardPartialCoverageAcrossSchools(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	tuesday := mustDate(t, "2025-09-09")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: tuesday,
		Period: "FULL_DAY", Reason: models.AbsenceReasonSickness,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{
		{
			CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
			SchoolID: "school-1", SchoolName: "Ecole du Lac",
			Schedule: strPtr(`[{"weekday":"MONDAY","period":"FULL_DAY"}]`), ReplaceAfterDays: intPtr(5),
		},
		{
			CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
			SchoolID: "school-2", SchoolName: "Ecole des Pins",
			Schedule: strPtr(`[{"weekday":"TUESDAY","period":"FULL_DAY"}]`), ReplaceAfterDays: intPtr(5),
		},
	}}
	assignments := &boardAssignmentRepoStub{assignments: []models.AssignmentDetail{{
		Assignment: models.Assignment{
			ID: "assign-1", SubstituteID: "sub-1", CollaboratorID: "collab-1", SchoolID: "school-1",
			StartDate: monday, EndDate: monday, Period: "FULL_DAY",
		},
		SubstituteName: "Jean Martin", CollaboratorName: "Claire Dubois", SchoolName: "Ecole du Lac",
	}}}

	svc := newBoardService(absences, collaborators, assignments, &vacationRepoStub{})
	page, err := svc.Board(context.Background(), models.AbsenceFilter{}, monday)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)

	row := page.Rows[0]
	require.Len(t, row.Schools, 2)
	assert.Equal(t, engine.CoverageFull, row.Schools[0].Coverage.Classification)
	assert.Equal(t, engine.CoverageNone, row.Schools[1].Coverage.Classification)
	assert.Equal(t, engine.CoveragePartial, row.Coverage.Classification)
	assert.Equal(t, 2, row.Coverage.Covered)
	assert.Equal(t, 4, row.Coverage.Total)
	// The uncovered school drives the row urgency.
	assert.Equal(t, engine.TierPlentyOfTime, row.Urgency.Tier)
}

func TestCreateAbsenceValidation(t *testing.T) {
	collaborators := &collaboratorRepoStub{collaborators: map[string]models.Collaborator{
		"collab-1": {ID: "collab-1", FullName: "Claire Dubois", Active: true},
	}}
	svc := newBoardService(&absenceRepoStub{}, collaborators, &boardAssignmentRepoStub{}, &vacationRepoStub{})

	_, err := svc.Create(context.Background(), CreateAbsenceRequest{
		CollaboratorID: "collab-1",
		StartDate:      "2025-09-12",
		EndDate:        "2025-09-08",
		Period:         "FULL_DAY",
		Reason:         "SICKNESS",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateAbsenceRequest{
		CollaboratorID: "collab-1",
		StartDate:      "2025-09-08",
		EndDate:        "2025-09-12",
		Period:         "EVENING",
		Reason:         "SICKNESS",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateAbsenceRequest{
		CollaboratorID: "collab-1",
		StartDate:      "2025-09-08",
		EndDate:        "2025-09-12",
		Period:         "full_day",
		Reason:         "sickness",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateAbsenceRequest{
		CollaboratorID: "missing",
		StartDate:      "2025-09-08",
		EndDate:        "2025-09-12",
		Period:         "FULL_DAY",
		Reason:         "SICKNESS",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCoverageSingleAbsence(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: monday,
		Period: "MORNING", Reason: models.AbsenceReasonSickness,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{{
		CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
		SchoolID: "school-1", SchoolName: "Ecole du Lac",
		Schedule: strPtr(`[{"weekday":"MONDAY","period":"MORNING"}]`),
	}}}

	svc := newBoardService(absences, collaborators, &boardAssignmentRepoStub{}, &vacationRepoStub{})
	row, err := svc.Coverage(context.Background(), "abs-1", monday)
	require.NoError(t, err)
	assert.Equal(t, 1, row.Coverage.Total)
	assert.Equal(t, engine.TierNoDeadline, row.Urgency.Tier)

	_, err = svc.Coverage(context.Background(), "missing", monday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportBoardCSV(t *testing.T) {
	monday := mustDate(t, "2025-09-08")
	absences := &absenceRepoStub{absences: []models.Absence{{
		ID: "abs-1", CollaboratorID: "collab-1",
		StartDate: monday, EndDate: monday,
		Period: "MORNING", Reason: models.AbsenceReasonSickness,
	}}}
	collaborators := &collaboratorRepoStub{links: []models.CollaboratorSchool{{
		CollaboratorID: "collab-1", CollaboratorName: "Claire Dubois",
		SchoolID: "school-1", SchoolName: "Ecole du Lac",
		Schedule: strPtr(`[{"weekday":"MONDAY","period":"MORNING"}]`),
	}}}

	svc := newBoardService(absences, collaborators, &boardAssignmentRepoStub{}, &vacationRepoStub{})
	payload, contentType, err := svc.ExportBoard(context.Background(), models.AbsenceFilter{}, monday, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Claire Dubois")
	assert.Contains(t, string(payload), "NONE")

	_, _, err = svc.ExportBoard(context.Background(), models.AbsenceFilter{}, monday, "xlsx")
	require.Error(t, err)
}
