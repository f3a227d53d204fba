package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecolenet/remplacement-api/internal/models"
	appErrors "github.com/ecolenet/remplacement-api/pkg/errors"
)

type assignmentRepoStub struct {
	created  []*models.Assignment
	overlaps bool
	deleted  bool
}

func (s *assignmentRepoStub) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	return nil, errNoRows()
}

func (s *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = "assign-new"
	s.created = append(s.created, assignment)
	return nil
}

func (s *assignmentRepoStub) Delete(ctx context.Context, id string) (bool, error) {
	return s.deleted, nil
}

func (s *assignmentRepoStub) ExistsOverlapping(ctx context.Context, substituteID string, from, to time.Time, period string) (bool, error) {
	return s.overlaps, nil
}

type absenceLookupStub struct {
	absences map[string]models.Absence
}

func (s *absenceLookupStub) GetByID(ctx context.Context, id string) (*models.Absence, error) {
	if absence, ok := s.absences[id]; ok {
		return &absence, nil
	}
	return nil, errNoRows()
}

type cacheInvalidatorStub struct {
	patterns []string
}

func (s *cacheInvalidatorStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

type lockerStub struct {
	denied   bool
	acquired []string
	released []string
}

func (s *lockerStub) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.denied {
		return false, nil
	}
	s.acquired = append(s.acquired, key)
	return true, nil
}

func (s *lockerStub) Release(ctx context.Context, key string) error {
	s.released = append(s.released, key)
	return nil
}

func validCreateRequest() CreateAssignmentRequest {
	return CreateAssignmentRequest{
		SubstituteID:   "sub-1",
		CollaboratorID: "collab-1",
		SchoolID:       "school-1",
		StartDate:      "2025-09-08",
		EndDate:        "2025-09-12",
		Period:         "FULL_DAY",
	}
}

func newAssignmentTestService(repo *assignmentRepoStub, locker *lockerStub, cache *cacheInvalidatorStub) *AssignmentService {
	substitutes := &substituteLookupStub{substitutes: map[string]models.Substitute{
		"sub-1":    {ID: "sub-1", Active: true},
		"sub-idle": {ID: "sub-idle", Active: false},
	}}
	monday := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	friday := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	absences := &absenceLookupStub{absences: map[string]models.Absence{
		"abs-1": {ID: "abs-1", CollaboratorID: "collab-1", StartDate: monday, EndDate: friday, Period: "FULL_DAY"},
	}}
	return NewAssignmentService(repo, absences, substitutes, cache, locker, nil, nil, time.Second)
}

func TestCreateAssignmentSuccess(t *testing.T) {
	repo := &assignmentRepoStub{}
	locker := &lockerStub{}
	cache := &cacheInvalidatorStub{}
	svc := newAssignmentTestService(repo, locker, cache)

	assignment, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "assign-new", assignment.ID)
	require.Len(t, repo.created, 1)
	require.Len(t, locker.acquired, 1)
	require.Len(t, locker.released, 1)
	assert.Equal(t, locker.acquired[0], locker.released[0])
	assert.Contains(t, cache.patterns, "board:*")
}

func TestCreateAssignmentOverlapConflict(t *testing.T) {
	repo := &assignmentRepoStub{overlaps: true}
	locker := &lockerStub{}
	svc := newAssignmentTestService(repo, locker, &cacheInvalidatorStub{})

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
	// The lock is still released after the failed check.
	require.Len(t, locker.released, 1)
}

func TestCreateAssignmentLockDenied(t *testing.T) {
	repo := &assignmentRepoStub{}
	svc := newAssignmentTestService(repo, &lockerStub{denied: true}, &cacheInvalidatorStub{})

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCreateAssignmentInactiveSubstitute(t *testing.T) {
	svc := newAssignmentTestService(&assignmentRepoStub{}, &lockerStub{}, &cacheInvalidatorStub{})

	req := validCreateRequest()
	req.SubstituteID = "sub-idle"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateAssignmentAbsenceChecks(t *testing.T) {
	svc := newAssignmentTestService(&assignmentRepoStub{}, &lockerStub{}, &cacheInvalidatorStub{})

	req := validCreateRequest()
	missing := "ghost"
	req.AbsenceID = &missing
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	req = validCreateRequest()
	absenceID := "abs-1"
	req.AbsenceID = &absenceID
	req.CollaboratorID = "collab-2"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validCreateRequest()
	req.AbsenceID = &absenceID
	req.StartDate = "2025-10-06"
	req.EndDate = "2025-10-10"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validCreateRequest()
	req.AbsenceID = &absenceID
	assignment, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, assignment.AbsenceID)
	assert.Equal(t, "abs-1", *assignment.AbsenceID)
}

func TestDeleteAssignment(t *testing.T) {
	repo := &assignmentRepoStub{deleted: true}
	cache := &cacheInvalidatorStub{}
	svc := newAssignmentTestService(repo, &lockerStub{}, cache)

	require.NoError(t, svc.Delete(context.Background(), "assign-1"))
	assert.Contains(t, cache.patterns, "board:*")

	repo.deleted = false
	err := svc.Delete(context.Background(), "assign-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
