package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ecolenet/remplacement-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.Assignment{
		SubstituteID:   "sub-1",
		CollaboratorID: "collab-1",
		SchoolID:       "school-1",
		StartDate:      time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC),
		Period:         "FULL_DAY",
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	require.NotEmpty(t, assignment.ID)

	rows := sqlmock.NewRows([]string{"id", "substitute_id", "collaborator_id", "school_id", "absence_id", "start_date", "end_date", "period", "created_at"}).
		AddRow(assignment.ID, "sub-1", "collab-1", "school-1", nil, assignment.StartDate, assignment.EndDate, "FULL_DAY", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, substitute_id, collaborator_id, school_id")).
		WithArgs(assignment.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Equal(t, "sub-1", found.SubstituteID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs("assign-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "assign-1")
	require.NoError(t, err)
	require.True(t, deleted)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryBatchListEmptyIDs(t *testing.T) {
	db, _, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	assignments, err := repo.ListByCollaboratorIDsInWindow(context.Background(), nil, time.Now(), time.Now())
	require.NoError(t, err)
	require.Empty(t, assignments)
}

func TestAssignmentRepositoryBatchList(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	from := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "substitute_id", "collaborator_id", "school_id", "absence_id", "start_date", "end_date", "period", "created_at", "substitute_name", "collaborator_name", "school_name"}).
		AddRow("assign-1", "sub-1", "collab-1", "school-1", "abs-1", from, to, "MORNING", time.Now(), "Jean Martin", "Claire Dubois", "Ecole du Lac")
	mock.ExpectQuery(regexp.QuoteMeta("FROM assignments a")).
		WillReturnRows(rows)

	assignments, err := repo.ListByCollaboratorIDsInWindow(context.Background(), []string{"collab-1"}, from, to)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	require.Equal(t, "Jean Martin", assignments[0].SubstituteName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryExistsOverlapping(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	from := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("sub-1", from, to, "MORNING").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsOverlapping(context.Background(), "sub-1", from, to, "MORNING")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
