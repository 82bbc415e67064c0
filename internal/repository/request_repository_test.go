package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gapt-portal/gapt-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRequestRepositoryCreateAndFindUnlock(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO edit_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.CurriculumUnlockRequest{
		HODID:     "hod-1",
		HODName:   "Dr. Kumar",
		DeptID:    "dept-1",
		DeptName:  "Computer Science",
		BatchID:   "batch-1",
		BatchName: "2028",
		Status:    models.RequestPending,
	}
	require.NoError(t, repo.CreateUnlockRequest(context.Background(), req))
	require.NotEmpty(t, req.ID)

	rows := sqlmock.NewRows([]string{"id", "hod_id", "hod_name", "dept_id", "dept_name", "batch_id", "batch_name", "status", "created_at"}).
		AddRow(req.ID, req.HODID, req.HODName, req.DeptID, req.DeptName, req.BatchID, req.BatchName, req.Status, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, hod_id, hod_name")).
		WithArgs(req.ID).
		WillReturnRows(rows)

	found, err := repo.FindUnlockRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Equal(t, req.BatchID, found.BatchID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDecideUnlockTransaction(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE edit_requests SET status")).
		WithArgs("req-1", models.RequestApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO curriculum_statuses")).
		WithArgs("batch-1", "dept-1", models.CurriculumEditable, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DecideUnlockRequest(context.Background(), "req-1", models.RequestApproved, "batch-1", "dept-1", models.CurriculumEditable)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDecideUnlockRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE edit_requests SET status")).
		WithArgs("req-1", models.RequestApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO curriculum_statuses")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.DecideUnlockRequest(context.Background(), "req-1", models.RequestApproved, "batch-1", "dept-1", models.CurriculumEditable)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryCurriculumStatusDefaultsFrozen(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM curriculum_statuses")).
		WithArgs("batch-1", "dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))

	status, err := repo.CurriculumStatus(context.Background(), "batch-1", "dept-1")
	require.NoError(t, err)
	require.Equal(t, models.CurriculumFrozen, status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositorySetAuthorityFlagTargetsOneColumn(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_edit_requests SET dean_approved = $2 WHERE id = $1")).
		WithArgs("req-1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetAuthorityFlag(context.Background(), "req-1", models.RoleDean, true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositorySetAuthorityFlagRejectsUnlistedRole(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	err := repo.SetAuthorityFlag(context.Background(), "req-1", models.RoleStudent, true)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
