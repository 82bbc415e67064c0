package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gapt-portal/gapt-api/internal/models"
)

func newPermissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPermissionRepositoryMatrixGroupsByRole(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewPermissionRepository(db)
	rows := sqlmock.NewRows([]string{"role", "feature", "level"}).
		AddRow(models.RoleAdmin, models.FeatureAccessMatrix, models.EditAll).
		AddRow(models.RoleAdmin, models.FeatureUserDirectory, models.ViewAll).
		AddRow(models.RoleStudent, models.FeatureAccessMatrix, models.NoAccess)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role, feature, level FROM permissions")).
		WillReturnRows(rows)

	matrix, err := repo.Matrix(context.Background())
	require.NoError(t, err)
	require.Len(t, matrix, 2)
	require.Equal(t, models.EditAll, matrix[models.RoleAdmin][models.FeatureAccessMatrix])
	require.Equal(t, models.NoAccess, matrix[models.RoleStudent][models.FeatureAccessMatrix])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPermissionRepositorySetLevelUpserts(t *testing.T) {
	db, mock, cleanup := newPermissionRepoMock(t)
	defer cleanup()

	repo := NewPermissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO permissions")).
		WithArgs(models.RoleDean, models.FeatureMarkEntry, models.ViewAll, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetLevel(context.Background(), models.RoleDean, models.FeatureMarkEntry, models.ViewAll)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
