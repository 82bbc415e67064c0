package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newSequenceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSequenceRepositoryNextSeedsFromCount(t *testing.T) {
	db, mock, cleanup := newSequenceRepoMock(t)
	defer cleanup()

	repo := NewSequenceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO regno_sequences")).
		WithArgs("CS", 41).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

	value, err := repo.Next(context.Background(), "CS", 41)
	require.NoError(t, err)
	require.Equal(t, 42, value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceRepositoryNextPropagatesError(t *testing.T) {
	db, mock, cleanup := newSequenceRepoMock(t)
	defer cleanup()

	repo := NewSequenceRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO regno_sequences")).
		WithArgs("CS", 0).
		WillReturnError(context.DeadlineExceeded)

	_, err := repo.Next(context.Background(), "CS", 0)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
