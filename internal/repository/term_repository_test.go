package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTermRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func termRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "year", "term", "start_date", "end_date", "created_at", "updated_at"})
}

func TestTermRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	start := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, year, term, start_date, end_date, created_at, updated_at FROM terms WHERE id = $1")).
		WithArgs("term-1").
		WillReturnRows(termRows().AddRow("term-1", 2026, 1, start, start.AddDate(0, 3, 0), start, start))

	term, err := repo.FindByID(context.Background(), "term-1")
	require.NoError(t, err)
	assert.Equal(t, 2026, term.Year)
	assert.Equal(t, 1, term.Number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	mock.ExpectQuery("FROM terms WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindLatest(t *testing.T) {
	db, mock, cleanup := newTermRepoMock(t)
	defer cleanup()
	repo := NewTermRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM terms ORDER BY year DESC, term DESC LIMIT 1")).
		WillReturnRows(termRows().AddRow("term-3", 2026, 3, now, now, now, now))

	term, err := repo.FindLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "term-3", term.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
