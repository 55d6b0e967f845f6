package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListOfferings(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "subject_id", "subject_name", "class_level_id", "periods_per_week"}).
		AddRow("off-1", "math", "Mathematics", "lvl-1", 5)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subject_offerings o")).WillReturnRows(rows)

	offerings, err := repo.ListOfferings(context.Background())
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, 5, offerings[0].PeriodsPerWeek)
	assert.Equal(t, "Mathematics", offerings[0].SubjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryLinks(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id, teacher_id FROM subject_teachers ORDER BY subject_id ASC, teacher_id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "teacher_id"}).AddRow("math", "t1").AddRow("math", "t2"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM subject_classes sc")).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "subject_name", "class_id"}).AddRow("art", "Art", "c1"))

	teachers, err := repo.ListQualifiedTeachers(context.Background())
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	classes, err := repo.ListSubjectClasses(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "c1", classes[0].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
