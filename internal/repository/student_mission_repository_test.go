package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentMissionRepositoryIncrementTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentMissionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO student_missions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.IncrementTx(context.Background(), tx, "student-1", "mission-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentMissionRepositoryCountDefaultsZero(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentMissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM student_missions WHERE student_id = $1")).
		WithArgs("student-1", "mission-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	count, err := repo.Count(context.Background(), "student-1", "mission-1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
