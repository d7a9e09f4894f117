package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somang-dev/classcoin-api/internal/models"
)

func classRows(id string, coinCount float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "education_office_code", "school_code", "grade", "class_number", "coin_count",
	}).AddRow(id, "B10", "7011911", 2, 3, coinCount)
}

func TestClassRepositoryFindOrCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO school_classes").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM school_classes WHERE education_office_code = $1")).
		WithArgs("B10", "7011911", 2, 3).
		WillReturnRows(classRows("class-1", 0))

	class, err := repo.FindOrCreate(context.Background(), models.ClassKey{
		EducationOfficeCode: "B10",
		SchoolCode:          "7011911",
		Grade:               2,
		ClassNumber:         3,
	})
	require.NoError(t, err)
	assert.Equal(t, "class-1", class.ID)
	assert.Equal(t, 2, class.Grade)
	assert.Zero(t, class.CoinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM school_classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(classRows("class-1", 4.5))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	class, err := repo.FindByIDTx(context.Background(), tx, "class-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, "class-1", class.ID)
	assert.Equal(t, 4.5, class.CoinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreditReturnsUpdatedBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("UPDATE school_classes").
		WithArgs("class-1", 1.5).
		WillReturnRows(classRows("class-1", 3.5))

	class, err := repo.Credit(context.Background(), "class-1", 1.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, class.CoinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreditRejectsNegativeDelta(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	_, err := repo.Credit(context.Background(), "class-1", -0.5)
	require.ErrorIs(t, err, ErrNegativeDelta)
}

func TestClassRepositoryCreditTx(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE school_classes").
		WithArgs("class-1", 2.0).
		WillReturnRows(classRows("class-1", 2.0))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	class, err := repo.CreditTx(context.Background(), tx, "class-1", 2.0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 2.0, class.CoinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
