package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/somang-dev/classcoin-api/internal/models"
)

const classColumns = `id, education_office_code, school_code, grade, class_number, coin_count`

// ClassRepository owns the classroom ledger rows. Every balance mutation in
// the system funnels through Credit/CreditTx.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ErrNegativeDelta rejects debit attempts; the ledger only grows.
var ErrNegativeDelta = fmt.Errorf("coin delta must not be negative")

// FindByIDTx loads a classroom by primary key inside the caller's
// transaction, so review reads see the same snapshot as the ledger writes.
func (r *ClassRepository) FindByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.SchoolClass, error) {
	query := fmt.Sprintf(`SELECT %s FROM school_classes WHERE id = $1`, classColumns)
	var class models.SchoolClass
	if err := tx.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindOrCreate resolves the classroom for the natural tuple, creating it
// lazily on first reference. The unique constraint on the tuple makes the
// races benign: a concurrent insert falls through to the reselect.
func (r *ClassRepository) FindOrCreate(ctx context.Context, key models.ClassKey) (*models.SchoolClass, error) {
	const insert = `INSERT INTO school_classes (id, education_office_code, school_code, grade, class_number, coin_count)
	VALUES ($1, $2, $3, $4, $5, 0)
	ON CONFLICT (education_office_code, school_code, grade, class_number) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), key.EducationOfficeCode, key.SchoolCode, key.Grade, key.ClassNumber); err != nil {
		return nil, fmt.Errorf("ensure school class: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM school_classes
	WHERE education_office_code = $1 AND school_code = $2 AND grade = $3 AND class_number = $4`, classColumns)

	var class models.SchoolClass
	if err := r.db.GetContext(ctx, &class, query, key.EducationOfficeCode, key.SchoolCode, key.Grade, key.ClassNumber); err != nil {
		return nil, fmt.Errorf("load school class: %w", err)
	}
	return &class, nil
}

// Credit adds a non-negative delta to the classroom balance and returns the
// updated row.
func (r *ClassRepository) Credit(ctx context.Context, classID string, delta float64) (*models.SchoolClass, error) {
	return credit(ctx, r.db, classID, delta)
}

// CreditTx is Credit inside an existing transaction.
func (r *ClassRepository) CreditTx(ctx context.Context, tx *sqlx.Tx, classID string, delta float64) (*models.SchoolClass, error) {
	return credit(ctx, tx, classID, delta)
}

func credit(ctx context.Context, q sqlx.QueryerContext, classID string, delta float64) (*models.SchoolClass, error) {
	if delta < 0 {
		return nil, ErrNegativeDelta
	}

	query := fmt.Sprintf(`UPDATE school_classes
	SET coin_count = ROUND((coin_count + $2)::numeric, 2)
	WHERE id = $1
	RETURNING %s`, classColumns)

	var class models.SchoolClass
	if err := sqlx.GetContext(ctx, q, &class, query, classID, delta); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("credit class %s: %w", classID, err)
	}
	return &class, nil
}
