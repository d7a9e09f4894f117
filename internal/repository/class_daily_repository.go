package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/somang-dev/classcoin-api/internal/models"
)

// ClassDailyRepository guards the once-per-day class bonus. The unique
// constraint on (school_class_id, date) plus the row lock taken by EnsureTx
// make the award check-and-set race free.
type ClassDailyRepository struct {
	db *sqlx.DB
}

// NewClassDailyRepository constructs the repository.
func NewClassDailyRepository(db *sqlx.DB) *ClassDailyRepository {
	return &ClassDailyRepository{db: db}
}

// EnsureTx creates the (class, date) row when missing and returns it locked
// for the remainder of the transaction.
func (r *ClassDailyRepository) EnsureTx(ctx context.Context, tx *sqlx.Tx, classID, date string) (*models.ClassDailyMission, error) {
	now := time.Now().UTC()
	const insert = `INSERT INTO class_daily_missions (id, school_class_id, date, bonus_awarded, created_at, updated_at)
	VALUES ($1, $2, $3, FALSE, $4, $4)
	ON CONFLICT (school_class_id, date) DO NOTHING`

	if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), classID, date, now); err != nil {
		return nil, fmt.Errorf("ensure class daily row: %w", err)
	}

	const query = `SELECT id, school_class_id, date, bonus_awarded, created_at, updated_at
	FROM class_daily_missions
	WHERE school_class_id = $1 AND date = $2
	FOR UPDATE`

	var row models.ClassDailyMission
	if err := tx.GetContext(ctx, &row, query, classID, date); err != nil {
		return nil, fmt.Errorf("lock class daily row: %w", err)
	}
	return &row, nil
}

// MarkAwardedTx flips the bonus flag; callers hold the row lock from
// EnsureTx.
func (r *ClassDailyRepository) MarkAwardedTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE class_daily_missions SET bonus_awarded = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark bonus awarded: %w", err)
	}
	return nil
}

// IsAwarded reports the bonus flag outside a workflow transaction.
func (r *ClassDailyRepository) IsAwarded(ctx context.Context, classID, date string) (bool, error) {
	const query = `SELECT COALESCE(
		(SELECT bonus_awarded FROM class_daily_missions WHERE school_class_id = $1 AND date = $2), FALSE)`

	var awarded bool
	if err := r.db.GetContext(ctx, &awarded, query, classID, date); err != nil {
		return false, fmt.Errorf("check bonus awarded: %w", err)
	}
	return awarded, nil
}
