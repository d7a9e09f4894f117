package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// StudentMissionRepository tracks per-(student, mission) completion counts.
// Purely observational; nothing in the workflow reads it back.
type StudentMissionRepository struct {
	db *sqlx.DB
}

// NewStudentMissionRepository constructs the repository.
func NewStudentMissionRepository(db *sqlx.DB) *StudentMissionRepository {
	return &StudentMissionRepository{db: db}
}

// IncrementTx bumps the completion counter, creating the row on first
// approval.
func (r *StudentMissionRepository) IncrementTx(ctx context.Context, tx *sqlx.Tx, studentID, missionID string) error {
	const query = `INSERT INTO student_missions (id, student_id, mission_id, count)
	VALUES ($1, $2, $3, 1)
	ON CONFLICT (student_id, mission_id)
	DO UPDATE SET count = student_missions.count + 1`

	if _, err := tx.ExecContext(ctx, query, uuid.NewString(), studentID, missionID); err != nil {
		return fmt.Errorf("increment student mission count: %w", err)
	}
	return nil
}

// Count returns the approved completion count for the pair.
func (r *StudentMissionRepository) Count(ctx context.Context, studentID, missionID string) (int, error) {
	const query = `SELECT COALESCE(
		(SELECT count FROM student_missions WHERE student_id = $1 AND mission_id = $2), 0)`

	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID, missionID); err != nil {
		return 0, fmt.Errorf("student mission count: %w", err)
	}
	return count, nil
}
