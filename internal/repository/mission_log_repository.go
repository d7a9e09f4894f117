package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/somang-dev/classcoin-api/internal/models"
)

const logColumns = `id, student_id, mission_id, school_class_id, reviewed_by, mission_type,
	coin_delta, date, status, approved_at, rejection_reason, created_at`

// PendingLogRow is a reviewable submission joined with its student and
// mission for teacher listings.
type PendingLogRow struct {
	LogID              string             `db:"log_id"`
	StudentID          string             `db:"student_id"`
	StudentName        string             `db:"student_name"`
	StudentLoginID     string             `db:"student_login_id"`
	MissionID          *string            `db:"mission_id"`
	MissionTitle       *string            `db:"mission_title"`
	MissionDescription *string            `db:"mission_description"`
	MissionType        models.MissionType `db:"mission_type"`
	CoinDelta          float64            `db:"coin_delta"`
	Date               string             `db:"date"`
	SubmittedAt        time.Time          `db:"created_at"`
}

// MissionLogRepository persists submission records.
type MissionLogRepository struct {
	db *sqlx.DB
}

// NewMissionLogRepository constructs the repository.
func NewMissionLogRepository(db *sqlx.DB) *MissionLogRepository {
	return &MissionLogRepository{db: db}
}

// CreateTx inserts a new submission record inside the workflow transaction.
func (r *MissionLogRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, log *models.MissionLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	log.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO mission_logs (id, student_id, mission_id, school_class_id, reviewed_by,
		mission_type, coin_delta, date, status, approved_at, rejection_reason, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := tx.ExecContext(ctx, query,
		log.ID, log.StudentID, log.MissionID, log.SchoolClassID, log.ReviewedBy,
		log.MissionType, log.CoinDelta, log.Date, log.Status,
		log.ApprovedAt, log.RejectionReason, log.CreatedAt,
	); err != nil {
		return fmt.Errorf("create mission log: %w", err)
	}
	return nil
}

// FindByIDForUpdateTx loads a submission under a row lock so concurrent
// reviews serialise on the pending-state check.
func (r *MissionLogRepository) FindByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.MissionLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM mission_logs WHERE id = $1 FOR UPDATE`, logColumns)
	var log models.MissionLog
	if err := tx.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// UpdateReviewTx writes the terminal review outcome onto a submission.
func (r *MissionLogRepository) UpdateReviewTx(ctx context.Context, tx *sqlx.Tx, log *models.MissionLog) error {
	const query = `UPDATE mission_logs
	SET status = $2, reviewed_by = $3, approved_at = $4, rejection_reason = $5
	WHERE id = $1`

	if _, err := tx.ExecContext(ctx, query, log.ID, log.Status, log.ReviewedBy, log.ApprovedAt, log.RejectionReason); err != nil {
		return fmt.Errorf("update mission log review: %w", err)
	}
	return nil
}

const sumDailyRegularQuery = `SELECT COALESCE(SUM(coin_delta), 0) FROM mission_logs
	WHERE student_id = $1
		AND date = $2
		AND mission_type = 'regular'
		AND status IN ('pending', 'approved')`

// SumDailyRegular totals the student's regular-mission deltas counted toward
// the daily cap (pending plus approved).
func (r *MissionLogRepository) SumDailyRegular(ctx context.Context, studentID, date string) (float64, error) {
	return sumDailyRegular(ctx, r.db, studentID, date)
}

// SumDailyRegularTx is SumDailyRegular inside the submission transaction,
// after the student row lock has been taken.
func (r *MissionLogRepository) SumDailyRegularTx(ctx context.Context, tx *sqlx.Tx, studentID, date string) (float64, error) {
	return sumDailyRegular(ctx, tx, studentID, date)
}

func sumDailyRegular(ctx context.Context, q sqlx.QueryerContext, studentID, date string) (float64, error) {
	var total float64
	if err := sqlx.GetContext(ctx, q, &total, sumDailyRegularQuery, studentID, date); err != nil {
		return 0, fmt.Errorf("sum daily regular coin: %w", err)
	}
	return total, nil
}

// CountApprovedStudentsTx counts distinct students in the classroom with an
// approved positive-delta submission on the given date.
func (r *MissionLogRepository) CountApprovedStudentsTx(ctx context.Context, tx *sqlx.Tx, classID, date string) (int, error) {
	const query = `SELECT COUNT(DISTINCT student_id) FROM mission_logs
	WHERE school_class_id = $1
		AND date = $2
		AND status = 'approved'
		AND coin_delta > 0`

	var count int
	if err := tx.GetContext(ctx, &count, query, classID, date); err != nil {
		return 0, fmt.Errorf("count approved students: %w", err)
	}
	return count, nil
}

// ListPendingForTeacher returns pending positive-delta submissions reviewable
// by the teacher: those in the homeroom classroom (when assigned) plus those
// against missions the teacher authored. Newest first.
func (r *MissionLogRepository) ListPendingForTeacher(ctx context.Context, teacherID string, homeroomClassID *string) ([]PendingLogRow, error) {
	const base = `SELECT
	l.id AS log_id,
	s.id AS student_id,
	s.name AS student_name,
	s.user_id AS student_login_id,
	m.id AS mission_id,
	m.title AS mission_title,
	m.description AS mission_description,
	l.mission_type,
	l.coin_delta,
	l.date,
	l.created_at
FROM mission_logs l
JOIN users s ON s.id = l.student_id
LEFT JOIN missions m ON m.id = l.mission_id
WHERE l.status = 'pending' AND l.coin_delta > 0`

	var (
		rows []PendingLogRow
		err  error
	)
	if homeroomClassID != nil {
		query := base + `
	AND (l.school_class_id = $1 OR m.teacher_id = $2)
ORDER BY l.created_at DESC`
		err = r.db.SelectContext(ctx, &rows, query, *homeroomClassID, teacherID)
	} else {
		query := base + `
	AND m.teacher_id = $1
ORDER BY l.created_at DESC`
		err = r.db.SelectContext(ctx, &rows, query, teacherID)
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	return rows, nil
}
