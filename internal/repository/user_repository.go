package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/somang-dev/classcoin-api/internal/models"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}

const userColumns = `id, role, name, user_id, school, education_office_code, school_code,
	password_hash, grade, class_number, student_number, subject, homeroom_grade, homeroom_class, created_at`

// UserRepository provides persistence for the shared student/teacher table.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByLoginID loads a user by the login identifier chosen at signup.
func (r *UserRepository) FindByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, loginID); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByLoginID reports whether the login identifier is already taken.
func (r *UserRepository) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, loginID); err != nil {
		return false, fmt.Errorf("check user id: %w", err)
	}
	return exists, nil
}

// Create inserts a new user row. Callers map unique violations on user_id to
// a conflict error via IsUniqueViolation.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO users (id, role, name, user_id, school, education_office_code, school_code,
		password_hash, grade, class_number, student_number, subject, homeroom_grade, homeroom_class, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Role, user.Name, user.LoginID, user.School,
		user.EducationOfficeCode, user.SchoolCode, user.PasswordHash,
		user.Grade, user.ClassNumber, user.StudentNumber,
		user.Subject, user.HomeroomGrade, user.HomeroomClass, user.CreatedAt,
	)
	return err
}

// LockTx takes a row lock on the student, serialising concurrent submissions
// for the same student within the surrounding transaction.
func (r *UserRepository) LockTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	var locked string
	if err := tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return fmt.Errorf("lock user %s: %w", id, err)
	}
	return nil
}

// CountStudentsInClassTx counts students enrolled in the classroom tuple.
func (r *UserRepository) CountStudentsInClassTx(ctx context.Context, tx *sqlx.Tx, key models.ClassKey) (int, error) {
	const query = `SELECT COUNT(*) FROM users
	WHERE role = 'student'
		AND education_office_code = $1
		AND school_code = $2
		AND grade = $3
		AND class_number = $4`

	var count int
	if err := tx.GetContext(ctx, &count, query, key.EducationOfficeCode, key.SchoolCode, key.Grade, key.ClassNumber); err != nil {
		return 0, fmt.Errorf("count students in class: %w", err)
	}
	return count, nil
}
