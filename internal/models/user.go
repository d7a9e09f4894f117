package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
)

// User represents an application user stored in the users table. Students and
// teachers share the table; role-specific columns are nullable.
type User struct {
	ID                  string   `db:"id" json:"id"`
	Role                UserRole `db:"role" json:"role"`
	Name                string   `db:"name" json:"name"`
	LoginID             string   `db:"user_id" json:"userId"`
	School              string   `db:"school" json:"school"`
	EducationOfficeCode string   `db:"education_office_code" json:"educationOfficeCode"`
	SchoolCode          string   `db:"school_code" json:"schoolCode"`
	PasswordHash        string   `db:"password_hash" json:"-"`

	// Student fields.
	Grade         *int `db:"grade" json:"grade,omitempty"`
	ClassNumber   *int `db:"class_number" json:"class,omitempty"`
	StudentNumber *int `db:"student_number" json:"studentNumber,omitempty"`

	// Teacher fields.
	Subject       *string `db:"subject" json:"subject,omitempty"`
	HomeroomGrade *int    `db:"homeroom_grade" json:"homeroomGrade,omitempty"`
	HomeroomClass *int    `db:"homeroom_class" json:"homeroomClass,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// IsStudent reports whether the user holds the student role.
func (u *User) IsStudent() bool { return u != nil && u.Role == RoleStudent }

// IsTeacher reports whether the user holds the teacher role.
func (u *User) IsTeacher() bool { return u != nil && u.Role == RoleTeacher }

// HasHomeroom reports whether a teacher has a homeroom class assigned.
func (u *User) HasHomeroom() bool {
	return u.IsTeacher() && u.HomeroomGrade != nil && u.HomeroomClass != nil
}
