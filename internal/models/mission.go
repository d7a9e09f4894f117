package models

import "time"

// MissionType discriminates the two submission flows.
type MissionType string

const (
	MissionRegular   MissionType = "regular"
	MissionEmergency MissionType = "emergency"
)

// Mission is a task definition. Regular missions are system-seeded and
// classroom-unscoped; emergency missions are teacher-authored, deadline
// bearing and optionally scoped to one classroom.
type Mission struct {
	ID            string     `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	IsEmergency   bool       `db:"is_emergency" json:"isEmergency"`
	Deadline      *time.Time `db:"deadline" json:"deadline,omitempty"`
	TeacherID     *string    `db:"teacher_id" json:"teacherId,omitempty"`
	SchoolClassID *string    `db:"school_class_id" json:"schoolClassId,omitempty"`

	// Populated by list queries joining the scoped classroom.
	ClassGrade  *int `db:"class_grade" json:"-"`
	ClassNumber *int `db:"class_number" json:"-"`
}

// StudentMission counts approved completions per (student, mission) pair.
type StudentMission struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"student_id" json:"studentId"`
	MissionID string `db:"mission_id" json:"missionId"`
	Count     int    `db:"count" json:"count"`
}
