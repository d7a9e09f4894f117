package models

import "time"

// LogStatus is the review state of a submission.
type LogStatus string

const (
	LogStatusPending  LogStatus = "pending"
	LogStatusApproved LogStatus = "approved"
	LogStatusRejected LogStatus = "rejected"
)

// MissionLog records one completion attempt. The coin delta is fixed at
// creation and never recomputed; review changes only the status and its
// ledger side effects.
type MissionLog struct {
	ID              string      `db:"id" json:"id"`
	StudentID       string      `db:"student_id" json:"studentId"`
	MissionID       *string     `db:"mission_id" json:"missionId,omitempty"`
	SchoolClassID   string      `db:"school_class_id" json:"schoolClassId"`
	ReviewedBy      *string     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	MissionType     MissionType `db:"mission_type" json:"missionType"`
	CoinDelta       float64     `db:"coin_delta" json:"coinDelta"`
	Date            string      `db:"date" json:"date"`
	Status          LogStatus   `db:"status" json:"status"`
	ApprovedAt      *time.Time  `db:"approved_at" json:"approvedAt,omitempty"`
	RejectionReason *string     `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// ClassDailyMission is the idempotency guard for the once-per-day class
// bonus: unique per (classroom, date), bonus_awarded flips false→true once.
type ClassDailyMission struct {
	ID            string    `db:"id" json:"id"`
	SchoolClassID string    `db:"school_class_id" json:"schoolClassId"`
	Date          string    `db:"date" json:"date"`
	BonusAwarded  bool      `db:"bonus_awarded" json:"bonusAwarded"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}
