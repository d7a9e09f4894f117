package dto

import (
	"time"

	"github.com/somang-dev/classcoin-api/internal/models"
)

// SubmitMissionRequest reports a mission completion by a student.
type SubmitMissionRequest struct {
	MissionID   string             `json:"missionId" validate:"required"`
	MissionType models.MissionType `json:"missionType" validate:"required,oneof=regular emergency"`
	// Date is an 8-digit YYYYMMDD key; defaults to today when omitted.
	Date string `json:"date,omitempty"`
}

// SubmitMissionResponse echoes the economic outcome of a submission.
type SubmitMissionResponse struct {
	CoinDelta        float64          `json:"coinDelta"`
	TotalCoin        float64          `json:"totalCoin"`
	Level            int              `json:"level"`
	Image            string           `json:"image"`
	DailyRegularCoin float64          `json:"dailyRegularCoin"`
	BonusGranted     bool             `json:"bonusGranted"`
	Status           models.LogStatus `json:"status"`
	LogID            string           `json:"logId"`
}

// DailyMissionItem is one of today's randomly picked regular missions.
type DailyMissionItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ClassInfo identifies the classroom an emergency mission is scoped to.
type ClassInfo struct {
	Grade       int `json:"grade"`
	ClassNumber int `json:"classNumber"`
}

// EmergencyMissionItem describes a teacher-issued mission.
type EmergencyMissionItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	ClassInfo   *ClassInfo `json:"classInfo"`
}

// CreateEmergencyMissionRequest registers a new emergency mission. Grade and
// class number default to the teacher's homeroom when omitted.
type CreateEmergencyMissionRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Grade       *int       `json:"grade,omitempty"`
	ClassNumber *int       `json:"classNumber,omitempty"`
}

// PendingStudent summarises the submitting student in review listings.
type PendingStudent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// PendingMission summarises the underlying mission, when it still exists.
type PendingMission struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PendingSubmissionItem is one reviewable submission for a teacher.
type PendingSubmissionItem struct {
	LogID       string             `json:"logId"`
	Student     PendingStudent     `json:"student"`
	Mission     *PendingMission    `json:"mission"`
	MissionType models.MissionType `json:"missionType"`
	CoinDelta   float64            `json:"coinDelta"`
	Date        string             `json:"date"`
	SubmittedAt time.Time          `json:"submittedAt"`
}

// Review actions.
const (
	ReviewActionApprove = "approve"
	ReviewActionReject  = "reject"
)

// ReviewSubmissionRequest decides a pending submission.
type ReviewSubmissionRequest struct {
	Action          string  `json:"action" validate:"required,oneof=approve reject"`
	RejectionReason *string `json:"rejectionReason,omitempty"`
}

// ReviewSubmissionResponse reports the review outcome and ledger effects.
type ReviewSubmissionResponse struct {
	Status          models.LogStatus `json:"status"`
	CoinDelta       float64          `json:"coinDelta"`
	TotalCoin       float64          `json:"totalCoin"`
	Level           int              `json:"level"`
	Image           string           `json:"image"`
	BonusGranted    bool             `json:"bonusGranted"`
	RejectionReason *string          `json:"rejectionReason"`
}
