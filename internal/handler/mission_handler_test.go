package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/somang-dev/classcoin-api/internal/dto"
	"github.com/somang-dev/classcoin-api/internal/middleware"
	"github.com/somang-dev/classcoin-api/internal/models"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
)

type fakeMissionWorkflow struct {
	submitResp *dto.SubmitMissionResponse
	submitErr  error
	reviewResp *dto.ReviewSubmissionResponse
	reviewErr  error
	pending    []dto.PendingSubmissionItem
	pendingErr error
	lastSubmit struct {
		studentID string
		req       dto.SubmitMissionRequest
	}
	lastReview struct {
		teacherID string
		logID     string
	}
}

func (f *fakeMissionWorkflow) Submit(_ context.Context, studentID string, req dto.SubmitMissionRequest) (*dto.SubmitMissionResponse, error) {
	f.lastSubmit.studentID = studentID
	f.lastSubmit.req = req
	return f.submitResp, f.submitErr
}

func (f *fakeMissionWorkflow) Review(_ context.Context, teacherID, logID string, req dto.ReviewSubmissionRequest) (*dto.ReviewSubmissionResponse, error) {
	f.lastReview.teacherID = teacherID
	f.lastReview.logID = logID
	return f.reviewResp, f.reviewErr
}

func (f *fakeMissionWorkflow) ListPending(context.Context, string) ([]dto.PendingSubmissionItem, error) {
	return f.pending, f.pendingErr
}

type fakeMissionCatalog struct {
	daily     []dto.DailyMissionItem
	emergency []dto.EmergencyMissionItem
	created   *dto.EmergencyMissionItem
	createErr error
}

func (f *fakeMissionCatalog) DailyMissions(context.Context) ([]dto.DailyMissionItem, error) {
	return f.daily, nil
}

func (f *fakeMissionCatalog) CreateEmergency(context.Context, string, dto.CreateEmergencyMissionRequest) (*dto.EmergencyMissionItem, error) {
	return f.created, f.createErr
}

func (f *fakeMissionCatalog) ListEmergency(context.Context, string) ([]dto.EmergencyMissionItem, error) {
	return f.emergency, nil
}

func TestMissionHandlerSubmitSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	workflow := &fakeMissionWorkflow{
		submitResp: &dto.SubmitMissionResponse{
			CoinDelta: 0.5,
			TotalCoin: 1.5,
			Level:     0,
			Image:     "/static/images/1.svg",
			Status:    models.LogStatusApproved,
			LogID:     "log-1",
		},
	}
	handler := NewMissionHandler(workflow, &fakeMissionCatalog{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	body := `{"missionId":"mission-1","missionType":"regular"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/missions/complete", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "student-1", workflow.lastSubmit.studentID)
	assert.Equal(t, "mission-1", workflow.lastSubmit.req.MissionID)

	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, 0.5, envelope.Data["coinDelta"])
	assert.Equal(t, "log-1", envelope.Data["logId"])
}

func TestMissionHandlerSubmitRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMissionHandler(&fakeMissionWorkflow{}, &fakeMissionCatalog{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/missions/complete", strings.NewReader("{"))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1"})

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissionHandlerSubmitWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMissionHandler(&fakeMissionWorkflow{}, &fakeMissionCatalog{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/missions/complete", strings.NewReader(`{}`))

	handler.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMissionHandlerReviewRequiresLogID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewMissionHandler(&fakeMissionWorkflow{}, &fakeMissionCatalog{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/missions//review", strings.NewReader(`{"approved":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Review(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissionHandlerReviewSurfacesConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	workflow := &fakeMissionWorkflow{
		reviewErr: appErrors.Clone(appErrors.ErrConflict, "submission already reviewed"),
	}
	handler := NewMissionHandler(workflow, &fakeMissionCatalog{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/missions/log-1/review", strings.NewReader(`{"approved":true}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "logId", Value: "log-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})

	handler.Review(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "log-1", workflow.lastReview.logID)
}

func TestMissionHandlerDaily(t *testing.T) {
	gin.SetMode(gin.TestMode)
	catalog := &fakeMissionCatalog{daily: []dto.DailyMissionItem{
		{ID: "mission-1", Title: "인사하기", Description: "밝게 인사하기"},
		{ID: "mission-2", Title: "일찍등교", Description: "지각하지 않기"},
	}}
	handler := NewMissionHandler(&fakeMissionWorkflow{}, catalog)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/missions/daily", nil)

	handler.Daily(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope listEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Len(t, envelope.Data, 2)
}

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

type listEnvelope struct {
	Data []map[string]interface{} `json:"data"`
}
