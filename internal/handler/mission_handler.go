package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somang-dev/classcoin-api/internal/dto"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
	"github.com/somang-dev/classcoin-api/pkg/response"
)

type missionWorkflow interface {
	Submit(ctx context.Context, studentID string, req dto.SubmitMissionRequest) (*dto.SubmitMissionResponse, error)
	Review(ctx context.Context, teacherID, logID string, req dto.ReviewSubmissionRequest) (*dto.ReviewSubmissionResponse, error)
	ListPending(ctx context.Context, teacherID string) ([]dto.PendingSubmissionItem, error)
}

type missionCatalog interface {
	DailyMissions(ctx context.Context) ([]dto.DailyMissionItem, error)
	CreateEmergency(ctx context.Context, teacherID string, req dto.CreateEmergencyMissionRequest) (*dto.EmergencyMissionItem, error)
	ListEmergency(ctx context.Context, principalID string) ([]dto.EmergencyMissionItem, error)
}

// MissionHandler wires HTTP endpoints to the mission and catalog services.
type MissionHandler struct {
	missions missionWorkflow
	catalog  missionCatalog
}

// NewMissionHandler creates a new handler.
func NewMissionHandler(missions missionWorkflow, catalog missionCatalog) *MissionHandler {
	return &MissionHandler{missions: missions, catalog: catalog}
}

// Submit godoc
// @Summary Submit a mission completion
// @Description Regular missions are credited immediately under the daily cap; emergency missions await teacher review
// @Tags Missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SubmitMissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /missions/complete [post]
func (h *MissionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid mission submission payload"))
		return
	}

	res, err := h.missions.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// Daily godoc
// @Summary Today's regular mission pick
// @Tags Missions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /missions/daily [get]
func (h *MissionHandler) Daily(c *gin.Context) {
	items, err := h.catalog.DailyMissions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items)
}

// ListEmergency godoc
// @Summary List emergency missions visible to the caller
// @Tags Missions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /missions/emergency [get]
func (h *MissionHandler) ListEmergency(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.catalog.ListEmergency(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items)
}

// CreateEmergency godoc
// @Summary Create an emergency mission
// @Tags Missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateEmergencyMissionRequest true "Mission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /missions/emergency [post]
func (h *MissionHandler) CreateEmergency(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateEmergencyMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid emergency mission payload"))
		return
	}

	res, err := h.catalog.CreateEmergency(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, res)
}

// ListPending godoc
// @Summary List submissions awaiting review
// @Tags Missions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /missions/pending [get]
func (h *MissionHandler) ListPending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, err := h.missions.ListPending(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items)
}

// Review godoc
// @Summary Approve or reject a pending submission
// @Tags Missions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param logId path string true "Submission log id"
// @Param payload body dto.ReviewSubmissionRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /missions/{logId}/review [post]
func (h *MissionHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	logID := c.Param("logId")
	if logID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "logId is required"))
		return
	}

	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	res, err := h.missions.Review(c.Request.Context(), claims.UserID, logID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
