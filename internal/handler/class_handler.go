package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somang-dev/classcoin-api/internal/dto"
	appErrors "github.com/somang-dev/classcoin-api/pkg/errors"
	"github.com/somang-dev/classcoin-api/pkg/response"
)

type classService interface {
	GetCharacter(ctx context.Context, principalID string, q dto.ClassCharacterQuery) (*dto.ClassCharacterResponse, error)
	IncrementCoin(ctx context.Context, teacherID string, req dto.IncrementCoinRequest) (*dto.ClassCoinResponse, error)
}

// ClassHandler wires HTTP endpoints to the class service.
type ClassHandler struct {
	service classService
}

// NewClassHandler creates a new handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Character godoc
// @Summary Resolve the classroom character
// @Description Maps the classroom coin balance onto its level and image; the tuple defaults from the caller's class or homeroom
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param educationOfficeCode query string false "Education office code override"
// @Param schoolCode query string false "School code override"
// @Param grade query int false "Grade override"
// @Param classNumber query int false "Class number override"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/character [get]
func (h *ClassHandler) Character(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var q dto.ClassCharacterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid character query"))
		return
	}

	res, err := h.service.GetCharacter(c.Request.Context(), claims.UserID, q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

// IncrementCoin godoc
// @Summary Manually credit a classroom
// @Tags Classes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.IncrementCoinRequest true "Credit payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/coin [patch]
func (h *ClassHandler) IncrementCoin(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.IncrementCoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid coin increment payload"))
		return
	}

	res, err := h.service.IncrementCoin(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
