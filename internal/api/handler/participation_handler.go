package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/service"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// ParticipationHandler serves the code redemption endpoints.
type ParticipationHandler struct {
	participationSvc service.ParticipationService
}

// NewParticipationHandler builds the ParticipationHandler.
func NewParticipationHandler(participationSvc service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participationSvc: participationSvc}
}

// Validate redeems a printed code for the authenticated client.
// POST /api/v1/participation/validate
func (h *ParticipationHandler) Validate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ValidateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "Format de code invalide")
		return
	}

	result, err := h.participationSvc.Redeem(c.Request.Context(), userID, &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCodeFormat):
			response.BadRequest(c, 12001, "Format de code invalide")
		case errors.Is(err, service.ErrCodeNotFound):
			response.NotFound(c, 12002, "Code introuvable")
		case errors.Is(err, service.ErrCodeAlreadyUsed):
			response.Conflict(c, 12003, "Ce code a déjà été utilisé")
		case errors.Is(err, service.ErrGainOutOfStock):
			response.Conflict(c, 12004, "Ce lot n'est plus disponible")
		case errors.Is(err, service.ErrDailyLimitReached):
			response.Conflict(c, 12005, "Vous avez déjà participé aujourd'hui")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// History lists the authenticated client's participations.
// GET /api/v1/participation/history
func (h *ParticipationHandler) History(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.participationSvc.History(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
