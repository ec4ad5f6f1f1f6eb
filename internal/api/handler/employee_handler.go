package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/service"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// EmployeeHandler serves the in-store back office endpoints.
type EmployeeHandler struct {
	employeeSvc service.EmployeeService
}

// NewEmployeeHandler builds the EmployeeHandler.
func NewEmployeeHandler(employeeSvc service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeSvc: employeeSvc}
}

// Claim marks a participation's prize as handed over.
// POST /api/v1/employee/participations/:id/claim
func (h *EmployeeHandler) Claim(c *gin.Context) {
	employeeID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.employeeSvc.ClaimPrize(c.Request.Context(), c.Param("id"), employeeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrParticipationNotFound):
			response.NotFound(c, 13001, "Participation introuvable")
		case errors.Is(err, service.ErrAlreadyClaimed):
			response.Conflict(c, 13002, "Ce lot a déjà été remis")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// FindByCode resolves a participation from the code on the receipt.
// GET /api/v1/employee/participations/code/:code
func (h *EmployeeHandler) FindByCode(c *gin.Context) {
	result, err := h.employeeSvc.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCodeFormat):
			response.BadRequest(c, 12001, "Format de code invalide")
		case errors.Is(err, service.ErrParticipationNotFound):
			response.NotFound(c, 13001, "Participation introuvable")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// ListPrizes pages through participations, filtered on claimed state.
// GET /api/v1/employee/participations?claimed=false&page=1&page_size=20
func (h *EmployeeHandler) ListPrizes(c *gin.Context) {
	claimed, err := strconv.ParseBool(c.DefaultQuery("claimed", "false"))
	if err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}
	page, pageSize := pageParams(c)

	result, total, err := h.employeeSvc.ListPrizes(c.Request.Context(), claimed, page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, result, total, page, pageSize)
}

// Stats returns the hand-over counters for the store dashboard.
// GET /api/v1/employee/stats
func (h *EmployeeHandler) Stats(c *gin.Context) {
	result, err := h.employeeSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// pageParams reads page/page_size query values with sane bounds.
func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
