package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/service"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the campaign administration endpoints.
type AdminHandler struct {
	adminSvc service.AdminService
	drawSvc  service.DrawService
}

// NewAdminHandler builds the AdminHandler.
func NewAdminHandler(adminSvc service.AdminService, drawSvc service.DrawService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, drawSvc: drawSvc}
}

// Stats returns the campaign dashboard.
// GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	result, err := h.adminSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ListUsers pages through accounts, optionally filtered on role.
// GET /api/v1/admin/users?role=client&page=1&page_size=20
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, total, err := h.adminSvc.ListUsers(c.Request.Context(), c.Query("role"), page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRoleFilter) {
			response.BadRequest(c, 14001, "Rôle inconnu")
			return
		}
		response.InternalError(c)
		return
	}

	response.OKPage(c, result, total, page, pageSize)
}

// ListParticipations pages through all participations.
// GET /api/v1/admin/participations?page=1&page_size=20
func (h *AdminHandler) ListParticipations(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, total, err := h.adminSvc.ListParticipations(c.Request.Context(), page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, result, total, page, pageSize)
}

// CreateGain registers a prize type.
// POST /api/v1/admin/gains
func (h *AdminHandler) CreateGain(c *gin.Context) {
	var req dto.CreateGainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.adminSvc.CreateGain(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// ListGains lists all prize types.
// GET /api/v1/admin/gains
func (h *AdminHandler) ListGains(c *gin.Context) {
	result, err := h.adminSvc.ListGains(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// GenerateCodes bulk-creates redemption codes for a gain.
// POST /api/v1/admin/codes/generate
func (h *AdminHandler) GenerateCodes(c *gin.Context) {
	var req dto.GenerateCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.adminSvc.GenerateCodes(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrGainNotFound) {
			response.NotFound(c, 14002, "Lot introuvable")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// ConductDraw runs the grand draw. Safe to call more than once: after the
// first draw the stored result comes back.
// POST /api/v1/admin/draw
func (h *AdminHandler) ConductDraw(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.drawSvc.ConductDraw(c.Request.Context(), adminID)
	if err != nil {
		if errors.Is(err, service.ErrNoParticipants) {
			response.Conflict(c, 14003, "Aucun participant éligible au tirage")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// DrawStatus reports whether the grand draw happened and who won.
// GET /api/v1/admin/draw
func (h *AdminHandler) DrawStatus(c *gin.Context) {
	result, err := h.drawSvc.Status(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ExportEmails downloads the verified-customer email list as CSV.
// GET /api/v1/admin/export/emails
func (h *AdminHandler) ExportEmails(c *gin.Context) {
	buf, filename, err := h.adminSvc.ExportEmails(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	writeAttachmentHeaders(c, filename, "text/csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportParticipations downloads all participations as an Excel workbook.
// GET /api/v1/admin/export/participations
func (h *AdminHandler) ExportParticipations(c *gin.Context) {
	buf, filename, err := h.adminSvc.ExportParticipations(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	writeAttachmentHeaders(c, filename, xlsxContentType)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func writeAttachmentHeaders(c *gin.Context, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)
}
