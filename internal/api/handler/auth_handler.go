package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/service"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler builds the AuthHandler.
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register creates a client account.
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Conflict(c, 11002, "Cette adresse email est déjà utilisée")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Login authenticates with email and password.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11001, "Email ou mot de passe incorrect")
		case errors.Is(err, service.ErrEmailNotVerified):
			response.Forbidden(c, 11003, "Veuillez vérifier votre adresse email")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// RefreshToken exchanges a refresh token for a new pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrSessionExpired) {
			response.Unauthorized(c, 11004, "Session expirée, veuillez vous reconnecter")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout revokes the current access token and its refresh session.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, expiresAt, ok := MustGetTokenInfo(c)
	if !ok {
		return
	}

	// the refresh token is optional; without it only the access token dies
	var req dto.RefreshTokenRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authSvc.Logout(c.Request.Context(), jti, expiresAt, req.RefreshToken); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// VerifyEmail consumes an emailed verification link.
// GET /api/v1/auth/verify-email/:token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Param("token")

	if err := h.authSvc.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidAuthToken) {
			response.BadRequest(c, 11005, "Lien invalide ou expiré")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"verified": true})
}

// ForgotPassword starts the password reset flow. The response is the same
// whether or not the email exists.
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	if err := h.authSvc.ForgotPassword(c.Request.Context(), &req); err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"message": "Si ce compte existe, un email de réinitialisation a été envoyé"})
}

// ResetPassword completes the password reset flow.
// POST /api/v1/auth/reset-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Paramètres invalides")
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), token, &req); err != nil {
		if errors.Is(err, service.ErrInvalidAuthToken) {
			response.BadRequest(c, 11005, "Lien invalide ou expiré")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"message": "Mot de passe mis à jour"})
}

// Me returns the authenticated account.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, 10002, "Authentification requise")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
