package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/api/middleware"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// MustGetUserID extracts the authenticated user ID from the Gin context.
// Returns false after writing a 401 when the auth middleware did not run;
// callers should return immediately in that case.
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", false
	}
	return s, true
}

// MustGetRole extracts the authenticated role from the Gin context.
func MustGetRole(c *gin.Context) (model.Role, bool) {
	v, exists := c.Get(middleware.CtxRole)
	if !exists {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", false
	}
	role, ok := v.(model.Role)
	if !ok {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", false
	}
	return role, true
}

// MustGetTokenInfo extracts the access token JTI and expiry, needed by
// logout to blacklist the remaining token lifetime.
func MustGetTokenInfo(c *gin.Context) (jti string, expiresAt time.Time, ok bool) {
	v, exists := c.Get(middleware.CtxTokenJTI)
	if !exists {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", time.Time{}, false
	}
	jti, okJTI := v.(string)

	v, exists = c.Get(middleware.CtxTokenExpires)
	if !exists {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", time.Time{}, false
	}
	expiresAt, okExp := v.(time.Time)

	if !okJTI || !okExp || jti == "" {
		response.Unauthorized(c, 10002, "Authentification requise")
		return "", time.Time{}, false
	}
	return jti, expiresAt, true
}
