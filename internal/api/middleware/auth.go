package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/jwt"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/response"
)

// Context keys set by JWTAuth.
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxTokenJTI     = "token_jti"
	CtxTokenExpires = "token_expires"
)

// JWTAuth extracts and verifies the access token from
// Authorization: Bearer <token>. Revoked tokens are rejected through the
// Redis blacklist; with rdb nil the blacklist check is skipped.
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Authentification requise")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "En-tête d'authentification invalide")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token invalide ou expiré")
			c.Abort()
			return
		}
		if claims.TokenType != jwt.TypeAccess {
			response.Unauthorized(c, 10002, "Type de token invalide")
			c.Abort()
			return
		}

		role, err := model.ParseRole(claims.Role)
		if err != nil {
			response.Unauthorized(c, 10002, "Token invalide ou expiré")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Session expirée, veuillez vous reconnecter")
				c.Abort()
				return
			}
			// a Redis error degrades to signature-only verification
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, role)
		c.Set(CtxTokenJTI, claims.ID)
		c.Set(CtxTokenExpires, claims.ExpiresAt.Time)

		c.Next()
	}
}

// RoleAuth allows the request through when the authenticated role is one
// of allowedRoles. Roles are compared as model.Role values, never as raw
// strings.
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, 10002, "Authentification requise")
			c.Abort()
			return
		}

		role, ok := value.(model.Role)
		if !ok {
			response.Unauthorized(c, 10002, "Authentification requise")
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "Accès non autorisé")
		c.Abort()
	}
}
