package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MohaDjm/the-tip-top-sub000/config"
	"github.com/MohaDjm/the-tip-top-sub000/internal/api/handler"
	"github.com/MohaDjm/the-tip-top-sub000/internal/api/middleware"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/jwt"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
)

// Setup builds the Gin engine with all routes wired.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── health check ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// authentication, no token required
		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(rdb, 5, time.Minute), h.Auth.Register)
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.GET("/verify-email/:token", h.Auth.VerifyEmail)
			auth.POST("/forgot-password", middleware.RateLimit(rdb, 3, time.Minute), h.Auth.ForgotPassword)
			auth.POST("/reset-password/:token", h.Auth.ResetPassword)
		}

		// authenticated routes
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// client participation
			participation := authorized.Group("/participation")
			participation.Use(middleware.RoleAuth(model.RoleClient, model.RoleAdmin))
			{
				participation.POST("/validate", middleware.RateLimit(rdb, 10, time.Minute), h.Participation.Validate)
				participation.GET("/history", h.Participation.History)
			}

			// in-store back office
			employee := authorized.Group("/employee")
			employee.Use(middleware.RoleAuth(model.RoleEmployee, model.RoleAdmin))
			{
				employee.GET("/participations", h.Employee.ListPrizes)
				employee.GET("/participations/code/:code", h.Employee.FindByCode)
				employee.POST("/participations/:id/claim", h.Employee.Claim)
				employee.GET("/stats", h.Employee.Stats)
			}

			// campaign administration
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth(model.RoleAdmin))
			{
				admin.GET("/stats", h.Admin.Stats)
				admin.GET("/users", h.Admin.ListUsers)
				admin.GET("/participations", h.Admin.ListParticipations)
				admin.POST("/gains", h.Admin.CreateGain)
				admin.GET("/gains", h.Admin.ListGains)
				admin.POST("/codes/generate", h.Admin.GenerateCodes)
				admin.POST("/draw", h.Admin.ConductDraw)
				admin.GET("/draw", h.Admin.DrawStatus)
				admin.GET("/export/emails", h.Admin.ExportEmails)
				admin.GET("/export/participations", h.Admin.ExportParticipations)
			}
		}
	}

	return r
}
