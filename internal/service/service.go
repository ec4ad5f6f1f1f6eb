package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/MohaDjm/the-tip-top-sub000/config"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/jwt"
)

// CacheStore is the slice of the Redis client the services depend on.
// Implemented by *redis.Client; replaced by an in-memory store in tests.
type CacheStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	StoreSession(ctx context.Context, jti, userID string, ttl time.Duration) error
	SessionExists(ctx context.Context, jti string) (bool, error)
	DeleteSession(ctx context.Context, jti, userID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	StoreToken(ctx context.Context, kind, token, userID string, ttl time.Duration) error
	ConsumeToken(ctx context.Context, kind, token string) (string, error)
}

// Mailer is the outbound email dependency. Implemented by *mailer.Mailer.
type Mailer interface {
	SendVerificationEmail(to, name, token string) error
	SendPasswordResetEmail(to, name, token string) error
	SendParticipationEmail(to, name, gainName string) error
}

// Service aggregates all business services.
type Service struct {
	Auth          AuthService
	Participation ParticipationService
	Employee      EmployeeService
	Draw          DrawService
	Admin         AdminService
}

// NewService wires the service aggregate.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache CacheStore,
	mail Mailer,
	logger *zap.Logger,
) *Service {
	loc, err := cfg.Campaign.Location()
	if err != nil {
		// config.Load rejects an invalid timezone, so this only happens
		// with a hand-built Config
		loc = time.UTC
	}

	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, cache, mail, logger),
		Participation: NewParticipationService(repo, loc, mail, logger),
		Employee:      NewEmployeeService(repo, loc, logger),
		Draw:          NewDrawService(repo, cfg.Campaign.Name, logger),
		Admin:         NewAdminService(repo, logger),
	}
}
