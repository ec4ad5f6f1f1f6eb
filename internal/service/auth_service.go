package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/config"
	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/jwt"
	"github.com/MohaDjm/the-tip-top-sub000/pkg/redis"
)

var (
	ErrEmailExists        = errors.New("cette adresse email est déjà utilisée")
	ErrInvalidCredentials = errors.New("email ou mot de passe incorrect")
	ErrEmailNotVerified   = errors.New("veuillez vérifier votre adresse email")
	ErrInvalidAuthToken   = errors.New("lien invalide ou expiré")
	ErrSessionExpired     = errors.New("session expirée, veuillez vous reconnecter")
)

// AuthService handles registration, sessions and account recovery.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, accessJTI string, accessExpiry time.Time, refreshToken string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	cache  CacheStore
	mail   Mailer
	logger *zap.Logger
}

// NewAuthService builds the AuthService.
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache CacheStore,
	mail Mailer,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		cache:  cache,
		mail:   mail,
		logger: logger,
	}
}

// newOneShotToken draws an opaque single-use token for email links.
func newOneShotToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("checking email uniqueness", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleClient,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		s.logger.Error("creating user", zap.Error(err))
		return nil, err
	}

	s.sendVerificationEmail(user)

	return &dto.RegisterResponse{
		ID:    user.UserID,
		Name:  user.Name,
		Email: user.Email,
	}, nil
}

func (s *authService) sendVerificationEmail(user *model.User) {
	if s.cache == nil || s.mail == nil {
		return
	}
	token, err := newOneShotToken()
	if err != nil {
		s.logger.Error("generating verification token", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.cache.StoreToken(ctx, redis.TokenVerifyEmail, token, user.UserID, s.cfg.Auth.VerifyEmailTokenTTL); err != nil {
		s.logger.Error("storing verification token", zap.Error(err))
		return
	}

	go func() {
		if err := s.mail.SendVerificationEmail(user.Email, user.Name, token); err != nil {
			s.logger.Warn("sending verification email", zap.Error(err))
		}
	}()
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("loading user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	return s.issueTokens(ctx, user)
}

// issueTokens builds an access/refresh pair and registers the refresh
// session in the cache.
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role.String())
	if err != nil {
		s.logger.Error("generating access token", zap.Error(err))
		return nil, err
	}

	refreshToken, jti, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role.String())
	if err != nil {
		s.logger.Error("generating refresh token", zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.StoreSession(ctx, jti, user.UserID, s.jwtMgr.RefreshTokenTTL()); err != nil {
			s.logger.Error("storing session", zap.Error(err))
			return nil, err
		}
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User: dto.UserResponse{
			ID:            user.UserID,
			Name:          user.Name,
			Email:         user.Email,
			Role:          user.Role.String(),
			EmailVerified: user.EmailVerified,
		},
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TypeRefresh {
		return nil, ErrSessionExpired
	}

	// the session must still be live (logout and password reset kill it)
	if s.cache != nil {
		live, err := s.cache.SessionExists(ctx, claims.ID)
		if err != nil {
			s.logger.Error("checking session", zap.Error(err))
			return nil, err
		}
		if !live {
			return nil, ErrSessionExpired
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionExpired
		}
		s.logger.Error("loading user", zap.Error(err))
		return nil, err
	}

	// rotation: the old refresh token dies with its session
	if s.cache != nil {
		if err := s.cache.DeleteSession(ctx, claims.ID, claims.UserID); err != nil {
			s.logger.Error("deleting session", zap.Error(err))
			return nil, err
		}
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, accessJTI string, accessExpiry time.Time, refreshToken string) error {
	if s.cache == nil {
		return nil
	}

	if err := s.cache.BlacklistToken(ctx, accessJTI, time.Until(accessExpiry)); err != nil {
		s.logger.Error("blacklisting access token", zap.Error(err))
		return err
	}

	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil && claims.TokenType == jwt.TypeRefresh {
			if err := s.cache.DeleteSession(ctx, claims.ID, claims.UserID); err != nil {
				s.logger.Error("deleting session", zap.Error(err))
				return err
			}
		}
	}

	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	if s.cache == nil {
		return ErrInvalidAuthToken
	}

	userID, err := s.cache.ConsumeToken(ctx, redis.TokenVerifyEmail, token)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return ErrInvalidAuthToken
		}
		s.logger.Error("consuming verification token", zap.Error(err))
		return err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAuthToken
		}
		s.logger.Error("loading user", zap.Error(err))
		return err
	}

	if user.EmailVerified {
		return nil
	}
	user.EmailVerified = true
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("marking email verified", zap.Error(err))
		return err
	}
	return nil
}

// ForgotPassword never reveals whether the email exists: the response is
// identical either way.
func (s *authService) ForgotPassword(ctx context.Context, req *dto.ForgotPasswordRequest) error {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("loading user", zap.Error(err))
		return err
	}

	if s.cache == nil || s.mail == nil {
		return nil
	}

	token, err := newOneShotToken()
	if err != nil {
		s.logger.Error("generating reset token", zap.Error(err))
		return err
	}
	if err := s.cache.StoreToken(ctx, redis.TokenPasswordReset, token, user.UserID, s.cfg.Auth.PasswordResetTokenTTL); err != nil {
		s.logger.Error("storing reset token", zap.Error(err))
		return err
	}

	go func() {
		if err := s.mail.SendPasswordResetEmail(user.Email, user.Name, token); err != nil {
			s.logger.Warn("sending reset email", zap.Error(err))
		}
	}()

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, req *dto.ResetPasswordRequest) error {
	if s.cache == nil {
		return ErrInvalidAuthToken
	}

	userID, err := s.cache.ConsumeToken(ctx, redis.TokenPasswordReset, token)
	if err != nil {
		if errors.Is(err, redis.ErrTokenNotFound) {
			return ErrInvalidAuthToken
		}
		s.logger.Error("consuming reset token", zap.Error(err))
		return err
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAuthToken
		}
		s.logger.Error("loading user", zap.Error(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("updating password", zap.Error(err))
		return err
	}

	// every live session dies with the old password
	if err := s.cache.DeleteUserSessions(ctx, user.UserID); err != nil {
		s.logger.Warn("invalidating sessions", zap.Error(err))
	}

	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("loading user", zap.Error(err))
		return nil, err
	}

	return &dto.UserResponse{
		ID:            user.UserID,
		Name:          user.Name,
		Email:         user.Email,
		Role:          user.Role.String(),
		EmailVerified: user.EmailVerified,
	}, nil
}
