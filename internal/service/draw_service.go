package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
)

var ErrNoParticipants = errors.New("aucun participant éligible au tirage")

// DrawService runs the single final draw of the campaign.
type DrawService interface {
	// ConductDraw picks one winner among all distinct participating users.
	// Idempotent: once drawn, every later call returns the stored result.
	ConductDraw(ctx context.Context, adminID string) (*dto.DrawResponse, error)
	Status(ctx context.Context) (*dto.DrawResponse, error)
}

type drawService struct {
	repo     *repository.Repository
	campaign string
	logger   *zap.Logger
}

// NewDrawService builds the DrawService.
func NewDrawService(repo *repository.Repository, campaign string, logger *zap.Logger) DrawService {
	return &drawService{repo: repo, campaign: campaign, logger: logger}
}

func (s *drawService) ConductDraw(ctx context.Context, adminID string) (*dto.DrawResponse, error) {
	// already drawn?
	if existing, err := s.repo.Draw.Get(ctx, s.campaign); err == nil {
		return s.toResponse(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("reading draw result", zap.Error(err))
		return nil, err
	}

	// Fairness: one entry per person, however many participations they have.
	userIDs, err := s.repo.Participation.DistinctUserIDs(ctx)
	if err != nil {
		s.logger.Error("listing eligible users", zap.Error(err))
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, ErrNoParticipants
	}

	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(userIDs))))
	if err != nil {
		return nil, fmt.Errorf("drawing winner: %w", err)
	}
	winnerID := userIDs[idx.Int64()]

	result := &model.DrawResult{
		Campaign:         s.campaign,
		WinnerUserID:     winnerID,
		ParticipantCount: int64(len(userIDs)),
		DrawnAt:          time.Now(),
		DrawnBy:          &adminID,
	}
	if err := s.repo.Draw.Create(ctx, result); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race to a concurrent draw: return the stored winner
			stored, err := s.repo.Draw.Get(ctx, s.campaign)
			if err != nil {
				return nil, err
			}
			return s.toResponse(ctx, stored)
		}
		s.logger.Error("storing draw result", zap.Error(err))
		return nil, err
	}

	s.logger.Info("grand draw completed",
		zap.String("winner_user_id", winnerID),
		zap.Int("participants", len(userIDs)),
	)

	return s.toResponse(ctx, result)
}

func (s *drawService) Status(ctx context.Context) (*dto.DrawResponse, error) {
	result, err := s.repo.Draw.Get(ctx, s.campaign)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &dto.DrawResponse{Drawn: false}, nil
		}
		s.logger.Error("reading draw result", zap.Error(err))
		return nil, err
	}
	return s.toResponse(ctx, result)
}

func (s *drawService) toResponse(ctx context.Context, result *model.DrawResult) (*dto.DrawResponse, error) {
	winner := result.Winner
	if winner == nil {
		u, err := s.repo.User.GetByID(ctx, result.WinnerUserID)
		if err != nil {
			s.logger.Error("loading draw winner", zap.Error(err))
			return nil, err
		}
		winner = u
	}

	return &dto.DrawResponse{
		Drawn: true,
		Winner: &dto.UserResponse{
			ID:            winner.UserID,
			Name:          winner.Name,
			Email:         winner.Email,
			Role:          winner.Role.String(),
			EmailVerified: winner.EmailVerified,
		},
		ParticipantCount: result.ParticipantCount,
		DrawnAt:          result.DrawnAt.Format(time.RFC3339),
	}, nil
}
