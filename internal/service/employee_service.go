package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
)

var (
	ErrParticipationNotFound = errors.New("participation introuvable")
	ErrAlreadyClaimed        = errors.New("ce lot a déjà été remis")
)

// EmployeeService is the in-store back office: handing prizes over.
type EmployeeService interface {
	// ClaimPrize marks a participation claimed, exactly once.
	ClaimPrize(ctx context.Context, participationID, employeeID string) (*dto.ParticipationResponse, error)
	// FindByCode resolves a participation from the printed code on the receipt.
	FindByCode(ctx context.Context, code string) (*dto.ParticipationResponse, error)
	ListPrizes(ctx context.Context, claimed bool, page, pageSize int) ([]dto.ParticipationResponse, int64, error)
	Stats(ctx context.Context) (*dto.EmployeeStatsResponse, error)
}

type employeeService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewEmployeeService builds the EmployeeService.
func NewEmployeeService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, loc: loc, logger: logger}
}

func (s *employeeService) ClaimPrize(ctx context.Context, participationID, employeeID string) (*dto.ParticipationResponse, error) {
	// The guarded update (WHERE is_claimed = false) is the idempotency
	// barrier; claimed_at is never rewritten.
	rows, err := s.repo.Participation.Claim(ctx, participationID, employeeID, time.Now())
	if err != nil {
		s.logger.Error("claiming prize", zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		// either absent or already claimed: disambiguate for the caller
		if _, err := s.repo.Participation.GetByID(ctx, participationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParticipationNotFound
			}
			return nil, err
		}
		return nil, ErrAlreadyClaimed
	}

	p, err := s.repo.Participation.GetByID(ctx, participationID)
	if err != nil {
		s.logger.Error("reloading claimed participation", zap.Error(err))
		return nil, err
	}

	resp := toParticipationResponse(p)
	return &resp, nil
}

func (s *employeeService) FindByCode(ctx context.Context, code string) (*dto.ParticipationResponse, error) {
	codeStr := strings.ToUpper(strings.TrimSpace(code))
	if !model.ValidCodeFormat(codeStr) {
		return nil, ErrInvalidCodeFormat
	}

	p, err := s.repo.Participation.GetByCode(ctx, codeStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipationNotFound
		}
		s.logger.Error("looking up participation by code", zap.Error(err))
		return nil, err
	}

	resp := toParticipationResponse(p)
	return &resp, nil
}

func (s *employeeService) ListPrizes(ctx context.Context, claimed bool, page, pageSize int) ([]dto.ParticipationResponse, int64, error) {
	offset := (page - 1) * pageSize
	participations, total, err := s.repo.Participation.ListByClaimed(ctx, claimed, offset, pageSize)
	if err != nil {
		s.logger.Error("listing prizes", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ParticipationResponse, 0, len(participations))
	for i := range participations {
		result = append(result, toParticipationResponse(&participations[i]))
	}
	return result, total, nil
}

func (s *employeeService) Stats(ctx context.Context) (*dto.EmployeeStatsResponse, error) {
	total, err := s.repo.Participation.Count(ctx)
	if err != nil {
		return nil, err
	}
	claimed, err := s.repo.Participation.CountClaimed(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.Participation.CountClaimedOnDay(ctx, model.DayOf(time.Now(), s.loc))
	if err != nil {
		return nil, err
	}

	return &dto.EmployeeStatsResponse{
		TotalParticipations: total,
		ClaimedPrizes:       claimed,
		UnclaimedPrizes:     total - claimed,
		ClaimedToday:        today,
	}, nil
}
