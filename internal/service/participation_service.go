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
	ErrInvalidCodeFormat = errors.New("format de code invalide")
	ErrCodeNotFound      = errors.New("code introuvable")
	ErrCodeAlreadyUsed   = errors.New("ce code a déjà été utilisé")
	ErrGainOutOfStock    = errors.New("ce lot n'est plus disponible")
	ErrDailyLimitReached = errors.New("vous avez déjà participé aujourd'hui")
)

// ParticipationService handles code redemption.
type ParticipationService interface {
	// Redeem validates a printed code and, on success, atomically marks it
	// used, decrements the gain stock and records the participation.
	// Every committed redemption is a win.
	Redeem(ctx context.Context, userID string, req *dto.ValidateCodeRequest, ip, userAgent string) (*dto.RedeemResponse, error)
	History(ctx context.Context, userID string) ([]dto.ParticipationResponse, error)
}

type participationService struct {
	repo   *repository.Repository
	loc    *time.Location
	mail   Mailer
	logger *zap.Logger
}

// NewParticipationService builds the ParticipationService.
func NewParticipationService(repo *repository.Repository, loc *time.Location, mail Mailer, logger *zap.Logger) ParticipationService {
	return &participationService{
		repo:   repo,
		loc:    loc,
		mail:   mail,
		logger: logger,
	}
}

func (s *participationService) Redeem(ctx context.Context, userID string, req *dto.ValidateCodeRequest, ip, userAgent string) (*dto.RedeemResponse, error) {
	codeStr := strings.ToUpper(strings.TrimSpace(req.Code))

	// 1. format
	if !model.ValidCodeFormat(codeStr) {
		return nil, ErrInvalidCodeFormat
	}

	// 2-4. pre-checks outside the transaction: existence, unused, stock.
	// All four are re-verified inside the transaction; these reads only
	// give the common failure cases a cheap answer.
	code, err := s.repo.Code.GetByCode(ctx, codeStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		s.logger.Error("looking up code", zap.Error(err))
		return nil, err
	}
	if code.IsUsed {
		return nil, ErrCodeAlreadyUsed
	}
	if code.Gain == nil {
		s.logger.Error("code without gain", zap.String("code_id", code.CodeID))
		return nil, gorm.ErrRecordNotFound
	}
	if code.Gain.RemainingQuantity <= 0 {
		return nil, ErrGainOutOfStock
	}

	// 5. daily limit (local midnight boundary in the campaign timezone)
	now := time.Now()
	day := model.DayOf(now, s.loc)
	exists, err := s.repo.Participation.ExistsForUserOnDay(ctx, userID, day)
	if err != nil {
		s.logger.Error("checking daily limit", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrDailyLimitReached
	}

	gain := code.Gain
	var participation *model.Participation

	// The write path: one transaction, all three writes or none. The row
	// lock on the code serializes concurrent redemptions of the same code;
	// the unique (user_id, participation_day) index closes the race two
	// concurrent requests from the same user would otherwise win together.
	err = s.repo.WithTx(ctx, func(txRepo *repository.Repository) error {
		locked, err := txRepo.Code.GetByCodeForUpdate(ctx, codeStr)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return err
		}
		if locked.IsUsed {
			return ErrCodeAlreadyUsed
		}

		rows, err := txRepo.Gain.DecrementStock(ctx, locked.GainID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrGainOutOfStock
		}

		if err := txRepo.Code.MarkUsed(ctx, locked.CodeID); err != nil {
			return err
		}

		participation = &model.Participation{
			UserID:            userID,
			CodeID:            locked.CodeID,
			GainID:            locked.GainID,
			ParticipationDate: now,
			ParticipationDay:  day,
			IPAddress:         ip,
			UserAgent:         userAgent,
		}
		if err := txRepo.Participation.Create(ctx, participation); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDailyLimitReached
			}
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCodeNotFound),
			errors.Is(err, ErrCodeAlreadyUsed),
			errors.Is(err, ErrGainOutOfStock),
			errors.Is(err, ErrDailyLimitReached):
			return nil, err
		default:
			s.logger.Error("redemption transaction failed", zap.Error(err))
			return nil, err
		}
	}

	// Confirmation email after commit. A failed send never undoes a
	// committed participation.
	s.sendConfirmation(userID, gain.Name)

	return &dto.RedeemResponse{
		Success:  true,
		IsWinner: true,
		Gain: dto.GainResponse{
			ID:          gain.GainID,
			Name:        gain.Name,
			Value:       gain.Value,
			Description: gain.Description,
		},
		Participation: dto.ParticipationResponse{
			ID:                participation.ParticipationID,
			Code:              codeStr,
			ParticipationDate: now.Format(time.RFC3339),
			IsClaimed:         false,
		},
	}, nil
}

func (s *participationService) sendConfirmation(userID, gainName string) {
	if s.mail == nil {
		return
	}
	// Detached from the request: the HTTP response must not wait for SMTP.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.repo.User.GetByID(ctx, userID)
		if err != nil {
			s.logger.Warn("loading user for confirmation email", zap.Error(err))
			return
		}
		if err := s.mail.SendParticipationEmail(user.Email, user.Name, gainName); err != nil {
			s.logger.Warn("sending confirmation email", zap.Error(err))
		}
	}()
}

func (s *participationService) History(ctx context.Context, userID string) ([]dto.ParticipationResponse, error) {
	participations, err := s.repo.Participation.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("listing participations", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ParticipationResponse, 0, len(participations))
	for i := range participations {
		result = append(result, toParticipationResponse(&participations[i]))
	}
	return result, nil
}

// toParticipationResponse maps a model row to its public view.
func toParticipationResponse(p *model.Participation) dto.ParticipationResponse {
	resp := dto.ParticipationResponse{
		ID:                p.ParticipationID,
		ParticipationDate: p.ParticipationDate.Format(time.RFC3339),
		IsClaimed:         p.IsClaimed,
	}
	if p.ClaimedAt != nil {
		resp.ClaimedAt = p.ClaimedAt.Format(time.RFC3339)
	}
	if p.Code != nil {
		resp.Code = p.Code.Code
	}
	if p.Gain != nil {
		resp.Gain = &dto.GainResponse{
			ID:          p.Gain.GainID,
			Name:        p.Gain.Name,
			Value:       p.Gain.Value,
			Description: p.Gain.Description,
		}
	}
	if p.User != nil {
		resp.User = &dto.UserResponse{
			ID:            p.User.UserID,
			Name:          p.User.Name,
			Email:         p.User.Email,
			Role:          p.User.Role.String(),
			EmailVerified: p.User.EmailVerified,
		}
	}
	return resp
}
