package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/dto"
	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
	"github.com/MohaDjm/the-tip-top-sub000/internal/repository"
)

var ErrGainNotFound = errors.New("lot introuvable")

// AdminService is the campaign administration back office.
type AdminService interface {
	Stats(ctx context.Context) (*dto.AdminStatsResponse, error)
	ListUsers(ctx context.Context, role string, page, pageSize int) ([]dto.UserResponse, int64, error)
	ListParticipations(ctx context.Context, page, pageSize int) ([]dto.ParticipationResponse, int64, error)
	CreateGain(ctx context.Context, req *dto.CreateGainRequest) (*dto.GainResponse, error)
	ListGains(ctx context.Context) ([]dto.GainResponse, error)
	// GenerateCodes bulk-creates unique printed codes for a gain.
	GenerateCodes(ctx context.Context, req *dto.GenerateCodesRequest) (*dto.GenerateCodesResponse, error)
	// ExportEmails renders the verified-customer email list as CSV.
	ExportEmails(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportParticipations renders all participations as an Excel workbook.
	ExportParticipations(ctx context.Context) (*bytes.Buffer, string, error)
}

type adminService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAdminService builds the AdminService.
func NewAdminService(repo *repository.Repository, logger *zap.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

func (s *adminService) Stats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	totalUsers, err := s.repo.User.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalParticipations, err := s.repo.Participation.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalCodes, err := s.repo.Code.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	usedCodes, err := s.repo.Code.CountUsed(ctx)
	if err != nil {
		return nil, err
	}

	gains, err := s.repo.Gain.List(ctx)
	if err != nil {
		return nil, err
	}

	gainStats := make([]dto.GainStats, 0, len(gains))
	for i := range gains {
		g := &gains[i]
		participations, err := s.repo.Participation.CountByGain(ctx, g.GainID)
		if err != nil {
			return nil, err
		}
		claimed, err := s.repo.Participation.CountClaimedByGain(ctx, g.GainID)
		if err != nil {
			return nil, err
		}
		gainStats = append(gainStats, dto.GainStats{
			Gain:              toGainResponse(g),
			Quantity:          g.Quantity,
			RemainingQuantity: g.RemainingQuantity,
			Participations:    participations,
			Claimed:           claimed,
		})
	}

	return &dto.AdminStatsResponse{
		TotalUsers:          totalUsers,
		TotalParticipations: totalParticipations,
		TotalCodes:          totalCodes,
		UsedCodes:           usedCodes,
		Gains:               gainStats,
	}, nil
}

func (s *adminService) ListUsers(ctx context.Context, role string, page, pageSize int) ([]dto.UserResponse, int64, error) {
	var roleFilter model.Role
	if role != "" {
		parsed, err := model.ParseRole(role)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrInvalidRoleFilter, role)
		}
		roleFilter = parsed
	}

	offset := (page - 1) * pageSize
	users, total, err := s.repo.User.List(ctx, roleFilter, offset, pageSize)
	if err != nil {
		s.logger.Error("listing users", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		result = append(result, dto.UserResponse{
			ID:            u.UserID,
			Name:          u.Name,
			Email:         u.Email,
			Role:          u.Role.String(),
			EmailVerified: u.EmailVerified,
		})
	}
	return result, total, nil
}

// ErrInvalidRoleFilter rejects unknown role query values.
var ErrInvalidRoleFilter = errors.New("rôle inconnu")

func (s *adminService) ListParticipations(ctx context.Context, page, pageSize int) ([]dto.ParticipationResponse, int64, error) {
	offset := (page - 1) * pageSize
	participations, total, err := s.repo.Participation.ListAll(ctx, offset, pageSize)
	if err != nil {
		s.logger.Error("listing participations", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ParticipationResponse, 0, len(participations))
	for i := range participations {
		result = append(result, toParticipationResponse(&participations[i]))
	}
	return result, total, nil
}

func (s *adminService) CreateGain(ctx context.Context, req *dto.CreateGainRequest) (*dto.GainResponse, error) {
	gain := &model.Gain{
		Name:              req.Name,
		Value:             req.Value,
		Description:       req.Description,
		Quantity:          req.Quantity,
		RemainingQuantity: req.Quantity,
	}
	if err := s.repo.Gain.Create(ctx, gain); err != nil {
		s.logger.Error("creating gain", zap.Error(err))
		return nil, err
	}

	resp := toGainResponse(gain)
	return &resp, nil
}

func (s *adminService) ListGains(ctx context.Context) ([]dto.GainResponse, error) {
	gains, err := s.repo.Gain.List(ctx)
	if err != nil {
		s.logger.Error("listing gains", zap.Error(err))
		return nil, err
	}

	result := make([]dto.GainResponse, 0, len(gains))
	for i := range gains {
		result = append(result, toGainResponse(&gains[i]))
	}
	return result, nil
}

func (s *adminService) GenerateCodes(ctx context.Context, req *dto.GenerateCodesRequest) (*dto.GenerateCodesResponse, error) {
	if _, err := s.repo.Gain.GetByID(ctx, req.GainID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGainNotFound
		}
		s.logger.Error("loading gain", zap.Error(err))
		return nil, err
	}

	// draw distinct strings in memory; the unique index on codes.code is
	// the safety net against codes generated in an earlier run
	seen := make(map[string]bool, req.Count)
	codes := make([]*model.Code, 0, req.Count)
	codeStrings := make([]string, 0, req.Count)
	for len(codes) < req.Count {
		str, err := randomCode()
		if err != nil {
			return nil, err
		}
		if seen[str] {
			continue
		}
		seen[str] = true
		codes = append(codes, &model.Code{Code: str, GainID: req.GainID})
		codeStrings = append(codeStrings, str)
	}

	if err := s.repo.Code.BatchCreate(ctx, codes); err != nil {
		s.logger.Error("inserting codes", zap.Error(err))
		return nil, err
	}

	s.logger.Info("codes generated",
		zap.String("gain_id", req.GainID),
		zap.Int("count", len(codes)),
	)

	return &dto.GenerateCodesResponse{
		GainID:    req.GainID,
		Generated: len(codes),
		Codes:     codeStrings,
	}, nil
}

// randomCode draws one 10-character [A-Z0-9] code.
func randomCode() (string, error) {
	buf := make([]byte, model.CodeLength)
	max := big.NewInt(int64(len(model.CodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		buf[i] = model.CodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (s *adminService) ExportEmails(ctx context.Context) (*bytes.Buffer, string, error) {
	users, err := s.repo.User.ListVerifiedClientEmails(ctx)
	if err != nil {
		s.logger.Error("listing emails for export", zap.Error(err))
		return nil, "", err
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"name", "email"}); err != nil {
		return nil, "", err
	}
	for i := range users {
		if err := w.Write([]string{users[i].Name, users[i].Email}); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("emails_%s.csv", time.Now().Format("2006-01-02"))
	return buf, filename, nil
}

func (s *adminService) ExportParticipations(ctx context.Context) (*bytes.Buffer, string, error) {
	// the workbook holds the whole campaign; page through the repository
	const batch = 500
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Participations"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Client", "Email", "Code", "Lot", "Valeur (€)", "Remis", "Remis le"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
	}

	row := 2
	for page := 1; ; page++ {
		participations, _, err := s.repo.Participation.ListAll(ctx, (page-1)*batch, batch)
		if err != nil {
			s.logger.Error("listing participations for export", zap.Error(err))
			return nil, "", err
		}
		if len(participations) == 0 {
			break
		}

		for i := range participations {
			p := &participations[i]
			values := []interface{}{
				p.ParticipationDate.Format("2006-01-02 15:04"),
				"", "", "", "", float64(0), "non", "",
			}
			if p.User != nil {
				values[1] = p.User.Name
				values[2] = p.User.Email
			}
			if p.Code != nil {
				values[3] = p.Code.Code
			}
			if p.Gain != nil {
				values[4] = p.Gain.Name
				values[5] = float64(p.Gain.Value) / 100
			}
			if p.IsClaimed {
				values[6] = "oui"
				if p.ClaimedAt != nil {
					values[7] = p.ClaimedAt.Format("2006-01-02 15:04")
				}
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return nil, "", err
				}
			}
			row++
		}

		if len(participations) < batch {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("writing workbook: %w", err)
	}

	filename := fmt.Sprintf("participations_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf, filename, nil
}

func toGainResponse(g *model.Gain) dto.GainResponse {
	return dto.GainResponse{
		ID:          g.GainID,
		Name:        g.Name,
		Value:       g.Value,
		Description: g.Description,
	}
}
