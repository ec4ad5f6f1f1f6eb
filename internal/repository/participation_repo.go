package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
)

// ParticipationRepository is the participations data-access interface.
type ParticipationRepository interface {
	Create(ctx context.Context, p *model.Participation) error
	GetByID(ctx context.Context, id string) (*model.Participation, error)
	GetByCode(ctx context.Context, code string) (*model.Participation, error)
	ExistsForUserOnDay(ctx context.Context, userID, day string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]model.Participation, error)
	ListByClaimed(ctx context.Context, claimed bool, offset, limit int) ([]model.Participation, int64, error)
	ListAll(ctx context.Context, offset, limit int) ([]model.Participation, int64, error)
	// Claim flips is_claimed exactly once. Returns the number of rows
	// touched: 0 means the participation was already claimed.
	Claim(ctx context.Context, id, employeeID string, at time.Time) (int64, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	CountClaimed(ctx context.Context) (int64, error)
	CountClaimedOnDay(ctx context.Context, day string) (int64, error)
	CountByGain(ctx context.Context, gainID string) (int64, error)
	CountClaimedByGain(ctx context.Context, gainID string) (int64, error)
}

type participationRepo struct {
	db *gorm.DB
}

// NewParticipationRepo builds the GORM-backed ParticipationRepository.
func NewParticipationRepo(db *gorm.DB) ParticipationRepository {
	return &participationRepo{db: db}
}

func (r *participationRepo) Create(ctx context.Context, p *model.Participation) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *participationRepo) GetByID(ctx context.Context, id string) (*model.Participation, error) {
	var p model.Participation
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Gain").
		Preload("Code").
		Where("participation_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByCode resolves a participation from the printed code string
// (in-store claim flow: the customer shows the receipt).
func (r *participationRepo) GetByCode(ctx context.Context, code string) (*model.Participation, error) {
	var p model.Participation
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Gain").
		Preload("Code").
		Joins("JOIN codes ON codes.code_id = participations.code_id").
		Where("codes.code = ?", code).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participationRepo) ExistsForUserOnDay(ctx context.Context, userID, day string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("user_id = ? AND participation_day = ?", userID, day).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *participationRepo) ListByUser(ctx context.Context, userID string) ([]model.Participation, error) {
	var ps []model.Participation
	err := r.db.WithContext(ctx).
		Preload("Gain").
		Preload("Code").
		Where("user_id = ?", userID).
		Order("participation_date DESC").
		Find(&ps).Error
	return ps, err
}

func (r *participationRepo) ListByClaimed(ctx context.Context, claimed bool, offset, limit int) ([]model.Participation, int64, error) {
	var ps []model.Participation
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("is_claimed = ?", claimed)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Preload("Gain").Preload("Code").
		Offset(offset).Limit(limit).
		Order("participation_date DESC").
		Find(&ps).Error; err != nil {
		return nil, 0, err
	}

	return ps, total, nil
}

func (r *participationRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Participation, int64, error) {
	var ps []model.Participation
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Participation{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").Preload("Gain").Preload("Code").
		Offset(offset).Limit(limit).
		Order("participation_date DESC").
		Find(&ps).Error; err != nil {
		return nil, 0, err
	}

	return ps, total, nil
}

func (r *participationRepo) Claim(ctx context.Context, id, employeeID string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("participation_id = ? AND is_claimed = ?", id, false).
		Updates(map[string]interface{}{
			"is_claimed":             true,
			"claimed_at":             at,
			"claimed_by_employee_id": employeeID,
			"updated_at":             at,
		})
	return res.RowsAffected, res.Error
}

// DistinctUserIDs returns every user with at least one participation,
// each exactly once: the grand draw eligibility list.
func (r *participationRepo) DistinctUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Distinct("user_id").
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *participationRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Participation{}).Count(&total).Error
	return total, err
}

func (r *participationRepo) CountClaimed(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("is_claimed = ?", true).
		Count(&total).Error
	return total, err
}

func (r *participationRepo) CountClaimedOnDay(ctx context.Context, day string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("is_claimed = ? AND DATE(claimed_at) = ?", true, day).
		Count(&total).Error
	return total, err
}

func (r *participationRepo) CountByGain(ctx context.Context, gainID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("gain_id = ?", gainID).
		Count(&total).Error
	return total, err
}

func (r *participationRepo) CountClaimedByGain(ctx context.Context, gainID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Where("gain_id = ? AND is_claimed = ?", gainID, true).
		Count(&total).Error
	return total, err
}
