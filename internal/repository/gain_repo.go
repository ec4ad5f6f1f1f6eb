package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
)

// GainRepository is the gains data-access interface.
type GainRepository interface {
	Create(ctx context.Context, gain *model.Gain) error
	GetByID(ctx context.Context, id string) (*model.Gain, error)
	List(ctx context.Context) ([]model.Gain, error)
	// DecrementStock atomically takes one unit off the remaining stock.
	// Returns the number of rows touched: 0 means the gain was out of stock.
	DecrementStock(ctx context.Context, gainID string) (int64, error)
}

type gainRepo struct {
	db *gorm.DB
}

// NewGainRepo builds the GORM-backed GainRepository.
func NewGainRepo(db *gorm.DB) GainRepository {
	return &gainRepo{db: db}
}

func (r *gainRepo) Create(ctx context.Context, gain *model.Gain) error {
	return r.db.WithContext(ctx).Create(gain).Error
}

func (r *gainRepo) GetByID(ctx context.Context, id string) (*model.Gain, error) {
	var gain model.Gain
	err := r.db.WithContext(ctx).
		Where("gain_id = ?", id).
		First(&gain).Error
	if err != nil {
		return nil, err
	}
	return &gain, nil
}

func (r *gainRepo) List(ctx context.Context) ([]model.Gain, error) {
	var gains []model.Gain
	err := r.db.WithContext(ctx).
		Order("value DESC").
		Find(&gains).Error
	return gains, err
}

// DecrementStock is guarded by remaining_quantity > 0 so two concurrent
// redemptions can never drive the stock negative.
func (r *gainRepo) DecrementStock(ctx context.Context, gainID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Gain{}).
		Where("gain_id = ? AND remaining_quantity > 0", gainID).
		UpdateColumn("remaining_quantity", gorm.Expr("remaining_quantity - 1"))
	return res.RowsAffected, res.Error
}
