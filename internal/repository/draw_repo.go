package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
)

// DrawRepository is the draw_results data-access interface.
type DrawRepository interface {
	Get(ctx context.Context, campaign string) (*model.DrawResult, error)
	// Create inserts the single campaign row. A concurrent duplicate
	// surfaces as gorm.ErrDuplicatedKey (unique index on campaign).
	Create(ctx context.Context, result *model.DrawResult) error
}

type drawRepo struct {
	db *gorm.DB
}

// NewDrawRepo builds the GORM-backed DrawRepository.
func NewDrawRepo(db *gorm.DB) DrawRepository {
	return &drawRepo{db: db}
}

func (r *drawRepo) Get(ctx context.Context, campaign string) (*model.DrawResult, error) {
	var result model.DrawResult
	err := r.db.WithContext(ctx).
		Preload("Winner").
		Where("campaign = ?", campaign).
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *drawRepo) Create(ctx context.Context, result *model.DrawResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}
