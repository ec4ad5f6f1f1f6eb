package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MohaDjm/the-tip-top-sub000/internal/model"
)

// CodeRepository is the codes data-access interface.
type CodeRepository interface {
	BatchCreate(ctx context.Context, codes []*model.Code) error
	GetByCode(ctx context.Context, code string) (*model.Code, error)
	// GetByCodeForUpdate locks the code row (SELECT ... FOR UPDATE) so two
	// concurrent redemptions of the same code serialize. Must run on a
	// transaction-bound repository (Repository.WithTx).
	GetByCodeForUpdate(ctx context.Context, code string) (*model.Code, error)
	MarkUsed(ctx context.Context, codeID string) error
	CountTotal(ctx context.Context) (int64, error)
	CountUsed(ctx context.Context) (int64, error)
}

type codeRepo struct {
	db *gorm.DB
}

// NewCodeRepo builds the GORM-backed CodeRepository.
func NewCodeRepo(db *gorm.DB) CodeRepository {
	return &codeRepo{db: db}
}

func (r *codeRepo) BatchCreate(ctx context.Context, codes []*model.Code) error {
	return r.db.WithContext(ctx).CreateInBatches(codes, 500).Error
}

func (r *codeRepo) GetByCode(ctx context.Context, code string) (*model.Code, error) {
	var c model.Code
	err := r.db.WithContext(ctx).
		Preload("Gain").
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *codeRepo) GetByCodeForUpdate(ctx context.Context, code string) (*model.Code, error) {
	var c model.Code
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *codeRepo) MarkUsed(ctx context.Context, codeID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Code{}).
		Where("code_id = ?", codeID).
		Update("is_used", true).Error
}

func (r *codeRepo) CountTotal(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Code{}).Count(&total).Error
	return total, err
}

func (r *codeRepo) CountUsed(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Code{}).
		Where("is_used = ?", true).
		Count(&total).Error
	return total, err
}
