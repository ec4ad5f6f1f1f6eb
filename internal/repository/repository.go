package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregates all data-access interfaces.
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Gain          GainRepository
	Code          CodeRepository
	Participation ParticipationRepository
	Draw          DrawRepository
}

// NewRepository builds the Repository aggregate on a gorm connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Gain:          NewGainRepo(db),
		Code:          NewCodeRepo(db),
		Participation: NewParticipationRepo(db),
		Draw:          NewDrawRepo(db),
	}
}

// WithTx runs fn inside a database transaction, handing it a Repository
// bound to that transaction. The redemption path depends on this: the
// code row lock, the stock decrement and the participation insert must
// commit together. With no underlying connection (unit-test mocks) fn
// runs on the receiver directly.
func (r *Repository) WithTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
