package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type CardRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCardRepository(db *gorm.DB, log *zap.Logger) ports.CardRepository {
	return &CardRepository{db: db, log: log}
}

func (r *CardRepository) Save(ctx context.Context, card *domain.PaymentCard) error {
	if err := r.db.WithContext(ctx).Save(card).Error; err != nil {
		r.log.Error("failed to save card", zap.Error(err))
		return err
	}
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.PaymentCard, error) {
	var card domain.PaymentCard
	err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

func (r *CardRepository) GetByClientID(ctx context.Context, clientID string) ([]domain.PaymentCard, error) {
	var cards []domain.PaymentCard
	err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("created_at DESC").Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *CardRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.PaymentCard{}, "id = ?", id).Error
}
