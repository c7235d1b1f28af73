package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type ClientRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewClientRepository(db *gorm.DB, log *zap.Logger) ports.ClientRepository {
	return &ClientRepository{db: db, log: log}
}

func (r *ClientRepository) Save(ctx context.Context, client *domain.Client) error {
	if err := r.db.WithContext(ctx).Save(client).Error; err != nil {
		r.log.Error("failed to save client", zap.Error(err))
		return err
	}
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) FindByPhone(ctx context.Context, phone string) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).First(&client, "phone = ?", phone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// UpdateBalanceTx locks the client row (SELECT ... FOR UPDATE) so concurrent
// sessions for the same client serialise on the balance mutation (spec §5),
// then applies delta and rejects the update if the result would go negative.
func (r *ClientRepository) UpdateBalanceTx(ctx context.Context, tx ports.Transaction, clientID string, delta decimal.Decimal) (decimal.Decimal, error) {
	gtx, ok := tx.(*gorm.DB)
	if !ok || gtx == nil {
		return decimal.Zero, fmt.Errorf("client repository: UpdateBalanceTx requires a *gorm.DB transaction handle")
	}

	var client domain.Client
	if err := gtx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&client, "id = ?", clientID).Error; err != nil {
		return decimal.Zero, fmt.Errorf("lock client row: %w", err)
	}

	newBalance := client.Balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, fmt.Errorf("client repository: balance would go negative")
	}

	if err := gtx.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", clientID).Update("balance", newBalance).Error; err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	return newBalance, nil
}
