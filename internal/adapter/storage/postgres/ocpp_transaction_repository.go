package postgres

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type OcppTransactionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOcppTransactionRepository(db *gorm.DB, log *zap.Logger) ports.OcppTransactionRepository {
	return &OcppTransactionRepository{db: db, log: log}
}

func (r *OcppTransactionRepository) FindByID(ctx context.Context, id uint) (*domain.OcppTransaction, error) {
	var txn domain.OcppTransaction
	err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *OcppTransactionRepository) FindByStationAndTransactionID(ctx context.Context, stationID string, transactionID int) (*domain.OcppTransaction, error) {
	var txn domain.OcppTransaction
	err := r.db.WithContext(ctx).First(&txn, "station_id = ? AND transaction_id = ?", stationID, transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *OcppTransactionRepository) Save(ctx context.Context, txn *domain.OcppTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *OcppTransactionRepository) Update(ctx context.Context, txn *domain.OcppTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *OcppTransactionRepository) AppendMeterValue(ctx context.Context, mv *domain.MeterValue) error {
	return r.db.WithContext(ctx).Create(mv).Error
}

func (r *OcppTransactionRepository) LastMeterValue(ctx context.Context, ocppTransactionID uint) (*domain.MeterValue, error) {
	var mv domain.MeterValue
	err := r.db.WithContext(ctx).
		Where("ocpp_transaction_id = ?", ocppTransactionID).
		Order("timestamp desc").
		First(&mv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &mv, nil
}
