package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type ChargingSessionRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewChargingSessionRepository(db *gorm.DB, log *zap.Logger) ports.ChargingSessionRepository {
	return &ChargingSessionRepository{db: db, log: log}
}

func (r *ChargingSessionRepository) Save(ctx context.Context, session *domain.ChargingSession) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *ChargingSessionRepository) SaveTx(ctx context.Context, tx ports.Transaction, session *domain.ChargingSession) error {
	gtx, ok := tx.(*gorm.DB)
	if !ok || gtx == nil {
		return fmt.Errorf("charging session repository: SaveTx requires a *gorm.DB transaction handle")
	}
	return gtx.WithContext(ctx).Save(session).Error
}

func (r *ChargingSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	var session domain.ChargingSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *ChargingSessionRepository) FindActiveByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error) {
	var session domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND status IN ?", clientID, []domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusStarted, domain.SessionStatusStopping}).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *ChargingSessionRepository) FindActiveByConnector(ctx context.Context, stationID string, connectorID int) (*domain.ChargingSession, error) {
	var session domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND connector_id = ? AND status IN ?", stationID, connectorID, []domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusStarted, domain.SessionStatusStopping}).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *ChargingSessionRepository) FindNonTerminalByStation(ctx context.Context, stationID string) ([]domain.ChargingSession, error) {
	var sessions []domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND status IN ?", stationID, []domain.SessionStatus{domain.SessionStatusPending, domain.SessionStatusStarted, domain.SessionStatusStopping}).
		Find(&sessions).Error
	return sessions, err
}

func (r *ChargingSessionRepository) FindStartedOlderThan(ctx context.Context, age time.Duration) ([]domain.ChargingSession, error) {
	var sessions []domain.ChargingSession
	cutoff := time.Now().UTC().Add(-age)
	err := r.db.WithContext(ctx).
		Where("status = ? AND start_time < ?", domain.SessionStatusStarted, cutoff).
		Find(&sessions).Error
	return sessions, err
}

func (r *ChargingSessionRepository) FindHistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]domain.ChargingSession, error) {
	var sessions []domain.ChargingSession
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("start_time desc").
		Limit(limit).Offset(offset).
		Find(&sessions).Error
	return sessions, err
}

func (r *ChargingSessionRepository) SavePaymentTransactionTx(ctx context.Context, tx ports.Transaction, pt *domain.PaymentTransaction) error {
	gtx, ok := tx.(*gorm.DB)
	if !ok || gtx == nil {
		return fmt.Errorf("charging session repository: SavePaymentTransactionTx requires a *gorm.DB transaction handle")
	}
	return gtx.WithContext(ctx).Create(pt).Error
}
