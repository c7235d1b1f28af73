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

type TariffRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewTariffRepository(db *gorm.DB, log *zap.Logger) ports.TariffRepository {
	return &TariffRepository{db: db, log: log}
}

func (r *TariffRepository) FindPlanByID(ctx context.Context, id string) (*domain.TariffPlan, error) {
	var plan domain.TariffPlan
	err := r.db.WithContext(ctx).Preload("Rules").First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// FindActiveRulesByPlan returns is_active rules ordered so the resolver's
// highest-priority, most-recently-created tie-break (spec §4.4) is
// reproducible without an extra in-memory sort.
func (r *TariffRepository) FindActiveRulesByPlan(ctx context.Context, planID string) ([]domain.TariffRule, error) {
	var rules []domain.TariffRule
	err := r.db.WithContext(ctx).
		Where("tariff_plan_id = ? AND is_active = ?", planID, true).
		Order("priority desc, created_at desc").
		Find(&rules).Error
	return rules, err
}

func (r *TariffRepository) FindClientTariff(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error) {
	var ct domain.ClientTariff
	err := r.db.WithContext(ctx).
		Where("client_id = ? AND valid_from <= ? AND valid_until >= ?", clientID, at, at).
		First(&ct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ct, nil
}

func (r *TariffRepository) SaveSnapshot(ctx context.Context, tx ports.Transaction, snapshot *domain.TariffSnapshot) error {
	gtx, ok := tx.(*gorm.DB)
	if !ok || gtx == nil {
		return fmt.Errorf("tariff repository: SaveSnapshot requires a *gorm.DB transaction handle")
	}
	return gtx.WithContext(ctx).Create(snapshot).Error
}
