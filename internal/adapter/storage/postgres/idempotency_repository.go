package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type IdempotencyRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewIdempotencyRepository(db *gorm.DB, log *zap.Logger) ports.IdempotencyRepository {
	return &IdempotencyRepository{db: db, log: log}
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var record domain.IdempotencyRecord
	err := r.db.WithContext(ctx).First(&record, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *IdempotencyRepository) Save(ctx context.Context, record *domain.IdempotencyRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.IdempotencyRecord{})
	return result.RowsAffected, result.Error
}
