// Package idempotency implements the request-replay guard described in
// spec §4.6, layered over ports.IdempotencyRepository.
package idempotency

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// RecordTTL is how long a stored (key, response) pair survives before the
// hourly purge sweep reclaims it (spec §4.6).
const RecordTTL = 24 * time.Hour

type Store struct {
	repo ports.IdempotencyRepository
	log  *zap.Logger
}

func NewStore(repo ports.IdempotencyRepository, log *zap.Logger) *Store {
	return &Store{repo: repo, log: log}
}

func (s *Store) Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	return s.repo.Find(ctx, key)
}

func (s *Store) Save(ctx context.Context, key, method, path, bodyHash string, responseBody []byte, statusCode int) error {
	return s.repo.Save(ctx, &domain.IdempotencyRecord{
		Key:          key,
		Method:       method,
		Path:         path,
		BodyHash:     bodyHash,
		ResponseBody: responseBody,
		StatusCode:   statusCode,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, RecordTTL)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("idempotency: purged expired records", zap.Int64("count", n))
	}
	return n, nil
}
