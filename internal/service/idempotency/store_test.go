package idempotency

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/mocks"
)

func TestStore_SaveWritesResponseFields(t *testing.T) {
	var saved *domain.IdempotencyRecord
	repo := &mocks.MockIdempotencyRepository{
		SaveFunc: func(ctx context.Context, record *domain.IdempotencyRecord) error {
			saved = record
			return nil
		},
	}

	store := NewStore(repo, zap.NewNop())
	err := store.Save(context.Background(), "key-1", "POST", "/api/v1/charging/start", "hash-1", []byte(`{"ok":true}`), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved == nil {
		t.Fatal("expected repository Save to be called")
	}
	if saved.Key != "key-1" || saved.Method != "POST" || saved.StatusCode != 200 {
		t.Errorf("unexpected saved record: %+v", saved)
	}
}

func TestStore_Find(t *testing.T) {
	want := &domain.IdempotencyRecord{Key: "key-2", StatusCode: 200}
	repo := &mocks.MockIdempotencyRepository{
		FindFunc: func(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
			if key != "key-2" {
				t.Fatalf("expected key 'key-2', got %s", key)
			}
			return want, nil
		},
	}

	store := NewStore(repo, zap.NewNop())
	got, err := store.Find(context.Background(), "key-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestStore_PurgeExpired(t *testing.T) {
	var gotTTL time.Duration
	repo := &mocks.MockIdempotencyRepository{
		DeleteExpiredFunc: func(ctx context.Context, olderThan time.Duration) (int64, error) {
			gotTTL = olderThan
			return 3, nil
		},
	}

	store := NewStore(repo, zap.NewNop())
	n, err := store.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 purged records, got %d", n)
	}
	if gotTTL != RecordTTL {
		t.Errorf("expected purge to use RecordTTL (%s), got %s", RecordTTL, gotTTL)
	}
}
