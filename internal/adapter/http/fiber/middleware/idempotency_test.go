package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/mocks"
)

func newIdempotencyTestApp(store *mocks.MockIdempotencyStore, handlerCalls *int) *fiber.App {
	app := fiber.New()
	app.Post("/start", Idempotency(store, zap.NewNop()), func(c *fiber.Ctx) error {
		*handlerCalls++
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})
	return app
}

func TestIdempotency_FirstRequestRunsHandler(t *testing.T) {
	var saved *domain.IdempotencyRecord
	store := &mocks.MockIdempotencyStore{
		FindFunc: func(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
			return saved, nil
		},
		SaveFunc: func(ctx context.Context, key, method, path, bodyHash string, responseBody []byte, statusCode int) error {
			saved = &domain.IdempotencyRecord{Key: key, Method: method, Path: path, BodyHash: bodyHash, ResponseBody: responseBody, StatusCode: statusCode}
			return nil
		},
	}

	handlerCalls := 0
	app := newIdempotencyTestApp(store, &handlerCalls)

	req := httptest.NewRequest(http.MethodPost, "/start", bytes.NewReader([]byte(`{"station_id":"CP001"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-1")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if handlerCalls != 1 {
		t.Errorf("expected handler to run once, got %d", handlerCalls)
	}
	if saved == nil {
		t.Fatal("expected a record to be saved")
	}
}

func TestIdempotency_ReplaysStoredResponseForSameKeyAndBody(t *testing.T) {
	body := []byte(`{"station_id":"CP001"}`)
	stored := &domain.IdempotencyRecord{
		Key:          "key-2",
		BodyHash:     canonicalHash(body),
		ResponseBody: []byte(`{"ok":true,"replayed":true}`),
		StatusCode:   fiber.StatusOK,
	}
	store := &mocks.MockIdempotencyStore{
		FindFunc: func(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
			if key == "key-2" {
				return stored, nil
			}
			return nil, nil
		},
	}

	handlerCalls := 0
	app := newIdempotencyTestApp(store, &handlerCalls)

	req := httptest.NewRequest(http.MethodPost, "/start", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-2")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if handlerCalls != 0 {
		t.Errorf("expected handler to be skipped on replay, got %d calls", handlerCalls)
	}
}

func TestIdempotency_SameKeyDifferentBodyConflicts(t *testing.T) {
	stored := &domain.IdempotencyRecord{
		Key:        "key-3",
		BodyHash:   canonicalHash([]byte(`{"station_id":"CP001"}`)),
		StatusCode: fiber.StatusOK,
	}
	store := &mocks.MockIdempotencyStore{
		FindFunc: func(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
			return stored, nil
		},
	}

	handlerCalls := 0
	app := newIdempotencyTestApp(store, &handlerCalls)

	req := httptest.NewRequest(http.MethodPost, "/start", bytes.NewReader([]byte(`{"station_id":"CP002"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-3")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
	if handlerCalls != 0 {
		t.Errorf("expected handler not to run on conflict, got %d calls", handlerCalls)
	}
}

func TestCanonicalHash_KeyOrderIndependent(t *testing.T) {
	a := canonicalHash([]byte(`{"station_id":"CP001","connector_id":1}`))
	b := canonicalHash([]byte(`{"connector_id":1,"station_id":"CP001"}`))
	if a != b {
		t.Errorf("expected key-order-independent hashes to match: %s != %s", a, b)
	}
}

func TestCanonicalHash_DifferentValuesDiffer(t *testing.T) {
	a := canonicalHash([]byte(`{"station_id":"CP001"}`))
	b := canonicalHash([]byte(`{"station_id":"CP002"}`))
	if a == b {
		t.Error("expected different bodies to hash differently")
	}
}
