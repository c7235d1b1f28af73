package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/sigec-ve/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/mocks"
	"github.com/seu-repo/sigec-ve/internal/ports"
	"github.com/seu-repo/sigec-ve/internal/service/notify"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// newAuthTestApp wires AuthHandler against a MockAuthService over the real
// /api/v1/auth/* route shapes (spec §3: phone + OTP, not email/password).
func newAuthTestApp(auth *mocks.MockAuthService) *fiber.App {
	app := fiber.New()
	h := handlers.NewAuthHandler(auth, testLogger())

	v1 := app.Group("/api/v1")
	v1.Post("/auth/request-code", h.RequestCode)
	v1.Post("/auth/login", h.Login)
	v1.Post("/auth/refresh", h.RefreshToken)
	v1.Get("/auth/me", middleware.AuthRequired(auth), h.Me)

	return app
}

func TestAPI_RequestCode(t *testing.T) {
	auth := &mocks.MockAuthService{}
	app := newAuthTestApp(auth)

	body, _ := json.Marshal(map[string]string{"phone": "+996555000111"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/request-code", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAPI_RequestCode_MissingPhone(t *testing.T) {
	app := newAuthTestApp(&mocks.MockAuthService{})

	body, _ := json.Marshal(map[string]string{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/request-code", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPI_Login(t *testing.T) {
	t.Run("valid code", func(t *testing.T) {
		auth := &mocks.MockAuthService{
			LoginFunc: func(ctx context.Context, phone, otp string) (string, string, error) {
				if phone != "+996555000111" || otp != "123456" {
					t.Fatalf("unexpected login args: phone=%s otp=%s", phone, otp)
				}
				return "access-token", "refresh-token", nil
			},
			ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Client, error) {
				return &domain.Client{ID: "client-1", Phone: "+996555000111"}, nil
			},
		}
		app := newAuthTestApp(auth)

		body, _ := json.Marshal(map[string]string{"phone": "+996555000111", "otp": "123456"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var result map[string]interface{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		tokens, ok := result["tokens"].(map[string]interface{})
		if !ok || tokens["accessToken"] != "access-token" {
			t.Errorf("expected access token in response, got %v", result)
		}
	})

	t.Run("wrong code", func(t *testing.T) {
		auth := &mocks.MockAuthService{
			LoginFunc: func(ctx context.Context, phone, otp string) (string, string, error) {
				return "", "", fiber.NewError(fiber.StatusUnauthorized, "invalid code")
			},
		}
		app := newAuthTestApp(auth)

		body, _ := json.Marshal(map[string]string{"phone": "+996555000111", "otp": "000000"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestAPI_Me_RequiresToken(t *testing.T) {
	app := newAuthTestApp(&mocks.MockAuthService{
		ValidateTokenFunc: func(ctx context.Context, token string) (*domain.Client, error) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without Authorization header, got %d", resp.StatusCode)
	}
}

// newChargingTestApp wires ChargingSessionHandler over the real
// /api/v1/charging/* routes, authenticated via a fixed client id.
func newChargingTestApp(svc *mocks.MockChargingSessionService, sessions *mocks.MockChargingSessionRepository) *fiber.App {
	app := fiber.New()
	h := handlers.NewChargingSessionHandler(svc, sessions, notify.NewEventPublisher(nil, testLogger()), testLogger())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("client_id", "client-1")
		return c.Next()
	})

	v1 := app.Group("/api/v1")
	v1.Post("/charging/start", h.Start)
	v1.Post("/charging/stop", h.Stop)
	v1.Get("/charging/status/:id", h.Get)
	v1.Get("/charging/active", h.GetActive)
	v1.Get("/charging/history", h.GetHistory)

	return app
}

func TestAPI_ChargingStart(t *testing.T) {
	svc := &mocks.MockChargingSessionService{
		StartChargingFunc: func(ctx context.Context, clientID, stationID string, connectorID int, limit ports.ChargeLimit) (*ports.StartChargingResult, error) {
			if clientID != "client-1" || stationID != "CP001" || connectorID != 1 {
				t.Fatalf("unexpected start args: %s %s %d", clientID, stationID, connectorID)
			}
			return &ports.StartChargingResult{
				Session:       &domain.ChargingSession{ID: "session-1", ClientID: clientID, StationID: stationID},
				StationOnline: true,
			}, nil
		},
	}
	app := newChargingTestApp(svc, &mocks.MockChargingSessionRepository{})

	body, _ := json.Marshal(map[string]interface{}{"station_id": "CP001", "connector_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charging/start", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAPI_ChargingStart_MissingStationID(t *testing.T) {
	app := newChargingTestApp(&mocks.MockChargingSessionService{}, &mocks.MockChargingSessionRepository{})

	body, _ := json.Marshal(map[string]interface{}{"connector_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charging/start", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

// TestAPI_ChargingStop confirms the session id is read from the JSON body
// (spec §6: POST /api/v1/charging/stop, body {session_id}), not a URL param.
func TestAPI_ChargingStop(t *testing.T) {
	svc := &mocks.MockChargingSessionService{
		StopChargingFunc: func(ctx context.Context, sessionID, clientID string) (*domain.ChargingSession, error) {
			if sessionID != "session-1" || clientID != "client-1" {
				t.Fatalf("unexpected stop args: %s %s", sessionID, clientID)
			}
			return &domain.ChargingSession{ID: sessionID, ClientID: clientID}, nil
		},
	}
	app := newChargingTestApp(svc, &mocks.MockChargingSessionRepository{})

	body, _ := json.Marshal(map[string]string{"session_id": "session-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/charging/stop", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAPI_ChargingHistory(t *testing.T) {
	sessions := &mocks.MockChargingSessionRepository{
		FindHistoryByClientFunc: func(ctx context.Context, clientID string, limit, offset int) ([]domain.ChargingSession, error) {
			return []domain.ChargingSession{{ID: "session-1", ClientID: clientID}}, nil
		},
	}
	app := newChargingTestApp(&mocks.MockChargingSessionService{}, sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charging/history", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result []domain.ChargingSession
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(result) != 1 || result[0].ID != "session-1" {
		t.Errorf("expected one session in history, got %v", result)
	}
}

// newPaymentTestApp wires PaymentHandler over the real /api/v1/balance/*
// routes plus the bare /payment/webhook route.
func newPaymentTestApp(svc *mocks.MockPaymentService) *fiber.App {
	app := fiber.New()
	h := handlers.NewPaymentHandler(svc, notify.NewEventPublisher(nil, testLogger()), testLogger())

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("client_id", "client-1")
		return c.Next()
	})

	v1 := app.Group("/api/v1")
	v1.Post("/balance/topup-card", h.TopupCard)
	v1.Post("/balance/topup-card/confirm", h.ConfirmTopup)
	v1.Get("/balance/payments", h.GetHistory)
	app.Post("/payment/webhook", h.Webhook)

	return app
}

func TestAPI_TopupCard(t *testing.T) {
	svc := &mocks.MockPaymentService{
		CreatePaymentIntentFunc: func(ctx context.Context, clientID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error) {
			if clientID != "client-1" || !amount.Equal(decimal.NewFromInt(500)) {
				t.Fatalf("unexpected intent args: %s %s", clientID, amount.String())
			}
			return &domain.PaymentIntent{ID: "pi_1", ClientSecret: "secret"}, nil
		},
	}
	app := newPaymentTestApp(svc)

	body, _ := json.Marshal(map[string]string{"amount": "500", "currency": "KGS"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/balance/topup-card", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAPI_TopupCard_InvalidAmount(t *testing.T) {
	app := newPaymentTestApp(&mocks.MockPaymentService{})

	body, _ := json.Marshal(map[string]string{"amount": "not-a-number", "currency": "KGS"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/balance/topup-card", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAPI_PaymentWebhook(t *testing.T) {
	called := false
	svc := &mocks.MockPaymentService{
		HandleWebhookFunc: func(ctx context.Context, payload []byte, signature string) error {
			called = true
			if signature != "test-signature" {
				t.Errorf("expected signature header to be forwarded, got %q", signature)
			}
			return nil
		},
	}
	app := newPaymentTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/payment/webhook", bytes.NewReader([]byte(`{"type":"payment_intent.succeeded"}`)))
	req.Header.Set("Stripe-Signature", "test-signature")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !called {
		t.Error("expected HandleWebhook to be called")
	}
}
