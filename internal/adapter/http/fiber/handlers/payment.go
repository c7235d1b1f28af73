package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
	"github.com/seu-repo/sigec-ve/internal/service/notify"
)

// PaymentHandler is the wallet top-up surface (spec §1's Stripe-backed
// card/QR collaborator): create an intent, confirm it, read history, and
// receive Stripe's webhook.
type PaymentHandler struct {
	service ports.PaymentService
	events  *notify.EventPublisher
	log     *zap.Logger
}

func NewPaymentHandler(service ports.PaymentService, events *notify.EventPublisher, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, events: events, log: log}
}

type TopupCardRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// TopupCard handles POST /api/v1/balance/topup-card.
func (h *PaymentHandler) TopupCard(c *fiber.Ctx) error {
	var req TopupCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid amount"})
	}

	clientID := clientIDFromLocals(c)
	intent, err := h.service.CreatePaymentIntent(c.Context(), clientID, amount, req.Currency)
	if err != nil {
		h.log.Warn("create payment intent failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(intent)
}

type ConfirmTopupRequest struct {
	PaymentID string `json:"payment_id"`
}

// ConfirmTopup handles POST /api/v1/balance/topup-card/confirm.
func (h *PaymentHandler) ConfirmTopup(c *fiber.Ctx) error {
	var req ConfirmTopupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.PaymentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "payment_id is required"})
	}

	payment, err := h.service.ConfirmTopup(c.Context(), req.PaymentID)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	h.events.Publish("domain.wallet.topup", fiber.Map{
		"payment_id": payment.ID,
		"client_id":  payment.ClientID,
		"amount":     payment.Amount.String(),
	})

	return c.JSON(payment)
}

// GetHistory handles GET /api/v1/balance/payments.
func (h *PaymentHandler) GetHistory(c *fiber.Ctx) error {
	clientID := clientIDFromLocals(c)
	payments, err := h.service.GetPaymentHistory(c.Context(), clientID, 20, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(payments)
}

// Webhook handles POST /payment/webhook — Stripe's server-to-server
// notification of payment state changes (spec §5's 30/min-by-IP route).
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get("Stripe-Signature")

	if err := h.service.HandleWebhook(c.Context(), payload, signature); err != nil {
		h.log.Warn("webhook handling failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusOK)
}
