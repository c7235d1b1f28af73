package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

// CardHandler exposes the stored-card surface a Stripe top-up needs to pick
// a saved card from (spec §1's card top-up collaborator, ambient scope).
type CardHandler struct {
	service ports.CardService
	log     *zap.Logger
}

func NewCardHandler(service ports.CardService, log *zap.Logger) *CardHandler {
	return &CardHandler{service: service, log: log}
}

type AddCardRequest struct {
	Number     string `json:"number"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
	CVC        string `json:"cvc"`
	SetDefault bool   `json:"set_default"`
}

func (h *CardHandler) Add(c *fiber.Ctx) error {
	var req AddCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	clientID := clientIDFromLocals(c)
	card, err := h.service.AddCard(c.Context(), clientID, &ports.CardRequest{
		Number:     req.Number,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		CVC:        req.CVC,
		SetDefault: req.SetDefault,
	})
	if err != nil {
		h.log.Warn("add card failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(card)
}

func (h *CardHandler) List(c *fiber.Ctx) error {
	clientID := clientIDFromLocals(c)
	cards, err := h.service.GetCards(c.Context(), clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(cards)
}

func (h *CardHandler) Delete(c *fiber.Ctx) error {
	clientID := clientIDFromLocals(c)
	cardID := c.Params("id")
	if err := h.service.DeleteCard(c.Context(), clientID, cardID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
