package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
	"github.com/seu-repo/sigec-ve/internal/service/notify"
)

// parseChargeLimit turns the request's optional energy/amount strings into
// ports.ChargeLimit. Either, both or neither may be set: with both, the
// engine applies an energy limit whose reservation is capped by the amount;
// with neither, the unlimited-with-cap policy applies.
func parseChargeLimit(energyKwh, amountSom *string) (ports.ChargeLimit, error) {
	var limit ports.ChargeLimit
	if energyKwh != nil {
		v, err := decimal.NewFromString(*energyKwh)
		if err != nil {
			return ports.ChargeLimit{}, errors.New("invalid energy_kwh")
		}
		limit.EnergyKwh = &v
	}
	if amountSom != nil {
		v, err := decimal.NewFromString(*amountSom)
		if err != nil {
			return ports.ChargeLimit{}, errors.New("invalid amount_som")
		}
		limit.AmountSom = &v
	}
	return limit, nil
}

// ChargingSessionHandler is the mobile HTTP surface over a client's own
// charging sessions (spec §6): start/stop, read the active session, read
// history. client_id is always taken from the authenticated token, never
// from the request body.
type ChargingSessionHandler struct {
	service  ports.ChargingSessionService
	sessions ports.ChargingSessionRepository
	events   *notify.EventPublisher
	log      *zap.Logger
}

func NewChargingSessionHandler(service ports.ChargingSessionService, sessions ports.ChargingSessionRepository, events *notify.EventPublisher, log *zap.Logger) *ChargingSessionHandler {
	return &ChargingSessionHandler{service: service, sessions: sessions, events: events, log: log}
}

func clientIDFromLocals(c *fiber.Ctx) string {
	id, _ := c.Locals("client_id").(string)
	return id
}

type StartSessionRequest struct {
	StationID   string  `json:"station_id"`
	ConnectorID int     `json:"connector_id"`
	EnergyKwh   *string `json:"energy_kwh,omitempty"`
	AmountSom   *string `json:"amount_som,omitempty"`
}

func (h *ChargingSessionHandler) Start(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.StationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "station_id is required"})
	}

	limit, err := parseChargeLimit(req.EnergyKwh, req.AmountSom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	clientID := clientIDFromLocals(c)
	result, err := h.service.StartCharging(c.Context(), clientID, req.StationID, req.ConnectorID, limit)
	if err != nil {
		h.log.Warn("start charging failed", zap.String("client_id", clientID), zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	h.events.Publish("domain.session.started", fiber.Map{
		"session_id": result.Session.ID,
		"client_id":  clientID,
		"station_id": req.StationID,
	})

	return c.JSON(fiber.Map{
		"session":        result.Session,
		"station_online": result.StationOnline,
	})
}

type StopSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Stop handles POST /api/v1/charging/stop (spec §6: body {session_id}).
func (h *ChargingSessionHandler) Stop(c *fiber.Ctx) error {
	var req StopSessionRequest
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id is required"})
	}

	clientID := clientIDFromLocals(c)
	session, err := h.service.StopCharging(c.Context(), req.SessionID, clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.events.Publish("domain.session.stopped", fiber.Map{
		"session_id": session.ID,
		"client_id":  clientID,
	})

	return c.JSON(session)
}

func (h *ChargingSessionHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	session, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.JSON(session)
}

func (h *ChargingSessionHandler) GetActive(c *fiber.Ctx) error {
	clientID := clientIDFromLocals(c)
	session, err := h.service.GetActiveSessionByClient(c.Context(), clientID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no active session"})
	}
	return c.JSON(session)
}

func (h *ChargingSessionHandler) GetHistory(c *fiber.Ctx) error {
	clientID := clientIDFromLocals(c)
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	sessions, err := h.sessions.FindHistoryByClient(c.Context(), clientID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sessions)
}
