package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

// DeviceCommandHandler exposes the outbound OCPP 1.6-J command surface
// (spec §4.1's outbound command table) over HTTP, for operator/admin tools
// that need to act on a station outside the charging-session lifecycle.
type DeviceCommandHandler struct {
	ocppService ports.OCPPCommandService
	log         *zap.Logger
}

func NewDeviceCommandHandler(ocppService ports.OCPPCommandService, log *zap.Logger) *DeviceCommandHandler {
	return &DeviceCommandHandler{ocppService: ocppService, log: log}
}

func (h *DeviceCommandHandler) notConnected(c *fiber.Ctx, stationID string) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "station is not connected", "station_id": stationID})
}

// --- Remote Start/Stop ---

type RemoteStartRequest struct {
	IdTag       string `json:"id_tag"`
	ConnectorID int    `json:"connector_id"`
	SessionID   string `json:"session_id"`
}

func (h *DeviceCommandHandler) RemoteStart(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req RemoteStartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.IdTag == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id_tag is required"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.RemoteStartTransaction(c.Context(), stationID, req.ConnectorID, req.IdTag, req.SessionID, ports.ChargeLimit{}); err != nil {
		h.log.Error("remote start failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

type RemoteStopRequest struct {
	TransactionID int    `json:"transaction_id"`
	Reason        string `json:"reason"`
}

func (h *DeviceCommandHandler) RemoteStop(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req RemoteStopRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.RemoteStopTransaction(c.Context(), stationID, req.TransactionID, req.Reason); err != nil {
		h.log.Error("remote stop failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// --- Reset ---

type ResetRequest struct {
	Type string `json:"type"` // Hard, Soft
}

func (h *DeviceCommandHandler) Reset(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req ResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Type == "" {
		req.Type = "Soft"
	}
	if req.Type != "Hard" && req.Type != "Soft" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be 'Hard' or 'Soft'"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.Reset(c.Context(), stationID, req.Type); err != nil {
		h.log.Error("reset failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// --- Unlock Connector ---

type UnlockConnectorRequest struct {
	ConnectorID int `json:"connector_id"`
}

func (h *DeviceCommandHandler) UnlockConnector(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req UnlockConnectorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ConnectorID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "connector_id is required"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.UnlockConnector(c.Context(), stationID, req.ConnectorID); err != nil {
		h.log.Error("unlock connector failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "unlocked"})
}

// --- Change Availability ---

type ChangeAvailabilityRequest struct {
	ConnectorID int    `json:"connector_id"`
	Type        string `json:"type"` // Operative, Inoperative
}

func (h *DeviceCommandHandler) ChangeAvailability(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req ChangeAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Type != "Operative" && req.Type != "Inoperative" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type must be 'Operative' or 'Inoperative'"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.ChangeAvailability(c.Context(), stationID, req.ConnectorID, req.Type); err != nil {
		h.log.Error("change availability failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// --- Configuration ---

type ChangeConfigurationRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (h *DeviceCommandHandler) ChangeConfiguration(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req ChangeConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "key is required"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.ChangeConfiguration(c.Context(), stationID, req.Key, req.Value); err != nil {
		h.log.Error("change configuration failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

func (h *DeviceCommandHandler) GetConfiguration(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var keys []string
	if k := c.Query("keys"); k != "" {
		keys = []string{k}
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.GetConfiguration(c.Context(), stationID, keys); err != nil {
		h.log.Error("get configuration failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "requested"})
}

// --- Diagnostics / Cache ---

type GetDiagnosticsRequest struct {
	Location string `json:"location"`
}

func (h *DeviceCommandHandler) GetDiagnostics(c *fiber.Ctx) error {
	stationID := c.Params("id")

	var req GetDiagnosticsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "location is required"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.GetDiagnostics(c.Context(), stationID, req.Location); err != nil {
		h.log.Error("get diagnostics failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "requested"})
}

func (h *DeviceCommandHandler) ClearCache(c *fiber.Ctx) error {
	stationID := c.Params("id")
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.ClearCache(c.Context(), stationID); err != nil {
		h.log.Error("clear cache failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// --- Trigger Message ---

func (h *DeviceCommandHandler) TriggerMessage(c *fiber.Ctx) error {
	stationID := c.Params("id")
	message := c.Params("message")

	validMessages := map[string]bool{
		"BootNotification":   true,
		"Heartbeat":          true,
		"StatusNotification": true,
		"MeterValues":        true,
		"DiagnosticsStatusNotification": true,
		"FirmwareStatusNotification":    true,
	}
	if !validMessages[message] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid message type"})
	}
	if !h.ocppService.IsConnected(stationID) {
		return h.notConnected(c, stationID)
	}

	if err := h.ocppService.TriggerMessage(c.Context(), stationID, message); err != nil {
		h.log.Error("trigger message failed", zap.String("station_id", stationID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"status": "accepted"})
}

// --- Connection status ---

func (h *DeviceCommandHandler) GetConnectionStatus(c *fiber.Ctx) error {
	stationID := c.Params("id")
	return c.JSON(fiber.Map{
		"station_id": stationID,
		"connected":  h.ocppService.IsConnected(stationID),
		"protocol":   "ocpp1.6j",
	})
}

func (h *DeviceCommandHandler) GetConnectedDevices(c *fiber.Ctx) error {
	stations := h.ocppService.GetConnectedStations()
	return c.JSON(fiber.Map{"count": len(stations), "stations": stations})
}
