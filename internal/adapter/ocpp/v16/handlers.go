package v16

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// NotImplementedError maps to a CallError with error code "NotImplemented"
// (spec §4.1: unknown actions get this instead of InternalError).
type NotImplementedError struct{ Action string }

func (e *NotImplementedError) Error() string { return "action not implemented: " + e.Action }

// Handlers implements the spec §4.1 inbound action table. One set of
// Handlers is shared by every actor; all per-station exclusivity lives in
// the caller (the actor goroutine), not here.
type Handlers struct {
	stations     ports.StationRepository
	clients      ports.ClientRepository
	ocppTxns     ports.OcppTransactionRepository
	sessions     ports.ChargingSessionRepository
	charging     ports.ChargingSessionService
	availability ports.AvailabilityTracker
	bus          ports.Bus
	log          *zap.Logger
}

func NewHandlers(
	stations ports.StationRepository,
	clients ports.ClientRepository,
	ocppTxns ports.OcppTransactionRepository,
	sessions ports.ChargingSessionRepository,
	charging ports.ChargingSessionService,
	availability ports.AvailabilityTracker,
	bus ports.Bus,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		stations:     stations,
		clients:      clients,
		ocppTxns:     ocppTxns,
		sessions:     sessions,
		charging:     charging,
		availability: availability,
		bus:          bus,
		log:          log,
	}
}

// Handle routes one inbound Call to its handler.
func (h *Handlers) Handle(ctx context.Context, stationID, action string, payload json.RawMessage) (interface{}, error) {
	telemetry.RecordOCPPMessage(action, true)
	switch action {
	case "BootNotification":
		return h.bootNotification(ctx, stationID, payload)
	case "Heartbeat":
		return h.heartbeat(ctx, stationID)
	case "StatusNotification":
		return h.statusNotification(ctx, stationID, payload)
	case "Authorize":
		return h.authorize(ctx, stationID, payload)
	case "StartTransaction":
		return h.startTransaction(ctx, stationID, payload)
	case "StopTransaction":
		return h.stopTransaction(ctx, stationID, payload)
	case "MeterValues":
		return h.meterValues(ctx, stationID, payload)
	case "DataTransfer":
		return map[string]interface{}{"status": "Accepted", "data": ""}, nil
	case "DiagnosticsStatusNotification":
		return h.statusOnlyLog(stationID, action, payload)
	case "FirmwareStatusNotification":
		return h.statusOnlyLog(stationID, action, payload)
	case "GetConfiguration", "ChangeConfiguration", "Reset", "UnlockConnector",
		"ChangeAvailability", "ClearCache", "GetDiagnostics", "UpdateFirmware",
		"TriggerMessage", "SendLocalList", "GetLocalListVersion":
		// These are normally actor-initiated (outbound) per the command
		// table; spec §4.1 only asks that an inbound occurrence of one of
		// these action names (a station echoing a command name back as a
		// Call, seen on some vendor firmwares) be acknowledged, not acted on.
		return h.acknowledgeEcho(action), nil
	default:
		return nil, &NotImplementedError{Action: action}
	}
}

func (h *Handlers) acknowledgeEcho(action string) interface{} {
	switch action {
	case "GetConfiguration":
		return map[string]interface{}{"configurationKey": []interface{}{}, "unknownKey": []interface{}{}}
	case "GetLocalListVersion":
		return map[string]interface{}{"listVersion": 0}
	default:
		return map[string]interface{}{"status": "Accepted"}
	}
}

func (h *Handlers) statusOnlyLog(stationID, action string, payload json.RawMessage) (interface{}, error) {
	h.log.Info("ocpp: status notification", zap.String("station_id", stationID), zap.String("action", action), zap.ByteString("payload", payload))
	return map[string]interface{}{}, nil
}

type bootNotificationReq struct {
	ChargePointVendor string `json:"chargePointVendor"`
	ChargePointModel  string `json:"chargePointModel"`
	ChargePointSerial string `json:"chargePointSerialNumber,omitempty"`
	FirmwareVersion   string `json:"firmwareVersion,omitempty"`
}

type bootNotificationResp struct {
	Status      string `json:"status"`
	CurrentTime string `json:"currentTime"`
	Interval    int    `json:"interval"`
}

// defaultHeartbeatInterval / defaultMeterValueSampleInterval are the config
// keys spec §4.1 says BootNotification seeds; there is no persisted
// per-station configuration-key store in the data model (admin config CRUD
// is out of core scope, spec §1), so neither is written anywhere. Only
// defaultHeartbeatInterval goes back to the station, as BootNotification's
// Interval.
const (
	defaultHeartbeatInterval        = 300
	defaultMeterValueSampleInterval = 60
)

func (h *Handlers) bootNotification(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req bootNotificationReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid BootNotification: %w", err)
	}

	h.log.Info("ocpp: BootNotification",
		zap.String("station_id", stationID),
		zap.String("vendor", req.ChargePointVendor),
		zap.String("model", req.ChargePointModel),
	)

	if err := h.availability.RefreshHeartbeat(ctx, stationID); err != nil {
		h.log.Warn("ocpp: failed to refresh heartbeat on boot", zap.Error(err))
	}

	if station, err := h.stations.FindByID(ctx, stationID); err == nil && station != nil {
		if req.FirmwareVersion != "" && req.FirmwareVersion != station.FirmwareVersion {
			station.FirmwareVersion = req.FirmwareVersion
			if err := h.stations.Save(ctx, station); err != nil {
				h.log.Warn("ocpp: failed to persist firmware version", zap.Error(err))
			}
		}
	}

	if err := h.charging.OnBootNotificationReconcile(ctx, stationID); err != nil {
		h.log.Error("ocpp: boot reconciliation failed", zap.String("station_id", stationID), zap.Error(err))
	}

	_ = defaultMeterValueSampleInterval // not sent: 1.6 BootNotification has no field for it, and no ChangeConfiguration is issued for it

	return bootNotificationResp{
		Status:      "Accepted",
		CurrentTime: time.Now().UTC().Format(time.RFC3339),
		Interval:    defaultHeartbeatInterval,
	}, nil
}

func (h *Handlers) heartbeat(ctx context.Context, stationID string) (interface{}, error) {
	if err := h.availability.RefreshHeartbeat(ctx, stationID); err != nil {
		h.log.Warn("ocpp: failed to refresh heartbeat", zap.Error(err))
	}
	telemetry.DeviceLastSeen.WithLabelValues(stationID).SetToCurrentTime()
	return map[string]string{"currentTime": time.Now().UTC().Format(time.RFC3339)}, nil
}

type statusNotificationReq struct {
	ConnectorId     int    `json:"connectorId"`
	ErrorCode       string `json:"errorCode"`
	Status          string `json:"status"`
	Timestamp       string `json:"timestamp,omitempty"`
	VendorErrorCode string `json:"vendorErrorCode,omitempty"`
}

// statusMap implements the spec §4.1 OCPP→internal connector status map.
var statusMap = map[string]domain.ConnectorStatus{
	"Available":      domain.ConnectorStatusAvailable,
	"Preparing":      domain.ConnectorStatusOccupied,
	"Charging":       domain.ConnectorStatusOccupied,
	"SuspendedEV":    domain.ConnectorStatusOccupied,
	"SuspendedEVSE":  domain.ConnectorStatusOccupied,
	"Finishing":      domain.ConnectorStatusOccupied,
	"Reserved":       domain.ConnectorStatusOccupied,
	"Unavailable":    domain.ConnectorStatusUnavailable,
	"Faulted":        domain.ConnectorStatusFaulted,
}

func (h *Handlers) statusNotification(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req statusNotificationReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid StatusNotification: %w", err)
	}

	h.log.Info("ocpp: StatusNotification",
		zap.String("station_id", stationID),
		zap.Int("connector_id", req.ConnectorId),
		zap.String("status", req.Status),
		zap.String("error_code", req.ErrorCode),
	)

	if req.ConnectorId == 0 {
		// Connector 0 reports the charge point as a whole; no per-connector
		// row to update (spec §4.1/§3 keys connectors by connector_id ≥ 1).
		return map[string]interface{}{}, nil
	}

	internal, ok := statusMap[req.Status]
	if !ok {
		internal = domain.ConnectorStatusAvailable
	}

	if err := h.availability.UpdateConnectorStatus(ctx, stationID, req.ConnectorId, internal, req.ErrorCode); err != nil {
		h.log.Error("ocpp: failed to update connector status", zap.Error(err))
	}

	return map[string]interface{}{}, nil
}

type authorizeReq struct {
	IdTag string `json:"idTag"`
}

func (h *Handlers) authorize(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req authorizeReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid Authorize: %w", err)
	}

	status := "Invalid"
	client, err := h.clients.FindByPhone(ctx, digitsOnly(req.IdTag))
	if err != nil {
		h.log.Warn("ocpp: authorize lookup failed", zap.Error(err))
	} else if client != nil {
		switch client.Status {
		case domain.ClientStatusActive:
			status = "Accepted"
		case domain.ClientStatusBlocked:
			status = "Blocked"
		default:
			status = "Invalid"
		}
	}

	h.log.Info("ocpp: Authorize", zap.String("station_id", stationID), zap.String("id_tag", req.IdTag), zap.String("status", status))
	return map[string]interface{}{"idTagInfo": map[string]string{"status": status}}, nil
}

type startTransactionReq struct {
	ConnectorId   int    `json:"connectorId"`
	IdTag         string `json:"idTag"`
	MeterStart    int    `json:"meterStart"`
	Timestamp     string `json:"timestamp"`
	ReservationId *int   `json:"reservationId,omitempty"`
}

type startTransactionResp struct {
	TransactionID int               `json:"transactionId"`
	IdTagInfo     map[string]string `json:"idTagInfo"`
}

func (h *Handlers) startTransaction(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req startTransactionReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid StartTransaction: %w", err)
	}

	h.log.Info("ocpp: StartTransaction", zap.String("station_id", stationID), zap.Int("connector_id", req.ConnectorId), zap.String("id_tag", req.IdTag))

	transactionID := int(time.Now().Unix())
	if existing, err := h.ocppTxns.FindByStationAndTransactionID(ctx, stationID, transactionID); err == nil && existing != nil {
		// Two StartTransactions landed in the same second; spec §4.1 asks
		// for dedupe on (station_id, transaction_id) rather than a clash.
		transactionID++
	}

	session := h.bindTransaction(ctx, stationID, req.ConnectorId, req.IdTag)

	txn := &domain.OcppTransaction{
		StationID:     stationID,
		TransactionID: transactionID,
		ConnectorID:   req.ConnectorId,
		IdTag:         req.IdTag,
		MeterStart:    req.MeterStart,
		Status:        "Started",
		StartedAt:     time.Now().UTC(),
	}
	if session != nil {
		txn.ChargingSessionID = &session.ID
	}
	if err := h.ocppTxns.Save(ctx, txn); err != nil {
		return nil, fmt.Errorf("ocpp: save transaction: %w", err)
	}

	if session != nil {
		session.OcppTransactionID = &transactionID
		session.Status = domain.SessionStatusStarted
		if err := h.sessions.Save(ctx, session); err != nil {
			h.log.Error("ocpp: failed to bind session to transaction", zap.Error(err), zap.String("session_id", session.ID))
		}
	}

	if connector, err := h.stations.FindConnector(ctx, stationID, req.ConnectorId); err == nil && connector != nil {
		connector.Status = domain.ConnectorStatusOccupied
		connector.LastStatusAt = time.Now().UTC()
		_ = h.stations.SaveConnector(ctx, connector)
	}

	return startTransactionResp{
		TransactionID: transactionID,
		IdTagInfo:     map[string]string{"status": "Accepted"},
	}, nil
}

// bindTransaction implements the spec §4.1 binding algorithm: pending-index
// lookup, then phone match, then authorisation fallback. Returns nil (and
// logs a warning) if none of the three hits, which is itself a valid
// outcome — the StartTransaction is still accepted, unbound.
func (h *Handlers) bindTransaction(ctx context.Context, stationID string, connectorID int, idTag string) *domain.ChargingSession {
	kvKey := fmt.Sprintf("pending:%s:%d", stationID, connectorID)
	// Pending-index lookup is done by whoever owns the bus KV; the charging
	// service writes it, and the actor is the only reader at bind time, so
	// reading and clearing it here is safe under the one-actor-per-station
	// invariant (spec §5).
	if sessionID, ok, err := h.bus.Get(ctx, kvKey); err == nil && ok {
		_ = h.bus.Del(ctx, kvKey)
		if session, err := h.sessions.FindByID(ctx, sessionID); err == nil && session != nil {
			return session
		}
	}

	digits := digitsOnly(idTag)
	candidates, err := h.sessions.FindNonTerminalByStation(ctx, stationID)
	if err == nil {
		for i := range candidates {
			c := &candidates[i]
			if c.OcppTransactionID != nil {
				continue
			}
			client, err := h.clients.FindByID(ctx, c.ClientID)
			if err != nil || client == nil {
				continue
			}
			if digitsOnly(client.Phone) == digits {
				return c
			}
		}
	}

	if client, err := h.clients.FindByPhone(ctx, digits); err == nil && client != nil {
		if session, err := h.sessions.FindActiveByClient(ctx, client.ID); err == nil && session != nil && session.StationID == stationID {
			return session
		}
	}

	h.log.Warn("ocpp: StartTransaction could not be bound to any session", zap.String("station_id", stationID), zap.Int("connector_id", connectorID), zap.String("id_tag", idTag))
	return nil
}

func digitsOnly(phone string) string {
	out := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

type stopTransactionReq struct {
	TransactionId int    `json:"transactionId"`
	MeterStop     int    `json:"meterStop"`
	Timestamp     string `json:"timestamp"`
	IdTag         string `json:"idTag,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

func (h *Handlers) stopTransaction(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req stopTransactionReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid StopTransaction: %w", err)
	}

	h.log.Info("ocpp: StopTransaction", zap.String("station_id", stationID), zap.Int("transaction_id", req.TransactionId), zap.Int("meter_stop", req.MeterStop))

	txn, err := h.ocppTxns.FindByStationAndTransactionID(ctx, stationID, req.TransactionId)
	if err != nil {
		h.log.Error("ocpp: failed to load transaction for stop", zap.Error(err))
	}
	if txn != nil {
		now := time.Now().UTC()
		txn.MeterStop = req.MeterStop
		txn.Status = "Stopped"
		txn.StopReason = req.Reason
		txn.StoppedAt = &now
		if err := h.ocppTxns.Update(ctx, txn); err != nil {
			h.log.Error("ocpp: failed to update transaction on stop", zap.Error(err))
		}

		if connector, err := h.stations.FindConnector(ctx, stationID, txn.ConnectorID); err == nil && connector != nil {
			connector.Status = domain.ConnectorStatusAvailable
			connector.LastStatusAt = now
			_ = h.stations.SaveConnector(ctx, connector)
		}

		if txn.ChargingSessionID != nil {
			if session, err := h.sessions.FindByID(ctx, *txn.ChargingSessionID); err == nil && session != nil && session.Status == domain.SessionStatusStarted {
				// A station-initiated stop (button press, local fault) that
				// never went through the HTTP /charging/stop endpoint: the
				// actor hands off to the engine so settlement still runs
				// (spec §4.1 "hand off to settlement §4.3").
				if _, err := h.charging.StopCharging(ctx, session.ID, session.ClientID); err != nil {
					h.log.Warn("ocpp: settlement on station-initiated stop failed", zap.Error(err), zap.String("session_id", session.ID))
				}
			}
		}
	}

	return map[string]interface{}{"idTagInfo": map[string]string{"status": "Accepted"}}, nil
}

type sampledValue struct {
	Value     string `json:"value"`
	Measurand string `json:"measurand,omitempty"`
	Unit      string `json:"unit,omitempty"`
}

type meterValueEntry struct {
	Timestamp    string         `json:"timestamp"`
	SampledValue []sampledValue `json:"sampledValue"`
}

type meterValuesReq struct {
	ConnectorId   int               `json:"connectorId"`
	TransactionId *int              `json:"transactionId,omitempty"`
	MeterValue    []meterValueEntry `json:"meterValue"`
}

func (h *Handlers) meterValues(ctx context.Context, stationID string, payload json.RawMessage) (interface{}, error) {
	var req meterValuesReq
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("invalid MeterValues: %w", err)
	}
	if req.TransactionId == nil {
		return map[string]interface{}{}, nil
	}

	txn, err := h.ocppTxns.FindByStationAndTransactionID(ctx, stationID, *req.TransactionId)
	if err != nil || txn == nil {
		return map[string]interface{}{}, nil
	}

	wh, ok := extractEnergyActiveImportWh(req.MeterValue)
	if !ok {
		return map[string]interface{}{}, nil
	}

	if err := h.charging.OnMeterValue(ctx, txn.ID, wh); err != nil {
		h.log.Error("ocpp: failed to process meter value", zap.Error(err), zap.String("station_id", stationID))
	}

	return map[string]interface{}{}, nil
}

// extractEnergyActiveImportWh finds the most recent Energy.Active.Import.Register
// sample and normalises it to Wh (some firmwares report kWh, spec §4.1).
func extractEnergyActiveImportWh(entries []meterValueEntry) (int, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		for _, sv := range entries[i].SampledValue {
			if sv.Measurand != "" && sv.Measurand != "Energy.Active.Import.Register" {
				continue
			}
			var value float64
			if _, err := fmt.Sscanf(sv.Value, "%f", &value); err != nil {
				continue
			}
			if sv.Unit == "kWh" {
				value *= 1000
			}
			return int(value), true
		}
	}
	return 0, false
}
