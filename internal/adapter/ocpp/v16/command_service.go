package v16

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

// subscriptionReadyTimeout is the SUBSCRIPTION_TIMEOUT_SECONDS from spec
// §5: a publisher waits this long for the actor's cmd:<station_id>
// Subscribe to complete before publishing anyway.
const subscriptionReadyTimeout = 5 * time.Second

// commandEnvelope is published on cmd:<station_id>; the subscribing actor
// (and only that actor, spec §4.1) turns it into an outbound OCPP Call.
type commandEnvelope struct {
	Action           string            `json:"action"`
	ConnectorID      int               `json:"connector_id,omitempty"`
	IdTag            string            `json:"id_tag,omitempty"`
	SessionID        string            `json:"session_id,omitempty"`
	LimitType        string            `json:"limit_type,omitempty"`
	LimitValue       string            `json:"limit_value,omitempty"`
	TransactionID    int               `json:"transaction_id,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	ResetType        string            `json:"reset_type,omitempty"`
	AvailabilityType string            `json:"availability_type,omitempty"`
	Key              string            `json:"key,omitempty"`
	Value            string            `json:"value,omitempty"`
	Keys             []string          `json:"keys,omitempty"`
	Location         string            `json:"location,omitempty"`
	RequestedMessage string            `json:"requested_message,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// CommandService implements ports.OCPPCommandService on top of the bus:
// every outbound command is a fire-and-forget publish to cmd:<station_id>,
// consumed by whichever process owns that station's actor (spec §4.2/§4.1).
type CommandService struct {
	bus      ports.Bus
	registry *Server
}

func NewCommandService(bus ports.Bus, registry *Server) *CommandService {
	return &CommandService{bus: bus, registry: registry}
}

func (c *CommandService) publish(ctx context.Context, stationID string, env commandEnvelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ocpp command: marshal %s: %w", env.Action, err)
	}
	c.bus.WaitForSubscription(ctx, stationID, subscriptionReadyTimeout)
	return c.bus.Publish(ctx, "cmd:"+stationID, payload)
}

func (c *CommandService) RemoteStartTransaction(ctx context.Context, stationID string, connectorID int, idTag, sessionID string, limit ports.ChargeLimit) error {
	env := commandEnvelope{Action: "RemoteStartTransaction", ConnectorID: connectorID, IdTag: idTag, SessionID: sessionID}
	switch {
	case limit.EnergyKwh != nil:
		env.LimitType = "energy"
		env.LimitValue = limit.EnergyKwh.String()
	case limit.AmountSom != nil:
		env.LimitType = "amount"
		env.LimitValue = limit.AmountSom.String()
	default:
		env.LimitType = "none"
	}
	return c.publish(ctx, stationID, env)
}

func (c *CommandService) RemoteStopTransaction(ctx context.Context, stationID string, transactionID int, reason string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "RemoteStopTransaction", TransactionID: transactionID, Reason: reason})
}

func (c *CommandService) Reset(ctx context.Context, stationID, resetType string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "Reset", ResetType: resetType})
}

func (c *CommandService) UnlockConnector(ctx context.Context, stationID string, connectorID int) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "UnlockConnector", ConnectorID: connectorID})
}

func (c *CommandService) ChangeAvailability(ctx context.Context, stationID string, connectorID int, availabilityType string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "ChangeAvailability", ConnectorID: connectorID, AvailabilityType: availabilityType})
}

func (c *CommandService) ChangeConfiguration(ctx context.Context, stationID, key, value string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "ChangeConfiguration", Key: key, Value: value})
}

func (c *CommandService) GetConfiguration(ctx context.Context, stationID string, keys []string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "GetConfiguration", Keys: keys})
}

func (c *CommandService) GetDiagnostics(ctx context.Context, stationID, location string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "GetDiagnostics", Location: location})
}

func (c *CommandService) ClearCache(ctx context.Context, stationID string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "ClearCache"})
}

func (c *CommandService) TriggerMessage(ctx context.Context, stationID, requestedMessage string) error {
	return c.publish(ctx, stationID, commandEnvelope{Action: "TriggerMessage", RequestedMessage: requestedMessage})
}

func (c *CommandService) IsConnected(stationID string) bool {
	return c.registry.IsConnected(stationID)
}

func (c *CommandService) GetConnectedStations() []string {
	return c.registry.ConnectedStations()
}
