package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-ve/internal/domain"
)

// AuthService authenticates clients and issues the bearer tokens the mobile
// HTTP surface uses to resolve client_id (spec §6).
type AuthService interface {
	RequestCode(ctx context.Context, phone string) error
	Login(ctx context.Context, phone, otp string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, token string) (string, error)
	ValidateToken(ctx context.Context, token string) (*domain.Client, error)
}

// DeviceService is the read/admin-adjacent view over stations, backed by a
// cache-aside repository read the way the teacher's device service reads
// ChargePoints.
type DeviceService interface {
	GetStation(ctx context.Context, id string) (*domain.Station, error)
	ListStations(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error)
	UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus) error
}

// Cache is the general-purpose TTL key/value store used outside the OCPP
// actor's synchronous-KV path (Bus.Get/Set/Del) — JWT revocation and the
// device-service cache-aside read, both backed by Redis in production with
// an in-memory fallback when Redis is unavailable.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// EmailService handles the ambient notification channel used by the
// availability tracker (§4.5) and low-balance warnings.
type EmailService interface {
	Send(ctx context.Context, to, subject, body string) error
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
	SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}) error
	SendLowBalance(ctx context.Context, client *domain.Client, balance decimal.Decimal) error
	SendStationOffline(ctx context.Context, ownerEmail, stationID string, lastHeartbeat time.Time) error
	SendChargingError(ctx context.Context, client *domain.Client, stationID string, connectorID int, errorCode string) error
}

// PaymentService is the wallet top-up surface backed by Stripe; it is an
// external collaborator boundary per spec §1, not part of the core.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, clientID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error)
	ConfirmTopup(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPaymentHistory(ctx context.Context, clientID string, limit, offset int) ([]domain.Payment, error)
	RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (*domain.Refund, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// CardService manages stored payment cards for wallet top-up.
type CardService interface {
	AddCard(ctx context.Context, clientID string, req *CardRequest) (*domain.PaymentCard, error)
	GetCards(ctx context.Context, clientID string) ([]domain.PaymentCard, error)
	DeleteCard(ctx context.Context, clientID, cardID string) error
}

type CardRequest struct {
	Number     string
	ExpMonth   int
	ExpYear    int
	CVC        string
	SetDefault bool
}

// --- Bus (spec §4.2) ---

// Bus is the command/event bus decoupling HTTP workers from the single
// actor owning a station's socket.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string) (BusSubscription, error)

	// IsOnline / ListOnline / MarkOnline / MarkOffline manage the TTL
	// presence index (300s, refreshed on Heartbeat).
	MarkOnline(ctx context.Context, stationID string) error
	MarkOffline(ctx context.Context, stationID string) error
	IsOnline(ctx context.Context, stationID string) (bool, error)
	ListOnline(ctx context.Context) ([]string, error)

	// Get/Set/Del is the synchronous KV variant used from inside OCPP
	// handlers so they never cross an async boundary (spec §4.2).
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	// WaitForSubscription blocks until the actor's subscribe call for
	// stationID has completed, or timeout elapses; returns false on timeout.
	WaitForSubscription(ctx context.Context, stationID string, timeout time.Duration) bool

	// NotifySubscribed is called by the actor once its Subscribe has
	// completed, unblocking WaitForSubscription callers.
	NotifySubscribed(stationID string)
}

// BusSubscription is a blocking iterator over a topic's payloads.
type BusSubscription interface {
	Channel() <-chan []byte
	Close() error
}

// --- Pricing resolver (spec §4.4) ---

type PricingResolver interface {
	Resolve(ctx context.Context, args PricingArgs) (*domain.TariffSnapshot, error)
}

type PricingArgs struct {
	StationID     string
	ConnectorType string
	PowerKw       *float64
	At            time.Time
	ClientID      string
}

// --- Availability tracker (spec §4.5) ---

type AvailabilityTracker interface {
	// RefreshHeartbeat marks the station's TTL key, called on Heartbeat and
	// BootNotification.
	RefreshHeartbeat(ctx context.Context, stationID string) error
	IsStationOnline(ctx context.Context, stationID string) (bool, error)

	// UpdateConnectorStatus persists the internal status and invalidates the
	// cached location aggregate.
	UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus, errorCode string) error

	// LocationStatus derives the aggregate view described in §4.5.
	LocationStatus(ctx context.Context, locationID string) (LocationAggregateStatus, error)

	// RunAdministrativeSweep flips is_available based on heartbeat staleness;
	// called once per minute by the background sweep goroutine.
	RunAdministrativeSweep(ctx context.Context) error
}

type LocationAggregateStatus string

const (
	LocationStatusOffline     LocationAggregateStatus = "offline"
	LocationStatusMaintenance LocationAggregateStatus = "maintenance"
	LocationStatusOccupied    LocationAggregateStatus = "occupied"
	LocationStatusAvailable   LocationAggregateStatus = "available"
	LocationStatusPartial     LocationAggregateStatus = "partial"
)

// --- Charging-session engine (spec §4.3) ---

// ChargeLimit replaces the source's "dynamic named parameters" (spec §9):
// EnergyKwh, AmountSom, both, or neither may be set. Both set means an
// energy limit with the reservation capped by AmountSom; neither selects the
// unlimited-with-cap policy.
type ChargeLimit struct {
	EnergyKwh *decimal.Decimal
	AmountSom *decimal.Decimal
}

type StartChargingResult struct {
	Session      *domain.ChargingSession
	StationOnline bool
}

type ChargingSessionService interface {
	StartCharging(ctx context.Context, clientID, stationID string, connectorID int, limit ChargeLimit) (*StartChargingResult, error)
	StopCharging(ctx context.Context, sessionID, clientID string) (*domain.ChargingSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.ChargingSession, error)
	GetActiveSessionByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error)

	// OnMeterValue drives limit enforcement (§4.3) from a MeterValues report.
	OnMeterValue(ctx context.Context, ocppTransactionID uint, energyActiveImportWh int) error

	// OnBootNotificationReconcile implements the unconditional reconciliation
	// rule (§4.1/§4.3) for every orphaned session on the booted station.
	OnBootNotificationReconcile(ctx context.Context, stationID string) error

	// SweepHangingSessions runs the hourly sweep (§4.3) for sessions started
	// more than maxAge ago.
	SweepHangingSessions(ctx context.Context, maxAge time.Duration) (int, error)
}

// --- Idempotency (spec §4.6) ---

type IdempotencyStore interface {
	Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, key, method, path, bodyHash string, responseBody []byte, statusCode int) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// --- OCPP command dispatch (spec §4.1, outbound command table) ---

// OCPPCommandService is how the charging engine and availability tracker
// ask the actor owning a station's socket to issue an outbound OCPP Call.
// Implemented on top of Bus.Publish to cmd:<station_id>; the actor is the
// sole subscriber.
type OCPPCommandService interface {
	RemoteStartTransaction(ctx context.Context, stationID string, connectorID int, idTag, sessionID string, limit ChargeLimit) error
	RemoteStopTransaction(ctx context.Context, stationID string, transactionID int, reason string) error
	Reset(ctx context.Context, stationID, resetType string) error
	UnlockConnector(ctx context.Context, stationID string, connectorID int) error
	ChangeAvailability(ctx context.Context, stationID string, connectorID int, availabilityType string) error
	ChangeConfiguration(ctx context.Context, stationID, key, value string) error
	GetConfiguration(ctx context.Context, stationID string, keys []string) error
	GetDiagnostics(ctx context.Context, stationID, location string) error
	ClearCache(ctx context.Context, stationID string) error
	TriggerMessage(ctx context.Context, stationID, requestedMessage string) error

	IsConnected(stationID string) bool
	GetConnectedStations() []string
}

// --- Message Queue (ambient; the NATS fan-out in internal/service/notify
// does not use this interface, it takes queue.MessageQueue) ---

type MessageQueue interface {
	Publish(topic string, message interface{}) error
	Subscribe(topic string, handler func(message []byte)) error
	Close() error
}
