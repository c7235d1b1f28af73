package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// MockAuthService is a mock implementation of ports.AuthService.
type MockAuthService struct {
	RequestCodeFunc   func(ctx context.Context, phone string) error
	LoginFunc         func(ctx context.Context, phone, otp string) (string, string, error)
	RefreshTokenFunc  func(ctx context.Context, token string) (string, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.Client, error)
}

func (m *MockAuthService) RequestCode(ctx context.Context, phone string) error {
	if m.RequestCodeFunc != nil {
		return m.RequestCodeFunc(ctx, phone)
	}
	return nil
}

func (m *MockAuthService) Login(ctx context.Context, phone, otp string) (string, string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, phone, otp)
	}
	return "", "", nil
}

func (m *MockAuthService) RefreshToken(ctx context.Context, token string) (string, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, token)
	}
	return "", nil
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*domain.Client, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	return nil, nil
}

// MockDeviceService is a mock implementation of ports.DeviceService.
type MockDeviceService struct {
	GetStationFunc             func(ctx context.Context, id string) (*domain.Station, error)
	ListStationsFunc           func(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error)
	UpdateConnectorStatusFunc func(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus) error
}

func (m *MockDeviceService) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	if m.GetStationFunc != nil {
		return m.GetStationFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDeviceService) ListStations(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error) {
	if m.ListStationsFunc != nil {
		return m.ListStationsFunc(ctx, filter)
	}
	return []domain.Station{}, nil
}

func (m *MockDeviceService) UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus) error {
	if m.UpdateConnectorStatusFunc != nil {
		return m.UpdateConnectorStatusFunc(ctx, stationID, connectorID, status)
	}
	return nil
}

// SentEmail represents a sent email captured for assertions.
type SentEmail struct {
	To       string
	Subject  string
	Body     string
	Template string
	Data     map[string]interface{}
}

// MockEmailService is a mock implementation of ports.EmailService.
type MockEmailService struct {
	SendFunc              func(ctx context.Context, to, subject, body string) error
	SendHTMLFunc          func(ctx context.Context, to, subject, htmlBody string) error
	SendTemplateFunc      func(ctx context.Context, to, templateName string, data map[string]interface{}) error
	SendLowBalanceFunc    func(ctx context.Context, client *domain.Client, balance decimal.Decimal) error
	SendStationOfflineFunc func(ctx context.Context, ownerEmail, stationID string, lastHeartbeat time.Time) error
	SendChargingErrorFunc func(ctx context.Context, client *domain.Client, stationID string, connectorID int, errorCode string) error

	SentEmails []SentEmail
}

func (m *MockEmailService) Send(ctx context.Context, to, subject, body string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: body})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *MockEmailService) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: htmlBody})
	if m.SendHTMLFunc != nil {
		return m.SendHTMLFunc(ctx, to, subject, htmlBody)
	}
	return nil
}

func (m *MockEmailService) SendTemplate(ctx context.Context, to, templateName string, data map[string]interface{}) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Template: templateName, Data: data})
	if m.SendTemplateFunc != nil {
		return m.SendTemplateFunc(ctx, to, templateName, data)
	}
	return nil
}

func (m *MockEmailService) SendLowBalance(ctx context.Context, client *domain.Client, balance decimal.Decimal) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: client.Email, Template: "low_balance"})
	if m.SendLowBalanceFunc != nil {
		return m.SendLowBalanceFunc(ctx, client, balance)
	}
	return nil
}

func (m *MockEmailService) SendStationOffline(ctx context.Context, ownerEmail, stationID string, lastHeartbeat time.Time) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: ownerEmail, Template: "station_offline"})
	if m.SendStationOfflineFunc != nil {
		return m.SendStationOfflineFunc(ctx, ownerEmail, stationID, lastHeartbeat)
	}
	return nil
}

func (m *MockEmailService) SendChargingError(ctx context.Context, client *domain.Client, stationID string, connectorID int, errorCode string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: client.Email, Template: "charging_error"})
	if m.SendChargingErrorFunc != nil {
		return m.SendChargingErrorFunc(ctx, client, stationID, connectorID, errorCode)
	}
	return nil
}

// GetSentEmails returns all sent emails for assertions.
func (m *MockEmailService) GetSentEmails() []SentEmail {
	return m.SentEmails
}

// ClearSentEmails clears the sent emails list.
func (m *MockEmailService) ClearSentEmails() {
	m.SentEmails = nil
}

// MockPaymentService is a mock implementation of ports.PaymentService.
type MockPaymentService struct {
	CreatePaymentIntentFunc func(ctx context.Context, clientID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error)
	ConfirmTopupFunc        func(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPaymentFunc          func(ctx context.Context, paymentID string) (*domain.Payment, error)
	GetPaymentHistoryFunc   func(ctx context.Context, clientID string, limit, offset int) ([]domain.Payment, error)
	RefundPaymentFunc       func(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (*domain.Refund, error)
	HandleWebhookFunc       func(ctx context.Context, payload []byte, signature string) error
}

func (m *MockPaymentService) CreatePaymentIntent(ctx context.Context, clientID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error) {
	if m.CreatePaymentIntentFunc != nil {
		return m.CreatePaymentIntentFunc(ctx, clientID, amount, currency)
	}
	return nil, nil
}

func (m *MockPaymentService) ConfirmTopup(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.ConfirmTopupFunc != nil {
		return m.ConfirmTopupFunc(ctx, paymentID)
	}
	return nil, nil
}

func (m *MockPaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if m.GetPaymentFunc != nil {
		return m.GetPaymentFunc(ctx, paymentID)
	}
	return nil, nil
}

func (m *MockPaymentService) GetPaymentHistory(ctx context.Context, clientID string, limit, offset int) ([]domain.Payment, error) {
	if m.GetPaymentHistoryFunc != nil {
		return m.GetPaymentHistoryFunc(ctx, clientID, limit, offset)
	}
	return []domain.Payment{}, nil
}

func (m *MockPaymentService) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (*domain.Refund, error) {
	if m.RefundPaymentFunc != nil {
		return m.RefundPaymentFunc(ctx, paymentID, amount, reason)
	}
	return nil, nil
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if m.HandleWebhookFunc != nil {
		return m.HandleWebhookFunc(ctx, payload, signature)
	}
	return nil
}

// MockCardService is a mock implementation of ports.CardService.
type MockCardService struct {
	AddCardFunc    func(ctx context.Context, clientID string, req *ports.CardRequest) (*domain.PaymentCard, error)
	GetCardsFunc   func(ctx context.Context, clientID string) ([]domain.PaymentCard, error)
	DeleteCardFunc func(ctx context.Context, clientID, cardID string) error
}

func (m *MockCardService) AddCard(ctx context.Context, clientID string, req *ports.CardRequest) (*domain.PaymentCard, error) {
	if m.AddCardFunc != nil {
		return m.AddCardFunc(ctx, clientID, req)
	}
	return nil, nil
}

func (m *MockCardService) GetCards(ctx context.Context, clientID string) ([]domain.PaymentCard, error) {
	if m.GetCardsFunc != nil {
		return m.GetCardsFunc(ctx, clientID)
	}
	return []domain.PaymentCard{}, nil
}

func (m *MockCardService) DeleteCard(ctx context.Context, clientID, cardID string) error {
	if m.DeleteCardFunc != nil {
		return m.DeleteCardFunc(ctx, clientID, cardID)
	}
	return nil
}

// MockCache is a mock implementation of ports.Cache.
type MockCache struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
	PingFunc   func() error
	CloseFunc  func() error
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", nil
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *MockCache) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func (m *MockCache) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MockBusSubscription is a mock implementation of ports.BusSubscription.
type MockBusSubscription struct {
	Ch        chan []byte
	CloseFunc func() error
}

func NewMockBusSubscription() *MockBusSubscription {
	return &MockBusSubscription{Ch: make(chan []byte, 16)}
}

func (m *MockBusSubscription) Channel() <-chan []byte {
	return m.Ch
}

func (m *MockBusSubscription) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	close(m.Ch)
	return nil
}

// MockBus is a mock implementation of ports.Bus.
type MockBus struct {
	PublishFunc             func(ctx context.Context, topic string, payload []byte) error
	SubscribeFunc           func(ctx context.Context, topic string) (ports.BusSubscription, error)
	MarkOnlineFunc          func(ctx context.Context, stationID string) error
	MarkOfflineFunc         func(ctx context.Context, stationID string) error
	IsOnlineFunc            func(ctx context.Context, stationID string) (bool, error)
	ListOnlineFunc          func(ctx context.Context) ([]string, error)
	GetFunc                 func(ctx context.Context, key string) (string, bool, error)
	SetFunc                 func(ctx context.Context, key, value string, ttl time.Duration) error
	DelFunc                 func(ctx context.Context, key string) error
	WaitForSubscriptionFunc func(ctx context.Context, stationID string, timeout time.Duration) bool
	NotifySubscribedFunc    func(stationID string)

	Published map[string][][]byte
}

func (m *MockBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if m.Published == nil {
		m.Published = make(map[string][][]byte)
	}
	m.Published[topic] = append(m.Published[topic], payload)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, payload)
	}
	return nil
}

func (m *MockBus) Subscribe(ctx context.Context, topic string) (ports.BusSubscription, error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic)
	}
	return NewMockBusSubscription(), nil
}

func (m *MockBus) MarkOnline(ctx context.Context, stationID string) error {
	if m.MarkOnlineFunc != nil {
		return m.MarkOnlineFunc(ctx, stationID)
	}
	return nil
}

func (m *MockBus) MarkOffline(ctx context.Context, stationID string) error {
	if m.MarkOfflineFunc != nil {
		return m.MarkOfflineFunc(ctx, stationID)
	}
	return nil
}

func (m *MockBus) IsOnline(ctx context.Context, stationID string) (bool, error) {
	if m.IsOnlineFunc != nil {
		return m.IsOnlineFunc(ctx, stationID)
	}
	return false, nil
}

func (m *MockBus) ListOnline(ctx context.Context) ([]string, error) {
	if m.ListOnlineFunc != nil {
		return m.ListOnlineFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockBus) Get(ctx context.Context, key string) (string, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return "", false, nil
}

func (m *MockBus) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	return nil
}

func (m *MockBus) Del(ctx context.Context, key string) error {
	if m.DelFunc != nil {
		return m.DelFunc(ctx, key)
	}
	return nil
}

func (m *MockBus) WaitForSubscription(ctx context.Context, stationID string, timeout time.Duration) bool {
	if m.WaitForSubscriptionFunc != nil {
		return m.WaitForSubscriptionFunc(ctx, stationID, timeout)
	}
	return true
}

func (m *MockBus) NotifySubscribed(stationID string) {
	if m.NotifySubscribedFunc != nil {
		m.NotifySubscribedFunc(stationID)
	}
}

// MockPricingResolver is a mock implementation of ports.PricingResolver.
type MockPricingResolver struct {
	ResolveFunc func(ctx context.Context, args ports.PricingArgs) (*domain.TariffSnapshot, error)
}

func (m *MockPricingResolver) Resolve(ctx context.Context, args ports.PricingArgs) (*domain.TariffSnapshot, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, args)
	}
	return nil, nil
}

// MockAvailabilityTracker is a mock implementation of ports.AvailabilityTracker.
type MockAvailabilityTracker struct {
	RefreshHeartbeatFunc       func(ctx context.Context, stationID string) error
	IsStationOnlineFunc        func(ctx context.Context, stationID string) (bool, error)
	UpdateConnectorStatusFunc func(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus, errorCode string) error
	LocationStatusFunc         func(ctx context.Context, locationID string) (ports.LocationAggregateStatus, error)
	RunAdministrativeSweepFunc func(ctx context.Context) error
}

func (m *MockAvailabilityTracker) RefreshHeartbeat(ctx context.Context, stationID string) error {
	if m.RefreshHeartbeatFunc != nil {
		return m.RefreshHeartbeatFunc(ctx, stationID)
	}
	return nil
}

func (m *MockAvailabilityTracker) IsStationOnline(ctx context.Context, stationID string) (bool, error) {
	if m.IsStationOnlineFunc != nil {
		return m.IsStationOnlineFunc(ctx, stationID)
	}
	return false, nil
}

func (m *MockAvailabilityTracker) UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus, errorCode string) error {
	if m.UpdateConnectorStatusFunc != nil {
		return m.UpdateConnectorStatusFunc(ctx, stationID, connectorID, status, errorCode)
	}
	return nil
}

func (m *MockAvailabilityTracker) LocationStatus(ctx context.Context, locationID string) (ports.LocationAggregateStatus, error) {
	if m.LocationStatusFunc != nil {
		return m.LocationStatusFunc(ctx, locationID)
	}
	return ports.LocationStatusAvailable, nil
}

func (m *MockAvailabilityTracker) RunAdministrativeSweep(ctx context.Context) error {
	if m.RunAdministrativeSweepFunc != nil {
		return m.RunAdministrativeSweepFunc(ctx)
	}
	return nil
}

// MockChargingSessionService is a mock implementation of ports.ChargingSessionService.
type MockChargingSessionService struct {
	StartChargingFunc               func(ctx context.Context, clientID, stationID string, connectorID int, limit ports.ChargeLimit) (*ports.StartChargingResult, error)
	StopChargingFunc                 func(ctx context.Context, sessionID, clientID string) (*domain.ChargingSession, error)
	GetSessionFunc                   func(ctx context.Context, sessionID string) (*domain.ChargingSession, error)
	GetActiveSessionByClientFunc     func(ctx context.Context, clientID string) (*domain.ChargingSession, error)
	OnMeterValueFunc                 func(ctx context.Context, ocppTransactionID uint, energyActiveImportWh int) error
	OnBootNotificationReconcileFunc func(ctx context.Context, stationID string) error
	SweepHangingSessionsFunc         func(ctx context.Context, maxAge time.Duration) (int, error)
}

func (m *MockChargingSessionService) StartCharging(ctx context.Context, clientID, stationID string, connectorID int, limit ports.ChargeLimit) (*ports.StartChargingResult, error) {
	if m.StartChargingFunc != nil {
		return m.StartChargingFunc(ctx, clientID, stationID, connectorID, limit)
	}
	return nil, nil
}

func (m *MockChargingSessionService) StopCharging(ctx context.Context, sessionID, clientID string) (*domain.ChargingSession, error) {
	if m.StopChargingFunc != nil {
		return m.StopChargingFunc(ctx, sessionID, clientID)
	}
	return nil, nil
}

func (m *MockChargingSessionService) GetSession(ctx context.Context, sessionID string) (*domain.ChargingSession, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, nil
}

func (m *MockChargingSessionService) GetActiveSessionByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error) {
	if m.GetActiveSessionByClientFunc != nil {
		return m.GetActiveSessionByClientFunc(ctx, clientID)
	}
	return nil, nil
}

func (m *MockChargingSessionService) OnMeterValue(ctx context.Context, ocppTransactionID uint, energyActiveImportWh int) error {
	if m.OnMeterValueFunc != nil {
		return m.OnMeterValueFunc(ctx, ocppTransactionID, energyActiveImportWh)
	}
	return nil
}

func (m *MockChargingSessionService) OnBootNotificationReconcile(ctx context.Context, stationID string) error {
	if m.OnBootNotificationReconcileFunc != nil {
		return m.OnBootNotificationReconcileFunc(ctx, stationID)
	}
	return nil
}

func (m *MockChargingSessionService) SweepHangingSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	if m.SweepHangingSessionsFunc != nil {
		return m.SweepHangingSessionsFunc(ctx, maxAge)
	}
	return 0, nil
}

// MockIdempotencyStore is a mock implementation of ports.IdempotencyStore.
type MockIdempotencyStore struct {
	FindFunc         func(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	SaveFunc         func(ctx context.Context, key, method, path, bodyHash string, responseBody []byte, statusCode int) error
	PurgeExpiredFunc func(ctx context.Context) (int64, error)
}

func (m *MockIdempotencyStore) Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockIdempotencyStore) Save(ctx context.Context, key, method, path, bodyHash string, responseBody []byte, statusCode int) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, key, method, path, bodyHash, responseBody, statusCode)
	}
	return nil
}

func (m *MockIdempotencyStore) PurgeExpired(ctx context.Context) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx)
	}
	return 0, nil
}

// MockOCPPCommandService is a mock implementation of ports.OCPPCommandService.
type MockOCPPCommandService struct {
	RemoteStartTransactionFunc func(ctx context.Context, stationID string, connectorID int, idTag, sessionID string, limit ports.ChargeLimit) error
	RemoteStopTransactionFunc  func(ctx context.Context, stationID string, transactionID int, reason string) error
	ResetFunc                  func(ctx context.Context, stationID, resetType string) error
	UnlockConnectorFunc        func(ctx context.Context, stationID string, connectorID int) error
	ChangeAvailabilityFunc     func(ctx context.Context, stationID string, connectorID int, availabilityType string) error
	ChangeConfigurationFunc    func(ctx context.Context, stationID, key, value string) error
	GetConfigurationFunc       func(ctx context.Context, stationID string, keys []string) error
	GetDiagnosticsFunc         func(ctx context.Context, stationID, location string) error
	ClearCacheFunc             func(ctx context.Context, stationID string) error
	TriggerMessageFunc         func(ctx context.Context, stationID, requestedMessage string) error
	IsConnectedFunc            func(stationID string) bool
	GetConnectedStationsFunc   func() []string
}

func (m *MockOCPPCommandService) RemoteStartTransaction(ctx context.Context, stationID string, connectorID int, idTag, sessionID string, limit ports.ChargeLimit) error {
	if m.RemoteStartTransactionFunc != nil {
		return m.RemoteStartTransactionFunc(ctx, stationID, connectorID, idTag, sessionID, limit)
	}
	return nil
}

func (m *MockOCPPCommandService) RemoteStopTransaction(ctx context.Context, stationID string, transactionID int, reason string) error {
	if m.RemoteStopTransactionFunc != nil {
		return m.RemoteStopTransactionFunc(ctx, stationID, transactionID, reason)
	}
	return nil
}

func (m *MockOCPPCommandService) Reset(ctx context.Context, stationID, resetType string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, stationID, resetType)
	}
	return nil
}

func (m *MockOCPPCommandService) UnlockConnector(ctx context.Context, stationID string, connectorID int) error {
	if m.UnlockConnectorFunc != nil {
		return m.UnlockConnectorFunc(ctx, stationID, connectorID)
	}
	return nil
}

func (m *MockOCPPCommandService) ChangeAvailability(ctx context.Context, stationID string, connectorID int, availabilityType string) error {
	if m.ChangeAvailabilityFunc != nil {
		return m.ChangeAvailabilityFunc(ctx, stationID, connectorID, availabilityType)
	}
	return nil
}

func (m *MockOCPPCommandService) ChangeConfiguration(ctx context.Context, stationID, key, value string) error {
	if m.ChangeConfigurationFunc != nil {
		return m.ChangeConfigurationFunc(ctx, stationID, key, value)
	}
	return nil
}

func (m *MockOCPPCommandService) GetConfiguration(ctx context.Context, stationID string, keys []string) error {
	if m.GetConfigurationFunc != nil {
		return m.GetConfigurationFunc(ctx, stationID, keys)
	}
	return nil
}

func (m *MockOCPPCommandService) GetDiagnostics(ctx context.Context, stationID, location string) error {
	if m.GetDiagnosticsFunc != nil {
		return m.GetDiagnosticsFunc(ctx, stationID, location)
	}
	return nil
}

func (m *MockOCPPCommandService) ClearCache(ctx context.Context, stationID string) error {
	if m.ClearCacheFunc != nil {
		return m.ClearCacheFunc(ctx, stationID)
	}
	return nil
}

func (m *MockOCPPCommandService) TriggerMessage(ctx context.Context, stationID, requestedMessage string) error {
	if m.TriggerMessageFunc != nil {
		return m.TriggerMessageFunc(ctx, stationID, requestedMessage)
	}
	return nil
}

func (m *MockOCPPCommandService) IsConnected(stationID string) bool {
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc(stationID)
	}
	return false
}

func (m *MockOCPPCommandService) GetConnectedStations() []string {
	if m.GetConnectedStationsFunc != nil {
		return m.GetConnectedStationsFunc()
	}
	return []string{}
}
