package mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// MockClientRepository is a mock implementation of ports.ClientRepository.
type MockClientRepository struct {
	SaveFunc           func(ctx context.Context, client *domain.Client) error
	FindByIDFunc       func(ctx context.Context, id string) (*domain.Client, error)
	FindByPhoneFunc    func(ctx context.Context, phone string) (*domain.Client, error)
	UpdateBalanceTxFunc func(ctx context.Context, tx ports.Transaction, clientID string, delta decimal.Decimal) (decimal.Decimal, error)
}

func (m *MockClientRepository) Save(ctx context.Context, client *domain.Client) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, client)
	}
	return nil
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockClientRepository) FindByPhone(ctx context.Context, phone string) (*domain.Client, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

func (m *MockClientRepository) UpdateBalanceTx(ctx context.Context, tx ports.Transaction, clientID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if m.UpdateBalanceTxFunc != nil {
		return m.UpdateBalanceTxFunc(ctx, tx, clientID, delta)
	}
	return decimal.Zero, nil
}

// MockStationRepository is a mock implementation of ports.StationRepository.
type MockStationRepository struct {
	SaveFunc                    func(ctx context.Context, station *domain.Station) error
	FindByIDFunc                func(ctx context.Context, id string) (*domain.Station, error)
	FindAllFunc                 func(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error)
	UpdateAdminStatusFunc       func(ctx context.Context, id string, status domain.StationAdminStatus) error
	UpdateHeartbeatFunc         func(ctx context.Context, id string, at time.Time) error
	UpdateAvailabilityFunc      func(ctx context.Context, id string, available bool) error
	FindByLocationFunc          func(ctx context.Context, locationID string) ([]domain.Station, error)
	FindConnectorFunc           func(ctx context.Context, stationID string, connectorID int) (*domain.Connector, error)
	SaveConnectorFunc           func(ctx context.Context, connector *domain.Connector) error
	FindConnectorsByStationFunc func(ctx context.Context, stationID string) ([]domain.Connector, error)
}

func (m *MockStationRepository) UpdateHeartbeat(ctx context.Context, id string, at time.Time) error {
	if m.UpdateHeartbeatFunc != nil {
		return m.UpdateHeartbeatFunc(ctx, id, at)
	}
	return nil
}

func (m *MockStationRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	if m.UpdateAvailabilityFunc != nil {
		return m.UpdateAvailabilityFunc(ctx, id, available)
	}
	return nil
}

func (m *MockStationRepository) FindByLocation(ctx context.Context, locationID string) ([]domain.Station, error) {
	if m.FindByLocationFunc != nil {
		return m.FindByLocationFunc(ctx, locationID)
	}
	return []domain.Station{}, nil
}

func (m *MockStationRepository) Save(ctx context.Context, station *domain.Station) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, station)
	}
	return nil
}

func (m *MockStationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockStationRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, filter)
	}
	return []domain.Station{}, nil
}

func (m *MockStationRepository) UpdateAdminStatus(ctx context.Context, id string, status domain.StationAdminStatus) error {
	if m.UpdateAdminStatusFunc != nil {
		return m.UpdateAdminStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *MockStationRepository) FindConnector(ctx context.Context, stationID string, connectorID int) (*domain.Connector, error) {
	if m.FindConnectorFunc != nil {
		return m.FindConnectorFunc(ctx, stationID, connectorID)
	}
	return nil, nil
}

func (m *MockStationRepository) SaveConnector(ctx context.Context, connector *domain.Connector) error {
	if m.SaveConnectorFunc != nil {
		return m.SaveConnectorFunc(ctx, connector)
	}
	return nil
}

func (m *MockStationRepository) FindConnectorsByStation(ctx context.Context, stationID string) ([]domain.Connector, error) {
	if m.FindConnectorsByStationFunc != nil {
		return m.FindConnectorsByStationFunc(ctx, stationID)
	}
	return []domain.Connector{}, nil
}

// MockChargingSessionRepository is a mock implementation of ports.ChargingSessionRepository.
type MockChargingSessionRepository struct {
	SaveFunc                      func(ctx context.Context, session *domain.ChargingSession) error
	SaveTxFunc                    func(ctx context.Context, tx ports.Transaction, session *domain.ChargingSession) error
	FindByIDFunc                  func(ctx context.Context, id string) (*domain.ChargingSession, error)
	FindActiveByClientFunc        func(ctx context.Context, clientID string) (*domain.ChargingSession, error)
	FindActiveByConnectorFunc     func(ctx context.Context, stationID string, connectorID int) (*domain.ChargingSession, error)
	FindNonTerminalByStationFunc  func(ctx context.Context, stationID string) ([]domain.ChargingSession, error)
	FindStartedOlderThanFunc      func(ctx context.Context, age time.Duration) ([]domain.ChargingSession, error)
	FindHistoryByClientFunc       func(ctx context.Context, clientID string, limit, offset int) ([]domain.ChargingSession, error)
	SavePaymentTransactionTxFunc  func(ctx context.Context, tx ports.Transaction, pt *domain.PaymentTransaction) error
}

func (m *MockChargingSessionRepository) Save(ctx context.Context, session *domain.ChargingSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	return nil
}

func (m *MockChargingSessionRepository) SaveTx(ctx context.Context, tx ports.Transaction, session *domain.ChargingSession) error {
	if m.SaveTxFunc != nil {
		return m.SaveTxFunc(ctx, tx, session)
	}
	return nil
}

func (m *MockChargingSessionRepository) FindByID(ctx context.Context, id string) (*domain.ChargingSession, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockChargingSessionRepository) FindActiveByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error) {
	if m.FindActiveByClientFunc != nil {
		return m.FindActiveByClientFunc(ctx, clientID)
	}
	return nil, nil
}

func (m *MockChargingSessionRepository) FindActiveByConnector(ctx context.Context, stationID string, connectorID int) (*domain.ChargingSession, error) {
	if m.FindActiveByConnectorFunc != nil {
		return m.FindActiveByConnectorFunc(ctx, stationID, connectorID)
	}
	return nil, nil
}

func (m *MockChargingSessionRepository) FindNonTerminalByStation(ctx context.Context, stationID string) ([]domain.ChargingSession, error) {
	if m.FindNonTerminalByStationFunc != nil {
		return m.FindNonTerminalByStationFunc(ctx, stationID)
	}
	return []domain.ChargingSession{}, nil
}

func (m *MockChargingSessionRepository) FindStartedOlderThan(ctx context.Context, age time.Duration) ([]domain.ChargingSession, error) {
	if m.FindStartedOlderThanFunc != nil {
		return m.FindStartedOlderThanFunc(ctx, age)
	}
	return []domain.ChargingSession{}, nil
}

func (m *MockChargingSessionRepository) FindHistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]domain.ChargingSession, error) {
	if m.FindHistoryByClientFunc != nil {
		return m.FindHistoryByClientFunc(ctx, clientID, limit, offset)
	}
	return []domain.ChargingSession{}, nil
}

func (m *MockChargingSessionRepository) SavePaymentTransactionTx(ctx context.Context, tx ports.Transaction, pt *domain.PaymentTransaction) error {
	if m.SavePaymentTransactionTxFunc != nil {
		return m.SavePaymentTransactionTxFunc(ctx, tx, pt)
	}
	return nil
}

// MockOcppTransactionRepository is a mock implementation of ports.OcppTransactionRepository.
type MockOcppTransactionRepository struct {
	FindByIDFunc                      func(ctx context.Context, id uint) (*domain.OcppTransaction, error)
	FindByStationAndTransactionIDFunc func(ctx context.Context, stationID string, transactionID int) (*domain.OcppTransaction, error)
	SaveFunc                          func(ctx context.Context, txn *domain.OcppTransaction) error
	UpdateFunc                        func(ctx context.Context, txn *domain.OcppTransaction) error
	AppendMeterValueFunc              func(ctx context.Context, mv *domain.MeterValue) error
	LastMeterValueFunc                func(ctx context.Context, ocppTransactionID uint) (*domain.MeterValue, error)
}

func (m *MockOcppTransactionRepository) FindByID(ctx context.Context, id uint) (*domain.OcppTransaction, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockOcppTransactionRepository) FindByStationAndTransactionID(ctx context.Context, stationID string, transactionID int) (*domain.OcppTransaction, error) {
	if m.FindByStationAndTransactionIDFunc != nil {
		return m.FindByStationAndTransactionIDFunc(ctx, stationID, transactionID)
	}
	return nil, nil
}

func (m *MockOcppTransactionRepository) Save(ctx context.Context, txn *domain.OcppTransaction) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, txn)
	}
	return nil
}

func (m *MockOcppTransactionRepository) Update(ctx context.Context, txn *domain.OcppTransaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, txn)
	}
	return nil
}

func (m *MockOcppTransactionRepository) AppendMeterValue(ctx context.Context, mv *domain.MeterValue) error {
	if m.AppendMeterValueFunc != nil {
		return m.AppendMeterValueFunc(ctx, mv)
	}
	return nil
}

func (m *MockOcppTransactionRepository) LastMeterValue(ctx context.Context, ocppTransactionID uint) (*domain.MeterValue, error) {
	if m.LastMeterValueFunc != nil {
		return m.LastMeterValueFunc(ctx, ocppTransactionID)
	}
	return nil, nil
}

// MockTariffRepository is a mock implementation of ports.TariffRepository.
type MockTariffRepository struct {
	FindPlanByIDFunc         func(ctx context.Context, id string) (*domain.TariffPlan, error)
	FindActiveRulesByPlanFunc func(ctx context.Context, planID string) ([]domain.TariffRule, error)
	FindClientTariffFunc     func(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error)
	SaveSnapshotFunc         func(ctx context.Context, tx ports.Transaction, snapshot *domain.TariffSnapshot) error
}

func (m *MockTariffRepository) FindPlanByID(ctx context.Context, id string) (*domain.TariffPlan, error) {
	if m.FindPlanByIDFunc != nil {
		return m.FindPlanByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockTariffRepository) FindActiveRulesByPlan(ctx context.Context, planID string) ([]domain.TariffRule, error) {
	if m.FindActiveRulesByPlanFunc != nil {
		return m.FindActiveRulesByPlanFunc(ctx, planID)
	}
	return []domain.TariffRule{}, nil
}

func (m *MockTariffRepository) FindClientTariff(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error) {
	if m.FindClientTariffFunc != nil {
		return m.FindClientTariffFunc(ctx, clientID, at)
	}
	return nil, nil
}

func (m *MockTariffRepository) SaveSnapshot(ctx context.Context, tx ports.Transaction, snapshot *domain.TariffSnapshot) error {
	if m.SaveSnapshotFunc != nil {
		return m.SaveSnapshotFunc(ctx, tx, snapshot)
	}
	return nil
}

// MockIdempotencyRepository is a mock implementation of ports.IdempotencyRepository.
type MockIdempotencyRepository struct {
	FindFunc          func(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	SaveFunc          func(ctx context.Context, record *domain.IdempotencyRecord) error
	DeleteExpiredFunc func(ctx context.Context, olderThan time.Duration) (int64, error)
}

func (m *MockIdempotencyRepository) Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockIdempotencyRepository) Save(ctx context.Context, record *domain.IdempotencyRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	return nil
}

func (m *MockIdempotencyRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, olderThan)
	}
	return 0, nil
}
