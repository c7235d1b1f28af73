package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seu-repo/sigec-ve/internal/domain"
)

type StationRepository interface {
	Save(ctx context.Context, station *domain.Station) error
	FindByID(ctx context.Context, id string) (*domain.Station, error)
	FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error)
	UpdateAdminStatus(ctx context.Context, id string, status domain.StationAdminStatus) error
	// UpdateHeartbeat records the latest Heartbeat/BootNotification time, read
	// back by the administrative sweep (spec §4.5) independent of the bus's
	// 300s presence TTL.
	UpdateHeartbeat(ctx context.Context, id string, at time.Time) error
	UpdateAvailability(ctx context.Context, id string, available bool) error
	FindByLocation(ctx context.Context, locationID string) ([]domain.Station, error)

	FindConnector(ctx context.Context, stationID string, connectorID int) (*domain.Connector, error)
	SaveConnector(ctx context.Context, connector *domain.Connector) error
	FindConnectorsByStation(ctx context.Context, stationID string) ([]domain.Connector, error)
}

type ClientRepository interface {
	Save(ctx context.Context, client *domain.Client) error
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Client, error)
	// UpdateBalanceTx applies delta (positive credits, negative debits) to the
	// client's balance inside the given transaction, locking the row first
	// (spec §5: balance mutations for a client are serialised by a row lock).
	// It returns the balance after applying delta, and fails if that would go negative.
	UpdateBalanceTx(ctx context.Context, tx Transaction, clientID string, delta decimal.Decimal) (decimal.Decimal, error)
}

type TariffRepository interface {
	FindPlanByID(ctx context.Context, id string) (*domain.TariffPlan, error)
	FindActiveRulesByPlan(ctx context.Context, planID string) ([]domain.TariffRule, error)
	FindClientTariff(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error)
	SaveSnapshot(ctx context.Context, tx Transaction, snapshot *domain.TariffSnapshot) error
}

type ChargingSessionRepository interface {
	Save(ctx context.Context, session *domain.ChargingSession) error
	SaveTx(ctx context.Context, tx Transaction, session *domain.ChargingSession) error
	FindByID(ctx context.Context, id string) (*domain.ChargingSession, error)
	FindActiveByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error)
	FindActiveByConnector(ctx context.Context, stationID string, connectorID int) (*domain.ChargingSession, error)
	FindNonTerminalByStation(ctx context.Context, stationID string) ([]domain.ChargingSession, error)
	FindStartedOlderThan(ctx context.Context, age time.Duration) ([]domain.ChargingSession, error)
	FindHistoryByClient(ctx context.Context, clientID string, limit, offset int) ([]domain.ChargingSession, error)

	SavePaymentTransactionTx(ctx context.Context, tx Transaction, pt *domain.PaymentTransaction) error
}

type OcppTransactionRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.OcppTransaction, error)
	FindByStationAndTransactionID(ctx context.Context, stationID string, transactionID int) (*domain.OcppTransaction, error)
	Save(ctx context.Context, txn *domain.OcppTransaction) error
	Update(ctx context.Context, txn *domain.OcppTransaction) error
	AppendMeterValue(ctx context.Context, mv *domain.MeterValue) error
	LastMeterValue(ctx context.Context, ocppTransactionID uint) (*domain.MeterValue, error)
}

type IdempotencyRepository interface {
	Find(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	Save(ctx context.Context, record *domain.IdempotencyRecord) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

// PaymentRepository handles wallet top-up persistence (ambient payment surface).
type PaymentRepository interface {
	SavePayment(ctx context.Context, payment *domain.Payment) error
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	GetPaymentByProviderID(ctx context.Context, providerID string) (*domain.Payment, error)
	GetPaymentsByClient(ctx context.Context, clientID string, limit, offset int) ([]domain.Payment, error)
	SaveRefund(ctx context.Context, refund *domain.Refund) error
}

// CardRepository handles stored payment card persistence.
type CardRepository interface {
	Save(ctx context.Context, card *domain.PaymentCard) error
	GetByID(ctx context.Context, id string) (*domain.PaymentCard, error)
	GetByClientID(ctx context.Context, clientID string) ([]domain.PaymentCard, error)
	Delete(ctx context.Context, id string) error
}

// Transaction is the repository-layer handle for a single database
// transaction, passed through so multi-repository writes in the charging
// engine (§4.3) commit atomically. Concrete type is *gorm.DB in the
// postgres adapter; kept as an opaque interface{} at the port boundary so
// ports does not depend on gorm.
type Transaction = interface{}
