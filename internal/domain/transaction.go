package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusStarted  SessionStatus = "started"
	SessionStatusStopping SessionStatus = "stopping"
	SessionStatusStopped  SessionStatus = "stopped"
	SessionStatusError    SessionStatus = "error"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionStatusStopped || s == SessionStatusError
}

type LimitType string

const (
	LimitTypeNone   LimitType = "none"
	LimitTypeEnergy LimitType = "energy"
	LimitTypeAmount LimitType = "amount"
)

// ChargingSession is the charging-session engine's aggregate root.
type ChargingSession struct {
	ID                string          `json:"id" gorm:"primaryKey"`
	ClientID          string          `json:"client_id" gorm:"index"`
	StationID         string          `json:"station_id" gorm:"index"`
	ConnectorID       int             `json:"connector_id"`
	Status            SessionStatus   `json:"status" gorm:"index"`
	LimitType         LimitType       `json:"limit_type"`
	LimitValue        decimal.Decimal `json:"limit_value" gorm:"type:numeric(10,4)"`
	ReservedAmount    decimal.Decimal `json:"reserved_amount" gorm:"type:numeric(10,2)"`
	BaseAmount        decimal.Decimal `json:"base_amount" gorm:"type:numeric(10,2)"`
	FinalAmount       decimal.Decimal `json:"final_amount" gorm:"type:numeric(10,2)"`
	ActualEnergyKwh   float64         `json:"actual_energy_kwh"`
	StartTime         time.Time       `json:"start_time"`
	StopTime          *time.Time      `json:"stop_time,omitempty"`
	OcppTransactionID *int            `json:"ocpp_transaction_id,omitempty"`
	PricingHistoryID  *string         `json:"pricing_history_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OcppTransaction is the station's view of a transaction; (StationID, TransactionID) is unique.
type OcppTransaction struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	StationID         string     `json:"station_id" gorm:"index:idx_station_txn,unique"`
	TransactionID     int        `json:"transaction_id" gorm:"index:idx_station_txn,unique"`
	ConnectorID       int        `json:"connector_id"`
	IdTag             string     `json:"id_tag"`
	MeterStart        int        `json:"meter_start"` // Wh
	MeterStop         int        `json:"meter_stop"`  // Wh
	Status            string     `json:"status"`       // Started | Stopped
	StopReason        string     `json:"stop_reason"`
	ChargingSessionID *string    `json:"charging_session_id,omitempty" gorm:"index"`
	StartedAt         time.Time  `json:"started_at"`
	StoppedAt         *time.Time `json:"stopped_at,omitempty"`
}

// MeterValue is an append-only sample series keyed by ocpp transaction.
type MeterValue struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	OcppTransactionID  uint      `json:"ocpp_transaction_id" gorm:"index"`
	ConnectorID        int       `json:"connector_id"`
	Timestamp          time.Time `json:"timestamp"`
	EnergyActiveImportWh int     `json:"energy_active_import_wh"`
}

type PaymentTransactionType string

const (
	PaymentTxnChargeReserve PaymentTransactionType = "charge_reserve"
	PaymentTxnChargePayment PaymentTransactionType = "charge_payment"
	PaymentTxnChargeRefund  PaymentTransactionType = "charge_refund"
	PaymentTxnTopup         PaymentTransactionType = "topup"
)

// PaymentTransaction is the audit row the charging engine records for each
// charging-session balance mutation. Wallet top-ups and refunds in
// internal/service/payment do not record one.
type PaymentTransaction struct {
	ID                uint                   `json:"id" gorm:"primaryKey"`
	ClientID          string                 `json:"client_id" gorm:"index"`
	ChargingSessionID *string                `json:"charging_session_id,omitempty" gorm:"index"`
	Type              PaymentTransactionType `json:"type"`
	Amount            decimal.Decimal        `json:"amount" gorm:"type:numeric(10,2)"`
	BalanceBefore     decimal.Decimal        `json:"balance_before" gorm:"type:numeric(10,2)"`
	BalanceAfter      decimal.Decimal        `json:"balance_after" gorm:"type:numeric(10,2)"`
	Description       string                 `json:"description"`
	CreatedAt         time.Time              `json:"created_at"`
}
