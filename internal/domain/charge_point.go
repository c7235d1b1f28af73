package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type StationAdminStatus string

const (
	StationAdminStatusActive      StationAdminStatus = "active"
	StationAdminStatusInactive    StationAdminStatus = "inactive"
	StationAdminStatusMaintenance StationAdminStatus = "maintenance"
)

type ConnectorStatus string

const (
	ConnectorStatusAvailable   ConnectorStatus = "available"
	ConnectorStatusOccupied    ConnectorStatus = "occupied"
	ConnectorStatusFaulted     ConnectorStatus = "faulted"
	ConnectorStatusUnavailable ConnectorStatus = "unavailable"
)

// Station is a physical charger, created by admin CRUD (out of core scope).
type Station struct {
	ID                 string             `json:"id" gorm:"primaryKey"`
	Serial             string             `json:"serial"`
	LocationID         string             `json:"location_id" gorm:"index"`
	Location           *Location          `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	AdminStatus        StationAdminStatus `json:"admin_status"`
	PricePerKwh        decimal.Decimal    `json:"price_per_kwh" gorm:"type:numeric(10,4)"`
	SessionFee         decimal.Decimal    `json:"session_fee" gorm:"type:numeric(10,2)"`
	TariffPlanID       *string            `json:"tariff_plan_id"`
	APIKey             string             `json:"-"`
	APIKeyExpiresAt    *time.Time         `json:"-"`
	FirmwareVersion    string             `json:"firmware_version"`
	OwnerEmail         string             `json:"owner_email,omitempty"`
	// IsAvailable / LastHeartbeat are maintained by the availability
	// tracker's administrative sweep (spec §4.5), separate from the bus's
	// 300s TTL presence key: this is the persisted, DB-visible view.
	IsAvailable        bool               `json:"is_available"`
	LastHeartbeat      *time.Time         `json:"last_heartbeat,omitempty"`
	Connectors         []Connector        `json:"connectors" gorm:"foreignKey:StationID"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Connector is one plug on a station, identified by (StationID, ConnectorID).
type Connector struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	StationID       string          `json:"station_id" gorm:"index:idx_station_connector,unique"`
	ConnectorID     int             `json:"connector_id" gorm:"index:idx_station_connector,unique"`
	ConnectorType   string          `json:"connector_type"`
	PowerKw         float64         `json:"power_kw"`
	Status          ConnectorStatus `json:"status"`
	LastErrorCode   string          `json:"last_error_code"`
	LastStatusAt    time.Time       `json:"last_status_update"`
}

type Location struct {
	ID        string  `json:"id" gorm:"primaryKey"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Country   string  `json:"country"`
}
