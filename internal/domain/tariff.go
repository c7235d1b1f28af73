package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TariffType string

const (
	TariffTypePerKwh      TariffType = "per_kwh"
	TariffTypePerMinute   TariffType = "per_minute"
	TariffTypeSessionFee  TariffType = "session_fee"
	TariffTypeParkingFee  TariffType = "parking_fee"
)

// TariffPlan groups a set of TariffRules; a Station optionally references one.
type TariffPlan struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	Name      string       `json:"name"`
	Rules     []TariffRule `json:"rules" gorm:"foreignKey:TariffPlanID"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TariffRule is one priced slice of a TariffPlan.
type TariffRule struct {
	ID             string          `json:"id" gorm:"primaryKey"`
	TariffPlanID   string          `json:"tariff_plan_id" gorm:"index"`
	Type           TariffType      `json:"tariff_type"`
	Price          decimal.Decimal `json:"price" gorm:"type:numeric(10,4)"`
	Currency       string          `json:"currency"`
	ConnectorType  string          `json:"connector_type"` // "" or "ALL" matches every type
	PowerRangeMin  *float64        `json:"power_range_min,omitempty"`
	PowerRangeMax  *float64        `json:"power_range_max,omitempty"`
	ValidFrom      *time.Time      `json:"valid_from,omitempty"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	DaysOfWeek     []int           `json:"days_of_week" gorm:"-"` // 0=Sunday..6=Saturday, empty = every day
	IsWeekend      bool            `json:"is_weekend"`
	TimeStart      string          `json:"time_start"` // "HH:MM", may cross midnight vs TimeEnd
	TimeEnd        string          `json:"time_end"`
	Priority       int             `json:"priority"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ClientTariff is an optional per-client override, valid within a window.
type ClientTariff struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	ClientID        string          `json:"client_id" gorm:"index"`
	RatePerKwh      *decimal.Decimal `json:"rate_per_kwh,omitempty" gorm:"type:numeric(10,4)"`
	TariffPlanID    *string         `json:"tariff_plan_id,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent" gorm:"type:numeric(5,2)"`
	ValidFrom       time.Time       `json:"valid_from"`
	ValidUntil      time.Time       `json:"valid_until"`
}

// TariffSnapshot is the immutable output of pricing resolution, persisted as
// a pricing_history row keyed to a ChargingSession.
type TariffSnapshot struct {
	ID                    string          `json:"id" gorm:"primaryKey"`
	RatePerKwh            decimal.Decimal `json:"rate_per_kwh" gorm:"type:numeric(10,4)"`
	RatePerMinute         decimal.Decimal `json:"rate_per_minute" gorm:"type:numeric(10,4)"`
	SessionFee            decimal.Decimal `json:"session_fee" gorm:"type:numeric(10,2)"`
	ParkingFeePerMinute   decimal.Decimal `json:"parking_fee_per_minute" gorm:"type:numeric(10,4)"`
	Currency              string          `json:"currency"`
	ActiveRuleDescription string          `json:"active_rule_description"`
	RuleDetails           string          `json:"rule_details"`
	TimeBased             bool            `json:"time_based"`
	NextRateChange        *time.Time      `json:"next_rate_change,omitempty"`
	TariffPlanID          *string         `json:"tariff_plan_id,omitempty"`
	RuleID                *string         `json:"rule_id,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
