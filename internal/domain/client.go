package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClientStatus string

const (
	ClientStatusActive           ClientStatus = "active"
	ClientStatusInactive         ClientStatus = "inactive"
	ClientStatusBlocked          ClientStatus = "blocked"
	ClientStatusPendingDeletion  ClientStatus = "pending_deletion"
)

// Client is the end-user wallet, created on first OTP-verified login and
// never hard-deleted.
type Client struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	Phone         string          `json:"phone" gorm:"uniqueIndex"`
	Balance       decimal.Decimal `json:"balance" gorm:"type:numeric(10,2)"`
	Status        ClientStatus    `json:"status"`
	Email         string          `json:"email,omitempty"`
	NotifyByEmail bool            `json:"notify_by_email" gorm:"default:true"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
