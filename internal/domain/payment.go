package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a card top-up payment.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Payment is a wallet top-up processed through the Stripe collaborator.
type Payment struct {
	ID            string          `json:"id" gorm:"primaryKey"`
	ClientID      string          `json:"client_id" gorm:"index"`
	ProviderID    string          `json:"provider_id"` // Stripe PaymentIntent id
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(10,2)"`
	Currency      string          `json:"currency"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// PaymentCard is a stored card token for a client.
type PaymentCard struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ClientID   string    `json:"client_id" gorm:"index"`
	ProviderID string    `json:"provider_id"` // Card token from Stripe
	Brand      string    `json:"brand"`
	Last4      string    `json:"last4"`
	ExpMonth   int       `json:"exp_month"`
	ExpYear    int       `json:"exp_year"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
}

// Refund is a reversal of a Payment.
type Refund struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	PaymentID   string          `json:"payment_id" gorm:"index"`
	ProviderID  string          `json:"provider_id"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(10,2)"`
	Status      PaymentStatus   `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// PaymentIntent is returned to the mobile client for card-side confirmation.
type PaymentIntent struct {
	ID           string          `json:"id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Status       string          `json:"status"`
}
