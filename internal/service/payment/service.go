package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// Service implements ports.PaymentService: wallet top-ups processed through
// the Stripe collaborator (spec §1's card/QR top-up boundary). A Payment
// row tracks provider state; the client's balance is only credited once
// Stripe confirms the charge, inside the same transaction that writes the
// Payment row, mirroring the charging engine's db.Transaction pattern.
type Service struct {
	db       *gorm.DB
	gateway  ports.PaymentGateway
	payments ports.PaymentRepository
	clients  ports.ClientRepository
	log      *zap.Logger
}

func NewService(gdb *gorm.DB, gateway ports.PaymentGateway, payments ports.PaymentRepository, clients ports.ClientRepository, log *zap.Logger) ports.PaymentService {
	return &Service{db: gdb, gateway: gateway, payments: payments, clients: clients, log: log}
}

func (s *Service) CreatePaymentIntent(ctx context.Context, clientID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("amount must be positive")
	}
	if currency == "" {
		currency = "usd"
	}

	amountFloat, _ := amount.Float64()
	providerID, err := s.gateway.CreatePaymentIntent(ctx, amountFloat, currency, clientID)
	if err != nil {
		return nil, fmt.Errorf("payment: create intent: %w", err)
	}

	payment := &domain.Payment{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		ProviderID: providerID,
		Status:     domain.PaymentStatusPending,
		Amount:     amount,
		Currency:   currency,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.payments.SavePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("payment: save record: %w", err)
	}

	s.log.Info("payment intent created", zap.String("payment_id", payment.ID), zap.String("client_id", clientID))

	return &domain.PaymentIntent{
		ID:       providerID,
		Amount:   amount,
		Currency: currency,
		Status:   string(domain.PaymentStatusPending),
	}, nil
}

// ConfirmTopup confirms the payment with Stripe and, on success, credits
// the client's wallet inside the same DB transaction that marks the
// Payment completed.
func (s *Service) ConfirmTopup(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetPaymentByProviderID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment: lookup: %w", err)
	}
	if payment == nil {
		return nil, errors.New("payment not found")
	}
	if payment.Status == domain.PaymentStatusCompleted {
		return payment, nil
	}

	if err := s.gateway.ConfirmPayment(ctx, payment.ProviderID); err != nil {
		payment.Status = domain.PaymentStatusFailed
		payment.FailureReason = err.Error()
		payment.UpdatedAt = time.Now()
		if saveErr := s.payments.SavePayment(ctx, payment); saveErr != nil {
			s.log.Error("payment: failed to persist failure", zap.Error(saveErr))
		}
		return payment, fmt.Errorf("payment: confirm: %w", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.clients.UpdateBalanceTx(ctx, tx, payment.ClientID, payment.Amount); err != nil {
			return fmt.Errorf("credit wallet: %w", err)
		}

		now := time.Now()
		payment.Status = domain.PaymentStatusCompleted
		payment.CompletedAt = &now
		payment.UpdatedAt = now
		if err := s.payments.SavePayment(ctx, payment); err != nil {
			return fmt.Errorf("save payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("top-up confirmed", zap.String("payment_id", payment.ID), zap.String("client_id", payment.ClientID))
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.payments.GetPayment(ctx, paymentID)
}

func (s *Service) GetPaymentHistory(ctx context.Context, clientID string, limit, offset int) ([]domain.Payment, error) {
	return s.payments.GetPaymentsByClient(ctx, clientID, limit, offset)
}

// RefundPayment reverses a completed payment: debits the wallet back and
// records a Refund, both in a single transaction.
func (s *Service) RefundPayment(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) (*domain.Refund, error) {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment: lookup: %w", err)
	}
	if payment == nil {
		return nil, errors.New("payment not found")
	}
	if payment.Status != domain.PaymentStatusCompleted {
		return nil, errors.New("can only refund completed payments")
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		amount = payment.Amount
	}
	if amount.GreaterThan(payment.Amount) {
		return nil, errors.New("refund amount exceeds payment amount")
	}

	if err := s.gateway.RefundPayment(ctx, payment.ProviderID); err != nil {
		return nil, fmt.Errorf("payment: refund: %w", err)
	}

	refund := &domain.Refund{
		ID:        uuid.New().String(),
		PaymentID: paymentID,
		Amount:    amount,
		Status:    domain.PaymentStatusCompleted,
		Reason:    reason,
		CreatedAt: time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.clients.UpdateBalanceTx(ctx, tx, payment.ClientID, amount.Neg()); err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}
		if err := s.payments.SaveRefund(ctx, refund); err != nil {
			return fmt.Errorf("save refund: %w", err)
		}
		if amount.Equal(payment.Amount) {
			payment.Status = domain.PaymentStatusRefunded
			payment.UpdatedAt = time.Now()
			if err := s.payments.SavePayment(ctx, payment); err != nil {
				return fmt.Errorf("save payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refund.CompletedAt = &now

	s.log.Info("payment refunded", zap.String("payment_id", paymentID), zap.String("refund_id", refund.ID))
	return refund, nil
}

// stripeWebhookEvent is the minimal shape this service cares about from a
// Stripe webhook payload. HandleWebhook does not check its signature
// argument.
type stripeWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	var event stripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("payment: parse webhook: %w", err)
	}

	s.log.Info("stripe webhook received", zap.String("type", event.Type), zap.String("payment_intent_id", event.Data.Object.ID))

	switch event.Type {
	case "payment_intent.succeeded":
		if _, err := s.ConfirmTopup(ctx, event.Data.Object.ID); err != nil {
			s.log.Error("webhook: failed to confirm top-up", zap.Error(err))
			return err
		}
	case "payment_intent.payment_failed":
		payment, err := s.payments.GetPaymentByProviderID(ctx, event.Data.Object.ID)
		if err != nil || payment == nil {
			return nil
		}
		payment.Status = domain.PaymentStatusFailed
		payment.UpdatedAt = time.Now()
		return s.payments.SavePayment(ctx, payment)
	}

	return nil
}
