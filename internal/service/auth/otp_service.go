package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

// otpTTL is how long a one-time code stays valid after being sent.
const otpTTL = 5 * time.Minute

// otpCodeDigits is the length of the generated numeric code.
const otpCodeDigits = 6

// SMSSender delivers a short text message to a phone number. The mobile
// HTTP API surface and the SMS transport itself are out of scope (spec §1);
// this is the one seam a real provider plugs into. The default used by
// NewOTPService logs the code instead of sending it.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}

// LoggingSMSSender logs the OTP instead of delivering it, standing in for
// the SMS transport the spec treats as an external collaborator.
type LoggingSMSSender struct {
	log *zap.Logger
}

func NewLoggingSMSSender(log *zap.Logger) *LoggingSMSSender {
	return &LoggingSMSSender{log: log}
}

func (s *LoggingSMSSender) Send(ctx context.Context, phone, body string) error {
	s.log.Info("sms dispatched", zap.String("phone", phone), zap.String("body", body))
	return nil
}

// OTPService generates and verifies phone login codes, storing them in the
// bus KV (spec §4.2's "synchronous KV" primitive) with a TTL rather than a
// dedicated table, the same way the OCPP actor parks short-lived pending
// state under bus.Set/Get/Del.
type OTPService struct {
	bus    ports.Bus
	sender SMSSender
	log    *zap.Logger
}

func NewOTPService(bus ports.Bus, sender SMSSender, log *zap.Logger) *OTPService {
	return &OTPService{bus: bus, sender: sender, log: log}
}

func otpKey(phone string) string {
	return "otp:" + phone
}

// SendCode generates a fresh numeric code, stores it for otpTTL, and hands
// it to the SMSSender. Regenerating overwrites any still-valid prior code,
// so only the most recently requested code verifies.
func (s *OTPService) SendCode(ctx context.Context, phone string) error {
	code, err := randomDigits(otpCodeDigits)
	if err != nil {
		return fmt.Errorf("otp: generate code: %w", err)
	}

	if err := s.bus.Set(ctx, otpKey(phone), code, otpTTL); err != nil {
		return fmt.Errorf("otp: store code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(otpTTL.Minutes()))
	if err := s.sender.Send(ctx, phone, body); err != nil {
		return fmt.Errorf("otp: send code: %w", err)
	}

	s.log.Info("otp code issued", zap.String("phone", phone))
	return nil
}

// VerifyCode checks code against the stored value for phone and, on match,
// deletes it so it cannot be replayed.
func (s *OTPService) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	stored, found, err := s.bus.Get(ctx, otpKey(phone))
	if err != nil {
		return false, fmt.Errorf("otp: lookup code: %w", err)
	}
	if !found || stored != code {
		return false, nil
	}

	if err := s.bus.Del(ctx, otpKey(phone)); err != nil {
		s.log.Warn("otp: failed to clear verified code", zap.String("phone", phone), zap.Error(err))
	}
	return true, nil
}

func randomDigits(n int) (string, error) {
	const digits = "0123456789"
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		out[i] = digits[idx.Int64()]
	}
	return string(out), nil
}
