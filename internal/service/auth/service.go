package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

var (
	ErrInvalidCode = errors.New("invalid or expired code")
	ErrInvalidType = errors.New("invalid token type")
)

// Service implements ports.AuthService: a client sends their phone number,
// receives an OTP over SMS, and exchanges (phone, otp) for a token pair.
// The Client row is created on first successful verification (spec §3/§6);
// there is no separate registration step.
type Service struct {
	clients ports.ClientRepository
	otp     *OTPService
	jwt     *JWTService
	log     *zap.Logger
}

func NewService(clients ports.ClientRepository, otp *OTPService, jwt *JWTService, log *zap.Logger) ports.AuthService {
	return &Service{clients: clients, otp: otp, jwt: jwt, log: log}
}

// RequestCode triggers a fresh OTP send for phone: the first step of the
// two-step login flow, before Login checks phone+otp.
func (s *Service) RequestCode(ctx context.Context, phone string) error {
	return s.otp.SendCode(ctx, phone)
}

func (s *Service) Login(ctx context.Context, phone, otp string) (string, string, error) {
	ok, err := s.otp.VerifyCode(ctx, phone, otp)
	if err != nil {
		return "", "", err
	}
	if !ok {
		return "", "", ErrInvalidCode
	}

	client, err := s.clients.FindByPhone(ctx, phone)
	if err != nil {
		return "", "", err
	}
	if client == nil {
		client = &domain.Client{
			ID:        uuid.New().String(),
			Phone:     phone,
			Status:    domain.ClientStatusActive,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := s.clients.Save(ctx, client); err != nil {
			return "", "", err
		}
		s.log.Info("client created on first otp login", zap.String("client_id", client.ID))
	}

	accessToken, err := s.jwt.GenerateAccessToken(client)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(client)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwt.ValidateToken(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Type != "refresh" {
		return "", ErrInvalidType
	}
	if s.jwt.IsTokenRevoked(ctx, claims.ID) {
		return "", errors.New("refresh token revoked")
	}

	client, err := s.clients.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if client == nil {
		return "", errors.New("client not found")
	}

	return s.jwt.GenerateAccessToken(client)
}

func (s *Service) ValidateToken(ctx context.Context, tokenStr string) (*domain.Client, error) {
	claims, err := s.jwt.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Type != "access" {
		return nil, ErrInvalidType
	}
	if s.jwt.IsTokenRevoked(ctx, claims.ID) {
		return nil, errors.New("token revoked")
	}

	return s.clients.FindByID(ctx, claims.Subject)
}
