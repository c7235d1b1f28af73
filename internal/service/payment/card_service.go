package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// CardService manages stored card tokens for wallet top-up. Card number/CVC
// never touch this process in a real integration — the mobile client tokenizes
// with Stripe directly and only the resulting token reaches CardRequest.Number;
// tokenization itself is the external collaborator boundary (spec §1).
type CardService struct {
	cards ports.CardRepository
	log   *zap.Logger
}

func NewCardService(cards ports.CardRepository, log *zap.Logger) ports.CardService {
	return &CardService{cards: cards, log: log}
}

func (s *CardService) AddCard(ctx context.Context, clientID string, req *ports.CardRequest) (*domain.PaymentCard, error) {
	card := &domain.PaymentCard{
		ID:         uuid.New().String(),
		ClientID:   clientID,
		ProviderID: req.Number,
		ExpMonth:   req.ExpMonth,
		ExpYear:    req.ExpYear,
		IsDefault:  req.SetDefault,
		CreatedAt:  time.Now(),
	}

	if err := s.cards.Save(ctx, card); err != nil {
		return nil, err
	}

	s.log.Info("card added", zap.String("client_id", clientID), zap.String("card_id", card.ID))
	return card, nil
}

func (s *CardService) GetCards(ctx context.Context, clientID string) ([]domain.PaymentCard, error) {
	return s.cards.GetByClientID(ctx, clientID)
}

func (s *CardService) DeleteCard(ctx context.Context, clientID, cardID string) error {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		return err
	}
	if card == nil || card.ClientID != clientID {
		return nil
	}
	return s.cards.Delete(ctx, cardID)
}
