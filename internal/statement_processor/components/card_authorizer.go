package components

import (
	"context"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/statement_processor/service"
	"github.com/google/uuid"
)

type CardAuthorizerImpl struct {
	cardRepo card.Repository
	logger   *slog.Logger
}

func NewCardAuthorizer(cardRepo card.Repository, logger *slog.Logger) service.CardAuthorizer {
	return &CardAuthorizerImpl{
		cardRepo: cardRepo,
		logger:   logger,
	}
}

// AuthorizeCard loads the card and verifies userID owns it
func (a *CardAuthorizerImpl) AuthorizeCard(ctx context.Context, cardID, userID uuid.UUID) (*card.Card, error) {
	c, err := a.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		a.logger.Error("Failed to load card", "card_id", cardID.String(), "error", err)
		return nil, err
	}

	if err := c.Authorize(userID); err != nil {
		a.logger.Warn("Card does not belong to uploader", "card_id", cardID.String(), "user_id", userID.String())
		return nil, err
	}

	return c, nil
}
