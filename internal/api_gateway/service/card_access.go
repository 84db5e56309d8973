package service

import (
	"context"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/google/uuid"
)

// cardAccess loads cards on behalf of a caller
type cardAccess struct {
	cardRepo card.Repository
	logger   *slog.Logger
}

// authorize returns the card when userID owns it
func (a cardAccess) authorize(ctx context.Context, cardID, userID uuid.UUID) (*card.Card, error) {
	c, err := a.cardRepo.GetByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if err := c.Authorize(userID); err != nil {
		a.logger.Warn("Card access denied", "card_id", cardID.String(), "user_id", userID.String())
		return nil, err
	}
	return c, nil
}
