// Package postgres provides PostgreSQL implementations of the domain repositories.
// Statement writes run inside caller-supplied transactions so a statement and its
// transactions are stored atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CardRepository implements the card.Repository interface for PostgreSQL
type CardRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewCardRepository(logger *slog.Logger, db *persistence.PostgresDB) card.Repository {
	return &CardRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a card with its owner
func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*card.Card, error) {
	query := `
		SELECT id, user_id, bank_name, last_four, created_at
		FROM cards
		WHERE id = $1
	`

	var c card.Card
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.UserID,
		&c.BankName,
		&c.LastFour,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, card.ErrCardNotFound{CardID: id}
		}
		r.logger.Error("Failed to get card", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &c, nil
}

// ListByUser returns the user's cards, oldest first
func (r *CardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*card.Card, error) {
	query := `
		SELECT id, user_id, bank_name, last_four, created_at
		FROM cards
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list cards", "user_id", userID.String(), "error", err)
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*card.Card, 0)
	for rows.Next() {
		var c card.Card
		if err := rows.Scan(&c.ID, &c.UserID, &c.BankName, &c.LastFour, &c.CreatedAt); err != nil {
			r.logger.Error("Failed to scan card", "error", err)
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, &c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over cards", "error", err)
		return nil, fmt.Errorf("error iterating over cards: %w", err)
	}

	return cards, nil
}
