package service

import (
	"context"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/google/uuid"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	cards         cardAccess
	statementRepo statement.Repository
	logger        *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, cardRepo card.Repository, statementRepo statement.Repository) TransactionService {
	return &TransactionServiceImpl{
		cards:         cardAccess{cardRepo: cardRepo, logger: logger},
		statementRepo: statementRepo,
		logger:        logger,
	}
}

func (s *TransactionServiceImpl) Categories() []statement.Category {
	return statement.Categories()
}

// UpdateCategory applies the category to every transaction sharing the description
func (s *TransactionServiceImpl) UpdateCategory(ctx context.Context, transactionID, userID uuid.UUID, category string) (*statement.Transaction, int64, error) {
	parsed, err := statement.ParseCategory(category)
	if err != nil {
		return nil, 0, err
	}

	txn, err := s.statementRepo.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, 0, err
	}

	if _, err := s.cards.authorize(ctx, txn.CardID, userID); err != nil {
		return nil, 0, err
	}

	affected, err := s.statementRepo.UpdateCategoryByDescription(ctx, userID, txn.Description, parsed)
	if err != nil {
		s.logger.Error("Failed to update transaction category",
			"transaction_id", transactionID.String(),
			"category", string(parsed),
			"error", err,
		)
		return nil, 0, err
	}

	txn.Category = string(parsed)
	s.logger.Info("Transaction category updated",
		"transaction_id", transactionID.String(),
		"category", string(parsed),
		"affected", affected,
	)
	return txn, affected, nil
}
