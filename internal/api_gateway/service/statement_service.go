package service

import (
	"context"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/google/uuid"
)

// StatementServiceImpl implements the StatementService interface
type StatementServiceImpl struct {
	cards         cardAccess
	statementRepo statement.Repository
	reader        StatementReader
	logger        *slog.Logger
}

// NewStatementService creates a new statement service
func NewStatementService(logger *slog.Logger, cardRepo card.Repository, statementRepo statement.Repository, reader StatementReader) StatementService {
	return &StatementServiceImpl{
		cards:         cardAccess{cardRepo: cardRepo, logger: logger},
		statementRepo: statementRepo,
		reader:        reader,
		logger:        logger,
	}
}

// PreviewStatement runs extraction over the document and returns the result
func (s *StatementServiceImpl) PreviewStatement(ctx context.Context, cardID, userID uuid.UUID, document []byte) (*statement.Extraction, error) {
	if len(document) == 0 {
		return nil, shared.ErrEmptyDocument
	}

	c, err := s.cards.authorize(ctx, cardID, userID)
	if err != nil {
		return nil, err
	}

	extraction, err := s.reader.ReadStatement(ctx, c, document)
	if err != nil {
		s.logger.Info("Statement preview failed", "card_id", cardID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Statement previewed",
		"card_id", cardID.String(),
		"format", extraction.Format.String(),
		"transactions", len(extraction.Transactions),
		"skipped_rows", extraction.SkippedRows,
	)
	return extraction, nil
}

// ListStatements returns the card's statements, newest first
func (s *StatementServiceImpl) ListStatements(ctx context.Context, cardID, userID uuid.UUID) ([]*statement.Statement, error) {
	if _, err := s.cards.authorize(ctx, cardID, userID); err != nil {
		return nil, err
	}
	return s.statementRepo.ListByCard(ctx, cardID)
}

// GetStatement returns the statement with its transactions, newest first
func (s *StatementServiceImpl) GetStatement(ctx context.Context, statementID, userID uuid.UUID) (*statement.Statement, error) {
	stmt, err := s.statementRepo.GetByID(ctx, statementID)
	if err != nil {
		return nil, err
	}

	if _, err := s.cards.authorize(ctx, stmt.CardID, userID); err != nil {
		return nil, err
	}

	txns, err := s.statementRepo.ListTransactions(ctx, statementID)
	if err != nil {
		s.logger.Error("Failed to list statement transactions", "statement_id", statementID.String(), "error", err)
		return nil, err
	}
	stmt.Transactions = txns
	return stmt, nil
}
