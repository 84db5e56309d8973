// Package ingestion persists extracted statements exactly once per card and
// statement date.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// KeyLocker serializes work on a key across goroutines or processes
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// TxRunner runs fn inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// OutboxWriter records the ingestion outcome in the same transaction as the statement
type OutboxWriter interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, ingested *IngestedStatement) error
}

type Request struct {
	CardID        uuid.UUID
	UserID        uuid.UUID
	Extraction    *statement.Extraction
	UploadID      uuid.UUID
	FileName      string
	CorrelationID string
}

// IngestedStatement describes a committed statement
type IngestedStatement struct {
	Statement        *statement.Statement
	UploadID         uuid.UUID
	UserID           uuid.UUID
	CorrelationID    string
	TransactionCount int
	SkippedRows      int
}

// DedupKey identifies a statement for locking
func DedupKey(cardID uuid.UUID, statementDate time.Time) string {
	return "statement:" + cardID.String() + ":" + statementDate.Format(time.DateOnly)
}

type Coordinator struct {
	txRunner TxRunner
	repo     statement.Repository
	locker   KeyLocker
	outbox   OutboxWriter
	logger   *slog.Logger
}

// NewCoordinator wires the coordinator. locker and outbox may be nil.
func NewCoordinator(txRunner TxRunner, repo statement.Repository, locker KeyLocker, outbox OutboxWriter, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		txRunner: txRunner,
		repo:     repo,
		locker:   locker,
		outbox:   outbox,
		logger:   logger,
	}
}

// IngestStatement stores the statement and all of its transactions atomically.
// A second ingestion for the same card and statement date returns
// statement.ErrDuplicateStatement and leaves the stored data unchanged.
func (c *Coordinator) IngestStatement(ctx context.Context, req Request) (*IngestedStatement, error) {
	logger := c.logger
	if req.CorrelationID != "" {
		logger = c.logger.With("correlation_id", req.CorrelationID)
	}

	statementDate, err := req.Extraction.StatementDate()
	if err != nil {
		logger.Warn("Statement has no statement date", "card_id", req.CardID.String(), "upload_id", req.UploadID.String())
		return nil, err
	}

	key := DedupKey(req.CardID, statementDate)
	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, key)
		if err != nil {
			logger.Error("Failed to acquire statement lock", "key", key, "error", err)
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		defer unlock()
	}

	existing, err := c.repo.FindByCardAndDate(ctx, req.CardID, statementDate)
	if err != nil {
		return nil, fmt.Errorf("failed to look up statement %s: %w", key, err)
	}
	if existing != nil {
		logger.Info("Statement already ingested", "key", key, "statement_id", existing.ID.String())
		return nil, statement.ErrDuplicateStatement{CardID: req.CardID, StatementDate: statementDate}
	}

	stmt, err := statement.NewStatement(req.CardID, req.Extraction, req.FileName)
	if err != nil {
		return nil, err
	}

	ingested := &IngestedStatement{
		Statement:        stmt,
		UploadID:         req.UploadID,
		UserID:           req.UserID,
		CorrelationID:    req.CorrelationID,
		TransactionCount: len(stmt.Transactions),
		SkippedRows:      req.Extraction.SkippedRows,
	}

	err = c.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repoTx := c.repo.WithTx(tx)
		if err := repoTx.Create(ctx, stmt); err != nil {
			return err
		}

		if len(stmt.Transactions) > 0 {
			inserted, err := repoTx.CreateTransactions(ctx, stmt.Transactions)
			if err != nil {
				return err
			}
			if inserted != int64(len(stmt.Transactions)) {
				return fmt.Errorf("failed to insert transactions: inserted %d of %d", inserted, len(stmt.Transactions))
			}
		}

		if c.outbox != nil {
			return c.outbox.CreateOutboxEntry(ctx, tx, ingested)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, statement.ErrDuplicateStatement{}) {
			logger.Info("Statement ingested concurrently", "key", key)
			return nil, err
		}
		logger.Error("Failed to ingest statement", "key", key, "error", err)
		return nil, fmt.Errorf("failed to ingest statement %s: %w", key, err)
	}

	logger.Info("Statement ingested",
		"statement_id", stmt.ID.String(),
		"card_id", req.CardID.String(),
		"statement_date", statementDate.Format(time.DateOnly),
		"format", stmt.Format.String(),
		"transactions", ingested.TransactionCount,
	)
	return ingested, nil
}
