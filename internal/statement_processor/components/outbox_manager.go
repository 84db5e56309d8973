package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/outbox"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/card-statement-ledger/internal/ingestion"
	"github.com/jackc/pgx/v5"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, logger *slog.Logger) ingestion.OutboxWriter {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// CreateOutboxEntry stores the completed upload record in the ingestion transaction
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, ingested *ingestion.IngestedStatement) error {
	logger := m.logger
	if ingested.CorrelationID != "" {
		logger = m.logger.With("correlation_id", ingested.CorrelationID)
	}

	s := ingested.Statement
	record := &upload.Record{
		UploadID:      ingested.UploadID,
		CardID:        s.CardID,
		UserID:        ingested.UserID,
		FileName:      s.FileName,
		Status:        shared.UploadStatusProcessing,
		CorrelationID: ingested.CorrelationID,
		CreatedAt:     time.Now().UTC(),
	}
	record.Complete(s.ID, s.StatementDate, s.Format.String(), ingested.TransactionCount, ingested.SkippedRows)

	outboxMessage, err := outbox.NewMessage(record)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"upload_id", ingested.UploadID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for upload %s: %w", ingested.UploadID.String(), err)
	}

	if err = m.outboxRepo.WithTx(tx).Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"upload_id", ingested.UploadID.String(),
			"statement_id", s.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for upload %s: %w", ingested.UploadID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"upload_id", ingested.UploadID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
