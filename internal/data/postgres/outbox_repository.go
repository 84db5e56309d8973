package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/outbox"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const outboxColumnList = `id, statement_id, upload_id, card_id, payload, status, attempts, created_at, last_attempt_at`

// OutboxRepository stores statement_outbox rows. Bound to a transaction, it
// writes the message atomically with the statement it describes.
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a message and sets its generated ID
func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	err := r.querier.QueryRow(ctx, `
		INSERT INTO statement_outbox (statement_id, upload_id, card_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		message.StatementID,
		message.UploadID,
		message.CardID,
		message.Payload,
		message.Status,
		message.Attempts,
		message.CreatedAt,
	).Scan(&message.ID)
	if err == nil {
		return nil
	}
	if persistence.IsUniqueViolation(err, "") {
		return outbox.ErrDuplicateMessage{StatementID: message.StatementID}
	}
	r.logger.Error("Failed to create outbox message", "statement_id", message.StatementID.String(), "error", err)
	return fmt.Errorf("failed to create outbox message: %w", err)
}

// GetPending returns up to limit PENDING messages, oldest first
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.Query(ctx, `
		SELECT `+outboxColumnList+`
		FROM statement_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		shared.OutboxStatusPending, limit,
	)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		message, err := scanOutboxMessage(rows)
		if err != nil {
			r.logger.Error("Failed to scan outbox message", "error", err)
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate outbox messages", "error", err)
		return nil, fmt.Errorf("failed to iterate outbox messages: %w", err)
	}

	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	return r.touch(ctx, id, "update outbox message status",
		`UPDATE statement_outbox SET status = $1, last_attempt_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	return r.touch(ctx, id, "increment outbox message attempts",
		`UPDATE statement_outbox SET attempts = attempts + 1, last_attempt_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
}

// PurgeProcessed deletes PROCESSED messages created before the cutoff.
// FAILED_TO_PUBLISH rows are kept for inspection.
func (r *OutboxRepository) PurgeProcessed(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.querier.Exec(ctx,
		`DELETE FROM statement_outbox WHERE status = $1 AND created_at < $2`,
		shared.OutboxStatusProcessed, before,
	)
	if err != nil {
		r.logger.Error("Failed to purge processed outbox messages", "before", before, "error", err)
		return 0, fmt.Errorf("failed to purge processed outbox messages: %w", err)
	}
	return result.RowsAffected(), nil
}

// touch runs a single-row update and maps zero affected rows to ErrMessageNotFound
func (r *OutboxRepository) touch(ctx context.Context, id int64, action, query string, args ...any) error {
	result, err := r.querier.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+action, "id", id, "error", err)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	if result.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

func scanOutboxMessage(row pgx.Row) (*outbox.Message, error) {
	var message outbox.Message
	err := row.Scan(
		&message.ID,
		&message.StatementID,
		&message.UploadID,
		&message.CardID,
		&message.Payload,
		&message.Status,
		&message.Attempts,
		&message.CreatedAt,
		&message.LastAttemptAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
