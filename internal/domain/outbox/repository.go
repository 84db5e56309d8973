package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists ingestion outcomes waiting to reach the upload history.
// Create is meant to run inside the statement transaction via WithTx.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	// PurgeProcessed deletes PROCESSED messages created before the cutoff
	PurgeProcessed(ctx context.Context, before time.Time) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message not found: %d", e.ID)
}

// ErrDuplicateMessage means the statement already has an outbox message
type ErrDuplicateMessage struct {
	StatementID uuid.UUID
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("duplicate outbox message for statement %s", e.StatementID)
}
