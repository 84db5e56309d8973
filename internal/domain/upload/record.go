package upload

import (
	"time"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Record tracks one statement upload through processing
type Record struct {
	UploadID         uuid.UUID           `json:"upload_id" bson:"upload_id"`
	CardID           uuid.UUID           `json:"card_id" bson:"card_id"`
	UserID           uuid.UUID           `json:"user_id" bson:"user_id"`
	FileName         string              `json:"file_name" bson:"file_name"`
	Status           shared.UploadStatus `json:"status" bson:"status"`
	Format           string              `json:"format,omitempty" bson:"format,omitempty"`
	StatementID      *uuid.UUID          `json:"statement_id,omitempty" bson:"statement_id,omitempty"`
	StatementDate    *time.Time          `json:"statement_date,omitempty" bson:"statement_date,omitempty"`
	TransactionCount int                 `json:"transaction_count" bson:"transaction_count"`
	SkippedRows      int                 `json:"skipped_rows" bson:"skipped_rows"`
	CorrelationID    string              `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	FailureReason    string              `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt        time.Time           `json:"created_at" bson:"created_at"`
	ProcessedAt      *time.Time          `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// NewPendingRecord creates the record written when an upload is accepted
func NewPendingRecord(req *shared.StatementUploadRequest) *Record {
	return &Record{
		UploadID:      req.UploadID,
		CardID:        req.CardID,
		UserID:        req.UserID,
		FileName:      req.FileName,
		Status:        shared.UploadStatusPending,
		CorrelationID: req.CorrelationID,
		CreatedAt:     req.Timestamp,
	}
}

// Complete marks the record as successfully ingested
func (r *Record) Complete(statementID uuid.UUID, statementDate time.Time, format string, transactionCount, skippedRows int) {
	now := time.Now().UTC()
	r.Status = shared.UploadStatusCompleted
	r.StatementID = &statementID
	r.StatementDate = &statementDate
	r.Format = format
	r.TransactionCount = transactionCount
	r.SkippedRows = skippedRows
	r.FailureReason = ""
	r.ProcessedAt = &now
}
