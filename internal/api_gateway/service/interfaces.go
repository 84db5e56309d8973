package service

import (
	"context"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/google/uuid"
)

// StatementService defines the interface for statement reads and previews
type StatementService interface {
	// PreviewStatement extracts the document without persisting anything.
	// A missing statement date is not an error here.
	PreviewStatement(ctx context.Context, cardID, userID uuid.UUID, document []byte) (*statement.Extraction, error)

	// ListStatements returns the card's statements, newest first
	ListStatements(ctx context.Context, cardID, userID uuid.UUID) ([]*statement.Statement, error)

	// GetStatement returns the statement with its transactions
	// Returns ErrStatementNotFound if the statement doesn't exist
	GetStatement(ctx context.Context, statementID, userID uuid.UUID) (*statement.Statement, error)
}

// UploadService defines the interface for asynchronous statement uploads
type UploadService interface {
	// SubmitUpload records a PENDING upload and queues it for processing
	SubmitUpload(ctx context.Context, request *shared.StatementUploadRequest) (*upload.Record, error)

	// GetUpload returns the upload status. Uploads of other users are reported as not found.
	GetUpload(ctx context.Context, uploadID, userID uuid.UUID) (*upload.Record, error)

	// GetUploadsByCard returns one page of the card's upload history and the total count
	GetUploadsByCard(ctx context.Context, cardID, userID uuid.UUID, page, perPage int) ([]*upload.Record, int64, error)
}

// TransactionService defines the interface for transaction categorization
type TransactionService interface {
	Categories() []statement.Category

	// UpdateCategory categorizes the transaction and every transaction with the same
	// description on the caller's cards. Returns the updated transaction and the
	// number of rows changed.
	UpdateCategory(ctx context.Context, transactionID, userID uuid.UUID, category string) (*statement.Transaction, int64, error)
}

// StatementReader turns an uploaded document into an extraction
type StatementReader interface {
	ReadStatement(ctx context.Context, c *card.Card, document []byte) (*statement.Extraction, error)
}
