package service

import (
	"context"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/ingestion"
	"github.com/google/uuid"
)

// ProcessingService defines the interface for processing statement uploads.
type ProcessingService interface {
	ProcessUpload(ctx context.Context, request *shared.StatementUploadRequest) error
}

// UploadValidator validates upload requests before processing
type UploadValidator interface {
	Validate(ctx context.Context, request *shared.StatementUploadRequest) error
	CheckIdempotency(ctx context.Context, request *shared.StatementUploadRequest) (bool, error)
}

// CardAuthorizer loads the card and checks that the uploader owns it
type CardAuthorizer interface {
	AuthorizeCard(ctx context.Context, cardID, userID uuid.UUID) (*card.Card, error)
}

// StatementReader turns the uploaded document into an extraction
type StatementReader interface {
	ReadStatement(ctx context.Context, c *card.Card, document []byte) (*statement.Extraction, error)
}

// StatementIngester persists an extraction exactly once per card and statement date
type StatementIngester interface {
	IngestStatement(ctx context.Context, req ingestion.Request) (*ingestion.IngestedStatement, error)
}

// UploadTracker records upload progress and terminal failures in the upload history
type UploadTracker interface {
	MarkProcessing(ctx context.Context, request *shared.StatementUploadRequest) error
	RecordFailure(ctx context.Context, request *shared.StatementUploadRequest, status shared.UploadStatus, reason shared.FailureReason) error
}
