package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/ingestion"
	"github.com/card-statement-ledger/internal/platform/metrics"
)

type ProcessingServiceImpl struct {
	validator      UploadValidator
	cardAuthorizer CardAuthorizer
	reader         StatementReader
	ingester       StatementIngester
	tracker        UploadTracker
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func NewProcessingService(
	validator UploadValidator,
	cardAuthorizer CardAuthorizer,
	reader StatementReader,
	ingester StatementIngester,
	tracker UploadTracker,
	m *metrics.Metrics,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		validator:      validator,
		cardAuthorizer: cardAuthorizer,
		reader:         reader,
		ingester:       ingester,
		tracker:        tracker,
		metrics:        m,
		logger:         logger,
	}
}

// ProcessUpload reads, extracts and ingests one uploaded statement.
// Business failures are recorded on the upload and return nil so the message is
// committed. Infrastructure errors are returned for redelivery.
func (s *ProcessingServiceImpl) ProcessUpload(ctx context.Context, request *shared.StatementUploadRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}
	logger = logger.With("upload_id", request.UploadID.String(), "card_id", request.CardID.String())

	start := time.Now()
	defer func() { s.metrics.ObserveProcessing(time.Since(start)) }()

	logger.Info("Processing statement upload", "file_name", request.FileName, "bytes", len(request.Document))

	// 1. Validate the request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Warn("Upload validation failed", "error", err)
		reason := shared.FailureReasonInvalidRequest
		switch {
		case errors.Is(err, shared.ErrEmptyDocument):
			reason = shared.FailureReasonEmptyDocument
		case errors.Is(err, shared.ErrDocumentTooLarge):
			reason = shared.FailureReasonDocumentTooLarge
		}
		return s.fail(ctx, logger, request, metrics.OutcomeRejected, reason)
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	if err := s.tracker.MarkProcessing(ctx, request); err != nil {
		return fmt.Errorf("failed to mark upload %s as processing: %w", request.UploadID.String(), err)
	}

	// 3. Load the card and check ownership
	c, err := s.cardAuthorizer.AuthorizeCard(ctx, request.CardID, request.UserID)
	if err != nil {
		switch {
		case errors.Is(err, card.ErrCardNotFound{}):
			return s.fail(ctx, logger, request, metrics.OutcomeRejected, shared.FailureReasonCardNotFound)
		case errors.Is(err, card.ErrCardAccessDenied{}):
			return s.fail(ctx, logger, request, metrics.OutcomeRejected, shared.FailureReasonCardAccessDenied)
		}
		return err
	}

	// 4. Read and extract the document
	extraction, err := s.reader.ReadStatement(ctx, c, request.Document)
	if err != nil {
		switch {
		case errors.Is(err, statement.ErrUnsupportedFormat):
			s.metrics.ObserveExtraction("", metrics.OutcomeUnsupported, 0)
			return s.fail(ctx, logger, request, metrics.OutcomeUnsupported, shared.FailureReasonUnsupportedFormat)
		case errors.Is(err, statement.ErrDocumentUnreadable), errors.Is(err, card.ErrEmptyLastFour):
			s.metrics.ObserveExtraction("", metrics.OutcomeUnreadable, 0)
			return s.fail(ctx, logger, request, metrics.OutcomeUnreadable, shared.FailureReasonDocumentUnreadable)
		}
		return err
	}
	s.metrics.ObserveExtraction(extraction.Format.String(), metrics.OutcomeSuccess, len(extraction.Transactions))

	// 5. Ingest atomically; the outbox entry completes the upload record
	ingested, err := s.ingester.IngestStatement(ctx, ingestion.Request{
		CardID:        request.CardID,
		UserID:        request.UserID,
		Extraction:    extraction,
		UploadID:      request.UploadID,
		FileName:      request.FileName,
		CorrelationID: request.CorrelationID,
	})
	if err != nil {
		switch {
		case errors.Is(err, statement.ErrMissingStatementDate):
			return s.fail(ctx, logger, request, metrics.OutcomeMissingDate, shared.FailureReasonMissingStatementDate)
		case errors.Is(err, statement.ErrDuplicateStatement{}):
			return s.reject(ctx, logger, request)
		}
		s.metrics.ObserveIngestion(metrics.OutcomeError)
		return err
	}

	s.metrics.ObserveIngestion(metrics.OutcomeSuccess)
	logger.Info("Statement upload processed",
		"statement_id", ingested.Statement.ID.String(),
		"format", ingested.Statement.Format.String(),
		"transactions", ingested.TransactionCount,
		"skipped_rows", ingested.SkippedRows,
	)
	return nil
}

// fail records a terminal FAILED status and acknowledges the message
func (s *ProcessingServiceImpl) fail(ctx context.Context, logger *slog.Logger, request *shared.StatementUploadRequest, outcome string, reason shared.FailureReason) error {
	s.metrics.ObserveIngestion(outcome)
	if err := s.tracker.RecordFailure(ctx, request, shared.UploadStatusFailed, reason); err != nil {
		logger.Error("Failed to record upload failure", "reason", string(reason), "error", err)
	}
	return nil
}

// reject records a duplicate statement upload
func (s *ProcessingServiceImpl) reject(ctx context.Context, logger *slog.Logger, request *shared.StatementUploadRequest) error {
	s.metrics.ObserveIngestion(metrics.OutcomeDuplicate)
	logger.Info("Statement already ingested, rejecting upload")
	if err := s.tracker.RecordFailure(ctx, request, shared.UploadStatusRejected, shared.FailureReasonDuplicateStatement); err != nil {
		logger.Error("Failed to record duplicate upload", "error", err)
	}
	return nil
}
