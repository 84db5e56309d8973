package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/card-statement-ledger/internal/statement_processor/service"
	"github.com/google/uuid"
)

type UploadValidatorImpl struct {
	uploadRepo       upload.Repository
	maxDocumentBytes int64
	logger           *slog.Logger
}

func NewUploadValidator(uploadRepo upload.Repository, maxDocumentBytes int64, logger *slog.Logger) service.UploadValidator {
	return &UploadValidatorImpl{
		uploadRepo:       uploadRepo,
		maxDocumentBytes: maxDocumentBytes,
		logger:           logger,
	}
}

// Validate checks upload request validity
func (v *UploadValidatorImpl) Validate(ctx context.Context, request *shared.StatementUploadRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if request.UploadID == uuid.Nil || request.CardID == uuid.Nil || request.UserID == uuid.Nil {
		logger.Error("Upload is missing identifiers", "upload_id", request.UploadID.String(), "card_id", request.CardID.String())
		return shared.ErrInvalidUpload
	}

	if len(request.Document) == 0 {
		logger.Error("Empty statement document", "upload_id", request.UploadID.String())
		return shared.ErrEmptyDocument
	}

	if v.maxDocumentBytes > 0 && int64(len(request.Document)) > v.maxDocumentBytes {
		logger.Error("Statement document too large", "upload_id", request.UploadID.String(), "bytes", len(request.Document), "max_bytes", v.maxDocumentBytes)
		return fmt.Errorf("%w: %d bytes", shared.ErrDocumentTooLarge, len(request.Document))
	}

	return nil
}

// CheckIdempotency checks if the upload already reached a terminal status
func (v *UploadValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.StatementUploadRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	existing, err := v.uploadRepo.GetByUploadID(ctx, request.UploadID)
	if err != nil && !errors.Is(err, upload.ErrRecordNotFound{}) {
		logger.Error("Failed to check upload history for idempotency", "upload_id", request.UploadID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for upload %s: %w", request.UploadID.String(), err)
	}

	if existing != nil {
		if existing.Status.IsTerminal() {
			logger.Info("Upload already processed (idempotency)", "upload_id", request.UploadID.String(), "status", existing.Status)
			return true, nil
		}
		logger.Info("Upload found with non-terminal status, proceeding", "upload_id", request.UploadID.String(), "status", existing.Status)
	}

	return false, nil
}
