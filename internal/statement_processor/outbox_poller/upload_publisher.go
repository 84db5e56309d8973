package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/outbox"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
)

// UploadPublisher applies a committed ingestion outcome to the upload history
type UploadPublisher interface {
	PublishUpload(ctx context.Context, message *outbox.Message) error
}

// UploadPublisherImpl implements UploadPublisher
type UploadPublisherImpl struct {
	outboxRepo outbox.Repository
	uploadRepo upload.Repository
	logger     *slog.Logger
}

// NewUploadPublisher creates a new publisher
func NewUploadPublisher(
	outboxRepo outbox.Repository,
	uploadRepo upload.Repository,
	logger *slog.Logger,
) UploadPublisher {
	return &UploadPublisherImpl{
		outboxRepo: outboxRepo,
		uploadRepo: uploadRepo,
		logger:     logger,
	}
}

// PublishUpload marks the upload record COMPLETED and the outbox message PROCESSED
func (p *UploadPublisherImpl) PublishUpload(ctx context.Context, message *outbox.Message) error {
	record, err := message.GetUploadRecord()
	if err != nil {
		p.logger.Error("Failed to unmarshal upload record from outbox payload",
			"outbox_id", message.ID, "upload_id", message.UploadID.String(), "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if record.CorrelationID != "" {
		logger = p.logger.With("correlation_id", record.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to upload history", "outbox_id", message.ID, "upload_id", record.UploadID.String())

	err = p.uploadRepo.Save(ctx, record)
	switch {
	case err == nil:
		logger.Info("Upload record marked COMPLETED", "upload_id", record.UploadID.String())
	case errors.Is(err, upload.ErrRecordNotFound{}):
		if err := p.uploadRepo.Create(ctx, record); err != nil && !errors.Is(err, upload.ErrDuplicateRecord{}) {
			logger.Error("Failed to create upload record in MongoDB", "upload_id", record.UploadID.String(), "error", err)
			return fmt.Errorf("failed to create upload record %s: %w", record.UploadID.String(), err)
		}
		logger.Info("Created COMPLETED upload record in MongoDB", "upload_id", record.UploadID.String())
	default:
		logger.Error("Failed to save upload record", "upload_id", record.UploadID.String(), "error", err)
		return fmt.Errorf("failed to save upload record %s: %w", record.UploadID.String(), err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "upload_id", record.UploadID.String(), "error", err,
		)
		return fmt.Errorf("upload record %s saved, but failed to mark outbox %d as PROCESSED: %w", record.UploadID.String(), message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "upload_id", record.UploadID.String())
	return nil
}
