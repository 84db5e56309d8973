package components

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/card-statement-ledger/internal/statement_processor/service"
)

type UploadTrackerImpl struct {
	uploadRepo upload.Repository
	logger     *slog.Logger
}

func NewUploadTracker(uploadRepo upload.Repository, logger *slog.Logger) service.UploadTracker {
	return &UploadTrackerImpl{
		uploadRepo: uploadRepo,
		logger:     logger,
	}
}

// MarkProcessing moves the upload record to PROCESSING, creating it if the gateway
// never wrote one
func (r *UploadTrackerImpl) MarkProcessing(ctx context.Context, request *shared.StatementUploadRequest) error {
	return r.setStatus(ctx, request, shared.UploadStatusProcessing, "")
}

// RecordFailure records a terminal status with its reason on the upload record
func (r *UploadTrackerImpl) RecordFailure(ctx context.Context, request *shared.StatementUploadRequest, status shared.UploadStatus, reason shared.FailureReason) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}
	logger.Info("Recording failed upload", "upload_id", request.UploadID.String(), "status", status, "reason", reason)

	return r.setStatus(ctx, request, status, string(reason))
}

func (r *UploadTrackerImpl) setStatus(ctx context.Context, request *shared.StatementUploadRequest, status shared.UploadStatus, reason string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	err := r.uploadRepo.UpdateStatus(ctx, request.UploadID, status, reason)
	if err == nil {
		return nil
	}
	if !errors.Is(err, upload.ErrRecordNotFound{}) {
		logger.Error("Failed to update upload status", "upload_id", request.UploadID.String(), "status", status, "error", err)
		return err
	}

	logger.Info("Upload record missing, creating it", "upload_id", request.UploadID.String(), "status", status)
	record := upload.NewPendingRecord(request)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Status = status
	record.FailureReason = reason
	if status.IsTerminal() {
		now := time.Now().UTC()
		record.ProcessedAt = &now
	}

	if err := r.uploadRepo.Create(ctx, record); err != nil {
		if errors.Is(err, upload.ErrDuplicateRecord{}) {
			// Created concurrently by the gateway
			return r.uploadRepo.UpdateStatus(ctx, request.UploadID, status, reason)
		}
		logger.Error("Failed to create upload record", "upload_id", request.UploadID.String(), "error", err)
		return err
	}
	return nil
}
