package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/card-statement-ledger/internal/platform/messaging/producers"
	"github.com/google/uuid"
)

// UploadServiceImpl implements the UploadService interface
type UploadServiceImpl struct {
	cards      cardAccess
	uploadRepo upload.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(logger *slog.Logger, cardRepo card.Repository, uploadRepo upload.Repository, producer producers.MessagePublisher) UploadService {
	return &UploadServiceImpl{
		cards:      cardAccess{cardRepo: cardRepo, logger: logger},
		uploadRepo: uploadRepo,
		producer:   producer,
		logger:     logger,
	}
}

// SubmitUpload checks card ownership, writes the PENDING record and publishes the
// upload keyed by card so one card's uploads stay ordered
func (s *UploadServiceImpl) SubmitUpload(ctx context.Context, request *shared.StatementUploadRequest) (*upload.Record, error) {
	if len(request.Document) == 0 {
		return nil, shared.ErrEmptyDocument
	}

	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	if _, err := s.cards.authorize(ctx, request.CardID, request.UserID); err != nil {
		return nil, err
	}

	record := upload.NewPendingRecord(request)
	if err := s.uploadRepo.Create(ctx, record); err != nil {
		logger.Error("Failed to create upload record", "upload_id", request.UploadID.String(), "error", err)
		return nil, err
	}

	if err := s.producer.Publish(ctx, request.CardID.String(), request); err != nil {
		logger.Error("Failed to publish statement upload",
			"upload_id", request.UploadID.String(),
			"card_id", request.CardID.String(),
			"error", err,
		)
		if updateErr := s.uploadRepo.UpdateStatus(ctx, request.UploadID, shared.UploadStatusFailed, string(shared.FailureReasonUnknownError)); updateErr != nil {
			logger.Error("Failed to mark unpublished upload as FAILED", "upload_id", request.UploadID.String(), "error", updateErr)
		}
		return nil, err
	}

	logger.Info("Statement upload published",
		"upload_id", request.UploadID.String(),
		"card_id", request.CardID.String(),
		"file_name", request.FileName,
		"bytes", len(request.Document),
	)
	return record, nil
}

// GetUpload returns the upload record owned by userID
func (s *UploadServiceImpl) GetUpload(ctx context.Context, uploadID, userID uuid.UUID) (*upload.Record, error) {
	record, err := s.uploadRepo.GetByUploadID(ctx, uploadID)
	if err != nil {
		if !errors.Is(err, upload.ErrRecordNotFound{}) {
			s.logger.Error("Failed to get upload", "upload_id", uploadID.String(), "error", err)
		}
		return nil, err
	}
	if record.UserID != userID {
		return nil, upload.ErrRecordNotFound{UploadID: uploadID}
	}
	return record, nil
}

// GetUploadsByCard retrieves paginated upload history for a card
// Returns records, total count, and any error
func (s *UploadServiceImpl) GetUploadsByCard(ctx context.Context, cardID, userID uuid.UUID, page, perPage int) ([]*upload.Record, int64, error) {
	if _, err := s.cards.authorize(ctx, cardID, userID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage

	records, err := s.uploadRepo.GetByCardID(ctx, cardID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.uploadRepo.CountByCardID(ctx, cardID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
