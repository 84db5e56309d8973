package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/platform/messaging/producers"
	"github.com/card-statement-ledger/internal/statement_processor/service"
	"github.com/google/uuid"
)

var errMissingUploadID = errors.New("upload message has no upload id")

// UploadEventHandler handles incoming statement upload messages from Kafka
type UploadEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewUploadEventHandler creates a new handler
func NewUploadEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *UploadEventHandler {
	return &UploadEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *UploadEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.StatementUploadRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal statement upload from Kafka message", err)
	}
	if request.UploadID == uuid.Nil {
		return h.deadLetter(ctx, key, value, "Statement upload message is unusable", errMissingUploadID)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received statement upload for processing",
		"upload_id", request.UploadID.String(),
		"card_id", request.CardID.String(),
		"file_name", request.FileName,
	)

	if err := h.processingService.ProcessUpload(ctx, &request); err != nil {
		logger.Error("Failed to process statement upload",
			"upload_id", request.UploadID.String(),
			"card_id", request.CardID.String(),
			"error", err,
		)
		return fmt.Errorf("processing upload %s failed: %w", request.UploadID.String(), err)
	}

	logger.Info("Successfully handled statement upload", "upload_id", request.UploadID.String())
	return nil
}

// deadLetter parks an unprocessable message. The offset is committed only when the
// DLQ write succeeds.
func (h *UploadEventHandler) deadLetter(ctx context.Context, key, value []byte, msg string, cause error) error {
	h.logger.Error(msg,
		"error", cause,
		"message_key", string(key),
	)

	if h.producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", msg, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
			return nil
		}
	}
	return fmt.Errorf("unprocessable message: %w", cause)
}
