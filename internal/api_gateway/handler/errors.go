package handler

import (
	"errors"
	"log/slog"

	"github.com/card-statement-ledger/internal/api_gateway/middleware"
	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors to HTTP responses. Anything unrecognized is a 500.
func respondError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	switch {
	case errors.Is(err, card.ErrCardNotFound{}):
		RespondNotFound(c, "Card not found")
	case errors.Is(err, card.ErrCardAccessDenied{}):
		RespondForbidden(c, "Card does not belong to the caller")
	case errors.Is(err, statement.ErrStatementNotFound{}):
		RespondNotFound(c, "Statement not found")
	case errors.Is(err, statement.ErrTransactionNotFound{}):
		RespondNotFound(c, "Transaction not found")
	case errors.Is(err, upload.ErrRecordNotFound{}):
		RespondNotFound(c, "Upload not found")
	case errors.Is(err, upload.ErrDuplicateRecord{}):
		RespondConflict(c, "Upload already exists")
	case errors.Is(err, statement.ErrInvalidCategory):
		RespondBadRequest(c, "Invalid category")
	case errors.Is(err, shared.ErrEmptyDocument):
		RespondBadRequest(c, "Statement file is empty")
	case errors.Is(err, shared.ErrDocumentTooLarge):
		RespondPayloadTooLarge(c, "Statement file is too large")
	case errors.Is(err, statement.ErrAmbiguousFormat):
		RespondUnprocessable(c, string(shared.FailureReasonUnsupportedFormat), "Statement matches more than one supported format")
	case errors.Is(err, statement.ErrUnsupportedFormat):
		RespondUnprocessable(c, string(shared.FailureReasonUnsupportedFormat), "Statement format is not supported")
	case errors.Is(err, statement.ErrDocumentUnreadable), errors.Is(err, card.ErrEmptyLastFour):
		RespondUnprocessable(c, string(shared.FailureReasonDocumentUnreadable), "Statement file could not be read")
	default:
		logger.Error(msg, "error", err, "correlation_id", middleware.GetCorrelationID(c))
		RespondInternalError(c)
	}
}
