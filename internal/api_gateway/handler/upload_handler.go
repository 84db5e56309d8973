package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/card-statement-ledger/internal/api_gateway/middleware"
	"github.com/card-statement-ledger/internal/api_gateway/service"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler handles HTTP requests for asynchronous statement uploads
type UploadHandler struct {
	uploadService    service.UploadService
	maxDocumentBytes int64
	logger           *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(logger *slog.Logger, uploadService service.UploadService, maxDocumentBytes int64) *UploadHandler {
	return &UploadHandler{
		uploadService:    uploadService,
		maxDocumentBytes: maxDocumentBytes,
		logger:           logger,
	}
}

// Submit queues an uploaded statement for ingestion and returns 202 with the upload id
func (h *UploadHandler) Submit(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, h.logger, "id", "card")
	if !ok {
		return
	}
	fileName, data, ok := readStatementFile(c, h.logger, h.maxDocumentBytes)
	if !ok {
		return
	}

	request := &shared.StatementUploadRequest{
		UploadID:      uuid.New(),
		CardID:        cardID,
		UserID:        userID,
		FileName:      fileName,
		Document:      data,
		CorrelationID: middleware.GetCorrelationID(c),
		Timestamp:     time.Now().UTC(),
	}

	record, err := h.uploadService.SubmitUpload(c.Request.Context(), request)
	if err != nil {
		respondError(c, h.logger, "Failed to submit statement upload", err)
		return
	}

	RespondAccepted(c, gin.H{
		"upload_id": record.UploadID.String(),
		"status":    string(record.Status),
	})
}

// GetByID returns the status of one upload
func (h *UploadHandler) GetByID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	uploadID, ok := pathID(c, h.logger, "id", "upload")
	if !ok {
		return
	}

	record, err := h.uploadService.GetUpload(c.Request.Context(), uploadID, userID)
	if err != nil {
		respondError(c, h.logger, "Failed to get upload", err)
		return
	}

	RespondOK(c, mapUploadToResponse(record))
}

// ListByCard retrieves paginated upload history for a card
func (h *UploadHandler) ListByCard(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, h.logger, "id", "card")
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.uploadService.GetUploadsByCard(c.Request.Context(), cardID, userID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, "Failed to get uploads", err)
		return
	}

	uploads := make([]UploadResponse, 0, len(records))
	for _, record := range records {
		uploads = append(uploads, mapUploadToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, uploads, pagination.Page, pagination.PerPage, int(total))
}
