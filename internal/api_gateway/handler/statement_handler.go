package handler

import (
	"log/slog"

	"github.com/card-statement-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

// StatementHandler handles HTTP requests for statement previews and reads
type StatementHandler struct {
	statementService service.StatementService
	maxDocumentBytes int64
	logger           *slog.Logger
}

// NewStatementHandler creates a new statement handler
func NewStatementHandler(logger *slog.Logger, statementService service.StatementService, maxDocumentBytes int64) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
		maxDocumentBytes: maxDocumentBytes,
		logger:           logger,
	}
}

// Preview extracts an uploaded statement without storing it
func (h *StatementHandler) Preview(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, h.logger, "id", "card")
	if !ok {
		return
	}
	_, data, ok := readStatementFile(c, h.logger, h.maxDocumentBytes)
	if !ok {
		return
	}

	extraction, err := h.statementService.PreviewStatement(c.Request.Context(), cardID, userID, data)
	if err != nil {
		respondError(c, h.logger, "Failed to preview statement", err)
		return
	}

	RespondOK(c, mapExtractionToResponse(extraction))
}

// ListByCard returns the card's statements, newest first
func (h *StatementHandler) ListByCard(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	cardID, ok := pathID(c, h.logger, "id", "card")
	if !ok {
		return
	}

	statements, err := h.statementService.ListStatements(c.Request.Context(), cardID, userID)
	if err != nil {
		respondError(c, h.logger, "Failed to list statements", err)
		return
	}

	response := make([]StatementResponse, 0, len(statements))
	for _, s := range statements {
		response = append(response, mapStatementToResponse(s))
	}
	RespondOK(c, response)
}

// GetByID returns one statement with its transactions
func (h *StatementHandler) GetByID(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	statementID, ok := pathID(c, h.logger, "id", "statement")
	if !ok {
		return
	}

	stmt, err := h.statementService.GetStatement(c.Request.Context(), statementID, userID)
	if err != nil {
		respondError(c, h.logger, "Failed to get statement", err)
		return
	}

	RespondOK(c, mapStatementToResponse(stmt))
}
