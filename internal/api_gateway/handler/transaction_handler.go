package handler

import (
	"log/slog"

	"github.com/card-statement-ledger/internal/api_gateway/service"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles HTTP requests for transaction categorization
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Categories lists the fixed transaction categories
func (h *TransactionHandler) Categories(c *gin.Context) {
	categories := h.transactionService.Categories()
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	RespondOK(c, names)
}

// UpdateCategory categorizes a transaction and every transaction with the same description
func (h *TransactionHandler) UpdateCategory(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	transactionID, ok := pathID(c, h.logger, "id", "transaction")
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	txn, affected, err := h.transactionService.UpdateCategory(c.Request.Context(), transactionID, userID, req.Category)
	if err != nil {
		respondError(c, h.logger, "Failed to update transaction category", err)
		return
	}

	RespondOK(c, UpdateCategoryResponse{
		Transaction: mapTransactionToResponse(txn),
		Affected:    affected,
	})
}
