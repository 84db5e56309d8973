package handler

import (
	"time"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/shopspring/decimal"
)

// ExtractionResponse represents a statement preview in API responses
type ExtractionResponse struct {
	Format           string                         `json:"format"`
	StatementDate    string                         `json:"statement_date,omitempty"`
	TotalOutstanding string                         `json:"total_outstanding,omitempty"`
	ClosingBalance   string                         `json:"closing_balance,omitempty"`
	SettlementTotal  string                         `json:"settlement_total"`
	SkippedRows      int                            `json:"skipped_rows"`
	Transactions     []ExtractedTransactionResponse `json:"transactions"`
}

// ExtractedTransactionResponse represents one extracted row in API responses
type ExtractedTransactionResponse struct {
	RawDate            string `json:"raw_date"`
	Date               string `json:"date"`
	Description        string `json:"description"`
	SourceCurrency     string `json:"source_currency"`
	SourceAmount       string `json:"source_amount"`
	SettlementCurrency string `json:"settlement_currency"`
	SettlementAmount   string `json:"settlement_amount"`
}

// StatementResponse represents a stored statement in API responses
type StatementResponse struct {
	ID               string                `json:"id"`
	CardID           string                `json:"card_id"`
	StatementDate    string                `json:"statement_date"`
	Format           string                `json:"format"`
	TotalOutstanding string                `json:"total_outstanding,omitempty"`
	ClosingBalance   string                `json:"closing_balance,omitempty"`
	FileName         string                `json:"file_name"`
	CreatedAt        string                `json:"created_at"`
	Transactions     []TransactionResponse `json:"transactions,omitempty"`
}

// TransactionResponse represents a stored transaction in API responses
type TransactionResponse struct {
	ID              string `json:"id"`
	StatementID     string `json:"statement_id"`
	CardID          string `json:"card_id"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Category        string `json:"category,omitempty"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}

// UpdateCategoryRequest represents a request to categorize a transaction
type UpdateCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// UpdateCategoryResponse reports the categorized transaction and how many rows changed
type UpdateCategoryResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Affected    int64               `json:"affected"`
}

// UploadResponse represents an upload history record in API responses
type UploadResponse struct {
	UploadID         string `json:"upload_id"`
	CardID           string `json:"card_id"`
	FileName         string `json:"file_name"`
	Status           string `json:"status"`
	Format           string `json:"format,omitempty"`
	StatementID      string `json:"statement_id,omitempty"`
	StatementDate    string `json:"statement_date,omitempty"`
	TransactionCount int    `json:"transaction_count"`
	SkippedRows      int    `json:"skipped_rows"`
	FailureReason    string `json:"failure_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
	ProcessedAt      string `json:"processed_at,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

func formatDecimal(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// mapExtractionToResponse maps an extraction to a preview response DTO
func mapExtractionToResponse(e *statement.Extraction) ExtractionResponse {
	response := ExtractionResponse{
		Format:           e.Format.String(),
		TotalOutstanding: formatDecimal(e.Header.TotalOutstanding),
		ClosingBalance:   formatDecimal(e.Header.ClosingBalance),
		SettlementTotal:  e.SettlementTotal().StringFixed(2),
		SkippedRows:      e.SkippedRows,
		Transactions:     make([]ExtractedTransactionResponse, 0, len(e.Transactions)),
	}
	if e.Header.StatementDate != nil {
		response.StatementDate = e.Header.StatementDate.Format(time.DateOnly)
	}

	for _, txn := range e.Transactions {
		response.Transactions = append(response.Transactions, ExtractedTransactionResponse{
			RawDate:            txn.RawDate,
			Date:               txn.Date.Format(time.DateOnly),
			Description:        txn.Description,
			SourceCurrency:     txn.SourceCurrency,
			SourceAmount:       txn.SourceAmount.StringFixed(2),
			SettlementCurrency: txn.SettlementCurrency,
			SettlementAmount:   txn.SettlementAmount.StringFixed(2),
		})
	}
	return response
}

// mapStatementToResponse maps a statement and any loaded transactions to a response DTO
func mapStatementToResponse(s *statement.Statement) StatementResponse {
	response := StatementResponse{
		ID:               s.ID.String(),
		CardID:           s.CardID.String(),
		StatementDate:    s.StatementDate.Format(time.DateOnly),
		Format:           s.Format.String(),
		TotalOutstanding: formatNullDecimal(s.TotalOutstanding),
		ClosingBalance:   formatNullDecimal(s.ClosingBalance),
		FileName:         s.FileName,
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
	}
	for _, txn := range s.Transactions {
		response.Transactions = append(response.Transactions, mapTransactionToResponse(txn))
	}
	return response
}

// mapTransactionToResponse maps a statement transaction to a response DTO
func mapTransactionToResponse(t *statement.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID.String(),
		StatementID:     t.StatementID.String(),
		CardID:          t.CardID.String(),
		TransactionDate: t.TransactionDate.Format(time.DateOnly),
		Description:     t.Description,
		Amount:          t.Amount.StringFixed(2),
		Currency:        t.Currency,
		Category:        t.Category,
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
}

// mapUploadToResponse maps an upload record to a response DTO
func mapUploadToResponse(r *upload.Record) UploadResponse {
	response := UploadResponse{
		UploadID:         r.UploadID.String(),
		CardID:           r.CardID.String(),
		FileName:         r.FileName,
		Status:           string(r.Status),
		Format:           r.Format,
		TransactionCount: r.TransactionCount,
		SkippedRows:      r.SkippedRows,
		FailureReason:    r.FailureReason,
		CreatedAt:        r.CreatedAt.Format(time.RFC3339),
	}
	if r.StatementID != nil {
		response.StatementID = r.StatementID.String()
	}
	if r.StatementDate != nil {
		response.StatementDate = r.StatementDate.Format(time.DateOnly)
	}
	if r.ProcessedAt != nil {
		response.ProcessedAt = r.ProcessedAt.Format(time.RFC3339)
	}
	return response
}
