package statement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Header holds the statement-level fields. Every field is optional; callers decide
// which ones they require.
type Header struct {
	TotalOutstanding *decimal.Decimal `json:"total_outstanding"`
	StatementDate    *time.Time       `json:"statement_date"`
	ClosingBalance   *decimal.Decimal `json:"closing_balance"`
}

// TransactionRecord is one normalized transaction row as printed on the statement
type TransactionRecord struct {
	RawDate            string          `json:"raw_date"`
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	SourceCurrency     string          `json:"source_currency"`
	SourceAmount       decimal.Decimal `json:"source_amount"`
	SettlementCurrency string          `json:"settlement_currency"`
	SettlementAmount   decimal.Decimal `json:"settlement_amount"`
}

// Extraction is the result of running one format's rules over a document
type Extraction struct {
	Format       FormatID            `json:"format"`
	Header       Header              `json:"header"`
	Transactions []TransactionRecord `json:"transactions"`
	SkippedRows  int                 `json:"skipped_rows"`
}

// StatementDate returns the header statement date or ErrMissingStatementDate
func (e *Extraction) StatementDate() (time.Time, error) {
	if e == nil || e.Header.StatementDate == nil {
		return time.Time{}, ErrMissingStatementDate
	}
	return *e.Header.StatementDate, nil
}

// SettlementTotal sums the settlement amounts of every extracted row
func (e *Extraction) SettlementTotal() decimal.Decimal {
	total := decimal.Zero
	for _, txn := range e.Transactions {
		total = total.Add(txn.SettlementAmount)
	}
	return total
}
