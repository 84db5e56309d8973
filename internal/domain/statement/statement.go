package statement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a persisted transaction
type TransactionStatus string

const TransactionStatusCompleted TransactionStatus = "completed"

// Statement is a persisted statement, unique per (card, statement date)
type Statement struct {
	ID               uuid.UUID           `json:"id"`
	CardID           uuid.UUID           `json:"card_id"`
	StatementDate    time.Time           `json:"statement_date"`
	Format           FormatID            `json:"format"`
	TotalOutstanding decimal.NullDecimal `json:"total_outstanding"`
	ClosingBalance   decimal.NullDecimal `json:"closing_balance"`
	FileName         string              `json:"file_name"`
	CreatedAt        time.Time           `json:"created_at"`
	Transactions     []*Transaction      `json:"transactions,omitempty"`
}

// Transaction is a persisted statement transaction in settlement currency
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	StatementID     uuid.UUID         `json:"statement_id"`
	CardID          uuid.UUID         `json:"card_id"`
	TransactionDate time.Time         `json:"transaction_date"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	Category        string            `json:"category,omitempty"`
	Status          TransactionStatus `json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
}

// NewStatement builds a statement from an extraction. The extraction must carry a
// statement date.
func NewStatement(cardID uuid.UUID, extraction *Extraction, fileName string) (*Statement, error) {
	date, err := extraction.StatementDate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Statement{
		ID:            uuid.New(),
		CardID:        cardID,
		StatementDate: date,
		Format:        extraction.Format,
		FileName:      fileName,
		CreatedAt:     now,
	}
	if v := extraction.Header.TotalOutstanding; v != nil {
		s.TotalOutstanding = decimal.NewNullDecimal(*v)
	}
	if v := extraction.Header.ClosingBalance; v != nil {
		s.ClosingBalance = decimal.NewNullDecimal(*v)
	}

	s.Transactions = make([]*Transaction, 0, len(extraction.Transactions))
	for _, record := range extraction.Transactions {
		s.Transactions = append(s.Transactions, &Transaction{
			ID:              uuid.New(),
			StatementID:     s.ID,
			CardID:          cardID,
			TransactionDate: record.Date,
			Description:     record.Description,
			Amount:          record.SettlementAmount,
			Currency:        record.SettlementCurrency,
			Status:          TransactionStatusCompleted,
			CreatedAt:       now,
		})
	}
	return s, nil
}
