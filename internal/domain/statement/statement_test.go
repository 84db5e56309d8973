package statement

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExtraction() *Extraction {
	date := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	total := decimal.RequireFromString("12345.67")
	return &Extraction{
		Format: FormatMTB,
		Header: Header{StatementDate: &date, TotalOutstanding: &total},
		Transactions: []TransactionRecord{
			{
				RawDate:            "05-Jan-2024",
				Date:               time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
				Description:        "Coffee Shop",
				SourceCurrency:     "USD",
				SourceAmount:       decimal.RequireFromString("1.50"),
				SettlementCurrency: "BDT",
				SettlementAmount:   decimal.RequireFromString("150.00"),
			},
			{
				RawDate:            "06-Jan-2024",
				Date:               time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC),
				Description:        "Grocery Mart",
				SourceCurrency:     "BDT",
				SourceAmount:       decimal.RequireFromString("1200.00"),
				SettlementCurrency: "BDT",
				SettlementAmount:   decimal.RequireFromString("1200.00"),
			},
		},
	}
}

func TestNewStatement(t *testing.T) {
	t.Run("BuildsFromExtraction", func(t *testing.T) {
		cardID := uuid.New()
		extraction := sampleExtraction()

		s, err := NewStatement(cardID, extraction, "jan.pdf")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.Equal(t, cardID, s.CardID)
		assert.Equal(t, FormatMTB, s.Format)
		assert.Equal(t, "jan.pdf", s.FileName)
		assert.True(t, s.StatementDate.Equal(*extraction.Header.StatementDate))
		assert.True(t, s.TotalOutstanding.Valid)
		assert.True(t, s.TotalOutstanding.Decimal.Equal(decimal.RequireFromString("12345.67")))
		assert.False(t, s.ClosingBalance.Valid)

		require.Len(t, s.Transactions, 2)
		for i, txn := range s.Transactions {
			assert.Equal(t, s.ID, txn.StatementID)
			assert.Equal(t, cardID, txn.CardID)
			assert.Equal(t, TransactionStatusCompleted, txn.Status)
			assert.Equal(t, extraction.Transactions[i].Description, txn.Description)
			assert.True(t, txn.Amount.Equal(extraction.Transactions[i].SettlementAmount), "settlement amount is persisted")
			assert.Equal(t, "BDT", txn.Currency)
		}
	})

	t.Run("MissingStatementDate", func(t *testing.T) {
		extraction := sampleExtraction()
		extraction.Header.StatementDate = nil

		s, err := NewStatement(uuid.New(), extraction, "jan.pdf")
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrMissingStatementDate)
	})

	t.Run("NoTransactions", func(t *testing.T) {
		extraction := sampleExtraction()
		extraction.Transactions = nil

		s, err := NewStatement(uuid.New(), extraction, "jan.pdf")
		require.NoError(t, err)
		assert.NotNil(t, s.Transactions)
		assert.Empty(t, s.Transactions)
	})
}

func TestExtraction_SettlementTotal(t *testing.T) {
	assert.True(t, sampleExtraction().SettlementTotal().Equal(decimal.RequireFromString("1350.00")))
	assert.True(t, (&Extraction{}).SettlementTotal().IsZero())
}

func TestFormatID_Valid(t *testing.T) {
	for _, f := range Formats() {
		assert.True(t, f.Valid(), f)
	}
	assert.False(t, FormatID("CITY").Valid())
	assert.False(t, FormatID("").Valid())
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "food", want: CategoryFood},
		{input: " Travel ", want: CategoryTravel},
		{input: "GROCERY", want: CategoryGrocery},
		{input: "gambling", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Len(t, Categories(), 9)
}

func TestErrDuplicateStatement_Is(t *testing.T) {
	cardID := uuid.New()
	date := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
	err := fmt.Errorf("ingest: %w", ErrDuplicateStatement{CardID: cardID, StatementDate: date})

	assert.True(t, errors.Is(err, ErrDuplicateStatement{}))
	assert.True(t, errors.Is(err, ErrDuplicateStatement{CardID: cardID}))
	assert.True(t, errors.Is(err, ErrDuplicateStatement{CardID: cardID, StatementDate: date}))
	assert.False(t, errors.Is(err, ErrDuplicateStatement{CardID: cardID, StatementDate: date.AddDate(0, 1, 0)}))
	assert.False(t, errors.Is(err, ErrDuplicateStatement{CardID: uuid.New()}))
	assert.Contains(t, err.Error(), "2024-03-31")
}
