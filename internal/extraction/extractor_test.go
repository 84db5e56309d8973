package extraction

import (
	"bytes"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	registry, err := DefaultRegistry(AmbiguityFirstMatch)
	require.NoError(t, err)
	return NewExtractor(registry, newTestLogger())
}

func requireAmount(t *testing.T, want string, got *decimal.Decimal) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString(want).Equal(*got), "got %s want %s", got, want)
}

func TestExtractor_DetectAndExtract_MTB(t *testing.T) {
	extractor := newTestExtractor(t)
	text := JoinPages([]string{
		"MTB Credit Card Statement Statement Date: 31-Jan-2024 Total Outstanding: 1,234.50 Transactions 05-Jan-2024 Coffee Shop BDT 150.00 BDT 150.00 Page 1 of 1",
	})

	extraction, err := extractor.DetectAndExtract(text)
	require.NoError(t, err)

	assert.Equal(t, statement.FormatMTB, extraction.Format)
	requireAmount(t, "1234.50", extraction.Header.TotalOutstanding)
	require.NotNil(t, extraction.Header.StatementDate)
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), *extraction.Header.StatementDate)
	assert.Nil(t, extraction.Header.ClosingBalance)

	require.Len(t, extraction.Transactions, 1)
	txn := extraction.Transactions[0]
	assert.Equal(t, "05-Jan-2024", txn.RawDate)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.Equal(t, "Coffee Shop", txn.Description)
	assert.Equal(t, "BDT", txn.SourceCurrency)
	assert.True(t, txn.SourceAmount.Equal(decimal.RequireFromString("150.00")))
	assert.Equal(t, "BDT", txn.SettlementCurrency)
	assert.True(t, txn.SettlementAmount.Equal(decimal.RequireFromString("150.00")))
	assert.Zero(t, extraction.SkippedRows)
}

func TestExtractor_DetectAndExtract_EBL(t *testing.T) {
	extractor := newTestExtractor(t)

	t.Run("RowsAfterAnchorOnly", func(t *testing.T) {
		text := JoinPages([]string{
			"EBL Card Statement Statement Date: 15 February 2024 Total Outstanding: 25,000.00 Closing Balance: 24,500.75 Summary 01-Feb-2024 Annual Fee BDT 500.00 BDT 500.00",
			"Transactional Details for Card # 4321 10-Feb-2024 Daraz Online USD 20.00 BDT 2,400.00 12-Feb-2024 Uber Ride BDT 350.50 BDT 350.50",
		})

		extraction, err := extractor.DetectAndExtract(text)
		require.NoError(t, err)

		assert.Equal(t, statement.FormatEBL, extraction.Format)
		requireAmount(t, "25000.00", extraction.Header.TotalOutstanding)
		requireAmount(t, "24500.75", extraction.Header.ClosingBalance)
		require.NotNil(t, extraction.Header.StatementDate)
		assert.Equal(t, time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), *extraction.Header.StatementDate)

		require.Len(t, extraction.Transactions, 2)
		assert.Equal(t, "Daraz Online", extraction.Transactions[0].Description)
		assert.Equal(t, "USD", extraction.Transactions[0].SourceCurrency)
		assert.True(t, extraction.Transactions[0].SourceAmount.Equal(decimal.RequireFromString("20.00")))
		assert.True(t, extraction.Transactions[0].SettlementAmount.Equal(decimal.RequireFromString("2400.00")))
		assert.Equal(t, "Uber Ride", extraction.Transactions[1].Description)
		assert.True(t, extraction.Transactions[1].SettlementAmount.Equal(decimal.RequireFromString("350.50")))
	})

	t.Run("MissingAnchorYieldsNoTransactions", func(t *testing.T) {
		text := "EBL Total Outstanding: 100.00 05-Jan-2024 Coffee Shop BDT 150.00 BDT 150.00"

		extraction, err := extractor.DetectAndExtract(text)
		require.NoError(t, err)

		assert.Equal(t, statement.FormatEBL, extraction.Format)
		requireAmount(t, "100.00", extraction.Header.TotalOutstanding)
		assert.NotNil(t, extraction.Transactions)
		assert.Empty(t, extraction.Transactions)
	})
}

func TestExtractor_DetectAndExtract_EdgeCases(t *testing.T) {
	extractor := newTestExtractor(t)

	t.Run("UnsupportedFormat", func(t *testing.T) {
		extraction, err := extractor.DetectAndExtract("Some other bank 05-Jan-2024 Coffee BDT 1.00 BDT 1.00")
		assert.Nil(t, extraction)
		assert.ErrorIs(t, err, statement.ErrUnsupportedFormat)
	})

	t.Run("NoRows", func(t *testing.T) {
		extraction, err := extractor.DetectAndExtract("MTB statement with nothing in it")
		require.NoError(t, err)
		assert.NotNil(t, extraction.Transactions)
		assert.Empty(t, extraction.Transactions)
		assert.Nil(t, extraction.Header.StatementDate)
		assert.Nil(t, extraction.Header.TotalOutstanding)
	})

	t.Run("InvalidRowsAreSkipped", func(t *testing.T) {
		text := "MTB 31-Feb-2024 Impossible Date BDT 1.00 BDT 1.00 01-Mar-2024 Odd Currency QQQ 5.00 BDT 5.00 02-Mar-2024 Pharmacy BDT 80.00 BDT 80.00"

		extraction, err := extractor.DetectAndExtract(text)
		require.NoError(t, err)
		require.Len(t, extraction.Transactions, 1)
		assert.Equal(t, "Pharmacy", extraction.Transactions[0].Description)
		assert.Equal(t, 2, extraction.SkippedRows)
	})

	t.Run("NonBreakingSpaces", func(t *testing.T) {
		text := "MTB\u00a0Total\u00a0Outstanding: 9.99\u00a005-Jan-2024\u00a0Coffee\u202fShop BDT\t150.00 BDT 150.00"

		extraction, err := extractor.DetectAndExtract(text)
		require.NoError(t, err)
		requireAmount(t, "9.99", extraction.Header.TotalOutstanding)
		require.Len(t, extraction.Transactions, 1)
		assert.Equal(t, "Coffee Shop", extraction.Transactions[0].Description)
	})

	t.Run("RowsInDocumentOrderAcrossPages", func(t *testing.T) {
		text := JoinPages([]string{
			"MTB 03-Jan-2024 First BDT 1.00 BDT 1.00",
			"02-Jan-2024 Second BDT 2.00 BDT 2.00",
		})

		extraction, err := extractor.DetectAndExtract(text)
		require.NoError(t, err)
		require.Len(t, extraction.Transactions, 2)
		assert.Equal(t, "First", extraction.Transactions[0].Description)
		assert.Equal(t, "Second", extraction.Transactions[1].Description)
	})
}

func TestExtractor_DetectAndExtract_DatesInsideDescription(t *testing.T) {
	extractor := newTestExtractor(t)

	tests := []struct {
		name            string
		text            string
		wantRawDates    []string
		wantDescription []string
	}{
		{
			name:            "instalment row keeps its own date",
			text:            "MTB 05-Jan-2024 EMI 01-Jan-2024 INSTALMENT BDT 150.00 BDT 150.00",
			wantRawDates:    []string{"05-Jan-2024"},
			wantDescription: []string{"EMI 01-Jan-2024 INSTALMENT"},
		},
		{
			name:            "statement date header followed by instalment row",
			text:            "MTB Statement Date: 31-Jan-2024 Transactions 05-Jan-2024 EMI 01-Jan-2024 INSTALMENT BDT 150.00 BDT 150.00",
			wantRawDates:    []string{"05-Jan-2024"},
			wantDescription: []string{"EMI 01-Jan-2024 INSTALMENT"},
		},
		{
			name:            "consecutive rows",
			text:            "MTB 03-Jan-2024 Refund of 28-Dec-2023 purchase BDT 40.00 BDT 40.00 04-Jan-2024 Bus BDT 5.00 BDT 5.00",
			wantRawDates:    []string{"03-Jan-2024", "04-Jan-2024"},
			wantDescription: []string{"Refund of 28-Dec-2023 purchase", "Bus"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction, err := extractor.DetectAndExtract(tt.text)
			require.NoError(t, err)
			require.Len(t, extraction.Transactions, len(tt.wantRawDates))

			for i, txn := range extraction.Transactions {
				assert.Equal(t, tt.wantRawDates[i], txn.RawDate)
				assert.Equal(t, tt.wantDescription[i], txn.Description)
			}
		})
	}
}

func TestExtractor_SkippedRowsAreLogged(t *testing.T) {
	registry, err := DefaultRegistry(AmbiguityFirstMatch)
	require.NoError(t, err)
	var buf bytes.Buffer
	extractor := NewExtractor(registry, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	extraction, err := extractor.DetectAndExtract("MTB 05-Jan-2024 Arcade Tokens QQQ 10.00 BDT 10.00")
	require.NoError(t, err)

	assert.Empty(t, extraction.Transactions)
	assert.Equal(t, 1, extraction.SkippedRows)
	output := buf.String()
	assert.Contains(t, output, "Skipping transaction row")
	assert.Contains(t, output, "source_currency=QQQ")
	assert.Contains(t, output, "level=INFO")
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "a\nb\nc", JoinPages([]string{"a", "b", "c"}))
	assert.Equal(t, "", JoinPages(nil))
}
