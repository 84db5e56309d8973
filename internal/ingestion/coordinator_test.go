package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/extraction"
	"github.com/card-statement-ledger/internal/platform/lock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// memoryStore emulates the statements tables including the (card_id, statement_date)
// unique constraint. Transactions are serialized and rolled back on error.
type memoryStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	statements   map[uuid.UUID]*statement.Statement
	transactions map[uuid.UUID]*statement.Transaction
	failCreateTx bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		statements:   make(map[uuid.UUID]*statement.Statement),
		transactions: make(map[uuid.UUID]*statement.Transaction),
	}
}

func (m *memoryStore) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	statements := make(map[uuid.UUID]*statement.Statement, len(m.statements))
	for k, v := range m.statements {
		statements[k] = v
	}
	transactions := make(map[uuid.UUID]*statement.Transaction, len(m.transactions))
	for k, v := range m.transactions {
		transactions[k] = v
	}
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.statements = statements
		m.transactions = transactions
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryStore) FindByCardAndDate(ctx context.Context, cardID uuid.UUID, statementDate time.Time) (*statement.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.statements {
		if s.CardID == cardID && s.StatementDate.Equal(statementDate) {
			return s, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Create(ctx context.Context, s *statement.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.statements {
		if existing.CardID == s.CardID && existing.StatementDate.Equal(s.StatementDate) {
			return statement.ErrDuplicateStatement{CardID: s.CardID, StatementDate: s.StatementDate}
		}
	}
	m.statements[s.ID] = s
	return nil
}

func (m *memoryStore) CreateTransactions(ctx context.Context, txns []*statement.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateTx {
		return 0, errors.New("copy failed")
	}
	for _, txn := range txns {
		m.transactions[txn.ID] = txn
	}
	return int64(len(txns)), nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*statement.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statements[id]
	if !ok {
		return nil, statement.ErrStatementNotFound{StatementID: id}
	}
	return s, nil
}

func (m *memoryStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*statement.Statement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*statement.Statement
	for _, s := range m.statements {
		if s.CardID == cardID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *memoryStore) ListTransactions(ctx context.Context, statementID uuid.UUID) ([]*statement.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*statement.Transaction
	for _, txn := range m.transactions {
		if txn.StatementID == statementID {
			result = append(result, txn)
		}
	}
	return result, nil
}

func (m *memoryStore) GetTransaction(ctx context.Context, id uuid.UUID) (*statement.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.transactions[id]
	if !ok {
		return nil, statement.ErrTransactionNotFound{TransactionID: id}
	}
	return txn, nil
}

func (m *memoryStore) UpdateCategoryByDescription(ctx context.Context, userID uuid.UUID, description string, category statement.Category) (int64, error) {
	return 0, nil
}

func (m *memoryStore) WithTx(tx pgx.Tx) statement.Repository {
	return m
}

func (m *memoryStore) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.statements), len(m.transactions)
}

type MockOutboxWriter struct {
	mock.Mock
}

func (m *MockOutboxWriter) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, ingested *IngestedStatement) error {
	args := m.Called(ctx, tx, ingested)
	return args.Error(0)
}

func testExtraction(date *time.Time, rows int) *statement.Extraction {
	e := &statement.Extraction{
		Format:       statement.FormatMTB,
		Header:       statement.Header{StatementDate: date},
		Transactions: []statement.TransactionRecord{},
	}
	for i := 0; i < rows; i++ {
		e.Transactions = append(e.Transactions, statement.TransactionRecord{
			RawDate:            "05-Jan-2024",
			Date:               time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Description:        "Coffee Shop",
			SourceCurrency:     "BDT",
			SourceAmount:       decimal.RequireFromString("150.00"),
			SettlementCurrency: "BDT",
			SettlementAmount:   decimal.RequireFromString("150.00"),
		})
	}
	return e
}

func statementDate() *time.Time {
	d := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestDedupKey(t *testing.T) {
	cardID := uuid.MustParse("5f0c6a9e-8d4b-4c55-9a0e-3c1d2b7f6e11")
	assert.Equal(t, "statement:5f0c6a9e-8d4b-4c55-9a0e-3c1d2b7f6e11:2024-01-31", DedupKey(cardID, *statementDate()))
}

func TestCoordinator_IngestStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("stores statement and transactions", func(t *testing.T) {
		store := newMemoryStore()
		outbox := new(MockOutboxWriter)
		outbox.On("CreateOutboxEntry", ctx, mock.Anything, mock.AnythingOfType("*ingestion.IngestedStatement")).Return(nil).Once()
		coordinator := NewCoordinator(store, store, nil, outbox, newTestLogger())

		cardID := uuid.New()
		uploadID := uuid.New()
		ingested, err := coordinator.IngestStatement(ctx, Request{
			CardID:     cardID,
			Extraction: testExtraction(statementDate(), 3),
			UploadID:   uploadID,
			FileName:   "jan.pdf",
		})

		require.NoError(t, err)
		assert.Equal(t, 3, ingested.TransactionCount)
		assert.Equal(t, uploadID, ingested.UploadID)
		assert.Equal(t, "jan.pdf", ingested.Statement.FileName)
		for _, txn := range ingested.Statement.Transactions {
			assert.Equal(t, ingested.Statement.ID, txn.StatementID)
			assert.Equal(t, statement.TransactionStatusCompleted, txn.Status)
		}
		statements, transactions := store.counts()
		assert.Equal(t, 1, statements)
		assert.Equal(t, 3, transactions)
		outbox.AssertExpectations(t)
	})

	t.Run("statement with no rows", func(t *testing.T) {
		store := newMemoryStore()
		coordinator := NewCoordinator(store, store, nil, nil, newTestLogger())

		ingested, err := coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(statementDate(), 0)})

		require.NoError(t, err)
		assert.Equal(t, 0, ingested.TransactionCount)
		statements, transactions := store.counts()
		assert.Equal(t, 1, statements)
		assert.Equal(t, 0, transactions)
	})

	t.Run("missing statement date persists nothing", func(t *testing.T) {
		store := newMemoryStore()
		outbox := new(MockOutboxWriter)
		coordinator := NewCoordinator(store, store, lock.NewLocalLocker(), outbox, newTestLogger())

		ingested, err := coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(nil, 2)})

		assert.Nil(t, ingested)
		assert.ErrorIs(t, err, statement.ErrMissingStatementDate)
		statements, transactions := store.counts()
		assert.Zero(t, statements)
		assert.Zero(t, transactions)
		outbox.AssertNotCalled(t, "CreateOutboxEntry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("sequential duplicate is rejected", func(t *testing.T) {
		store := newMemoryStore()
		coordinator := NewCoordinator(store, store, nil, nil, newTestLogger())
		cardID := uuid.New()

		_, err := coordinator.IngestStatement(ctx, Request{CardID: cardID, Extraction: testExtraction(statementDate(), 2)})
		require.NoError(t, err)

		_, err = coordinator.IngestStatement(ctx, Request{CardID: cardID, Extraction: testExtraction(statementDate(), 5)})

		assert.ErrorIs(t, err, statement.ErrDuplicateStatement{CardID: cardID, StatementDate: *statementDate()})
		statements, transactions := store.counts()
		assert.Equal(t, 1, statements)
		assert.Equal(t, 2, transactions)
	})

	t.Run("same date on another card is not a duplicate", func(t *testing.T) {
		store := newMemoryStore()
		coordinator := NewCoordinator(store, store, nil, nil, newTestLogger())

		_, err := coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(statementDate(), 1)})
		require.NoError(t, err)
		_, err = coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(statementDate(), 1)})
		require.NoError(t, err)

		statements, _ := store.counts()
		assert.Equal(t, 2, statements)
	})

	t.Run("transaction failure rolls back the statement", func(t *testing.T) {
		store := newMemoryStore()
		store.failCreateTx = true
		coordinator := NewCoordinator(store, store, nil, nil, newTestLogger())

		_, err := coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(statementDate(), 2)})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "copy failed")
		statements, transactions := store.counts()
		assert.Zero(t, statements)
		assert.Zero(t, transactions)
	})

	t.Run("outbox failure rolls back everything", func(t *testing.T) {
		store := newMemoryStore()
		outbox := new(MockOutboxWriter)
		outbox.On("CreateOutboxEntry", ctx, mock.Anything, mock.Anything).Return(errors.New("outbox down")).Once()
		coordinator := NewCoordinator(store, store, nil, outbox, newTestLogger())

		_, err := coordinator.IngestStatement(ctx, Request{CardID: uuid.New(), Extraction: testExtraction(statementDate(), 2)})

		require.Error(t, err)
		statements, transactions := store.counts()
		assert.Zero(t, statements)
		assert.Zero(t, transactions)
	})

	t.Run("lock failure", func(t *testing.T) {
		store := newMemoryStore()
		locker := lock.NewLocalLocker()
		cardID := uuid.New()
		unlock, err := locker.Lock(ctx, DedupKey(cardID, *statementDate()))
		require.NoError(t, err)
		defer unlock()

		coordinator := NewCoordinator(store, store, locker, nil, newTestLogger())
		timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		_, err = coordinator.IngestStatement(timeoutCtx, Request{CardID: cardID, Extraction: testExtraction(statementDate(), 1)})

		require.Error(t, err)
		statements, _ := store.counts()
		assert.Zero(t, statements)
	})
}

func TestCoordinator_ConcurrentDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		locker KeyLocker
	}{
		{name: "without locker", locker: nil},
		{name: "with local locker", locker: lock.NewLocalLocker()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryStore()
			coordinator := NewCoordinator(store, store, tt.locker, nil, newTestLogger())
			cardID := uuid.New()

			const workers = 8
			var (
				wg         sync.WaitGroup
				mu         sync.Mutex
				succeeded  int
				duplicates int
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := coordinator.IngestStatement(context.Background(), Request{
						CardID:     cardID,
						Extraction: testExtraction(statementDate(), 3),
					})
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						succeeded++
					case errors.Is(err, statement.ErrDuplicateStatement{}):
						duplicates++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, succeeded)
			assert.Equal(t, workers-1, duplicates)
			statements, transactions := store.counts()
			assert.Equal(t, 1, statements)
			assert.Equal(t, 3, transactions)
		})
	}
}

func TestCoordinator_MTBEndToEnd(t *testing.T) {
	registry, err := extraction.DefaultRegistry(extraction.AmbiguityFirstMatch)
	require.NoError(t, err)
	extractor := extraction.NewExtractor(registry, newTestLogger())

	text := extraction.JoinPages([]string{
		"MTB Credit Card Statement Statement Date: 31-Jan-2024 Total Outstanding: 1,234.50",
		"05-Jan-2024 Coffee Shop BDT 150.00 BDT 150.00 07-Jan-2024 Online Store USD 10.00 BDT 1,100.50",
	})
	result, err := extractor.DetectAndExtract(text)
	require.NoError(t, err)

	store := newMemoryStore()
	coordinator := NewCoordinator(store, store, lock.NewLocalLocker(), nil, newTestLogger())
	cardID := uuid.New()

	ingested, err := coordinator.IngestStatement(context.Background(), Request{CardID: cardID, Extraction: result, FileName: "mtb.pdf"})
	require.NoError(t, err)

	assert.Equal(t, statement.FormatMTB, ingested.Statement.Format)
	assert.True(t, ingested.Statement.StatementDate.Equal(*statementDate()))
	assert.True(t, ingested.Statement.TotalOutstanding.Valid)
	assert.Equal(t, "1234.5", ingested.Statement.TotalOutstanding.Decimal.String())
	require.Len(t, ingested.Statement.Transactions, 2)
	assert.Equal(t, "1100.5", ingested.Statement.Transactions[1].Amount.String())
	assert.Equal(t, "BDT", ingested.Statement.Transactions[1].Currency)

	_, err = coordinator.IngestStatement(context.Background(), Request{CardID: cardID, Extraction: result, FileName: "mtb-again.pdf"})
	assert.ErrorIs(t, err, statement.ErrDuplicateStatement{})
	_, transactions := store.counts()
	assert.Equal(t, 2, transactions)
}
