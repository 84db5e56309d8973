package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const statementCardDateConstraint = "statements_card_id_statement_date_key"

var transactionColumns = []string{
	"id", "statement_id", "card_id", "transaction_date", "description",
	"amount", "currency", "category", "status", "created_at",
}

// StatementRepository implements the statement.Repository interface for PostgreSQL
type StatementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewStatementRepository(logger *slog.Logger, db *persistence.PostgresDB) statement.Repository {
	return &StatementRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *StatementRepository) WithTx(tx pgx.Tx) statement.Repository {
	return &StatementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// FindByCardAndDate returns nil, nil when the card has no statement for the date
func (r *StatementRepository) FindByCardAndDate(ctx context.Context, cardID uuid.UUID, statementDate time.Time) (*statement.Statement, error) {
	query := `
		SELECT id, card_id, statement_date, format, total_outstanding, closing_balance, file_name, created_at
		FROM statements
		WHERE card_id = $1 AND statement_date = $2
	`

	s, err := scanStatement(r.querier.QueryRow(ctx, query, cardID, statementDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to find statement",
			"card_id", cardID.String(),
			"statement_date", statementDate.Format(time.DateOnly),
			"error", err,
		)
		return nil, fmt.Errorf("failed to find statement: %w", err)
	}

	return s, nil
}

// Create inserts the statement row. The (card_id, statement_date) unique
// constraint surfaces as statement.ErrDuplicateStatement.
func (r *StatementRepository) Create(ctx context.Context, s *statement.Statement) error {
	query := `
		INSERT INTO statements (id, card_id, statement_date, format, total_outstanding, closing_balance, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.CardID,
		s.StatementDate,
		s.Format.String(),
		s.TotalOutstanding,
		s.ClosingBalance,
		s.FileName,
		s.CreatedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err, statementCardDateConstraint) {
			r.logger.Warn("Statement already exists",
				"card_id", s.CardID.String(),
				"statement_date", s.StatementDate.Format(time.DateOnly),
			)
			return statement.ErrDuplicateStatement{CardID: s.CardID, StatementDate: s.StatementDate}
		}
		r.logger.Error("Failed to create statement", "id", s.ID.String(), "error", err)
		return fmt.Errorf("failed to create statement: %w", err)
	}

	return nil
}

// CreateTransactions bulk-inserts rows with COPY and returns the inserted count
func (r *StatementRepository) CreateTransactions(ctx context.Context, txns []*statement.Transaction) (int64, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, 0, len(txns))
	for _, txn := range txns {
		var category *string
		if txn.Category != "" {
			c := txn.Category
			category = &c
		}
		rows = append(rows, []interface{}{
			txn.ID,
			txn.StatementID,
			txn.CardID,
			txn.TransactionDate,
			txn.Description,
			txn.Amount,
			txn.Currency,
			category,
			string(txn.Status),
			txn.CreatedAt,
		})
	}

	count, err := r.querier.CopyFrom(ctx,
		pgx.Identifier{"statement_transactions"},
		transactionColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		r.logger.Error("Failed to copy statement transactions",
			"statement_id", txns[0].StatementID.String(),
			"rows", len(txns),
			"error", err,
		)
		return 0, fmt.Errorf("failed to create statement transactions: %w", err)
	}

	return count, nil
}

// GetByID retrieves a statement without its transactions
func (r *StatementRepository) GetByID(ctx context.Context, id uuid.UUID) (*statement.Statement, error) {
	query := `
		SELECT id, card_id, statement_date, format, total_outstanding, closing_balance, file_name, created_at
		FROM statements
		WHERE id = $1
	`

	s, err := scanStatement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statement.ErrStatementNotFound{StatementID: id}
		}
		r.logger.Error("Failed to get statement", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}

	return s, nil
}

// ListByCard returns the card's statements, newest statement date first
func (r *StatementRepository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*statement.Statement, error) {
	query := `
		SELECT id, card_id, statement_date, format, total_outstanding, closing_balance, file_name, created_at
		FROM statements
		WHERE card_id = $1
		ORDER BY statement_date DESC
	`

	rows, err := r.querier.Query(ctx, query, cardID)
	if err != nil {
		r.logger.Error("Failed to list statements", "card_id", cardID.String(), "error", err)
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	statements := make([]*statement.Statement, 0)
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			r.logger.Error("Failed to scan statement", "error", err)
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		statements = append(statements, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statements", "error", err)
		return nil, fmt.Errorf("error iterating over statements: %w", err)
	}

	return statements, nil
}

// ListTransactions returns a statement's transactions, newest first
func (r *StatementRepository) ListTransactions(ctx context.Context, statementID uuid.UUID) ([]*statement.Transaction, error) {
	query := `
		SELECT id, statement_id, card_id, transaction_date, description, amount, currency, COALESCE(category, ''), status, created_at
		FROM statement_transactions
		WHERE statement_id = $1
		ORDER BY transaction_date DESC, created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, statementID)
	if err != nil {
		r.logger.Error("Failed to list statement transactions", "statement_id", statementID.String(), "error", err)
		return nil, fmt.Errorf("failed to list statement transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*statement.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan statement transaction", "error", err)
			return nil, fmt.Errorf("failed to scan statement transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statement transactions", "error", err)
		return nil, fmt.Errorf("error iterating over statement transactions: %w", err)
	}

	return txns, nil
}

func (r *StatementRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*statement.Transaction, error) {
	query := `
		SELECT id, statement_id, card_id, transaction_date, description, amount, currency, COALESCE(category, ''), status, created_at
		FROM statement_transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, statement.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get statement transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get statement transaction: %w", err)
	}

	return txn, nil
}

// UpdateCategoryByDescription sets the category on every transaction with the given
// description across all cards owned by userID
func (r *StatementRepository) UpdateCategoryByDescription(ctx context.Context, userID uuid.UUID, description string, category statement.Category) (int64, error) {
	query := `
		UPDATE statement_transactions AS t
		SET category = $1
		FROM cards AS c
		WHERE t.card_id = c.id AND c.user_id = $2 AND t.description = $3
	`

	result, err := r.querier.Exec(ctx, query, string(category), userID, description)
	if err != nil {
		r.logger.Error("Failed to update transaction category",
			"user_id", userID.String(),
			"category", string(category),
			"error", err,
		)
		return 0, fmt.Errorf("failed to update transaction category: %w", err)
	}

	return result.RowsAffected(), nil
}

func scanStatement(row pgx.Row) (*statement.Statement, error) {
	var s statement.Statement
	var format string
	err := row.Scan(
		&s.ID,
		&s.CardID,
		&s.StatementDate,
		&format,
		&s.TotalOutstanding,
		&s.ClosingBalance,
		&s.FileName,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Format = statement.FormatID(format)
	return &s, nil
}

func scanTransaction(row pgx.Row) (*statement.Transaction, error) {
	var txn statement.Transaction
	var status string
	err := row.Scan(
		&txn.ID,
		&txn.StatementID,
		&txn.CardID,
		&txn.TransactionDate,
		&txn.Description,
		&txn.Amount,
		&txn.Currency,
		&txn.Category,
		&status,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	txn.Status = statement.TransactionStatus(status)
	return &txn, nil
}
