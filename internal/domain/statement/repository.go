package statement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines statement and transaction persistence operations
type Repository interface {
	// FindByCardAndDate returns nil, nil when no statement exists for the pair
	FindByCardAndDate(ctx context.Context, cardID uuid.UUID, statementDate time.Time) (*Statement, error)
	Create(ctx context.Context, s *Statement) error
	CreateTransactions(ctx context.Context, txns []*Transaction) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Statement, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*Statement, error)
	ListTransactions(ctx context.Context, statementID uuid.UUID) ([]*Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// UpdateCategoryByDescription applies the category to every transaction with the
	// same description on cards owned by userID
	UpdateCategoryByDescription(ctx context.Context, userID uuid.UUID, description string, category Category) (int64, error)
	WithTx(tx pgx.Tx) Repository
}
