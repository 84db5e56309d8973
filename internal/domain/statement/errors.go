package statement

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported statement format")
	ErrAmbiguousFormat      = errors.New("document matches more than one statement format")
	ErrDocumentUnreadable   = errors.New("statement document is unreadable")
	ErrMissingStatementDate = errors.New("statement date not found in document")
	ErrInvalidCategory      = errors.New("invalid transaction category")
)

// ErrDuplicateStatement indicates a statement for the same card and date already exists
type ErrDuplicateStatement struct {
	CardID        uuid.UUID
	StatementDate time.Time
}

func (e ErrDuplicateStatement) Error() string {
	return "statement already exists for card " + e.CardID.String() + " on " + e.StatementDate.Format(time.DateOnly)
}

// Is implements the errors.Is interface for ErrDuplicateStatement
func (e ErrDuplicateStatement) Is(target error) bool {
	t, ok := target.(ErrDuplicateStatement)
	if !ok {
		return false
	}
	if t.CardID == uuid.Nil {
		return true
	}
	return e.CardID == t.CardID && (t.StatementDate.IsZero() || e.StatementDate.Equal(t.StatementDate))
}

// ErrStatementNotFound indicates missing statement
type ErrStatementNotFound struct {
	StatementID uuid.UUID
}

func (e ErrStatementNotFound) Error() string {
	return "statement not found: " + e.StatementID.String()
}

// Is implements the errors.Is interface for ErrStatementNotFound
func (e ErrStatementNotFound) Is(target error) bool {
	t, ok := target.(ErrStatementNotFound)
	if !ok {
		return false
	}
	if t.StatementID == uuid.Nil {
		return true
	}
	return e.StatementID == t.StatementID
}

// ErrTransactionNotFound indicates missing statement transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
