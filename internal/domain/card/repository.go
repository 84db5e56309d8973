package card

import (
	"context"

	"github.com/google/uuid"
)

// Repository provides read access to cards and their ownership
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Card, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Card, error)
}

// ErrCardNotFound indicates missing card
type ErrCardNotFound struct {
	CardID uuid.UUID
}

func (e ErrCardNotFound) Error() string {
	return "card not found: " + e.CardID.String()
}

// Is implements the errors.Is interface for ErrCardNotFound
func (e ErrCardNotFound) Is(target error) bool {
	t, ok := target.(ErrCardNotFound)
	if !ok {
		return false
	}
	if t.CardID == uuid.Nil {
		return true
	}
	return e.CardID == t.CardID
}

// ErrCardAccessDenied indicates the caller does not own the card
type ErrCardAccessDenied struct {
	CardID uuid.UUID
	UserID uuid.UUID
}

func (e ErrCardAccessDenied) Error() string {
	return "card " + e.CardID.String() + " does not belong to user " + e.UserID.String()
}

// Is implements the errors.Is interface for ErrCardAccessDenied
func (e ErrCardAccessDenied) Is(target error) bool {
	t, ok := target.(ErrCardAccessDenied)
	if !ok {
		return false
	}
	if t.CardID == uuid.Nil {
		return true
	}
	return e.CardID == t.CardID
}
