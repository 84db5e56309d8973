package card

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyLastFour = errors.New("card last four digits are required")

// Card is a payment card owned by a user. Ownership is managed outside this service.
type Card struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	BankName  string    `json:"bank_name"`
	LastFour  string    `json:"last_four"`
	CreatedAt time.Time `json:"created_at"`
}

// OwnedBy reports whether the card belongs to the given user
func (c *Card) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && c.UserID == userID
}

// Authorize returns ErrCardAccessDenied when the caller does not own the card
func (c *Card) Authorize(userID uuid.UUID) error {
	if !c.OwnedBy(userID) {
		return ErrCardAccessDenied{CardID: c.ID, UserID: userID}
	}
	return nil
}

// DocumentPassword returns the password protecting statements issued for this card.
// Banks lock the PDF with the last four digits of the card number.
func (c *Card) DocumentPassword() (string, error) {
	if c.LastFour == "" {
		return "", ErrEmptyLastFour
	}
	return c.LastFour, nil
}
