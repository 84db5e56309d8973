package upload

import (
	"context"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository manages upload history persistence with pagination support
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByUploadID(ctx context.Context, uploadID uuid.UUID) (*Record, error)
	GetByCardID(ctx context.Context, cardID uuid.UUID, limit, offset int) ([]*Record, error)
	CountByCardID(ctx context.Context, cardID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, uploadID uuid.UUID, status shared.UploadStatus, reason string) error

	// Save writes the processing outcome fields of an existing record
	Save(ctx context.Context, record *Record) error
}

// ErrRecordNotFound indicates missing upload record
type ErrRecordNotFound struct {
	UploadID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "upload record not found: " + e.UploadID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	// A zero target UploadID matches any ErrRecordNotFound
	if t.UploadID == uuid.Nil {
		return true
	}
	return e.UploadID == t.UploadID
}

// ErrDuplicateRecord indicates upload id uniqueness violation
type ErrDuplicateRecord struct {
	UploadID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate upload record: " + e.UploadID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.UploadID == uuid.Nil {
		return true
	}
	return e.UploadID == t.UploadID
}
