package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyDocument    = errors.New("statement document is empty")
	ErrDocumentTooLarge = errors.New("statement document exceeds the size limit")
	ErrInvalidUpload    = errors.New("statement upload is missing required identifiers")
)

// StatementUploadRequest defines a Kafka message for statement processing
type StatementUploadRequest struct {
	UploadID      uuid.UUID `json:"upload_id"`
	CardID        uuid.UUID `json:"card_id"`
	UserID        uuid.UUID `json:"user_id"`
	FileName      string    `json:"file_name"`
	Document      []byte    `json:"document"` // base64 on the wire
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
