package outbox

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/google/uuid"
)

var ErrMissingStatementID = errors.New("upload record has no statement id")

// Message stores an ingestion outcome for reliable publishing to the upload history
type Message struct {
	ID            int64               `json:"id"`
	StatementID   uuid.UUID           `json:"statement_id"`
	UploadID      uuid.UUID           `json:"upload_id"`
	CardID        uuid.UUID           `json:"card_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(record *upload.Record) (*Message, error) {
	if record.StatementID == nil {
		return nil, ErrMissingStatementID
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		StatementID: *record.StatementID,
		UploadID:    record.UploadID,
		CardID:      record.CardID,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		Attempts:    0,
		CreatedAt:   time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetUploadRecord extracts the completed upload record from the payload
func (m *Message) GetUploadRecord() (*upload.Record, error) {
	var record upload.Record
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
