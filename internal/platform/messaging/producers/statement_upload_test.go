package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestNewStatementUploadProducer_MissingTopic(t *testing.T) {
	producer, err := NewStatementUploadProducer(context.Background(), newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})

	assert.Nil(t, producer)
	assert.EqualError(t, err, "kafka upload topic is not configured")
}

func TestStatementUploadProducer_Publish(t *testing.T) {
	ctx := context.Background()
	topic := "statement_uploads"

	request := &shared.StatementUploadRequest{
		UploadID:      uuid.New(),
		CardID:        uuid.New(),
		UserID:        uuid.New(),
		FileName:      "jan.pdf",
		Document:      []byte("%PDF-1.7 test"),
		CorrelationID: "corr-1",
		Timestamp:     time.Now().UTC(),
	}

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &StatementUploadProducer{logger: newTestLogger(), writer: mockWriter, topic: topic}
		key := request.CardID.String()

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != key {
				return false
			}
			var decoded shared.StatementUploadRequest
			if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
				return false
			}
			return decoded.UploadID == request.UploadID &&
				string(decoded.Document) == string(request.Document) &&
				len(msgs[0].Headers) == 1
		})).Return(nil).Once()

		require.NoError(t, producer.Publish(ctx, key, request))
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &StatementUploadProducer{logger: newTestLogger(), writer: mockWriter, topic: topic}
		writerErr := errors.New("message too large")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.Publish(ctx, "key", request)
		assert.ErrorIs(t, err, writerErr)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnMarshalFailure", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &StatementUploadProducer{logger: newTestLogger(), writer: mockWriter, topic: topic}

		err := producer.Publish(ctx, "key", make(chan int))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal upload message")
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})
}

func TestStatementUploadProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &StatementUploadProducer{logger: newTestLogger(), writer: mockWriter, topic: "statement_uploads"}
	mockWriter.On("Close").Return(errors.New("already closed")).Once()

	err := producer.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statement_uploads")
	mockWriter.AssertExpectations(t)
}
