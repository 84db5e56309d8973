package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeReader serves queued messages and then blocks until ctx is done
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		r.committed = append(r.committed, msg.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		UploadTopic:   "statement_uploads",
		ConsumerGroup: "statement-processor-group",
		MinBytes:      1,
		MaxBytes:      20971520,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(context.Background(), newTestLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Subscribe(t *testing.T) {
	tests := []struct {
		name          string
		failures      map[string]int
		wantHandled   int
		wantCommitted []int64
	}{
		{
			name:          "all succeed",
			wantHandled:   3,
			wantCommitted: []int64{1, 2, 3},
		},
		{
			name:          "transient failure retried in place",
			failures:      map[string]int{"second": 2},
			wantHandled:   5,
			wantCommitted: []int64{1, 2, 3},
		},
		{
			name:          "persistent failure is not committed",
			failures:      map[string]int{"second": 10},
			wantHandled:   5,
			wantCommitted: []int64{1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{messages: []kafka.Message{
				{Topic: "statement_uploads", Offset: 1, Key: []byte("first"), Value: []byte("{}")},
				{Topic: "statement_uploads", Offset: 2, Key: []byte("second"), Value: []byte("{}")},
				{Topic: "statement_uploads", Offset: 3, Key: []byte("third"), Value: []byte("{}")},
			}}
			consumer := newKafkaConsumer(newTestLogger(), reader)
			consumer.handlerBackoff = time.Millisecond

			var mu sync.Mutex
			handled := 0
			remaining := make(map[string]int, len(tt.failures))
			for k, v := range tt.failures {
				remaining[k] = v
			}
			handler := func(ctx context.Context, key []byte, value []byte) error {
				mu.Lock()
				defer mu.Unlock()
				handled++
				if remaining[string(key)] > 0 {
					remaining[string(key)]--
					return errors.New("database unavailable")
				}
				return nil
			}

			ctx, cancel := context.WithCancel(context.Background())
			require.NoError(t, consumer.Subscribe(ctx, "statement_uploads", "group", handler))

			assert.Eventually(t, func() bool {
				return len(reader.committedOffsets()) == len(tt.wantCommitted)
			}, time.Second, 5*time.Millisecond)
			assert.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return handled == tt.wantHandled
			}, time.Second, 5*time.Millisecond)

			cancel()
			select {
			case <-consumer.Done():
			case <-time.After(time.Second):
				t.Fatal("consumer did not stop after cancel")
			}

			assert.Equal(t, tt.wantCommitted, reader.committedOffsets())
			require.NoError(t, consumer.Close())
			assert.True(t, reader.closed)
		})
	}
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{
			reader: nil,
			logger: newTestLogger(),
		}
		require.NoError(t, consumer.Close())
	})
}
