// Package consumers reads statement upload messages from Kafka.
package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	fetchRetryDelay        = time.Second
	defaultHandlerAttempts = 3
	defaultHandlerBackoff  = 200 * time.Millisecond
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// MessageReader wraps kafka.Reader methods for testing
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka. A message is retried in place
// up to handlerAttempts times and its offset is committed only after success.
type KafkaConsumer struct {
	reader          MessageReader
	logger          *slog.Logger
	done            chan struct{}
	handlerAttempts int
	handlerBackoff  time.Duration
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	startOffset := kafka.FirstOffset
	if cfg.StartOffset == kafka.LastOffset {
		startOffset = kafka.LastOffset
	}

	return newKafkaConsumer(logger, kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.UploadTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	}))
}

func newKafkaConsumer(logger *slog.Logger, reader MessageReader) *KafkaConsumer {
	return &KafkaConsumer{
		logger:          logger,
		reader:          reader,
		done:            make(chan struct{}),
		handlerAttempts: defaultHandlerAttempts,
		handlerBackoff:  defaultHandlerBackoff,
	}
}

// Subscribe starts consuming in the background and returns immediately
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	logger := c.logger.With("topic", topic, "group_id", groupID)
	logger.Info("Subscribed to Kafka topic")

	go func() {
		defer close(c.done)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Info("Context canceled, stopping consumer")
					return
				}
				logger.Error("Failed to fetch message from Kafka", "error", err)
				if !sleepCtx(ctx, fetchRetryDelay) {
					return
				}
				continue
			}
			c.consume(ctx, logger, msg, handler)
		}
	}()

	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, logger *slog.Logger, msg kafka.Message, handler MessageHandler) {
	logger = logger.With(
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
	logger.Debug("Received message from Kafka", "bytes", len(msg.Value))

	var err error
	for attempt := 1; attempt <= c.handlerAttempts; attempt++ {
		if err = handler(ctx, msg.Key, msg.Value); err == nil {
			break
		}
		logger.Warn("Failed to process message", "attempt", attempt, "error", err)
		if attempt < c.handlerAttempts && !sleepCtx(ctx, c.handlerBackoff*time.Duration(attempt)) {
			return
		}
	}
	if err != nil {
		logger.Error("Giving up on message, offset not committed", "attempts", c.handlerAttempts, "error", err)
		return
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		logger.Error("Failed to commit message after successful processing", "error", err)
		return
	}
	logger.Debug("Message committed")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Done is closed once the consume loop has exited
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
