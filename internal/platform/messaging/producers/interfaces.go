package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher writes JSON encoded events keyed for partition affinity.
// StatementUploadProducer keys upload events by card id.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// DeadLetterPublisher parks raw messages the processor gave up on
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error
	Close() error
}

// KafkaWriter is the part of *kafka.Writer the producers depend on
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
