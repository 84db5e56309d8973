package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/card-statement-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// StatementUploadProducer publishes accepted statement uploads for asynchronous processing
type StatementUploadProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewStatementUploadProducer ensures the upload topic exists and returns a synchronous
// producer. Writes are acknowledged by all replicas before the upload is reported accepted.
func NewStatementUploadProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*StatementUploadProducer, error) {
	if cfg.UploadTopic == "" {
		return nil, fmt.Errorf("kafka upload topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for upload producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, TopicSpec{
		Name:              cfg.UploadTopic,
		Partitions:        cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		MaxMessageBytes:   cfg.ProducerBatchBytes,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure upload topic %s exists: %w", cfg.UploadTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.UploadTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchBytes:   cfg.ProducerBatchBytes,
		WriteTimeout: cfg.MaxWait,
		Compression:  kafka.Snappy,
	}

	return &StatementUploadProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.UploadTopic,
	}, nil
}

// Publish marshals value to JSON and writes it under key. Uploads keyed by card land
// on the same partition and are processed in order.
func (p *StatementUploadProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal upload message: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish upload message",
			"topic", p.topic,
			"key", key,
			"bytes", len(jsonValue),
			"error", err,
		)
		return fmt.Errorf("failed to publish upload message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published upload message",
		"topic", p.topic,
		"key", key,
		"bytes", len(jsonValue),
	)
	return nil
}

func (p *StatementUploadProducer) Close() error {
	p.logger.Info("Closing upload Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close upload kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
