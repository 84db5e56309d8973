package producers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// ErrDLQDisabled is returned by a nil DLQProducer
var ErrDLQDisabled = errors.New("DLQ producer not initialized")

// DLQProducer parks upload messages the processor cannot decode
type DLQProducer struct {
	logger      *slog.Logger
	writer      KafkaWriter
	dlqTopic    string
	sourceTopic string
}

// NewDLQProducer returns a nil producer when no DLQ topic is configured
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic is not configured. DLQProducer will not be initialized.")
		return nil, nil
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dlq producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, TopicSpec{
		Name:              cfg.DLQTopic,
		Partitions:        cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
		MaxMessageBytes:   cfg.ProducerBatchBytes,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists for dlq producer: %w", cfg.DLQTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.DLQTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchBytes:   cfg.ProducerBatchBytes,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLQProducer{
		logger:      logger,
		writer:      writer,
		dlqTopic:    cfg.DLQTopic,
		sourceTopic: cfg.UploadTopic,
	}, nil
}

// deadLetter is the DLQ envelope. The original value is kept byte for byte (base64 in JSON).
type deadLetter struct {
	OriginalKey    string    `json:"original_key"`
	OriginalValue  []byte    `json:"original_value"`
	OriginalBytes  int       `json:"original_bytes"`
	OriginalSHA256 string    `json:"original_sha256"`
	SourceTopic    string    `json:"source_topic,omitempty"`
	UploadID       string    `json:"upload_id,omitempty"`
	Reason         string    `json:"dlq_reason"`
	FailedAt       time.Time `json:"failed_at"`
}

// PublishToDLQ parks an unprocessable upload message on the DLQ topic
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return ErrDLQDisabled
	}

	digest := sha256.Sum256(originalMessageValue)
	letter := deadLetter{
		OriginalKey:    key,
		OriginalValue:  originalMessageValue,
		OriginalBytes:  len(originalMessageValue),
		OriginalSHA256: hex.EncodeToString(digest[:]),
		SourceTopic:    p.sourceTopic,
		UploadID:       peekUploadID(originalMessageValue),
		Reason:         reason,
		FailedAt:       time.Now().UTC(),
	}

	value, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message value for dlq producer: %w", err)
	}

	headers := []kafka.Header{
		{Key: "dlq-reason", Value: []byte(reason)},
		{Key: "dlq-source-topic", Value: []byte(p.sourceTopic)},
	}
	if letter.UploadID != "" {
		headers = append(headers, kafka.Header{Key: "upload-id", Value: []byte(letter.UploadID)})
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message to DLQ",
			"topic", p.dlqTopic,
			"key", key,
			"upload_id", letter.UploadID,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to DLQ %s: %w", p.dlqTopic, err)
	}

	p.logger.Warn("Upload message moved to DLQ",
		"topic", p.dlqTopic,
		"key", key,
		"upload_id", letter.UploadID,
		"reason", reason,
		"bytes", letter.OriginalBytes,
	)
	return nil
}

// peekUploadID returns the upload id of a partially valid upload message, or ""
func peekUploadID(value []byte) string {
	var probe struct {
		UploadID string `json:"upload_id"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return ""
	}
	return probe.UploadID
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	p.logger.Info("Closing DLQ Kafka message producer", "topic", p.dlqTopic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq kafka writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}
