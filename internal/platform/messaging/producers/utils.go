package producers

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicAdmin is the subset of *kafka.Conn used to inspect and create topics
type TopicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

const partitionReadAttempts = 5

var partitionReadRetryDelay = 2 * time.Second

// TopicSpec describes a topic to create when the broker does not have it yet
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	// MaxMessageBytes raises max.message.bytes so whole statement documents fit
	MaxMessageBytes int64
}

func (s TopicSpec) config() kafka.TopicConfig {
	cfg := kafka.TopicConfig{
		Topic:             s.Name,
		NumPartitions:     max(s.Partitions, 1),
		ReplicationFactor: max(s.ReplicationFactor, 1),
	}
	if s.MaxMessageBytes > 0 {
		cfg.ConfigEntries = []kafka.ConfigEntry{{
			ConfigName:  "max.message.bytes",
			ConfigValue: strconv.FormatInt(s.MaxMessageBytes, 10),
		}}
	}
	return cfg
}

// ensureTopic creates the topic unless a partition read proves it exists
func ensureTopic(conn TopicAdmin, topic TopicSpec, log *slog.Logger) error {
	log = log.With("topic", topic.Name)

	var lastErr error
	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		partitions, err := conn.ReadPartitions(topic.Name)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "partitions", len(partitions))
			return nil
		}
		if err == nil {
			break
		}
		lastErr = err
		log.Warn("Failed to read partitions, retrying", "attempt", attempt, "error", err)
		time.Sleep(partitionReadRetryDelay)
	}

	log.Info("Creating Kafka topic", "last_read_error", lastErr)
	if err := conn.CreateTopics(topic.config()); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic.Name, err)
	}
	log.Info("Created Kafka topic")
	return nil
}
