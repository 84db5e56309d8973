// Package config loads and validates the settings shared by the api_gateway
// and statement_processor binaries.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is the full settings tree. Both binaries load the same shape; sections a
// binary does not use still have to validate.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Extraction  ExtractionConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers            string
	UploadTopic        string
	NumPartitions      int // Number of partitions for topics
	ReplicationFactor  int // Replication factor for topics
	ConsumerGroup      string
	MinBytes           int
	MaxBytes           int
	MaxWait            time.Duration
	StartOffset        int64
	DLQTopic           string // Topic for Dead Letter Queue
	ProducerBatchBytes int64  // Upper bound for one produced message, documents travel inline
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains Redis configuration for the statement dedup lock
type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	LockEnabled       bool
	LockTTL           time.Duration // Lock expiry if the holder dies
	LockWait          time.Duration // How long to wait for a held lock
	LockRetryInterval time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int           // Maximum number of retry attempts for outbox messages
	Retention        time.Duration // PROCESSED rows older than this are purged, 0 keeps them
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// ExtractionConfig contains statement extraction settings
type ExtractionConfig struct {
	AmbiguityPolicy  string // first_match or reject
	MaxDocumentBytes int64
}

type number interface {
	~int | ~int32 | ~int64 | ~uint64
}

// problems collects every configuration error so startup reports them at once
type problems []string

func (p *problems) check(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (p *problems) required(key, value string) {
	p.check(value != "", key+" is required")
}

func positive[T number](p *problems, key string, value T) {
	p.check(value > 0, key+" must be greater than 0")
}

func (c ServerConfig) validate(p *problems) {
	positive(p, "SERVER_PORT", c.Port)
	positive(p, "SERVER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	positive(p, "SERVER_READ_TIMEOUT", c.ReadTimeout)
	positive(p, "SERVER_WRITE_TIMEOUT", c.WriteTimeout)
	positive(p, "SERVER_IDLE_TIMEOUT", c.IdleTimeout)
}

// validate checks the Kafka section; documents travel inline, so a produced
// message must hold the largest accepted statement
func (c KafkaConfig) validate(p *problems, maxDocumentBytes int64) {
	p.required("KAFKA_BROKERS", c.Brokers)
	p.required("KAFKA_UPLOAD_TOPIC", c.UploadTopic)
	p.required("KAFKA_CONSUMER_GROUP", c.ConsumerGroup)
	p.required("KAFKA_DLQ_TOPIC", c.DLQTopic)
	positive(p, "KAFKA_CONSUMER_MIN_BYTES", c.MinBytes)
	positive(p, "KAFKA_CONSUMER_MAX_BYTES", c.MaxBytes)
	positive(p, "KAFKA_CONSUMER_MAX_WAIT", c.MaxWait)
	p.check(c.ProducerBatchBytes >= maxDocumentBytes, "KAFKA_PRODUCER_BATCH_BYTES must be at least STATEMENT_MAX_DOCUMENT_BYTES")
}

func (c PostgresConfig) validate(p *problems) {
	p.required("POSTGRES_URL", c.URL)
	positive(p, "POSTGRES_MAX_CONNS", c.MaxConns)
	positive(p, "POSTGRES_MIN_CONNS", c.MinConns)
	positive(p, "POSTGRES_MAX_CONN_LIFETIME", c.ConnMaxLifetime)
	positive(p, "POSTGRES_MAX_CONN_IDLE_TIME", c.ConnMaxIdleTime)
}

func (c MongoDBConfig) validate(p *problems) {
	p.required("MONGO_URI", c.URI)
	p.required("MONGO_DATABASE", c.Database)
	positive(p, "MONGO_TIMEOUT", c.Timeout)
	positive(p, "MONGO_MAX_POOL_SIZE", c.MaxPoolSize)
	positive(p, "MONGO_MIN_POOL_SIZE", c.MinPoolSize)
	positive(p, "MONGO_MAX_CONN_IDLE_TIME", c.MaxConnIdleTime)
}

// validate only checks Redis when the distributed lock is on
func (c RedisConfig) validate(p *problems) {
	if !c.LockEnabled {
		return
	}
	p.check(c.Addr != "", "REDIS_ADDR is required when REDIS_LOCK_ENABLED is true")
	positive(p, "REDIS_LOCK_TTL", c.LockTTL)
	positive(p, "REDIS_LOCK_WAIT", c.LockWait)
	positive(p, "REDIS_LOCK_RETRY_INTERVAL", c.LockRetryInterval)
}

func (c OutboxConfig) validate(p *problems) {
	positive(p, "OUTBOX_POLLING_INTERVAL", c.PollingInterval)
	positive(p, "OUTBOX_BATCH_SIZE", c.BatchSize)
	positive(p, "OUTBOX_MAX_RETRY_ATTEMPTS", c.MaxRetryAttempts)
	p.check(c.Retention >= 0, "OUTBOX_RETENTION must not be negative")
}

func (c ExtractionConfig) validate(p *problems) {
	switch strings.ToLower(c.AmbiguityPolicy) {
	case "first_match", "reject":
	default:
		p.check(false, "EXTRACTION_AMBIGUITY_POLICY must be first_match or reject")
	}
	positive(p, "STATEMENT_MAX_DOCUMENT_BYTES", c.MaxDocumentBytes)
}

// validate runs every section check and joins the problems into one error
func (c *Config) validate() error {
	var p problems

	c.Server.validate(&p)
	c.Kafka.validate(&p, c.Extraction.MaxDocumentBytes)
	c.Postgres.validate(&p)
	c.MongoDB.validate(&p)
	c.Redis.validate(&p)
	c.Outbox.validate(&p)
	positive(&p, "WORKER_POOL_SIZE", c.WorkerPool.Size)
	c.Extraction.validate(&p)

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}
