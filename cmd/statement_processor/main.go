package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/data/mongo"
	"github.com/card-statement-ledger/internal/data/postgres"
	"github.com/card-statement-ledger/internal/document"
	"github.com/card-statement-ledger/internal/extraction"
	"github.com/card-statement-ledger/internal/ingestion"
	"github.com/card-statement-ledger/internal/logger"
	"github.com/card-statement-ledger/internal/platform/lock"
	"github.com/card-statement-ledger/internal/platform/messaging/consumers"
	"github.com/card-statement-ledger/internal/platform/messaging/producers"
	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/card-statement-ledger/internal/platform/persistence"
	"github.com/card-statement-ledger/internal/statement_processor/components"
	"github.com/card-statement-ledger/internal/statement_processor/consumer"
	"github.com/card-statement-ledger/internal/statement_processor/outbox_poller"
	"github.com/card-statement-ledger/internal/statement_processor/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig("statement_processor")
	if err != nil {
		// logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting statement processor", "app_name", cfg.Application.Name, "env", cfg.Application.Env)

	if err := run(log, cfg); err != nil {
		log.Error("Statement processor stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("Statement processor shutdown completed")
}

// cleanup is a stack of shutdown steps run in reverse registration order
type cleanup []func(ctx context.Context)

func (c *cleanup) add(name string, log *slog.Logger, fn func(ctx context.Context) error) {
	*c = append(*c, func(ctx context.Context) {
		if err := fn(ctx); err != nil {
			log.Error("Failed to close "+name, "error", err)
		}
	})
}

func (c cleanup) run(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(c) - 1; i >= 0; i-- {
		c[i](ctx)
	}
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var closers cleanup
	defer func() { closers.run(cfg.Server.ShutdownTimeout) }()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	closers.add("PostgreSQL", log, func(context.Context) error { postgresDB.Close(); return nil })

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	closers.add("MongoDB", log, mongoDB.Close)
	if err := mongoDB.EnsureIndexes(ctx, mongo.UploadCollectionName, mongo.UploadIndexes()...); err != nil {
		return err
	}

	locker, err := newLocker(ctx, log, cfg, &closers)
	if err != nil {
		return err
	}

	policy, err := extraction.ParseAmbiguityPolicy(cfg.Extraction.AmbiguityPolicy)
	if err != nil {
		return err
	}
	registry, err := extraction.DefaultRegistry(policy)
	if err != nil {
		return fmt.Errorf("failed to build format registry: %w", err)
	}
	log.Info("Statement formats registered", "formats", registry.Formats(), "ambiguity_policy", registry.Policy())
	reader := document.NewStatementReader(
		document.NewPDFTextExtractor(log),
		extraction.NewExtractor(registry, log),
		log,
	)

	cardRepo := postgres.NewCardRepository(log, postgresDB)
	statementRepo := postgres.NewStatementRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	uploadRepo := mongo.NewUploadRepository(log, mongoDB.Database())

	// nil when no DLQ topic is configured
	dlqProducer, err := producers.NewDLQProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize DLQ producer: %w", err)
	}
	if dlqProducer != nil {
		closers.add("DLQ producer", log, func(context.Context) error { return dlqProducer.Close() })
	}

	kafkaConsumer := consumers.NewKafkaConsumer(ctx, log, &cfg.Kafka)
	closers.add("Kafka consumer", log, func(context.Context) error { return kafkaConsumer.Close() })

	m := metrics.New()
	processingService := components.CreateProcessingService(components.Dependencies{
		TxRunner:      postgresDB,
		CardRepo:      cardRepo,
		StatementRepo: statementRepo,
		OutboxRepo:    outboxRepo,
		UploadRepo:    uploadRepo,
		Reader:        reader,
		Locker:        locker,
		Metrics:       m,
	}, log, cfg)
	// Runs after the consumer loop has stopped submitting
	if pool, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		closers.add("worker pool", log, func(context.Context) error { return pool.Shutdown(cfg.Server.ShutdownTimeout) })
	}

	uploadEventHandler := consumer.NewUploadEventHandler(log, processingService, dlqProducer)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, outbox_poller.NewUploadPublisher(outboxRepo, uploadRepo, log), log)
	opsServer := newOpsServer(cfg, m)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := kafkaConsumer.Subscribe(gctx, cfg.Kafka.UploadTopic, cfg.Kafka.ConsumerGroup, uploadEventHandler.HandleMessage); err != nil {
			return fmt.Errorf("kafka consumer error: %w", err)
		}
		<-kafkaConsumer.Done()
		return nil
	})
	g.Go(func() error {
		poller.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("Starting ops HTTP server", "port", cfg.Server.Port)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ops HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Stopping statement processor")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return opsServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newLocker picks the Redis dedup lock when enabled and an in-process one otherwise
func newLocker(ctx context.Context, log *slog.Logger, cfg *config.Config, closers *cleanup) (ingestion.KeyLocker, error) {
	if !cfg.Redis.LockEnabled {
		log.Warn("Redis lock disabled, using in-process statement lock")
		return lock.NewLocalLocker(), nil
	}

	redisClient, err := persistence.NewRedisClient(ctx, log, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	closers.add("Redis client", log, func(context.Context) error { return redisClient.Close() })
	return lock.NewRedisLocker(redisClient, cfg.Redis.LockTTL, cfg.Redis.LockWait, cfg.Redis.LockRetryInterval, log), nil
}

// newOpsServer serves /health and /metrics for the processor
func newOpsServer(cfg *config.Config, m *metrics.Metrics) *http.Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
