package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/card-statement-ledger/internal/api_gateway"
	"github.com/card-statement-ledger/internal/api_gateway/service"
	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/data/mongo"
	"github.com/card-statement-ledger/internal/data/postgres"
	"github.com/card-statement-ledger/internal/document"
	"github.com/card-statement-ledger/internal/extraction"
	"github.com/card-statement-ledger/internal/logger"
	"github.com/card-statement-ledger/internal/platform/messaging/producers"
	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/card-statement-ledger/internal/platform/persistence"
)

func main() {
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	if err := run(log, cfg); err != nil {
		log.Error("API gateway stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("API gateway shutdown completed")
}

// closer releases one resource during shutdown
type closer struct {
	name  string
	close func(ctx context.Context) error
}

func run(log *slog.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].close(shutdownCtx); err != nil {
				log.Error("Failed to close "+closers[i].name, "error", err)
			}
		}
	}()

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	closers = append(closers, closer{"PostgreSQL", func(context.Context) error { postgresDB.Close(); return nil }})

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	closers = append(closers, closer{"MongoDB", mongoDB.Close})
	if err := mongoDB.EnsureIndexes(ctx, mongo.UploadCollectionName, mongo.UploadIndexes()...); err != nil {
		return err
	}

	uploadProducer, err := producers.NewStatementUploadProducer(ctx, log, &cfg.Kafka)
	if err != nil {
		return fmt.Errorf("failed to initialize upload producer: %w", err)
	}
	closers = append(closers, closer{"upload producer", func(context.Context) error { return uploadProducer.Close() }})

	// Preview reads documents in-process with the same extractor as the processor
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
	uploadRepo := mongo.NewUploadRepository(log, mongoDB.Database())

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Statements:   service.NewStatementService(log, cardRepo, statementRepo, reader),
		Uploads:      service.NewUploadService(log, cardRepo, uploadRepo, uploadProducer),
		Transactions: service.NewTransactionService(log, cardRepo, statementRepo),
	}, metrics.New())
	// Registered last so requests stop before the stores they use are closed
	closers = append(closers, closer{"HTTP server", server.Stop})

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		return nil
	case err := <-serverErr:
		return err
	}
}
