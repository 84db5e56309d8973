package components

import (
	"log/slog"

	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/domain/card"
	"github.com/card-statement-ledger/internal/domain/outbox"
	"github.com/card-statement-ledger/internal/domain/statement"
	"github.com/card-statement-ledger/internal/domain/upload"
	"github.com/card-statement-ledger/internal/ingestion"
	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/card-statement-ledger/internal/statement_processor/service"
)

// Dependencies groups the stores and collaborators the processing service is built from
type Dependencies struct {
	TxRunner      ingestion.TxRunner
	CardRepo      card.Repository
	StatementRepo statement.Repository
	OutboxRepo    outbox.Repository
	UploadRepo    upload.Repository
	Reader        service.StatementReader
	Locker        ingestion.KeyLocker
	Metrics       *metrics.Metrics
}

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(deps Dependencies, logger *slog.Logger, cfg *config.Config) service.ProcessingService {
	validator := NewUploadValidator(deps.UploadRepo, cfg.Extraction.MaxDocumentBytes, logger)
	cardAuthorizer := NewCardAuthorizer(deps.CardRepo, logger)
	tracker := NewUploadTracker(deps.UploadRepo, logger)
	outboxManager := NewOutboxManager(deps.OutboxRepo, logger)
	coordinator := ingestion.NewCoordinator(deps.TxRunner, deps.StatementRepo, deps.Locker, outboxManager, logger.With("component", "ingestion"))

	baseService := service.NewProcessingService(
		validator,
		cardAuthorizer,
		deps.Reader,
		coordinator,
		tracker,
		deps.Metrics,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
