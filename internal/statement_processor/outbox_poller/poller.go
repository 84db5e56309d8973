package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/domain/outbox"
	"github.com/card-statement-ledger/internal/domain/shared"
)

// Poller relays statement outcomes recorded in the outbox to the upload history.
// A message that keeps failing is parked as FAILED_TO_PUBLISH after maxRetryAttempts.
type Poller struct {
	outboxRepo       outbox.Repository
	uploadPublisher  UploadPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	retention        time.Duration
	lastPurge        time.Time
	now              func() time.Time
}

const purgeInterval = time.Hour

type batchResult struct {
	published int
	failed    int
	parked    int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	uploadPublisher UploadPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		uploadPublisher:  uploadPublisher,
		logger:           logger.With("component", "outbox_poller"),
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retention:        cfg.Retention,
		now:              time.Now,
	}
}

// Start drains one batch right away, then one per tick until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"retention", p.retention.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := p.processPendingMessages(ctx); err != nil {
			p.logger.Error("Failed to process outbox batch", "error", err)
		}
		p.purgeProcessed(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) (batchResult, error) {
	var result batchResult

	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return result, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return result, nil
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}

		logger := p.messageLogger(msg)
		if err := p.uploadPublisher.PublishUpload(ctx, msg); err != nil {
			logger.Error("Failed to publish outbox message to upload history", "attempts", msg.Attempts, "error", err)
			result.failed++
			if p.recordFailure(ctx, logger, msg) {
				result.parked++
			}
			continue
		}
		result.published++
	}

	p.logger.Info("Processed outbox batch",
		"fetched", len(messages),
		"published", result.published,
		"failed", result.failed,
		"parked", result.parked,
	)
	return result, nil
}

// recordFailure bumps the attempt counter and reports whether the message was parked
func (p *Poller) recordFailure(ctx context.Context, logger *slog.Logger, msg *outbox.Message) bool {
	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment outbox attempts", "error", err)
		return false
	}
	if msg.Attempts+1 < p.maxRetryAttempts {
		return false
	}

	logger.Warn("Outbox message exhausted retries", "attempts", msg.Attempts+1)
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to mark outbox message as failed to publish", "error", err)
		return false
	}
	return true
}

// purgeProcessed drops PROCESSED rows past retention, at most once per purgeInterval
func (p *Poller) purgeProcessed(ctx context.Context) {
	if p.retention <= 0 {
		return
	}
	now := p.now()
	if !p.lastPurge.IsZero() && now.Sub(p.lastPurge) < purgeInterval {
		return
	}
	p.lastPurge = now

	purged, err := p.outboxRepo.PurgeProcessed(ctx, now.Add(-p.retention))
	if err != nil {
		p.logger.Error("Failed to purge processed outbox messages", "error", err)
		return
	}
	if purged > 0 {
		p.logger.Info("Purged processed outbox messages", "count", purged)
	}
}

func (p *Poller) messageLogger(msg *outbox.Message) *slog.Logger {
	logger := p.logger.With("outbox_id", msg.ID, "upload_id", msg.UploadID.String())
	var envelope struct {
		CorrelationID string `json:"correlation_id"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err == nil && envelope.CorrelationID != "" {
		logger = logger.With("correlation_id", envelope.CorrelationID)
	}
	return logger
}
