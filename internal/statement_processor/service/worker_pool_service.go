package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/card-statement-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolProcessingService bounds the number of documents processed concurrently.
// A redelivered upload that is still being processed is skipped.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
	mu          sync.Mutex
	inFlight    map[string]struct{}
}

type WorkerPoolConfig struct {
	Size int
}

// antsLogger routes the pool's own diagnostics into slog
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	logger = logger.With("component", "worker_pool")
	pool, err := ants.NewPool(config.Size, ants.WithLogger(antsLogger{logger: logger}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool of size %d: %w", config.Size, err)
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		inFlight:    make(map[string]struct{}),
	}, nil
}

// ProcessUpload runs the upload on a pooled worker and waits for its result or ctx
func (s *WorkerPoolProcessingService) ProcessUpload(ctx context.Context, request *shared.StatementUploadRequest) error {
	uploadID := request.UploadID.String()
	logger := s.logger.With("upload_id", uploadID)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	if !s.claim(uploadID) {
		logger.Info("Upload already in flight, skipping redelivery")
		return nil
	}

	requestCopy := *request
	result := make(chan error, 1)
	err := s.pool.Submit(func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Worker panicked while processing upload", "panic", r, "stack", string(debug.Stack()))
				err = fmt.Errorf("panic while processing upload %s: %v", uploadID, r)
			}
			s.unclaim(uploadID)
			result <- err
		}()
		err = s.baseService.ProcessUpload(ctx, &requestCopy)
	})
	if err != nil {
		s.unclaim(uploadID)
		logger.Error("Failed to submit upload to worker pool", "error", err)
		return fmt.Errorf("failed to submit upload %s to worker pool: %w", uploadID, err)
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WorkerPoolProcessingService) claim(uploadID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[uploadID]; busy {
		return false
	}
	s.inFlight[uploadID] = struct{}{}
	return true
}

func (s *WorkerPoolProcessingService) unclaim(uploadID string) {
	s.mu.Lock()
	delete(s.inFlight, uploadID)
	s.mu.Unlock()
}

// InFlight returns the number of uploads currently being processed
func (s *WorkerPoolProcessingService) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Shutdown stops accepting uploads and waits up to timeout for running ones
func (s *WorkerPoolProcessingService) Shutdown(timeout time.Duration) error {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running(), "in_flight", s.InFlight())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("failed to drain worker pool: %w", err)
	}
	return nil
}

func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
