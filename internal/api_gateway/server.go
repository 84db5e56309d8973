package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/card-statement-ledger/internal/api_gateway/handler"
	"github.com/card-statement-ledger/internal/api_gateway/service"
	"github.com/card-statement-ledger/internal/config"
	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// Services bundles the application services exposed over HTTP
type Services struct {
	Statements   service.StatementService
	Uploads      service.UploadService
	Transactions service.TransactionService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services, m *metrics.Metrics) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()
	httpRouter.MaxMultipartMemory = cfg.Extraction.MaxDocumentBytes

	maxBytes := cfg.Extraction.MaxDocumentBytes
	setupRouter(log, httpRouter, m, handlers{
		statement:   handler.NewStatementHandler(log, services.Statements, maxBytes),
		upload:      handler.NewUploadHandler(log, services.Uploads, maxBytes),
		transaction: handler.NewTransactionHandler(log, services.Transactions),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	// Use server's write timeout for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
