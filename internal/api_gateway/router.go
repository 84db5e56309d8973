package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/card-statement-ledger/internal/api_gateway/handler"
	"github.com/card-statement-ledger/internal/api_gateway/middleware"
	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// handlers groups the HTTP handlers mounted by setupRouter
type handlers struct {
	statement   *handler.StatementHandler
	upload      *handler.UploadHandler
	transaction *handler.TransactionHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, m *metrics.Metrics, h handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))

	// API v1 endpoints, all scoped to the calling user
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Caller())
	{
		cards := v1.Group("/cards/:id")
		{
			cards.POST("/statements/preview", h.statement.Preview)
			cards.POST("/statements", h.upload.Submit)
			cards.GET("/statements", h.statement.ListByCard)
			cards.GET("/uploads", h.upload.ListByCard)
		}

		v1.GET("/statements/:id", h.statement.GetByID)
		v1.GET("/uploads/:id", h.upload.GetByID)

		transactions := v1.Group("/transactions")
		{
			transactions.GET("/categories", h.transaction.Categories)
			transactions.PATCH("/:id/category", h.transaction.UpdateCategory)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
}
