package middleware

import (
	"time"

	"github.com/card-statement-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request count and latency per matched route
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
