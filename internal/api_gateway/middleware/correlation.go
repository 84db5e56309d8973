package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is the HTTP header for correlation ID
	CorrelationIDHeader = "X-Correlation-ID"

	// RequestIDHeader is accepted when no correlation id is sent
	RequestIDHeader = "X-Request-ID"

	// CorrelationIDKey is the key used to store correlation ID in the context
	CorrelationIDKey = "correlation_id"
)

// Correlation ids travel into logs, Kafka messages and upload records
var validCorrelationID = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// CorrelationID reuses a well-formed caller supplied id or mints a new UUID,
// then echoes it on the response
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := incomingCorrelationID(c)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)

		c.Next()
	}
}

func incomingCorrelationID(c *gin.Context) string {
	for _, header := range []string{CorrelationIDHeader, RequestIDHeader} {
		if id := c.GetHeader(header); validCorrelationID.MatchString(id) {
			return id
		}
	}
	return ""
}

// GetCorrelationID returns the request's correlation id or ""
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}
