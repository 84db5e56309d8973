package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// UserIDHeader carries the authenticated caller, set by the upstream auth layer
	UserIDHeader = "X-User-ID"

	// UserIDKey is the key used to store the caller id in the context
	UserIDKey = "user_id"
)

// Caller rejects requests without a valid caller id and stores it in the context
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader(UserIDHeader))
		if err != nil || userID == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid "+UserIDHeader+" header")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the caller id stored by Caller
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(UserIDKey); exists {
		if userID, ok := v.(uuid.UUID); ok {
			return userID, true
		}
	}
	return uuid.Nil, false
}
