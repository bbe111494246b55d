package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the correlation ID in both directions.
	HeaderRequestID = "X-Request-ID"

	contextKeyRequestID = "request_id"
	maxRequestIDLen     = 64
)

// RequestIDMiddleware tags every request with a correlation ID. A well-formed
// X-Request-ID from the caller (the portal client sends one per replication)
// is reused; anything else is replaced with a fresh UUID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if !acceptableRequestID(reqID) {
			reqID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, reqID)
		c.Header(HeaderRequestID, reqID)
		c.Next()
	}
}

// RequestID returns the correlation ID set by RequestIDMiddleware, or "" when
// the middleware did not run.
func RequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}

func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		ch := id[i]
		isAlnum := ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
		if !isAlnum && ch != '-' && ch != '_' && ch != '.' {
			return false
		}
	}
	return true
}
