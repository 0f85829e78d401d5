package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier to and from clients.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key holding the request ID, so the
	// logger middleware can read it without parsing headers.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware tags every request with an identifier. An inbound
// X-Request-ID (from a load balancer or the frontend) is reused unchanged;
// otherwise a UUID is generated. The ID lands in the gin context and is
// echoed back in the response header so a client-reported failure can be
// matched to its server-side log line.
//
// Must run before the logger and metrics middleware; the chain in router.go
// takes care of that.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
