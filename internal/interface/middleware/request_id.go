package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware injects a request_id into the Gin context for every
// request. An inbound X-Request-ID from a trusted proxy is reused so log
// lines correlate across hops; otherwise a fresh uuid is minted. The id is
// echoed back in the response header and in the response envelope.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
