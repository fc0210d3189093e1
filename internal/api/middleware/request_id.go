package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imaker-dev/restro-backend-sub002/internal/collab"
	"github.com/imaker-dev/restro-backend-sub002/pkg/response"
)

const requestIDKey = response.RequestIDKey

// RequestID accepts a well-formed X-Request-ID from the caller or mints one. The id is echoed,
// logged, returned in the envelope and forwarded to the order and billing services.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Request = c.Request.WithContext(collab.WithRequestID(c.Request.Context(), rid))

		c.Next()
	}
}

// validRequestID 1..64 chars of [A-Za-z0-9._-]; anything else could forge log lines
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > 64 {
		return false
	}
	for i := 0; i < len(rid); i++ {
		ch := rid[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-', ch == '_', ch == '.':
		default:
			return false
		}
	}
	return true
}
