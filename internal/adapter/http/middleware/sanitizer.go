package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxBodyBytes bounds JSON request bodies. Every payload this API
// accepts is a handful of short fields.
const DefaultMaxBodyBytes int64 = 64 << 10

// MaxBodySize limits the request body size. Reads past the limit fail and
// binding reports the error as a validation failure.
func MaxBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
