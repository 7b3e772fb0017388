package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/pkg/httputil"
)

// SizeLimitConfig represents size limit configuration
type SizeLimitConfig struct {
	MaxBodySize   int64
	MaxHeaderSize int
	ErrorMessage  string
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   64 << 10,
		MaxHeaderSize: 16 << 10,
		ErrorMessage:  "Request size exceeds limit",
	}
}

// SizeLimit refuses oversized headers and declared bodies, and caps bodies
// that do not declare a length.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > config.MaxBodySize {
			tooLarge(c, fmt.Sprintf("%s: body size exceeds %d bytes", config.ErrorMessage, config.MaxBodySize))
			return
		}

		headerSize := 0
		for name, values := range c.Request.Header {
			headerSize += len(name)
			for _, value := range values {
				headerSize += len(value)
			}
		}
		if headerSize > config.MaxHeaderSize {
			tooLarge(c, fmt.Sprintf("%s: header size exceeds %d bytes", config.ErrorMessage, config.MaxHeaderSize))
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodySize)
		}
		c.Next()
	}
}

func tooLarge(c *gin.Context, msg string) {
	resp := httputil.NewErrorResponse(msg)
	resp.Code = http.StatusRequestEntityTooLarge
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp)
}
