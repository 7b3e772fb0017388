package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/metrics"
)

// Metrics records request counts and latency by route template, so ids in
// paths do not explode label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		for _, e := range c.Errors {
			m.ErrorTotal.WithLabelValues(c.Request.Method, path, errorType(e.Err)).Inc()
		}
	}
}

func errorType(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrValidation:
		return "validation"
	case errors.ErrNotFound:
		return "not_found"
	case errors.ErrBadRequest:
		return "bad_request"
	case errors.ErrUnauthorized:
		return "unauthorized"
	case errors.ErrForbidden:
		return "forbidden"
	case errors.ErrConflict:
		return "conflict"
	case errors.ErrUnavailable:
		return "unavailable"
	case errors.ErrUpstream:
		return "upstream"
	case errors.ErrSchema:
		return "schema"
	default:
		return "internal"
	}
}
