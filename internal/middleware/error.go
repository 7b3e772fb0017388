package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

// ErrorHandler logs errors handlers attached to the context and answers for
// handlers that recorded an error without writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			event := log.Warn()
			if httputil.StatusOf(e.Err) >= 500 {
				event = log.Error()
			}
			logError(event, c, e.Err)
		}

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, c.Errors.Last().Err)
	}
}

func logError(event *zerolog.Event, c *gin.Context, err error) {
	event.
		Err(err).
		Int("code", int(errors.CodeOf(err))).
		Str("request_id", c.GetString(ContextRequestID)).
		Str("path", c.Request.URL.Path).
		Str("method", c.Request.Method).
		Str("client_ip", c.ClientIP()).
		Msg("Request error")
}
