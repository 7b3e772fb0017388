package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    int         `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: StatusSuccess,
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  StatusError,
		Message: message,
	}
}

// StatusOf maps an error to the HTTP status it is answered with.
func StatusOf(err error) int {
	if appErr, ok := errors.As(err); ok {
		return appErr.StatusCode()
	}
	return http.StatusInternalServerError
}

// MessageOf is the text a user may see for err. Wrapped causes stay in the logs.
func MessageOf(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return "Internal server error"
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

// RespondWithMessage sends a success response carrying a message.
func RespondWithMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, &Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	})
}

// RespondWithError sends an error response and records the error on the
// context for the logging middleware.
func RespondWithError(c *gin.Context, err error) {
	RespondWithErrorData(c, err, nil)
}

// RespondWithErrorData is RespondWithError with a payload, used when the
// client still needs the current view after a failed action.
func RespondWithErrorData(c *gin.Context, err error, data interface{}) {
	_ = c.Error(err)

	resp := NewErrorResponse(MessageOf(err))
	resp.Code = int(errors.CodeOf(err))
	resp.Data = data
	c.AbortWithStatusJSON(StatusOf(err), resp)
}
