package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", Validation("bad phone"), http.StatusUnprocessableEntity},
		{"not found", NotFound("patient", nil), http.StatusNotFound},
		{"unavailable", Unavailable(fmt.Errorf("dial tcp")), http.StatusBadGateway},
		{"upstream keeps status", Upstream(http.StatusConflict, "already exists"), http.StatusConflict},
		{"upstream without status", Upstream(0, "boom"), http.StatusBadGateway},
		{"schema", Schema("bad shape", nil), http.StatusBadGateway},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"internal", Internal(fmt.Errorf("x")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestCodeOfWrapped(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("doctor", nil))

	assert.Equal(t, ErrNotFound, CodeOf(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrUnavailable))
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("plain")))
}

func TestUpstreamMessageIsVerbatim(t *testing.T) {
	err := Upstream(http.StatusBadRequest, "Receptionist with this number already exists.")

	assert.Equal(t, "Receptionist with this number already exists.", err.Error())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Failed to connect to server", UserMessage(Unavailable(fmt.Errorf("dial")), "x"))
	assert.Equal(t, "Failed to create appointment", UserMessage(fmt.Errorf("plain"), "Failed to create appointment"))
	assert.Equal(t, "fallback", UserMessage(Upstream(http.StatusBadRequest, ""), "fallback"))
}
