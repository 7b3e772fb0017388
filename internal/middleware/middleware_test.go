package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.POST("/", ok)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	r := newEngine(rl.RateLimit())

	from := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1:1000"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1:1001"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1:1002"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2:1000"), "other clients keep their own bucket")
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Header().Get(HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, strings.Repeat("x", 100))
	got := serve(r, req).Header().Get(HeaderXRequestID)
	assert.Len(t, got, 36)
}

func TestSizeLimit(t *testing.T) {
	cfg := DefaultSizeLimitConfig()
	cfg.MaxBodySize = 8
	r := newEngine(SizeLimit(cfg))

	w := serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "body size exceeds 8 bytes")

	w = serve(r, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Padding", strings.Repeat("p", cfg.MaxHeaderSize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)
}
