package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	assert.True(t, rl.Allow("10.0.0.2"), "other clients have their own bucket")
	assert.Equal(t, 2, rl.size())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.idleTTL = time.Millisecond

	rl.Allow("10.0.0.1")
	time.Sleep(5 * time.Millisecond)
	rl.Cleanup()

	assert.Equal(t, 0, rl.size())
}

func newRouter(t *testing.T, cfg SecurityConfig) (*gin.Engine, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	router := gin.New()
	Setup(router, cfg, logger)
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return router, hook
}

func TestSetup_RateLimitReturns429(t *testing.T) {
	router, _ := newRouter(t, SecurityConfig{RateLimitPerSecond: 1, RateLimitBurst: 1})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestSetup_HeadersAndAccessLog(t *testing.T) {
	router, hook := newRouter(t, SecurityConfig{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "req-123", entry.Data["request_id"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestSetup_CORS(t *testing.T) {
	router, _ := newRouter(t, SecurityConfig{AllowedOrigins: []string{"https://app.example"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example")
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
}
