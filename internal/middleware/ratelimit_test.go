package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/generate", limiter.Handler(), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func post(r *gin.Engine, clientID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	if clientID != "" {
		req.Header.Set(ClientIDHeader, clientID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsOverBurst(t *testing.T) {
	limiter := NewRateLimiter(6, 2)
	frozen := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return frozen }
	r := newLimitedRouter(limiter)

	assert.Equal(t, http.StatusAccepted, post(r, "planner").Code)
	assert.Equal(t, http.StatusAccepted, post(r, "planner").Code)

	rejected := post(r, "planner")
	require.Equal(t, http.StatusTooManyRequests, rejected.Code)
	assert.Equal(t, "10", rejected.Header().Get("Retry-After"))
	assert.Contains(t, rejected.Body.String(), "TOO_MANY_REQUESTS")

	assert.Equal(t, http.StatusAccepted, post(r, "other-client").Code)

	frozen = frozen.Add(11 * time.Second)
	assert.Equal(t, http.StatusAccepted, post(r, "planner").Code)
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(60, 1)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.reserve("ip:10.0.0.1")
	now = now.Add(limiterIdleTTL + time.Second)
	limiter.reserve("ip:10.0.0.2")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.clients, 1)
	_, ok := limiter.clients["ip:10.0.0.2"]
	assert.True(t, ok)
}
