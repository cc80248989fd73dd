package ratelimiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Minute)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "call %d", i+1)
	}
	assert.False(t, rl.Allow("10.0.0.1"), "fourth call in the window is rejected")
	assert.True(t, rl.Allow("10.0.0.2"), "other clients have their own window")

	now = now.Add(59 * time.Second)
	assert.False(t, rl.Allow("10.0.0.1"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"), "window resets after the interval")
}

func TestRateLimiter_SweepsExpiredWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	rl.Allow("b")
	assert.Len(t, rl.windows, 2)

	now = now.Add(2 * time.Minute)
	rl.Allow("c")
	assert.Len(t, rl.windows, 1)
}

func TestRateLimiter_Unlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow("x"))
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/swipe", Middleware(NewRateLimiter(2, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/swipe", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
